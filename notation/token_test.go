package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		pitch    string
		beats    float64
		rest     bool
		artic    string
		velocity float64
		hasVel   bool
		prob     float64
	}{
		{name: "quarter note", token: "C4:q", pitch: "C4", beats: 1, prob: 1},
		{name: "dotted half", token: "A3:h.", pitch: "A3", beats: 3, prob: 1},
		{name: "sixteenth", token: "F#2:16", pitch: "F#2", beats: 0.25, prob: 1},
		{name: "thirty-second", token: "G5:32", pitch: "G5", beats: 0.125, prob: 1},
		{name: "rest", token: "r:8", rest: true, beats: 0.5, prob: 1},
		{name: "long rest spelling", token: "rest:w", rest: true, beats: 4, prob: 1},
		{name: "accent", token: "C4:q>", pitch: "C4", beats: 1, artic: ArticAccent, prob: 1},
		{name: "staccato dotted eighth", token: "D4:8.'", pitch: "D4", beats: 0.75, artic: ArticStaccato, prob: 1},
		{name: "explicit velocity", token: "E4:q@0.8", pitch: "E4", beats: 1, velocity: 0.8, hasVel: true, prob: 1},
		{name: "dynamic marker", token: "E4:h@mf", pitch: "E4", beats: 2, velocity: 0.7, hasVel: true, prob: 1},
		{name: "probability", token: "G4:8?0.5", pitch: "G4", beats: 0.5, prob: 0.5},
		{name: "velocity and probability", token: "G4:8@f?0.25", pitch: "G4", beats: 0.5, velocity: 0.85, hasVel: true, prob: 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := ParseNote(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.rest, note.Rest)
			if !tt.rest {
				assert.Equal(t, tt.pitch, note.Pitch.String())
			}
			assert.InDelta(t, tt.beats, note.DurationBeats, 1e-9)
			assert.Equal(t, tt.artic, note.Articulation)
			assert.Equal(t, tt.hasVel, note.HasVelocity)
			if tt.hasVel {
				assert.InDelta(t, tt.velocity, note.Velocity, 1e-9)
			}
			assert.InDelta(t, tt.prob, note.Probability, 1e-9)
		})
	}
}

func TestParseNote_TimingOffset(t *testing.T) {
	note, err := ParseNote("C4:q+0.05")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, note.OffsetBeats, 1e-9)

	note, err = ParseNote("C4:16-0.02")
	require.NoError(t, err)
	assert.InDelta(t, -0.02, note.OffsetBeats, 1e-9)
	assert.InDelta(t, 0.25, note.DurationBeats, 1e-9)
}

func TestParseNote_Trill(t *testing.T) {
	note, err := ParseNote("B4:q.tr")
	require.NoError(t, err)
	assert.Equal(t, OrnamentTrill, note.Ornament)
	assert.InDelta(t, 1.5, note.DurationBeats, 1e-9)
}

func TestParseNote_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"no duration separator", "C4"},
		{"unknown duration code", "C4:z"},
		{"malformed pitch", "H4:q"},
		{"missing duration", "C4:"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNote(tt.token)
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestIsBarSeparator(t *testing.T) {
	assert.True(t, IsBarSeparator("|"))
	assert.True(t, IsBarSeparator(" | "))
	assert.False(t, IsBarSeparator("C4:q"))
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		root     string
		quality  string
		voicing  string
		bass     string
		beats    float64
	}{
		{name: "plain major", token: "C:w", root: "C", quality: "", voicing: "close", beats: 4},
		{name: "minor seventh", token: "Am7:h", root: "A", quality: "m7", voicing: "close", beats: 2},
		{name: "dotted minor", token: "Am:h.", root: "A", quality: "m", voicing: "close", beats: 3},
		{name: "extended", token: "Cmaj9:w", root: "C", quality: "maj9", voicing: "close", beats: 4},
		{name: "altered dominant", token: "G7alt:h", root: "G", quality: "7alt", voicing: "close", beats: 2},
		{name: "voicing", token: "Cmaj7@drop2:w", root: "C", quality: "maj7", voicing: "drop2", beats: 4},
		{name: "slash bass", token: "Em7/G:h", root: "E", quality: "m7", voicing: "close", bass: "G", beats: 2},
		{name: "voicing and bass", token: "Fmaj7@shell/A:w", root: "F", quality: "maj7", voicing: "shell", bass: "A", beats: 4},
		{name: "flat root", token: "Bbm7b5:q", root: "Bb", quality: "m7b5", voicing: "close", beats: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chord, err := ParseChord(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.root, chord.RootClass)
			assert.Equal(t, tt.quality, chord.Quality)
			assert.Equal(t, tt.voicing, chord.Voicing)
			assert.Equal(t, tt.bass, chord.Bass)
			assert.InDelta(t, tt.beats, chord.DurationBeats, 1e-9)
		})
	}
}

func TestParseChord_Errors(t *testing.T) {
	for _, token := range []string{"Cxyz:w", "C", "Qmaj7:w", "Am7/H:h", ":w"} {
		_, err := ParseChord(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestChordPitches(t *testing.T) {
	chord, err := ParseChord("Em7/G:h")
	require.NoError(t, err)
	pitches, voicingKnown, err := chord.Pitches(4)
	require.NoError(t, err)
	assert.True(t, voicingKnown)

	// Bass G3 prepended, then E4 G4 B4 D5.
	assert.Equal(t, "G3", pitches[0].String())
	assert.Equal(t, "E4", pitches[1].String())
	assert.Len(t, pitches, 5)
}

func TestChordPitches_UnknownVoicing(t *testing.T) {
	chord, err := ParseChord("C@mystery:w")
	require.NoError(t, err)
	pitches, voicingKnown, err := chord.Pitches(4)
	require.NoError(t, err)
	assert.False(t, voicingKnown)
	assert.Len(t, pitches, 3) // falls back to close voicing
}

func TestParseDrumGrid(t *testing.T) {
	steps := ParseDrumGrid("x-X-o---")
	require.Len(t, steps, 8)
	assert.True(t, steps[0].Hit)
	assert.InDelta(t, 0.9, steps[0].Velocity, 1e-9)
	assert.False(t, steps[1].Hit)
	assert.InDelta(t, 1.0, steps[2].Velocity, 1e-9)
	assert.InDelta(t, 0.5, steps[4].Velocity, 1e-9)
	assert.Equal(t, 3, CountHits("x-X-o---"))
}
