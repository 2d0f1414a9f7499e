package pattern

import (
	"math/rand"
	"testing"

	"github.com/etherdaw/etherdaw-go/diag"
	"github.com/etherdaw/etherdaw-go/score"
	"github.com/etherdaw/etherdaw-go/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	key, err := theory.ParseKey("C")
	require.NoError(t, err)
	return &Context{
		Key:       key,
		Tempo:     120,
		SkipMuted: true,
		Rand:      rand.New(rand.NewSource(1)),
		Diags:     &diag.Collector{},
	}
}

func TestExpandNotes(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindNotes, Notes: []string{"C4:q", "r:q", "E4:h", "|", "G4:8"}}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 3)
	assert.InDelta(t, 3.5, exp.TotalBeats, 1e-9)

	assert.Equal(t, "C4", exp.Notes[0].Pitch.String())
	assert.InDelta(t, 0.0, exp.Notes[0].StartBeat, 1e-9)

	// The rest consumed a beat but emitted nothing.
	assert.Equal(t, "E4", exp.Notes[1].Pitch.String())
	assert.InDelta(t, 2.0, exp.Notes[1].StartBeat, 1e-9)

	assert.Equal(t, "G4", exp.Notes[2].Pitch.String())
	assert.InDelta(t, 3.0, exp.Notes[2].StartBeat, 1e-9)
	assert.InDelta(t, DefaultVelocity, exp.Notes[2].Velocity, 1e-9)
	assert.Empty(t, ctx.Diags.All())
}

func TestExpandNotes_BadTokenWarnsAndSkips(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindNotes, Notes: []string{"C4:q", "garbage", "E4:q"}}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 2)
	assert.InDelta(t, 2.0, exp.TotalBeats, 1e-9)
	require.Len(t, ctx.Diags.All(), 1)
	assert.Equal(t, CodeBadToken, ctx.Diags.All()[0].Code)
}

func TestExpandNotes_StartsWithinTotal(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindNotes, Notes: []string{"C4:q", "D4:8", "E4:16", "F4:h."}}
	exp := Expand(p, ctx)
	for _, n := range exp.Notes {
		assert.GreaterOrEqual(t, n.StartBeat, 0.0)
		assert.Less(t, n.StartBeat, exp.TotalBeats)
	}
}

func TestExpandChords(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindChords, Chords: []string{"Am:h", "F:h"}}
	exp := Expand(p, ctx)

	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9)
	require.Len(t, exp.Notes, 6)

	// First chord's notes are simultaneous at beat 0.
	for _, n := range exp.Notes[:3] {
		assert.InDelta(t, 0.0, n.StartBeat, 1e-9)
		assert.InDelta(t, 2.0, n.DurationBeats, 1e-9)
	}
	// Second chord starts after the first.
	for _, n := range exp.Notes[3:] {
		assert.InDelta(t, 2.0, n.StartBeat, 1e-9)
	}
}

func TestExpandChords_UnknownVoicingWarns(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindChords, Chords: []string{"C@nonsense:w"}}
	exp := Expand(p, ctx)
	assert.Len(t, exp.Notes, 3)
	require.NotEmpty(t, ctx.Diags.All())
	assert.Equal(t, CodeUnknownVoicing, ctx.Diags.All()[0].Code)
}

func TestExpandDrums(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind: score.KindDrums,
		Steps: map[string]string{
			"kick":  "x---x---",
			"snare": "----x---",
		},
		StepDuration: 0.5,
	}
	exp := Expand(p, ctx)

	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9)
	require.Len(t, exp.Notes, 3)

	// Lines are expanded in sorted name order: kick then snare.
	assert.InDelta(t, 0.0, exp.Notes[0].StartBeat, 1e-9)
	assert.InDelta(t, 2.0, exp.Notes[1].StartBeat, 1e-9)
	assert.Equal(t, 36, exp.Notes[0].Pitch.MIDI()) // kick = C2
	assert.Equal(t, 38, exp.Notes[2].Pitch.MIDI()) // snare = D2
	assert.InDelta(t, 2.0, exp.Notes[2].StartBeat, 1e-9)
}

func TestExpandDrums_DefaultStepDuration(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindDrums, Steps: map[string]string{"hat": "x-x-"}}
	exp := Expand(p, ctx)
	assert.InDelta(t, 1.0, exp.TotalBeats, 1e-9)
}

func TestExpandArpeggio(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:         score.KindArpeggio,
		Chord:        "Am",
		StepCount:    6,
		NoteDuration: 0.5,
	}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 6)
	assert.InDelta(t, 3.0, exp.TotalBeats, 1e-9)
	// Tones cycle: A C E A C E.
	assert.Equal(t, exp.Notes[0].Pitch.MIDI(), exp.Notes[3].Pitch.MIDI())
	assert.InDelta(t, 2.5, exp.Notes[5].StartBeat, 1e-9)
}

func TestExpandArpeggio_MissingStepsWarns(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindArpeggio, Chord: "Am"}
	exp := Expand(p, ctx)

	assert.Empty(t, exp.Notes)
	assert.InDelta(t, 0.0, exp.TotalBeats, 1e-9)
	require.Len(t, ctx.Diags.All(), 1)
	assert.Equal(t, CodeArpeggioSteps, ctx.Diags.All()[0].Code)
}

func TestExpandArpeggio_Directions(t *testing.T) {
	up := Expand(&score.Pattern{Kind: score.KindArpeggio, Chord: "C", StepCount: 3, Direction: "up"}, testContext(t))
	down := Expand(&score.Pattern{Kind: score.KindArpeggio, Chord: "C", StepCount: 3, Direction: "down"}, testContext(t))
	assert.Equal(t, up.Notes[0].Pitch.MIDI(), down.Notes[2].Pitch.MIDI())
	assert.Equal(t, up.Notes[2].Pitch.MIDI(), down.Notes[0].Pitch.MIDI())
}

func TestExpandEuclidean(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:         score.KindEuclidean,
		Hits:         3,
		StepCount:    8,
		Note:         "C2",
		NoteDuration: 0.5,
	}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 3)
	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9)
	// Tresillo: hits on steps 0, 3, 6.
	assert.InDelta(t, 0.0, exp.Notes[0].StartBeat, 1e-9)
	assert.InDelta(t, 1.5, exp.Notes[1].StartBeat, 1e-9)
	assert.InDelta(t, 3.0, exp.Notes[2].StartBeat, 1e-9)
}

func TestExpandEuclidean_Rotation(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{Kind: score.KindEuclidean, Hits: 1, StepCount: 4, Rotation: 1, Note: "C2", NoteDuration: 1}
	exp := Expand(p, ctx)
	require.Len(t, exp.Notes, 1)
	assert.InDelta(t, 1.0, exp.Notes[0].StartBeat, 1e-9)
}

func TestExpandMarkov(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:         score.KindMarkov,
		States:       []string{"1", "2", "3", "4", "5"},
		Preset:       "melody_stepwise",
		StepCount:    16,
		NoteDuration: 0.5,
	}
	exp := Expand(p, ctx)

	assert.InDelta(t, 8.0, exp.TotalBeats, 1e-9)
	require.Len(t, exp.Notes, 16)
	for i, n := range exp.Notes {
		assert.InDelta(t, float64(i)*0.5, n.StartBeat, 1e-9)
	}
	assert.Empty(t, ctx.Diags.All())
}

func TestExpandMarkov_UnknownPresetWarnsNotFails(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:      score.KindMarkov,
		States:    []string{"1", "2", "3"},
		Preset:    "flimflam",
		StepCount: 8,
	}
	exp := Expand(p, ctx)

	assert.NotEmpty(t, exp.Notes)
	require.NotEmpty(t, ctx.Diags.All())
	assert.Equal(t, CodeUnknownPreset, ctx.Diags.All()[0].Code)
	assert.Equal(t, diag.LevelWarning, ctx.Diags.All()[0].Level)
}

func TestExpandMarkov_MalformedMatrixFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{"ragged wide row", [][]float64{{0, 0, 0, 1}, {1, 0}}},
		{"empty row", [][]float64{{0.5, 0.5}, {}}},
		{"row count mismatch", [][]float64{{0.5, 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			p := &score.Pattern{
				Kind:      score.KindMarkov,
				States:    []string{"1", "2"},
				Matrix:    tt.matrix,
				StepCount: 8,
			}
			exp := Expand(p, ctx)

			require.Len(t, exp.Notes, 8, "walk still runs on the preset matrix")
			require.NotEmpty(t, ctx.Diags.All())
			assert.Equal(t, CodeBadToken, ctx.Diags.All()[0].Code)
		})
	}
}

func TestExpandMarkov_RestState(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:       score.KindMarkov,
		States:     []string{"rest"},
		Preset:     "uniform",
		StepCount:  4,
		StartState: "rest",
	}
	exp := Expand(p, ctx)
	assert.Empty(t, exp.Notes)
	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9, "rests still consume time")
}

func TestExpandMarkov_Deterministic(t *testing.T) {
	p := &score.Pattern{Kind: score.KindMarkov, Preset: "walking_bass", States: []string{"1", "3", "5", "approach"}, StepCount: 12}
	a := Expand(p, testContext(t))
	b := Expand(p, testContext(t))
	require.Len(t, b.Notes, len(a.Notes))
	for i := range a.Notes {
		assert.Equal(t, a.Notes[i].Pitch, b.Notes[i].Pitch)
	}
}

func TestExpandTransform_Chain(t *testing.T) {
	ctx := testContext(t)
	ctx.Patterns = map[string]*score.Pattern{
		"motif": {Kind: score.KindNotes, Notes: []string{"C4:q", "D4:q", "E4:h"}},
	}
	p := &score.Pattern{
		Kind:   score.KindTransform,
		Source: "motif",
		Transforms: []score.TransformStep{
			{Type: "retrograde"},
			{Type: "transpose", Semitones: 12},
		},
	}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 3)
	assert.Equal(t, "E5", exp.Notes[0].Pitch.String())
	assert.InDelta(t, 2.0, exp.Notes[0].DurationBeats, 1e-9)
	assert.Equal(t, "C5", exp.Notes[2].Pitch.String())
	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9)
}

func TestExpandTransform_StretchRoundTrip(t *testing.T) {
	ctx := testContext(t)
	ctx.Patterns = map[string]*score.Pattern{
		"motif": {Kind: score.KindNotes, Notes: []string{"C4:q", "D4:8", "E4:q."}},
	}
	doubled := Expand(&score.Pattern{
		Kind: score.KindTransform, Source: "motif",
		Transforms: []score.TransformStep{{Type: "stretch", Factor: 2}},
	}, ctx)
	assert.InDelta(t, 6.0, doubled.TotalBeats, 1e-9)

	roundTrip := Expand(&score.Pattern{
		Kind: score.KindTransform, Source: "motif",
		Transforms: []score.TransformStep{{Type: "stretch", Factor: 2}, {Type: "stretch", Factor: 0.5}},
	}, ctx)
	assert.InDelta(t, 3.0, roundTrip.TotalBeats, 1e-9)
}

func TestExpandTransform_ExplicitVelocitySurvivesOverride(t *testing.T) {
	ctx := testContext(t)
	ctx.Velocity = 0.5
	p := &score.Pattern{
		Kind:       score.KindTransform,
		Notes:      []string{"C4:q@0.8", "D4:q"},
		Transforms: []score.TransformStep{{Type: "retrograde"}},
	}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 2)
	assert.Equal(t, "D4", exp.Notes[0].Pitch.String())
	assert.InDelta(t, 0.5, exp.Notes[0].Velocity, 1e-9, "unmarked note takes the track override")
	assert.InDelta(t, 0.8, exp.Notes[1].Velocity, 1e-9, "marked velocity equal to the default still wins")
}

func TestExpandTransform_MissingSourceWarns(t *testing.T) {
	ctx := testContext(t)
	ctx.Patterns = map[string]*score.Pattern{}
	exp := Expand(&score.Pattern{Kind: score.KindTransform, Source: "ghost"}, ctx)
	assert.Empty(t, exp.Notes)
	require.NotEmpty(t, ctx.Diags.All())
	assert.Equal(t, CodeUnknownPattern, ctx.Diags.All()[0].Code)
}

func TestExpandTransform_SelfReferenceBounded(t *testing.T) {
	ctx := testContext(t)
	loop := &score.Pattern{Kind: score.KindTransform, Source: "loop", Transforms: []score.TransformStep{{Type: "invert"}}}
	ctx.Patterns = map[string]*score.Pattern{"loop": loop}
	exp := Expand(loop, ctx)
	assert.Empty(t, exp.Notes)
	assert.NotEmpty(t, ctx.Diags.All())
}

func TestExpandVoiceLed(t *testing.T) {
	ctx := testContext(t)
	p := &score.Pattern{
		Kind:          score.KindVoiceLed,
		Progression:   []string{"C", "F", "G", "C"},
		ChordDuration: 2,
	}
	exp := Expand(p, ctx)

	assert.InDelta(t, 8.0, exp.TotalBeats, 1e-9)
	require.Len(t, exp.Notes, 12)

	// Adjacent chords move smoothly: no voice leaps beyond a tritone.
	for i := 3; i < 12; i++ {
		motion := exp.Notes[i].Pitch.MIDI() - exp.Notes[i-3].Pitch.MIDI()
		if motion < 0 {
			motion = -motion
		}
		assert.LessOrEqual(t, motion, 6, "note %d", i)
	}
}

func TestExpandContinuation(t *testing.T) {
	ctx := testContext(t)
	ctx.Patterns = map[string]*score.Pattern{
		"rise": {Kind: score.KindNotes, Notes: []string{"C4:q", "D4:q", "E4:q"}},
	}
	p := &score.Pattern{Kind: score.KindContinuation, Source: "rise", StepCount: 4, NoteDuration: 1}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 4)
	assert.InDelta(t, 4.0, exp.TotalBeats, 1e-9)
	// Rising source keeps rising through the C major scale: F G A B.
	assert.Equal(t, "F4", exp.Notes[0].Pitch.String())
	assert.Equal(t, "G4", exp.Notes[1].Pitch.String())

	// Deterministic: same inputs, same continuation.
	again := Expand(p, testContextWithPatterns(t, ctx.Patterns))
	for i := range exp.Notes {
		assert.Equal(t, exp.Notes[i].Pitch, again.Notes[i].Pitch)
	}
}

func testContextWithPatterns(t *testing.T, patterns map[string]*score.Pattern) *Context {
	ctx := testContext(t)
	ctx.Patterns = patterns
	return ctx
}

func TestExpand_UnknownKindWarns(t *testing.T) {
	ctx := testContext(t)
	exp := Expand(&score.Pattern{Kind: "wavetable"}, ctx)
	assert.Empty(t, exp.Notes)
	require.Len(t, ctx.Diags.All(), 1)
	assert.Equal(t, CodeUnknownKind, ctx.Diags.All()[0].Code)
}

func TestExpand_TrackOverrides(t *testing.T) {
	ctx := testContext(t)
	ctx.Transpose = 2
	ctx.Octave = 1
	ctx.Velocity = 0.5
	p := &score.Pattern{Kind: score.KindNotes, Notes: []string{"C4:q", "E4:q@0.9"}}
	exp := Expand(p, ctx)

	require.Len(t, exp.Notes, 2)
	assert.Equal(t, "D5", exp.Notes[0].Pitch.String())
	assert.InDelta(t, 0.5, exp.Notes[0].Velocity, 1e-9, "override fills unset velocity")
	assert.InDelta(t, 0.9, exp.Notes[1].Velocity, 1e-9, "explicit velocity wins")
}
