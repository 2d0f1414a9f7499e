package notation

import (
	"strings"

	"github.com/etherdaw/etherdaw-go/theory"
)

// Chord is one parsed chord token, e.g. "Am7:h", "Cmaj9@drop2/G:w@mf".
type Chord struct {
	RootClass     string
	Quality       string
	Voicing       string // "close" when unspecified
	Bass          string // slash-chord bass pitch class, empty when absent
	DurationBeats float64
	Velocity      float64
	HasVelocity   bool
	Probability   float64
}

// Quality symbols longest-first, computed once for greedy matching.
var qualitySymbols = theory.KnownQualities()

// ParseChord parses one chord token:
//
//	<root><quality><extensions?>[@voicing][/bass]:<dur>[@velocity][?prob]
func ParseChord(token string) (*Chord, error) {
	body := strings.TrimSpace(token)
	head, tail, found := strings.Cut(body, ":")
	if !found {
		return nil, parseErrorf(token, "missing duration separator")
	}

	chord := &Chord{Voicing: "close", Probability: 1}

	// Slash bass comes last in the head: "Em7/G".
	if i := strings.LastIndexByte(head, '/'); i >= 0 {
		bass := head[i+1:]
		if !theory.ValidPitchClass(bass) {
			return nil, parseErrorf(token, "invalid slash bass: %q", bass)
		}
		chord.Bass = bass
		head = head[:i]
	}

	// Named voicing: "Cmaj7@drop2".
	if i := strings.IndexByte(head, '@'); i >= 0 {
		chord.Voicing = head[i+1:]
		head = head[:i]
	}

	if head == "" {
		return nil, parseErrorf(token, "missing chord root")
	}
	rootLen := 1
	if len(head) > 1 && (head[1] == '#' || head[1] == 'b') {
		rootLen = 2
	}
	chord.RootClass = head[:rootLen]
	if !theory.ValidPitchClass(chord.RootClass) {
		return nil, parseErrorf(token, "invalid chord root: %q", chord.RootClass)
	}

	quality := head[rootLen:]
	if !matchQuality(quality) {
		return nil, parseErrorf(token, "unknown chord quality: %q", quality)
	}
	chord.Quality = quality

	// Duration tail uses the same suffix grammar as note tokens.
	probe := &Note{Probability: 1}
	tail = parseSuffixes(probe, token, tail)
	if err := parseDuration(probe, token, tail); err != nil {
		return nil, err
	}
	chord.DurationBeats = probe.DurationBeats
	chord.Velocity = probe.Velocity
	chord.HasVelocity = probe.HasVelocity
	chord.Probability = probe.Probability

	return chord, nil
}

func matchQuality(q string) bool {
	if q == "" {
		return true
	}
	for _, symbol := range qualitySymbols {
		if q == symbol {
			return true
		}
	}
	return false
}

// Pitches resolves the chord to concrete pitches at the given octave,
// applying the voicing and slash bass. The bool is false when the voicing
// name was unknown and close voicing was used instead.
func (c *Chord) Pitches(octave int) ([]theory.Pitch, bool, error) {
	pitches, err := theory.BuildChord(c.RootClass, octave, c.Quality)
	if err != nil {
		return nil, false, err
	}
	voiced, known := theory.ApplyVoicing(c.Voicing, pitches)
	if !known {
		voiced = pitches
	}
	if c.Bass != "" {
		// Slash bass sits one octave below the chord root.
		bass := theory.Pitch{Class: c.Bass, Octave: octave - 1}
		voiced = append([]theory.Pitch{bass}, voiced...)
	}
	return voiced, known, nil
}
