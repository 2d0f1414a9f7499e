// Package score defines the declarative score document: settings, named
// patterns, sections built from tracks, and the arrangement order.
package score

import "fmt"

// Pattern kinds. Pattern is a tagged variant: Kind selects which of the
// kind-specific fields are meaningful, and the expander matches exhaustively.
const (
	KindNotes        = "notes"
	KindChords       = "chords"
	KindDrums        = "drums"
	KindArpeggio     = "arpeggio"
	KindMarkov       = "markov"
	KindEuclidean    = "euclidean"
	KindTransform    = "transform"
	KindVoiceLed     = "voicelead"
	KindContinuation = "continuation"
)

// Settings are the global playback settings of a score.
type Settings struct {
	Tempo         float64 `json:"tempo" yaml:"tempo"`
	Key           string  `json:"key" yaml:"key"`
	TimeSignature string  `json:"timeSignature" yaml:"timeSignature"`
	Swing         float64 `json:"swing" yaml:"swing"`
}

// TransformStep is one named transformation applied by a transform pattern.
type TransformStep struct {
	Type      string  `json:"type" yaml:"type"`
	Factor    float64 `json:"factor" yaml:"factor"`       // stretch
	Semitones int     `json:"semitones" yaml:"semitones"` // transpose
	Octaves   int     `json:"octaves" yaml:"octaves"`     // octave shift
	Curve     string  `json:"curve" yaml:"curve"`         // velocity curve name
}

// Pattern is a named, reusable musical figure. Patterns are immutable once
// defined and referenced by name, never copied implicitly.
type Pattern struct {
	Kind string `json:"type" yaml:"type"`

	// notes / chords
	Notes  []string `json:"notes" yaml:"notes"`
	Chords []string `json:"chords" yaml:"chords"`

	// drums: named line -> fixed-length step string
	Steps        map[string]string `json:"steps" yaml:"steps"`
	StepDuration float64           `json:"stepDuration" yaml:"stepDuration"`

	// arpeggio / markov / euclidean / continuation
	Chord        string     `json:"chord" yaml:"chord"`
	Note         string     `json:"note" yaml:"note"`
	StepCount    int        `json:"stepCount" yaml:"stepCount"`
	NoteDuration float64    `json:"noteDuration" yaml:"noteDuration"`
	Direction    string     `json:"direction" yaml:"direction"`
	Octave       int        `json:"octave" yaml:"octave"`
	States       []string   `json:"states" yaml:"states"`
	Preset       string     `json:"preset" yaml:"preset"`
	Matrix       [][]float64 `json:"matrix" yaml:"matrix"`
	StartState   string     `json:"startState" yaml:"startState"`
	Hits         int        `json:"hits" yaml:"hits"`
	Rotation     int        `json:"rotation" yaml:"rotation"`

	// transform / continuation
	Source     string          `json:"source" yaml:"source"`
	Transforms []TransformStep `json:"transforms" yaml:"transforms"`

	// voicelead
	Progression   []string `json:"progression" yaml:"progression"`
	ChordDuration float64  `json:"chordDuration" yaml:"chordDuration"`
}

// Track binds one or more patterns to an instrument within a section.
type Track struct {
	Pattern   string   `json:"pattern" yaml:"pattern"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Repeat    int      `json:"repeat" yaml:"repeat"`
	Mute      bool     `json:"mute" yaml:"mute"`
	Transpose int      `json:"transpose" yaml:"transpose"`
	Octave    int      `json:"octave" yaml:"octave"`
	Velocity  float64  `json:"velocity" yaml:"velocity"`
	Humanize  float64  `json:"humanize" yaml:"humanize"`
}

// PatternNames returns the ordered pattern references of the track; a single
// pattern name is equivalent to a one-element list.
func (t *Track) PatternNames() []string {
	if len(t.Patterns) > 0 {
		return t.Patterns
	}
	if t.Pattern != "" {
		return []string{t.Pattern}
	}
	return nil
}

// Section is a group of tracks playing together for a number of bars.
type Section struct {
	Bars   int               `json:"bars" yaml:"bars"`
	Tempo  float64           `json:"tempo" yaml:"tempo"` // 0 = inherit
	Key    string            `json:"key" yaml:"key"`     // "" = inherit
	Tracks map[string]*Track `json:"tracks" yaml:"tracks"`
}

// Score is the top-level document.
type Score struct {
	Settings    Settings            `json:"settings" yaml:"settings"`
	Patterns    map[string]*Pattern `json:"patterns" yaml:"patterns"`
	Sections    map[string]*Section `json:"sections" yaml:"sections"`
	Arrangement []string            `json:"arrangement" yaml:"arrangement"`
	Instruments map[string]any      `json:"instruments" yaml:"instruments"`
}

// BeatsPerBar derives the bar length in beats from the time signature.
// "6/8" means six eighth-note beats, i.e. 3 quarter-note beats.
func (s *Settings) BeatsPerBar() float64 {
	num, denom := 4, 4
	if s.TimeSignature != "" {
		if _, err := fmt.Sscanf(s.TimeSignature, "%d/%d", &num, &denom); err != nil {
			num, denom = 4, 4
		}
	}
	if num <= 0 || denom <= 0 {
		return 4
	}
	return float64(num) * 4 / float64(denom)
}
