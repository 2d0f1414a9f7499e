package theory

import (
	"fmt"
	"strings"
)

// Scale interval tables, semitones above the tonic within one octave.
var scales = map[string][]int{
	"major":           {0, 2, 4, 5, 7, 9, 11},
	"minor":           {0, 2, 3, 5, 7, 8, 10},
	"harmonic minor":  {0, 2, 3, 5, 7, 8, 11},
	"melodic minor":   {0, 2, 3, 5, 7, 9, 11},
	"dorian":          {0, 2, 3, 5, 7, 9, 10},
	"phrygian":        {0, 1, 3, 5, 7, 8, 10},
	"lydian":          {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":      {0, 2, 4, 5, 7, 9, 10},
	"locrian":         {0, 1, 3, 5, 6, 8, 10},
	"major pentatonic": {0, 2, 4, 7, 9},
	"minor pentatonic": {0, 3, 5, 7, 10},
	"blues":           {0, 3, 5, 6, 7, 10},
}

// Key is a tonic pitch class plus a mode.
type Key struct {
	Tonic string
	Mode  string
}

// ParseKey parses key strings like "C", "Am", "F# minor", "Eb lydian".
// A bare pitch class is major; a trailing "m" on the tonic is minor.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}
	if i := strings.IndexAny(s, " \t"); i > 0 {
		tonic := s[:i]
		mode := strings.ToLower(strings.TrimSpace(s[i:]))
		if !ValidPitchClass(tonic) {
			return Key{}, fmt.Errorf("invalid key tonic: %q", tonic)
		}
		if _, ok := scales[mode]; !ok {
			return Key{}, fmt.Errorf("unknown mode: %q", mode)
		}
		return Key{Tonic: tonic, Mode: mode}, nil
	}
	// Compact form: "Am", "F#m" minor, otherwise major.
	if strings.HasSuffix(s, "m") && len(s) > 1 && ValidPitchClass(strings.TrimSuffix(s, "m")) {
		return Key{Tonic: strings.TrimSuffix(s, "m"), Mode: "minor"}, nil
	}
	if !ValidPitchClass(s) {
		return Key{}, fmt.Errorf("invalid key: %q", s)
	}
	return Key{Tonic: s, Mode: "major"}, nil
}

// Scale returns the key's interval table.
func (k Key) Scale() []int {
	if intervals, ok := scales[k.Mode]; ok {
		return intervals
	}
	return scales["major"]
}

// Degree returns the pitch of a 1-based scale degree at the given octave.
// Degrees beyond the scale length wrap upward an octave per cycle.
func (k Key) Degree(degree, octave int) Pitch {
	intervals := k.Scale()
	n := len(intervals)
	idx := degree - 1
	octaveShift := 0
	for idx < 0 {
		idx += n
		octaveShift--
	}
	octaveShift += idx / n
	idx %= n
	tonic := Pitch{Class: k.Tonic, Octave: octave}
	return tonic.Transpose(intervals[idx] + 12*octaveShift)
}

// DegreeCount returns the number of degrees in the key's scale.
func (k Key) DegreeCount() int {
	return len(k.Scale())
}

func (k Key) String() string {
	if k.Mode == "major" {
		return k.Tonic
	}
	if k.Mode == "minor" {
		return k.Tonic + "m"
	}
	return k.Tonic + " " + k.Mode
}
