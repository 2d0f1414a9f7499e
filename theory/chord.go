package theory

import (
	"fmt"
	"sort"
)

// Chord quality interval tables, semitones above the root. Extended and
// altered qualities are table entries like any other so new qualities are a
// one-line addition.
var chordQualities = map[string][]int{
	"":      {0, 4, 7}, // bare root symbol = major triad
	"maj":   {0, 4, 7},
	"m":     {0, 3, 7},
	"min":   {0, 3, 7},
	"dim":   {0, 3, 6},
	"aug":   {0, 4, 8},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"5":     {0, 7},
	"6":     {0, 4, 7, 9},
	"m6":    {0, 3, 7, 9},
	"69":    {0, 4, 7, 9, 14},
	"7":     {0, 4, 7, 10},
	"7sus4": {0, 5, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"m7":    {0, 3, 7, 10},
	"m7b5":  {0, 3, 6, 10},
	"dim7":  {0, 3, 6, 9},
	"mMaj7": {0, 3, 7, 11},
	"9":     {0, 4, 7, 10, 14},
	"maj9":  {0, 4, 7, 11, 14},
	"m9":    {0, 3, 7, 10, 14},
	"11":    {0, 4, 7, 10, 14, 17},
	"m11":   {0, 3, 7, 10, 14, 17},
	"13":    {0, 4, 7, 10, 14, 21},
	"maj13": {0, 4, 7, 11, 14, 21},
	"7b9":   {0, 4, 7, 10, 13},
	"7#9":   {0, 4, 7, 10, 15},
	"7#11":  {0, 4, 7, 10, 18},
	"7b13":  {0, 4, 7, 10, 20},
	"7alt":  {0, 4, 10, 13, 15, 20},
	"add9":  {0, 4, 7, 14},
	"add11": {0, 4, 7, 17},
	"madd9": {0, 3, 7, 14},
}

// ChordQualityIntervals returns the interval stack for a quality symbol.
func ChordQualityIntervals(quality string) ([]int, error) {
	intervals, ok := chordQualities[quality]
	if !ok {
		return nil, fmt.Errorf("unknown chord quality: %q", quality)
	}
	out := make([]int, len(intervals))
	copy(out, intervals)
	return out, nil
}

// KnownQualities returns all quality symbols, longest first, for greedy
// matching in the chord token parser.
func KnownQualities() []string {
	out := make([]string, 0, len(chordQualities))
	for q := range chordQualities {
		if q != "" {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// BuildChord stacks a quality's intervals on a root pitch class at the given
// octave and returns the concrete pitch set, low to high.
func BuildChord(rootClass string, octave int, quality string) ([]Pitch, error) {
	if !ValidPitchClass(rootClass) {
		return nil, fmt.Errorf("invalid chord root: %q", rootClass)
	}
	intervals, err := ChordQualityIntervals(quality)
	if err != nil {
		return nil, err
	}
	root := Pitch{Class: rootClass, Octave: octave}
	pitches := make([]Pitch, 0, len(intervals))
	for _, interval := range intervals {
		pitches = append(pitches, root.Transpose(interval))
	}
	return pitches, nil
}
