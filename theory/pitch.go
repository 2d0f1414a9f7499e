package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// Semitone offset from C for each pitch class spelling.
var pitchClassOffsets = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B":  11,
}

// Preferred spelling when converting a semitone back to a pitch class.
var semitoneNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// Pitch is a concrete pitch: a pitch class spelling plus an octave.
// Middle C is C4 (MIDI 60).
type Pitch struct {
	Class  string `json:"class" yaml:"class"`
	Octave int    `json:"octave" yaml:"octave"`
}

// ParsePitch parses strings like "C4", "F#3", "Bb-1".
func ParsePitch(s string) (Pitch, error) {
	if len(s) < 2 {
		return Pitch{}, fmt.Errorf("invalid pitch: %q", s)
	}
	classLen := 1
	if s[1] == '#' || s[1] == 'b' {
		classLen = 2
	}
	if len(s) <= classLen {
		return Pitch{}, fmt.Errorf("pitch %q missing octave", s)
	}
	class := strings.ToUpper(s[:1]) + s[1:classLen]
	if _, ok := pitchClassOffsets[class]; !ok {
		return Pitch{}, fmt.Errorf("invalid pitch class: %q", class)
	}
	octave, err := strconv.Atoi(s[classLen:])
	if err != nil {
		return Pitch{}, fmt.Errorf("invalid octave in pitch %q: %w", s, err)
	}
	return Pitch{Class: class, Octave: octave}, nil
}

// ValidPitchClass reports whether s names a pitch class (e.g. "C", "F#", "Bb").
func ValidPitchClass(s string) bool {
	_, ok := pitchClassOffsets[s]
	return ok
}

// MIDI returns the MIDI note number (C4 = 60).
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + pitchClassOffsets[p.Class]
}

// PitchFromMIDI converts a MIDI note number back to a Pitch using sharp-free
// preferred spellings.
func PitchFromMIDI(midi int) Pitch {
	octave := midi/12 - 1
	return Pitch{Class: semitoneNames[((midi%12)+12)%12], Octave: octave}
}

// Transpose shifts the pitch by a number of semitones.
func (p Pitch) Transpose(semitones int) Pitch {
	if semitones == 0 {
		return p
	}
	return PitchFromMIDI(p.MIDI() + semitones)
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class, p.Octave)
}
