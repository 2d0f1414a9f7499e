package gen

import (
	"fmt"

	"github.com/etherdaw/etherdaw-go/theory"
)

// Note is the common note representation the transforms operate on. Rests
// participate in timing but are excluded from pitch/velocity interpolation.
type Note struct {
	Rest          bool
	Pitch         theory.Pitch
	DurationBeats float64
	Velocity      float64
	HasVelocity   bool // velocity was set explicitly, not defaulted
}

func cloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}

// Invert mirrors every interval around the first sounding pitch.
func Invert(notes []Note) []Note {
	out := cloneNotes(notes)
	var axis int
	found := false
	for _, n := range out {
		if !n.Rest {
			axis = n.Pitch.MIDI()
			found = true
			break
		}
	}
	if !found {
		return out
	}
	for i, n := range out {
		if n.Rest {
			continue
		}
		out[i].Pitch = theory.PitchFromMIDI(2*axis - n.Pitch.MIDI())
	}
	return out
}

// Retrograde reverses the order of notes. Durations stay attached to their
// original pitches.
func Retrograde(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[len(notes)-1-i] = n
	}
	return out
}

// Stretch scales every duration by factor, then snaps each result to the
// nearest standard duration (dotted variants included) so the output stays
// on the duration-code grid. Stretch by 2 then 0.5 round-trips.
func Stretch(notes []Note, factor float64) []Note {
	out := cloneNotes(notes)
	for i := range out {
		out[i].DurationBeats = theory.SnapDuration(out[i].DurationBeats * factor)
	}
	return out
}

// Transpose shifts every sounding pitch by semitones.
func Transpose(notes []Note, semitones int) []Note {
	out := cloneNotes(notes)
	for i := range out {
		if !out[i].Rest {
			out[i].Pitch = out[i].Pitch.Transpose(semitones)
		}
	}
	return out
}

// OctaveShift moves every sounding pitch by whole octaves.
func OctaveShift(notes []Note, octaves int) []Note {
	return Transpose(notes, 12*octaves)
}

// Velocity curve names.
const (
	CurveCrescendo   = "crescendo"
	CurveDiminuendo  = "diminuendo"
	CurveSwell       = "swell"
)

// ApplyVelocityCurve interpolates velocities across the melodic note index.
// Rests are skipped and do not advance the interpolation index. Crescendo
// rises from the first note's velocity floor to 1.0, diminuendo falls, swell
// rises to the midpoint then falls symmetrically.
func ApplyVelocityCurve(notes []Note, curve string, low, high float64) ([]Note, error) {
	out := cloneNotes(notes)
	sounding := 0
	for _, n := range out {
		if !n.Rest {
			sounding++
		}
	}
	if sounding < 2 {
		return out, nil
	}

	idx := 0
	for i := range out {
		if out[i].Rest {
			continue
		}
		t := float64(idx) / float64(sounding-1)
		var v float64
		switch curve {
		case CurveCrescendo:
			v = low + (high-low)*t
		case CurveDiminuendo:
			v = high - (high-low)*t
		case CurveSwell:
			// Symmetric rise and fall around the midpoint.
			if t <= 0.5 {
				v = low + (high-low)*(t*2)
			} else {
				v = high - (high-low)*((t-0.5)*2)
			}
		default:
			return nil, fmt.Errorf("unknown velocity curve: %q", curve)
		}
		out[i].Velocity = clampUnit(v)
		out[i].HasVelocity = true
		idx++
	}
	return out, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
