package theory

import "sort"

// Voicing transforms rearrange a close-voiced chord pitch set. Each function
// takes pitches ordered low to high and returns a new ordering/registration.
var voicings = map[string]func([]Pitch) []Pitch{
	"close":    voicingClose,
	"drop2":    voicingDrop2,
	"drop3":    voicingDrop3,
	"shell":    voicingShell,
	"rootless": voicingRootless,
	"quartal":  voicingQuartal,
	"spread":   voicingSpread,
	"gospel":   voicingGospel,
	"sowhat":   voicingSoWhat,
}

// ApplyVoicing rearranges a chord by a named voicing. The second return is
// false when the voicing name is unknown; the caller decides how to degrade.
func ApplyVoicing(name string, pitches []Pitch) ([]Pitch, bool) {
	fn, ok := voicings[name]
	if !ok {
		return pitches, false
	}
	if len(pitches) < 2 {
		return pitches, true
	}
	return sortByMIDI(fn(clonePitches(pitches))), true
}

// KnownVoicing reports whether name is a recognized voicing.
func KnownVoicing(name string) bool {
	_, ok := voicings[name]
	return ok
}

func voicingClose(p []Pitch) []Pitch { return p }

// drop2: second voice from the top dropped an octave.
func voicingDrop2(p []Pitch) []Pitch {
	if len(p) < 3 {
		return p
	}
	i := len(p) - 2
	p[i] = p[i].Transpose(-12)
	return p
}

// drop3: third voice from the top dropped an octave.
func voicingDrop3(p []Pitch) []Pitch {
	if len(p) < 4 {
		return p
	}
	i := len(p) - 3
	p[i] = p[i].Transpose(-12)
	return p
}

// shell: root, third, seventh only (guide tones). Falls back to root+third
// for triads.
func voicingShell(p []Pitch) []Pitch {
	if len(p) < 4 {
		if len(p) >= 2 {
			return []Pitch{p[0], p[1]}
		}
		return p
	}
	return []Pitch{p[0], p[1], p[3]}
}

// rootless: drop the root, leaving upper structure.
func voicingRootless(p []Pitch) []Pitch {
	if len(p) < 3 {
		return p
	}
	return p[1:]
}

// quartal: rebuild the chord as stacked perfect fourths from the root.
func voicingQuartal(p []Pitch) []Pitch {
	root := p[0]
	out := make([]Pitch, 0, len(p))
	for i := range p {
		out = append(out, root.Transpose(5*i))
	}
	return out
}

// spread: alternate upper voices raised an octave, widening the chord.
func voicingSpread(p []Pitch) []Pitch {
	for i := 1; i < len(p); i += 2 {
		p[i] = p[i].Transpose(12)
	}
	return p
}

// gospel: close voicing widened with an added ninth color tone.
func voicingGospel(p []Pitch) []Pitch {
	return append(p, p[0].Transpose(14))
}

// sowhat: three stacked fourths topped by a major third.
func voicingSoWhat(p []Pitch) []Pitch {
	root := p[0]
	return []Pitch{root, root.Transpose(5), root.Transpose(10), root.Transpose(15), root.Transpose(19)}
}

func clonePitches(p []Pitch) []Pitch {
	out := make([]Pitch, len(p))
	copy(out, p)
	return out
}

func sortByMIDI(p []Pitch) []Pitch {
	sort.Slice(p, func(i, j int) bool { return p[i].MIDI() < p[j].MIDI() })
	return p
}
