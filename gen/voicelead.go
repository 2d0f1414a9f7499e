package gen

import (
	"fmt"
	"sort"

	"github.com/etherdaw/etherdaw-go/theory"
)

// Issue severities produced by voice-leading validation.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Issue is one voice-leading problem found between two adjacent chords.
// Validation never hard-fails; callers decide whether to reject.
type Issue struct {
	Severity string
	Index    int // index of the second chord of the offending pair
	Message  string
}

// VoiceLead assigns concrete pitches to a chord progression so that total
// melodic motion between adjacent chords is minimized. The first chord is
// taken as given; each following chord re-voices every voice to its nearest
// pitch-class match in the new chord tone set.
func VoiceLead(progression [][]theory.Pitch) [][]theory.Pitch {
	if len(progression) == 0 {
		return nil
	}
	out := make([][]theory.Pitch, len(progression))
	out[0] = append([]theory.Pitch{}, progression[0]...)

	for i := 1; i < len(progression); i++ {
		prev := out[i-1]
		target := progression[i]
		voiced := make([]theory.Pitch, 0, len(target))
		used := make(map[int]bool, len(target))

		// Move each existing voice to its nearest unused chord tone class.
		for _, voice := range prev {
			best, bestIdx, found := nearestChordTone(voice, target, used)
			if !found {
				continue
			}
			used[bestIdx] = true
			voiced = append(voiced, best)
		}
		// Chord tones no voice claimed keep their original register.
		for j, p := range target {
			if !used[j] && len(voiced) < len(target) {
				voiced = append(voiced, p)
			}
		}
		out[i] = sortByMIDIOrder(voiced)
	}
	return out
}

// nearestChordTone finds the pitch with the smallest absolute motion from
// voice among the unused tones of target, matched by pitch class.
func nearestChordTone(voice theory.Pitch, target []theory.Pitch, used map[int]bool) (theory.Pitch, int, bool) {
	bestDist := 128
	var best theory.Pitch
	bestIdx := -1
	for j, tone := range target {
		if used[j] {
			continue
		}
		candidate := nearestOctaveOf(tone, voice)
		dist := abs(candidate.MIDI() - voice.MIDI())
		if dist < bestDist {
			bestDist = dist
			best = candidate
			bestIdx = j
		}
	}
	return best, bestIdx, bestIdx >= 0
}

// nearestOctaveOf re-registers tone's pitch class as close as possible to ref.
func nearestOctaveOf(tone, ref theory.Pitch) theory.Pitch {
	toneMIDI := tone.MIDI()
	refMIDI := ref.MIDI()
	for toneMIDI-refMIDI > 6 {
		toneMIDI -= 12
	}
	for refMIDI-toneMIDI > 6 {
		toneMIDI += 12
	}
	return theory.PitchFromMIDI(toneMIDI)
}

// ValidateVoiceLeading flags parallel perfect fifths and octaves between any
// two voice pairs across adjacent chords: both voices moving in the same
// direction while the pair's interval class stays a perfect fifth or octave.
func ValidateVoiceLeading(progression [][]theory.Pitch) []Issue {
	var issues []Issue
	for i := 1; i < len(progression); i++ {
		prev, curr := progression[i-1], progression[i]
		voices := len(prev)
		if len(curr) < voices {
			voices = len(curr)
		}
		for a := 0; a < voices; a++ {
			for b := a + 1; b < voices; b++ {
				prevInterval := intervalClass(prev[a], prev[b])
				currInterval := intervalClass(curr[a], curr[b])
				if !perfectInterval(prevInterval) || prevInterval != currInterval {
					continue
				}
				motionA := curr[a].MIDI() - prev[a].MIDI()
				motionB := curr[b].MIDI() - prev[b].MIDI()
				if motionA == 0 || motionB == 0 {
					continue
				}
				if (motionA > 0) == (motionB > 0) {
					issues = append(issues, Issue{
						Severity: SeverityWarning,
						Index:    i,
						Message: fmt.Sprintf("parallel %s between voices %d and %d into chord %d",
							intervalName(prevInterval), a, b, i),
					})
				}
			}
		}
	}
	return issues
}

func intervalClass(a, b theory.Pitch) int {
	d := abs(a.MIDI()-b.MIDI()) % 12
	return d
}

func perfectInterval(class int) bool {
	return class == 7 || class == 0
}

func intervalName(class int) string {
	if class == 7 {
		return "fifth"
	}
	return "octave"
}

func sortByMIDIOrder(p []theory.Pitch) []theory.Pitch {
	sort.Slice(p, func(i, j int) bool { return p[i].MIDI() < p[j].MIDI() })
	return p
}
