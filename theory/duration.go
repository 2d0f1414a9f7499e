package theory

import (
	"fmt"
	"math"
)

// Duration codes map to lengths in beats (quarter note = 1 beat).
var durationBeats = map[string]float64{
	"w":  4,
	"h":  2,
	"q":  1,
	"8":  0.5,
	"16": 0.25,
	"32": 0.125,
}

// durationCodes ordered longest first, used when snapping stretched durations.
var durationCodes = []string{"w", "h", "q", "8", "16", "32"}

// Dynamics markers map to velocity (0..1).
var dynamicVelocities = map[string]float64{
	"pp": 0.3,
	"p":  0.45,
	"mp": 0.55,
	"mf": 0.7,
	"f":  0.85,
	"ff": 1.0,
}

// DurationBeats resolves a duration code plus dot flag into beats.
// A dot multiplies the base length by 1.5.
func DurationBeats(code string, dotted bool) (float64, error) {
	beats, ok := durationBeats[code]
	if !ok {
		return 0, fmt.Errorf("unknown duration code: %q", code)
	}
	if dotted {
		beats *= 1.5
	}
	return beats, nil
}

// ValidDurationCode reports whether code is a known duration code.
func ValidDurationCode(code string) bool {
	_, ok := durationBeats[code]
	return ok
}

// SnapDuration snaps an arbitrary beat length to the nearest standard
// duration, trying dotted variants too, and returns the snapped length.
// Used after augment/stretch transforms so scaled patterns stay notatable.
func SnapDuration(beats float64) float64 {
	best := beats
	bestDiff := math.Inf(1)
	for _, code := range durationCodes {
		base := durationBeats[code]
		for _, candidate := range [2]float64{base, base * 1.5} {
			diff := math.Abs(beats - candidate)
			if diff < bestDiff {
				bestDiff = diff
				best = candidate
			}
		}
	}
	return best
}

// DynamicVelocity resolves a dynamics marker (pp..ff) to a velocity.
func DynamicVelocity(marker string) (float64, bool) {
	v, ok := dynamicVelocities[marker]
	return v, ok
}
