package notation

// Drum grid step characters, following the usual step-sequencer convention:
// 'x' hit, 'X' accent, 'o' ghost note, '-' or '.' rest.
var stepVelocities = map[byte]float64{
	'x': 0.9,
	'X': 1.0,
	'o': 0.5,
}

// DrumStep is one slot of a drum grid string.
type DrumStep struct {
	Hit      bool
	Velocity float64
}

// ParseDrumGrid parses a step string like "x---X---o-o-x---". Unknown
// characters are treated as rests so sloppy grids degrade instead of failing.
func ParseDrumGrid(grid string) []DrumStep {
	steps := make([]DrumStep, 0, len(grid))
	for i := 0; i < len(grid); i++ {
		if v, ok := stepVelocities[grid[i]]; ok {
			steps = append(steps, DrumStep{Hit: true, Velocity: v})
		} else {
			steps = append(steps, DrumStep{})
		}
	}
	return steps
}

// CountHits returns the number of hits in a grid string.
func CountHits(grid string) int {
	count := 0
	for i := 0; i < len(grid); i++ {
		if _, ok := stepVelocities[grid[i]]; ok {
			count++
		}
	}
	return count
}
