package gen

import (
	"math/rand"
)

// TransitionMatrix is a row-stochastic states x states matrix: row i holds
// the probability of moving from state i to each state.
type TransitionMatrix [][]float64

// Markov presets keyed by musical role. Each builder produces raw weights;
// NormalizeRows makes the result row-stochastic.
var markovPresets = map[string]func(states []string) TransitionMatrix{
	"uniform":          presetUniform,
	"neighbor_weighted": presetNeighborWeighted,
	"walking_bass":     presetWalkingBass,
	"melody_stepwise":  presetMelodyStepwise,
	"root_heavy":       presetRootHeavy,
}

// BuildMatrix builds a transition matrix from a named preset. The bool is
// false when the preset is unknown, in which case the uniform preset is used
// instead; callers surface that as a warning, never a failure.
func BuildMatrix(states []string, preset string) (TransitionMatrix, bool) {
	builder, ok := markovPresets[preset]
	if !ok {
		builder = presetUniform
	}
	return NormalizeRows(builder(states)), ok
}

// NormalizeRows scales every row to sum to 1. A row summing to zero falls
// back to a uniform distribution over that row.
func NormalizeRows(m TransitionMatrix) TransitionMatrix {
	for i, row := range m {
		sum := 0.0
		for _, w := range row {
			sum += w
		}
		if sum <= 0 {
			uniform := 1.0 / float64(len(row))
			for j := range row {
				row[j] = uniform
			}
			continue
		}
		for j := range row {
			m[i][j] = row[j] / sum
		}
	}
	return m
}

func emptyMatrix(n int) TransitionMatrix {
	m := make(TransitionMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// uniform: equal probability to every state.
func presetUniform(states []string) TransitionMatrix {
	m := emptyMatrix(len(states))
	for i := range m {
		for j := range m[i] {
			m[i][j] = 1
		}
	}
	return m
}

// neighbor_weighted: probability inversely proportional to index distance,
// assuming states are ordered by pitch/position.
func presetNeighborWeighted(states []string) TransitionMatrix {
	m := emptyMatrix(len(states))
	for i := range m {
		for j := range m[i] {
			m[i][j] = 1.0 / float64(1+abs(i-j))
		}
	}
	return m
}

// walking_bass: hand-tuned biases over the distinguished states "1" (root),
// "5", "approach" and "rest". Approach tones resolve mostly to root or fifth;
// the root has a mild preference for the fifth.
func presetWalkingBass(states []string) TransitionMatrix {
	m := presetNeighborWeighted(states)
	root := indexOf(states, "1")
	fifth := indexOf(states, "5")
	approach := indexOf(states, "approach")
	rest := indexOf(states, "rest")

	for i := range m {
		if approach >= 0 && i == approach {
			// Approach tones resolve.
			scaleRow(m[i], 0.2)
			if root >= 0 {
				m[i][root] = 3
			}
			if fifth >= 0 {
				m[i][fifth] = 1.5
			}
			continue
		}
		if root >= 0 && i == root && fifth >= 0 {
			m[i][fifth] *= 2
		}
		if rest >= 0 {
			m[i][rest] *= 0.3 // rests stay occasional
		}
		if approach >= 0 && root >= 0 && i != approach {
			m[i][approach] *= 1.2
		}
	}
	return m
}

// melody_stepwise: steps over leaps. Distance 1 is the strongest move,
// distance 2 a moderate skip, repetition is weak, larger leaps decay.
func presetMelodyStepwise(states []string) TransitionMatrix {
	m := emptyMatrix(len(states))
	for i := range m {
		for j := range m[i] {
			switch abs(i - j) {
			case 0:
				m[i][j] = 0.1
			case 1:
				m[i][j] = 1.0
			case 2:
				m[i][j] = 0.5
			default:
				m[i][j] = 1.0 / float64(abs(i-j))
			}
		}
	}
	return m
}

// root_heavy: strong pull back to the designated root state (the first
// state, or the one named "1") from everywhere.
func presetRootHeavy(states []string) TransitionMatrix {
	root := indexOf(states, "1")
	if root < 0 {
		root = 0
	}
	m := emptyMatrix(len(states))
	for i := range m {
		for j := range m[i] {
			if j == root {
				m[i][j] = 4
			} else {
				m[i][j] = 1.0 / float64(1+abs(i-j))
			}
		}
	}
	return m
}

// Walk runs the chain for steps transitions starting from startState
// (defaulting to the first state when empty or unknown) and returns the
// visited state indices, startState included.
func Walk(m TransitionMatrix, states []string, steps int, startState string, rng *rand.Rand) []int {
	if len(states) == 0 || steps <= 0 {
		return nil
	}
	current := indexOf(states, startState)
	if current < 0 {
		current = 0
	}
	sequence := make([]int, 0, steps)
	for i := 0; i < steps; i++ {
		sequence = append(sequence, current)
		current = sampleRow(m[current], rng)
	}
	return sequence
}

// sampleRow picks an index from a probability row by weighted random choice.
func sampleRow(row []float64, rng *rand.Rand) int {
	r := rng.Float64()
	acc := 0.0
	for i, p := range row {
		acc += p
		if r < acc {
			return i
		}
	}
	// Floating error can leave the cumulative sum a hair under 1.
	return len(row) - 1
}

func scaleRow(row []float64, factor float64) {
	for i := range row {
		row[i] *= factor
	}
}

func indexOf(states []string, s string) int {
	for i, state := range states {
		if state == s {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
