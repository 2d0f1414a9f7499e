// Package gen holds the generative subsystems behind pattern expansion:
// Euclidean rhythms, Markov chains, pattern transformations and voice leading.
package gen

// Euclidean distributes hits as evenly as possible across steps using
// Bjorklund's algorithm. Degenerate cases: hits <= 0 yields all rests,
// hits >= steps yields all hits. Pure and deterministic: the same inputs
// always produce the same pattern.
func Euclidean(hits, steps int) []bool {
	if steps <= 0 {
		return nil
	}
	pattern := make([]bool, steps)
	if hits <= 0 {
		return pattern
	}
	if hits >= steps {
		for i := range pattern {
			pattern[i] = true
		}
		return pattern
	}

	// Bjorklund: repeatedly fold the remainder groups into the hit groups
	// until one side is exhausted, then flatten.
	groups := make([][]bool, 0, steps)
	for i := 0; i < hits; i++ {
		groups = append(groups, []bool{true})
	}
	remainder := make([][]bool, 0, steps-hits)
	for i := 0; i < steps-hits; i++ {
		remainder = append(remainder, []bool{false})
	}

	for len(remainder) > 1 {
		pairs := len(groups)
		if len(remainder) < pairs {
			pairs = len(remainder)
		}
		next := make([][]bool, 0, pairs)
		for i := 0; i < pairs; i++ {
			next = append(next, append(append([]bool{}, groups[i]...), remainder[i]...))
		}
		leftoverGroups := groups[pairs:]
		remainder = append(leftoverGroups, remainder[pairs:]...)
		groups = next
	}

	flat := make([]bool, 0, steps)
	for _, g := range groups {
		flat = append(flat, g...)
	}
	for _, g := range remainder {
		flat = append(flat, g...)
	}
	return flat
}

// Rotate circularly shifts a pattern; positive rotation moves steps to the
// right. Rotation is normalized modulo the pattern length.
func Rotate(pattern []bool, rotation int) []bool {
	n := len(pattern)
	if n == 0 {
		return pattern
	}
	r := ((rotation % n) + n) % n
	if r == 0 {
		return append([]bool{}, pattern...)
	}
	out := make([]bool, n)
	for i, v := range pattern {
		out[(i+r)%n] = v
	}
	return out
}
