// Package pattern expands score patterns into beat-relative notes and
// resolves tracks onto a section's beat timeline.
package pattern

import (
	"math/rand"

	"github.com/etherdaw/etherdaw-go/diag"
	"github.com/etherdaw/etherdaw-go/score"
	"github.com/etherdaw/etherdaw-go/theory"
)

// DefaultVelocity is used for notes without an explicit velocity marker or
// track override.
const DefaultVelocity = 0.8

// Transform recursion is bounded so a transform pattern referencing itself
// degrades to a warning instead of unbounded recursion.
const maxExpandDepth = 8

// Context carries the resolution state one expansion runs under: the active
// key, tempo, per-track overrides, the pattern table for references, the
// injected random source and the diagnostics collector.
type Context struct {
	Key       theory.Key
	Tempo     float64
	Swing     float64
	Transpose int     // semitones
	Octave    int     // whole octaves
	Velocity  float64 // 0 = no override
	SkipMuted bool    // drop tracks flagged mute; false auditions them
	Patterns  map[string]*score.Pattern
	Rand      *rand.Rand
	Diags     *diag.Collector

	depth int
}

// ForTrack derives a child context carrying a track's modifiers.
func (c *Context) ForTrack(tr *score.Track) *Context {
	sub := *c
	sub.Transpose += tr.Transpose
	sub.Octave += tr.Octave
	if tr.Velocity > 0 {
		sub.Velocity = tr.Velocity
	}
	return &sub
}

func (c *Context) warnf(code, format string, args ...any) {
	if c.Diags != nil {
		c.Diags.Warnf(code, format, args...)
	}
}

// rng returns the injected generator, falling back to a fixed-seed one so
// expansion stays deterministic even when no generator was supplied.
func (c *Context) rng() *rand.Rand {
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(1))
	}
	return c.Rand
}
