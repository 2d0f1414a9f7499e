package pattern

import (
	"sort"

	"github.com/etherdaw/etherdaw-go/score"
	"github.com/etherdaw/etherdaw-go/theory"
)

// ResolvedNote is a note scheduled on a section's beat timeline.
type ResolvedNote struct {
	Pitch         theory.Pitch
	StartBeat     float64
	DurationBeats float64
	Velocity      float64
}

// ResolveTrack schedules a track's patterns onto the beat timeline and
// returns the notes plus the track's total beat length. Multi-pattern lists
// and repeats are laid out sequentially using each pattern's actual resolved
// length, never an assumed bar length: three one-bar patterns land at beats
// 0, 4 and 8, not all at 0.
//
// Swing and humanize are NOT applied here; ResolveSection applies them after
// fill/truncate so repetitions of the block do not compound jitter.
func ResolveTrack(tr *score.Track, ctx *Context) ([]ResolvedNote, float64) {
	if tr.Mute && ctx.SkipMuted {
		return nil, 0
	}
	names := tr.PatternNames()
	if len(names) == 0 {
		return nil, 0
	}
	trackCtx := ctx.ForTrack(tr)

	// Expand each referenced pattern once; placements reuse the block.
	expansions := make(map[string]*Expanded, len(names))
	for _, name := range names {
		if _, done := expansions[name]; done {
			continue
		}
		p, ok := trackCtx.Patterns[name]
		if !ok {
			trackCtx.warnf(CodeUnknownPattern, "pattern %q not found, skipping", name)
			continue
		}
		expansions[name] = Expand(p, trackCtx)
	}

	repeat := tr.Repeat
	if repeat < 1 {
		repeat = 1
	}

	var notes []ResolvedNote
	offset := 0.0
	for r := 0; r < repeat; r++ {
		for _, name := range names {
			exp, ok := expansions[name]
			if !ok {
				continue
			}
			for _, n := range exp.Notes {
				if n.Probability < 1 && trackCtx.rng().Float64() >= n.Probability {
					continue
				}
				start := offset + n.StartBeat + n.OffsetBeats
				if start < 0 {
					start = 0
				}
				notes = append(notes, ResolvedNote{
					Pitch:         n.Pitch,
					StartBeat:     start,
					DurationBeats: n.DurationBeats,
					Velocity:      clampVelocity(n.Velocity),
				})
			}
			offset += exp.TotalBeats
		}
	}
	return notes, offset
}

// ResolveSection resolves every track of a section, fills or truncates each
// track's note list to the section's beat length, then applies swing and
// humanize. The repeating unit for fill is the original resolved block, so
// jitter is freshly drawn per note and never compounds across repetitions.
func ResolveSection(sec *score.Section, ctx *Context, sectionBeats float64) map[string][]ResolvedNote {
	instruments := make([]string, 0, len(sec.Tracks))
	for name := range sec.Tracks {
		instruments = append(instruments, name)
	}
	sort.Strings(instruments)

	out := make(map[string][]ResolvedNote, len(sec.Tracks))
	for _, instrument := range instruments {
		tr := sec.Tracks[instrument]
		block, blockBeats := ResolveTrack(tr, ctx)
		if len(block) == 0 {
			out[instrument] = nil
			continue
		}

		notes := fillToLength(block, blockBeats, sectionBeats)
		applySwing(notes, ctx.Swing)
		applyHumanize(notes, tr.Humanize, ctx)
		out[instrument] = notes
	}
	return out
}

// fillToLength cyclically repeats a resolved block until it covers
// sectionBeats, then drops notes starting at or past the section end.
func fillToLength(block []ResolvedNote, blockBeats, sectionBeats float64) []ResolvedNote {
	var notes []ResolvedNote
	if blockBeats < 1e-6 {
		blockBeats = sectionBeats
	}
	for base := 0.0; base < sectionBeats; base += blockBeats {
		for _, n := range block {
			start := base + n.StartBeat
			if start >= sectionBeats {
				continue
			}
			n.StartBeat = start
			notes = append(notes, n)
		}
	}
	return notes
}

// applySwing delays off-beat eighth notes. At full swing the off-beat lands
// on the final triplet of the beat (0.5 -> 2/3).
func applySwing(notes []ResolvedNote, swing float64) {
	if swing <= 0 {
		return
	}
	const eighth = 0.5
	for i := range notes {
		beatPos := notes[i].StartBeat - float64(int(notes[i].StartBeat))
		if onOffbeatEighth(beatPos) {
			notes[i].StartBeat += swing * (2.0/3.0 - eighth)
		}
	}
}

func onOffbeatEighth(beatPos float64) bool {
	const epsilon = 1e-6
	return beatPos > 0.5-epsilon && beatPos < 0.5+epsilon
}

// applyHumanize jitters timing, velocity and duration, bounded by the
// humanize amount. Start beats stay non-negative, velocities stay in [0,1]
// and durations stay positive.
func applyHumanize(notes []ResolvedNote, amount float64, ctx *Context) {
	if amount <= 0 {
		return
	}
	if amount > 1 {
		amount = 1
	}
	rng := ctx.rng()
	for i := range notes {
		notes[i].StartBeat += jitter(rng.Float64(), 0.05*amount)
		if notes[i].StartBeat < 0 {
			notes[i].StartBeat = 0
		}
		notes[i].Velocity = clampVelocity(notes[i].Velocity + jitter(rng.Float64(), 0.1*amount))
		notes[i].DurationBeats += jitter(rng.Float64(), 0.05*amount)
		if notes[i].DurationBeats < 0.01 {
			notes[i].DurationBeats = 0.01
		}
	}
}

// jitter maps a uniform [0,1) sample to [-magnitude, +magnitude).
func jitter(sample, magnitude float64) float64 {
	return (sample*2 - 1) * magnitude
}

func clampVelocity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
