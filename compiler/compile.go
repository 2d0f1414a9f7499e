// Package compiler drives a full score compilation: it walks the
// arrangement, resolves every section's tracks and emits an absolute event
// timeline plus the diagnostics and stats collected along the way.
package compiler

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/etherdaw/etherdaw-go/diag"
	"github.com/etherdaw/etherdaw-go/pattern"
	"github.com/etherdaw/etherdaw-go/score"
	"github.com/etherdaw/etherdaw-go/theory"
	"github.com/etherdaw/etherdaw-go/timeline"
)

// Diagnostic codes emitted by the compiler itself; pattern-level codes come
// from the pattern package.
const (
	CodeUnknownSection    = "unknown-section"
	CodeUnknownInstrument = "unknown-instrument"
	CodeBadKey            = "bad-key"
	CodeEmptyScore        = "empty-score"
)

// Options control one compilation run. Zero values mean "use the score's
// settings".
type Options struct {
	StartSection string // start the arrangement window here
	EndSection   string // end the arrangement window here (inclusive)
	Tempo        float64
	Key          string
	Seed         int64 // 0 = fixed default seed
	SkipMuted    bool  // drop tracks flagged mute; false auditions them
}

// Stats summarize a compilation.
type Stats struct {
	Sections        int            `json:"sections"`
	Bars            int            `json:"bars"`
	Notes           int            `json:"notes"`
	NotesPerTrack   map[string]int `json:"notesPerTrack"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// Result is a finished compilation: the timeline, everything the run wanted
// to warn about, and summary stats. Diagnostics are never fatal; a Result
// with warnings still has a playable timeline.
type Result struct {
	Timeline    *timeline.Timeline `json:"timeline"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics"`
	Stats       Stats              `json:"stats"`
}

// Compile compiles a score into a timeline. Structural problems inside the
// score (unknown references, bad tokens) surface as diagnostics; an error is
// returned only when there is nothing to compile at all.
func Compile(s *score.Score, opts Options) (*Result, error) {
	if s == nil {
		return nil, errors.New("compile: nil score")
	}

	diags := &diag.Collector{}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	tempo := s.Settings.Tempo
	if opts.Tempo > 0 {
		tempo = opts.Tempo
	}
	if tempo <= 0 {
		tempo = 120
	}
	keyName := s.Settings.Key
	if opts.Key != "" {
		keyName = opts.Key
	}
	key := parseKeyOrDefault(keyName, diags)

	arrangement := arrangementWindow(s, opts, diags)
	if len(arrangement) == 0 {
		diags.Warnf(CodeEmptyScore, "nothing to compile: empty arrangement")
	}

	builder := timeline.NewBuilder(tempo)
	stats := Stats{NotesPerTrack: make(map[string]int)}

	currentTempo := tempo
	currentKeyName := keyName
	offsetBeats := 0.0
	for _, name := range arrangement {
		sec, ok := s.Sections[name]
		if !ok {
			diags.Warnf(CodeUnknownSection, "arrangement references undefined section %q, skipping", name)
			continue
		}

		if sec.Tempo > 0 && sec.Tempo != currentTempo {
			builder.AddTempoChange(offsetBeats, sec.Tempo)
			currentTempo = sec.Tempo
		}
		sectionKey := key
		if sec.Key != "" {
			sectionKey = parseKeyOrDefault(sec.Key, diags)
			if sec.Key != currentKeyName {
				builder.AddKeyChange(offsetBeats, sec.Key)
				currentKeyName = sec.Key
			}
		}

		checkInstruments(s, sec, name, diags)

		ctx := &pattern.Context{
			Key:       sectionKey,
			Tempo:     currentTempo,
			Swing:     s.Settings.Swing,
			SkipMuted: opts.SkipMuted,
			Patterns:  s.Patterns,
			Rand:      rng,
			Diags:     diags,
		}
		bars := sec.Bars
		if bars < 1 {
			bars = 1
		}
		sectionBeats := float64(bars) * s.Settings.BeatsPerBar()

		resolved := pattern.ResolveSection(sec, ctx, sectionBeats)
		for _, instrument := range sortedKeys(resolved) {
			emitted := emitTrack(builder, instrument, resolved[instrument], offsetBeats)
			stats.Notes += emitted
			stats.NotesPerTrack[instrument] += emitted
		}

		stats.Sections++
		stats.Bars += bars
		offsetBeats += sectionBeats
	}

	tl := builder.Build()
	stats.DurationSeconds = tl.TotalSeconds

	return &Result{
		Timeline:    tl,
		Diagnostics: diags.All(),
		Stats:       stats,
	}, nil
}

// arrangementWindow applies the start/end section options to the
// arrangement. Unknown bounds are reported and ignored. An empty arrangement
// falls back to nothing; the caller reports that.
func arrangementWindow(s *score.Score, opts Options, diags *diag.Collector) []string {
	arrangement := s.Arrangement
	start, end := 0, len(arrangement)
	if opts.StartSection != "" {
		if i := indexOf(arrangement, opts.StartSection); i >= 0 {
			start = i
		} else {
			diags.Warnf(CodeUnknownSection, "start section %q not in arrangement, compiling from the top", opts.StartSection)
		}
	}
	if opts.EndSection != "" {
		if i := lastIndexOf(arrangement, opts.EndSection); i >= 0 && i+1 >= start {
			end = i + 1
		} else {
			diags.Warnf(CodeUnknownSection, "end section %q not in arrangement, compiling to the end", opts.EndSection)
		}
	}
	return arrangement[start:end]
}

// checkInstruments warns about tracks whose instrument is not declared.
// Undeclared instruments still play; the declaration block is advisory.
func checkInstruments(s *score.Score, sec *score.Section, sectionName string, diags *diag.Collector) {
	if len(s.Instruments) == 0 {
		return
	}
	for instrument := range sec.Tracks {
		if _, ok := s.Instruments[instrument]; !ok {
			diags.Warnf(CodeUnknownInstrument, "section %q uses undeclared instrument %q", sectionName, instrument)
		}
	}
}

// emitTrack writes one track's resolved notes into the builder, grouping
// notes that share a start and duration into chord events. Returns the
// number of sounding pitches emitted.
func emitTrack(builder *timeline.Builder, instrument string, notes []pattern.ResolvedNote, offsetBeats float64) int {
	emitted := 0
	for i := 0; i < len(notes); {
		j := i + 1
		for j < len(notes) && sameOnset(notes[i], notes[j]) {
			j++
		}
		beat := offsetBeats + notes[i].StartBeat
		if j-i > 1 {
			pitches := make([]theory.Pitch, 0, j-i)
			for _, n := range notes[i:j] {
				pitches = append(pitches, n.Pitch)
			}
			builder.AddChord(instrument, pitches, beat, notes[i].DurationBeats, notes[i].Velocity)
		} else {
			builder.AddNote(instrument, notes[i].Pitch, beat, notes[i].DurationBeats, notes[i].Velocity)
		}
		emitted += j - i
		i = j
	}
	return emitted
}

func sameOnset(a, b pattern.ResolvedNote) bool {
	const epsilon = 1e-9
	return diff(a.StartBeat, b.StartBeat) < epsilon &&
		diff(a.DurationBeats, b.DurationBeats) < epsilon &&
		diff(a.Velocity, b.Velocity) < epsilon
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func parseKeyOrDefault(name string, diags *diag.Collector) theory.Key {
	if name == "" {
		name = "C"
	}
	key, err := theory.ParseKey(name)
	if err != nil {
		diags.Warnf(CodeBadKey, "invalid key %q, using C major", name)
		key, _ = theory.ParseKey("C")
	}
	return key
}

func sortedKeys(m map[string][]pattern.ResolvedNote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func lastIndexOf(names []string, name string) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == name {
			return i
		}
	}
	return -1
}
