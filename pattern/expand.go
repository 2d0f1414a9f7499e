package pattern

import (
	"sort"
	"strconv"
	"strings"

	"github.com/etherdaw/etherdaw-go/gen"
	"github.com/etherdaw/etherdaw-go/notation"
	"github.com/etherdaw/etherdaw-go/score"
	"github.com/etherdaw/etherdaw-go/theory"
)

// Diagnostic codes emitted during expansion.
const (
	CodeBadToken       = "bad-token"
	CodeUnknownKind    = "unknown-pattern-kind"
	CodeUnknownPattern = "unknown-pattern"
	CodeUnknownPreset  = "unknown-markov-preset"
	CodeUnknownVoicing = "unknown-voicing"
	CodeArpeggioSteps  = "arpeggio-missing-steps"
	CodeBadTransform   = "bad-transform"
	CodeVoiceLeading   = "voice-leading"
	CodeTooDeep        = "pattern-recursion"
)

// Note is one beat-relative note of an expanded pattern.
type Note struct {
	Pitch         theory.Pitch
	StartBeat     float64
	DurationBeats float64
	Velocity      float64
	Probability   float64
	OffsetBeats   float64
	Ornament      string

	hasVelocity bool
}

// Expanded is the ephemeral result of expanding one pattern. TotalBeats is
// the canonical pattern length used for sequential scheduling; it is never
// inferred from bar counts.
type Expanded struct {
	Notes      []Note
	TotalBeats float64
}

// Expand dispatches on the pattern kind and returns the expanded notes.
// All failure modes inside a pattern are non-fatal: bad tokens and missing
// parameters are reported through the context's diagnostics and the rest of
// the pattern still expands.
func Expand(p *score.Pattern, ctx *Context) *Expanded {
	var exp *Expanded
	switch p.Kind {
	case score.KindNotes:
		exp = expandNotes(p.Notes, ctx)
	case score.KindChords:
		exp = expandChords(p.Chords, ctx)
	case score.KindDrums:
		exp = expandDrums(p, ctx)
	case score.KindArpeggio:
		exp = expandArpeggio(p, ctx)
	case score.KindMarkov:
		exp = expandMarkov(p, ctx)
	case score.KindEuclidean:
		exp = expandEuclidean(p, ctx)
	case score.KindTransform:
		exp = expandTransform(p, ctx)
	case score.KindVoiceLed:
		exp = expandVoiceLed(p, ctx)
	case score.KindContinuation:
		exp = expandContinuation(p, ctx)
	default:
		ctx.warnf(CodeUnknownKind, "unknown pattern kind %q", p.Kind)
		exp = &Expanded{}
	}
	applyContext(exp, ctx)
	return exp
}

// applyContext applies the per-track overrides uniformly, whatever the
// pattern kind: transpose/octave shift every pitch, then fill velocities for
// notes without an explicit marker.
func applyContext(exp *Expanded, ctx *Context) {
	semitones := ctx.Transpose + 12*ctx.Octave
	for i := range exp.Notes {
		if semitones != 0 {
			exp.Notes[i].Pitch = exp.Notes[i].Pitch.Transpose(semitones)
		}
		if !exp.Notes[i].hasVelocity {
			if ctx.Velocity > 0 {
				exp.Notes[i].Velocity = ctx.Velocity
			} else if exp.Notes[i].Velocity == 0 {
				exp.Notes[i].Velocity = DefaultVelocity
			}
		}
	}
}

// ========== Note and chord lists ==========

func expandNotes(tokens []string, ctx *Context) *Expanded {
	exp := &Expanded{}
	beat := 0.0
	for _, token := range tokens {
		if notation.IsBarSeparator(token) {
			continue
		}
		parsed, err := notation.ParseNote(token)
		if err != nil {
			ctx.warnf(CodeBadToken, "skipping note token: %v", err)
			continue
		}
		if !parsed.Rest {
			exp.Notes = append(exp.Notes, noteFromToken(parsed, beat))
		}
		beat += parsed.DurationBeats
	}
	exp.TotalBeats = beat
	return exp
}

func noteFromToken(parsed *notation.Note, beat float64) Note {
	n := Note{
		Pitch:         parsed.Pitch,
		StartBeat:     beat,
		DurationBeats: parsed.DurationBeats,
		Velocity:      parsed.Velocity,
		Probability:   parsed.Probability,
		OffsetBeats:   parsed.OffsetBeats,
		Ornament:      parsed.Ornament,
		hasVelocity:   parsed.HasVelocity,
	}
	applyArticulation(&n, parsed.Articulation)
	return n
}

// applyArticulation adjusts duration/velocity for the articulation tag.
func applyArticulation(n *Note, artic string) {
	switch artic {
	case notation.ArticAccent:
		n.Velocity = clampVelocity(velocityOrDefault(n) * 1.2)
		n.hasVelocity = true
	case notation.ArticMarcato:
		n.Velocity = clampVelocity(velocityOrDefault(n) * 1.3)
		n.hasVelocity = true
		n.DurationBeats *= 0.8
	case notation.ArticStaccato:
		n.DurationBeats *= 0.5
	case notation.ArticLegato:
		n.DurationBeats *= 1.05
	}
}

func velocityOrDefault(n *Note) float64 {
	if n.hasVelocity {
		return n.Velocity
	}
	return DefaultVelocity
}

func expandChords(tokens []string, ctx *Context) *Expanded {
	exp := &Expanded{}
	beat := 0.0
	for _, token := range tokens {
		if notation.IsBarSeparator(token) {
			continue
		}
		chord, err := notation.ParseChord(token)
		if err != nil {
			ctx.warnf(CodeBadToken, "skipping chord token: %v", err)
			continue
		}
		pitches, voicingKnown, err := chord.Pitches(chordOctave(ctx))
		if err != nil {
			ctx.warnf(CodeBadToken, "skipping chord token: %v", err)
			continue
		}
		if !voicingKnown {
			ctx.warnf(CodeUnknownVoicing, "unknown voicing %q in %q, using close voicing", chord.Voicing, token)
		}
		for _, p := range pitches {
			exp.Notes = append(exp.Notes, Note{
				Pitch:         p,
				StartBeat:     beat,
				DurationBeats: chord.DurationBeats,
				Velocity:      chord.Velocity,
				Probability:   chord.Probability,
				hasVelocity:   chord.HasVelocity,
			})
		}
		beat += chord.DurationBeats
	}
	exp.TotalBeats = beat
	return exp
}

// chordOctave is the default register chords are built at before per-track
// octave offsets apply.
func chordOctave(ctx *Context) int {
	return 4
}

// ========== Drum step patterns ==========

// General MIDI drum map for named drum lines; unknown names land on the kick.
var drumPitches = map[string]theory.Pitch{
	"kick":    {Class: "C", Octave: 2},
	"snare":   {Class: "D", Octave: 2},
	"rimshot": {Class: "C#", Octave: 2},
	"clap":    {Class: "Eb", Octave: 2},
	"hat":     {Class: "F#", Octave: 2},
	"hihat":   {Class: "F#", Octave: 2},
	"openhat": {Class: "Bb", Octave: 2},
	"tom":     {Class: "A", Octave: 2},
	"ride":    {Class: "Eb", Octave: 3},
	"crash":   {Class: "C#", Octave: 3},
}

func expandDrums(p *score.Pattern, ctx *Context) *Expanded {
	stepDuration := p.StepDuration
	if stepDuration <= 0 {
		stepDuration = 0.25
	}

	// Deterministic line order regardless of map iteration.
	lines := make([]string, 0, len(p.Steps))
	for name := range p.Steps {
		lines = append(lines, name)
	}
	sort.Strings(lines)

	exp := &Expanded{}
	maxSteps := 0
	for _, line := range lines {
		steps := notation.ParseDrumGrid(p.Steps[line])
		if len(steps) > maxSteps {
			maxSteps = len(steps)
		}
		pitch, ok := drumPitches[strings.ToLower(line)]
		if !ok {
			pitch = drumPitches["kick"]
		}
		for i, step := range steps {
			if !step.Hit {
				continue
			}
			exp.Notes = append(exp.Notes, Note{
				Pitch:         pitch,
				StartBeat:     float64(i) * stepDuration,
				DurationBeats: stepDuration,
				Velocity:      step.Velocity,
				Probability:   1,
				hasVelocity:   true,
			})
		}
	}
	exp.TotalBeats = float64(maxSteps) * stepDuration
	return exp
}

// ========== Arpeggio ==========

func expandArpeggio(p *score.Pattern, ctx *Context) *Expanded {
	if p.StepCount <= 0 {
		// Timing cannot be inferred without an explicit step count.
		ctx.warnf(CodeArpeggioSteps, "arpeggio pattern missing stepCount, producing no notes")
		return &Expanded{}
	}
	tones, ok := chordTones(p.Chord, ctx)
	if !ok || len(tones) == 0 {
		return &Expanded{}
	}

	switch p.Direction {
	case "", "up":
	case "down":
		reversePitches(tones)
	case "updown":
		if len(tones) > 2 {
			down := make([]theory.Pitch, 0, len(tones)-2)
			for i := len(tones) - 2; i > 0; i-- {
				down = append(down, tones[i])
			}
			tones = append(tones, down...)
		}
	case "random":
		ctx.rng().Shuffle(len(tones), func(i, j int) {
			tones[i], tones[j] = tones[j], tones[i]
		})
	}

	noteDuration := p.NoteDuration
	if noteDuration <= 0 {
		noteDuration = 0.5
	}
	exp := &Expanded{TotalBeats: float64(p.StepCount) * noteDuration}
	for i := 0; i < p.StepCount; i++ {
		exp.Notes = append(exp.Notes, Note{
			Pitch:         tones[i%len(tones)],
			StartBeat:     float64(i) * noteDuration,
			DurationBeats: noteDuration,
			Probability:   1,
		})
	}
	return exp
}

// chordTones resolves a bare chord symbol ("Am7") or pitch fallback into a
// tone set at the pattern octave.
func chordTones(symbol string, ctx *Context) ([]theory.Pitch, bool) {
	if symbol == "" {
		// Default to the tonic triad of the active key.
		symbol = ctx.Key.Tonic
		if ctx.Key.Mode == "minor" {
			symbol += "m"
		}
	}
	if !strings.Contains(symbol, ":") {
		symbol += ":q" // tone set only; the duration is discarded
	}
	chord, err := notation.ParseChord(symbol)
	if err != nil {
		ctx.warnf(CodeBadToken, "bad chord symbol: %v", err)
		return nil, false
	}
	pitches, voicingKnown, err := chord.Pitches(chordOctave(ctx))
	if err != nil {
		ctx.warnf(CodeBadToken, "bad chord symbol: %v", err)
		return nil, false
	}
	if !voicingKnown {
		ctx.warnf(CodeUnknownVoicing, "unknown voicing %q, using close voicing", chord.Voicing)
	}
	return pitches, true
}

func reversePitches(p []theory.Pitch) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// ========== Euclidean ==========

func expandEuclidean(p *score.Pattern, ctx *Context) *Expanded {
	steps := gen.Rotate(gen.Euclidean(p.Hits, p.StepCount), p.Rotation)
	noteDuration := p.NoteDuration
	if noteDuration <= 0 {
		noteDuration = 0.25
	}

	var tones []theory.Pitch
	if p.Chord != "" {
		tones, _ = chordTones(p.Chord, ctx)
	} else if p.Note != "" {
		pitch, err := theory.ParsePitch(p.Note)
		if err != nil {
			ctx.warnf(CodeBadToken, "bad euclidean note: %v", err)
		} else {
			tones = []theory.Pitch{pitch}
		}
	}
	if len(tones) == 0 {
		tones = []theory.Pitch{ctx.Key.Degree(1, 3)}
	}

	exp := &Expanded{TotalBeats: float64(len(steps)) * noteDuration}
	hit := 0
	for i, on := range steps {
		if !on {
			continue
		}
		exp.Notes = append(exp.Notes, Note{
			Pitch:         tones[hit%len(tones)],
			StartBeat:     float64(i) * noteDuration,
			DurationBeats: noteDuration,
			Probability:   1,
		})
		hit++
	}
	return exp
}

// ========== Markov ==========

var defaultMarkovStates = []string{"1", "2", "3", "4", "5", "6", "7"}

func expandMarkov(p *score.Pattern, ctx *Context) *Expanded {
	states := p.States
	if len(states) == 0 {
		states = defaultMarkovStates
	}

	var matrix gen.TransitionMatrix
	if matrixFits(p.Matrix, len(states)) {
		matrix = gen.NormalizeRows(toMatrix(p.Matrix))
	} else {
		if len(p.Matrix) > 0 {
			ctx.warnf(CodeBadToken, "markov matrix is not %dx%d, using preset", len(states), len(states))
		}
		var known bool
		matrix, known = gen.BuildMatrix(states, presetOrUniform(p.Preset))
		if p.Preset != "" && !known {
			ctx.warnf(CodeUnknownPreset, "unknown markov preset %q, using uniform", p.Preset)
		}
	}

	stepCount := p.StepCount
	if stepCount <= 0 {
		stepCount = 8
	}
	noteDuration := p.NoteDuration
	if noteDuration <= 0 {
		noteDuration = 1
	}
	octave := p.Octave
	if octave == 0 {
		octave = 3
	}

	walk := gen.Walk(matrix, states, stepCount, p.StartState, ctx.rng())
	exp := &Expanded{TotalBeats: float64(stepCount) * noteDuration}
	for i, stateIdx := range walk {
		pitch, sounding := markovStatePitch(states[stateIdx], octave, ctx)
		if !sounding {
			continue
		}
		exp.Notes = append(exp.Notes, Note{
			Pitch:         pitch,
			StartBeat:     float64(i) * noteDuration,
			DurationBeats: noteDuration,
			Probability:   1,
		})
	}
	return exp
}

func presetOrUniform(preset string) string {
	if preset == "" {
		return "uniform"
	}
	return preset
}

// matrixFits reports whether rows form a square n x n matrix. A ragged or
// truncated row would let the sampler produce state indices outside the
// state alphabet.
func matrixFits(rows [][]float64, n int) bool {
	if n == 0 || len(rows) != n {
		return false
	}
	for _, row := range rows {
		if len(row) != n {
			return false
		}
	}
	return true
}

func toMatrix(rows [][]float64) gen.TransitionMatrix {
	m := make(gen.TransitionMatrix, len(rows))
	for i, row := range rows {
		m[i] = append([]float64{}, row...)
	}
	return m
}

// markovStatePitch maps a state name back to a concrete pitch in the active
// key: digit states are scale degrees, "approach" is the semitone below the
// root, "rest" is silent.
func markovStatePitch(state string, octave int, ctx *Context) (theory.Pitch, bool) {
	switch state {
	case "rest":
		return theory.Pitch{}, false
	case "approach":
		return ctx.Key.Degree(1, octave).Transpose(-1), true
	}
	degree, err := strconv.Atoi(state)
	if err != nil || degree < 1 {
		ctx.warnf(CodeBadToken, "markov state %q is not a scale degree, treating as rest", state)
		return theory.Pitch{}, false
	}
	return ctx.Key.Degree(degree, octave), true
}

// ========== Transform ==========

func expandTransform(p *score.Pattern, ctx *Context) *Expanded {
	base, ok := basePattern(p, ctx)
	if !ok {
		return &Expanded{}
	}
	notes := toGenNotes(base)

	for _, step := range p.Transforms {
		var err error
		switch step.Type {
		case "invert":
			notes = gen.Invert(notes)
		case "retrograde":
			notes = gen.Retrograde(notes)
		case "stretch", "augment":
			factor := step.Factor
			if factor <= 0 {
				factor = 2
			}
			notes = gen.Stretch(notes, factor)
		case "transpose":
			notes = gen.Transpose(notes, step.Semitones)
		case "octave":
			notes = gen.OctaveShift(notes, step.Octaves)
		case "velocity":
			notes, err = gen.ApplyVelocityCurve(notes, step.Curve, 0.4, 1.0)
			if err != nil {
				ctx.warnf(CodeBadTransform, "%v", err)
			}
		default:
			ctx.warnf(CodeBadTransform, "unknown transform %q", step.Type)
		}
	}

	return fromGenNotes(notes)
}

// basePattern expands the transform source: a referenced pattern or inline
// note tokens.
func basePattern(p *score.Pattern, ctx *Context) (*Expanded, bool) {
	if p.Source != "" {
		src, ok := ctx.Patterns[p.Source]
		if !ok {
			ctx.warnf(CodeUnknownPattern, "transform source pattern %q not found", p.Source)
			return nil, false
		}
		if ctx.depth >= maxExpandDepth {
			ctx.warnf(CodeTooDeep, "pattern reference chain too deep at %q", p.Source)
			return nil, false
		}
		sub := *ctx
		sub.depth++
		// Source expands neutrally; track overrides apply once, at the end.
		sub.Transpose, sub.Octave, sub.Velocity = 0, 0, 0
		return Expand(src, &sub), true
	}
	if len(p.Notes) > 0 {
		neutral := *ctx
		neutral.Transpose, neutral.Octave, neutral.Velocity = 0, 0, 0
		return expandNotesNeutral(p.Notes, &neutral), true
	}
	ctx.warnf(CodeBadTransform, "transform pattern has neither source nor notes")
	return nil, false
}

func expandNotesNeutral(tokens []string, ctx *Context) *Expanded {
	exp := expandNotes(tokens, ctx)
	applyContext(exp, ctx)
	return exp
}

// toGenNotes rebuilds a sequential melodic line from an expansion, inserting
// rests for the gaps so velocity curves keep skipping them.
func toGenNotes(exp *Expanded) []gen.Note {
	notes := make([]gen.Note, 0, len(exp.Notes))
	cursor := 0.0
	for _, n := range exp.Notes {
		if gap := n.StartBeat - cursor; gap > 1e-9 {
			notes = append(notes, gen.Note{Rest: true, DurationBeats: gap})
			cursor += gap
		}
		notes = append(notes, gen.Note{
			Pitch:         n.Pitch,
			DurationBeats: n.DurationBeats,
			Velocity:      n.Velocity,
			HasVelocity:   n.hasVelocity,
		})
		cursor += n.DurationBeats
	}
	if gap := exp.TotalBeats - cursor; gap > 1e-9 {
		notes = append(notes, gen.Note{Rest: true, DurationBeats: gap})
	}
	return notes
}

func fromGenNotes(notes []gen.Note) *Expanded {
	exp := &Expanded{}
	beat := 0.0
	for _, n := range notes {
		if !n.Rest {
			exp.Notes = append(exp.Notes, Note{
				Pitch:         n.Pitch,
				StartBeat:     beat,
				DurationBeats: n.DurationBeats,
				Velocity:      n.Velocity,
				Probability:   1,
				hasVelocity:   n.HasVelocity,
			})
		}
		beat += n.DurationBeats
	}
	exp.TotalBeats = beat
	return exp
}

// ========== Voice-led progressions ==========

func expandVoiceLed(p *score.Pattern, ctx *Context) *Expanded {
	chordDuration := p.ChordDuration
	if chordDuration <= 0 {
		chordDuration = 4
	}

	progression := make([][]theory.Pitch, 0, len(p.Progression))
	for _, symbol := range p.Progression {
		tones, ok := chordTones(symbol, ctx)
		if !ok {
			continue
		}
		progression = append(progression, tones)
	}

	voiced := gen.VoiceLead(progression)
	for _, issue := range gen.ValidateVoiceLeading(voiced) {
		ctx.warnf(CodeVoiceLeading, "%s", issue.Message)
	}

	exp := &Expanded{TotalBeats: float64(len(voiced)) * chordDuration}
	for i, chord := range voiced {
		for _, pitch := range chord {
			exp.Notes = append(exp.Notes, Note{
				Pitch:         pitch,
				StartBeat:     float64(i) * chordDuration,
				DurationBeats: chordDuration,
				Probability:   1,
			})
		}
	}
	return exp
}

// ========== Continuation ==========

// expandContinuation extends a source pattern's melodic line stepwise
// through the active key's scale, deterministically: it keeps the final
// direction of the source and reflects an octave beyond the source register.
func expandContinuation(p *score.Pattern, ctx *Context) *Expanded {
	if p.Source == "" {
		ctx.warnf(CodeBadTransform, "continuation pattern missing source")
		return &Expanded{}
	}
	src, ok := ctx.Patterns[p.Source]
	if !ok {
		ctx.warnf(CodeUnknownPattern, "continuation source pattern %q not found", p.Source)
		return &Expanded{}
	}
	if ctx.depth >= maxExpandDepth {
		ctx.warnf(CodeTooDeep, "pattern reference chain too deep at %q", p.Source)
		return &Expanded{}
	}
	sub := *ctx
	sub.depth++
	sub.Transpose, sub.Octave, sub.Velocity = 0, 0, 0
	base := Expand(src, &sub)
	if len(base.Notes) == 0 {
		return &Expanded{}
	}

	stepCount := p.StepCount
	if stepCount <= 0 {
		stepCount = 8
	}
	noteDuration := p.NoteDuration
	if noteDuration <= 0 {
		noteDuration = base.Notes[len(base.Notes)-1].DurationBeats
	}

	last := base.Notes[len(base.Notes)-1].Pitch.MIDI()
	direction := 1
	if len(base.Notes) >= 2 && base.Notes[len(base.Notes)-2].Pitch.MIDI() > last {
		direction = -1
	}
	low, high := registerBounds(base.Notes)

	scaleSet := scaleClassSet(ctx.Key)
	exp := &Expanded{TotalBeats: float64(stepCount) * noteDuration}
	current := last
	for i := 0; i < stepCount; i++ {
		next, nextDir := nextScaleTone(current, direction, low-12, high+12, scaleSet)
		current, direction = next, nextDir
		exp.Notes = append(exp.Notes, Note{
			Pitch:         theory.PitchFromMIDI(current),
			StartBeat:     float64(i) * noteDuration,
			DurationBeats: noteDuration,
			Probability:   1,
		})
	}
	return exp
}

func registerBounds(notes []Note) (low, high int) {
	low, high = 127, 0
	for _, n := range notes {
		midi := n.Pitch.MIDI()
		if midi < low {
			low = midi
		}
		if midi > high {
			high = midi
		}
	}
	return low, high
}

func scaleClassSet(key theory.Key) map[int]bool {
	set := make(map[int]bool)
	tonic := theory.Pitch{Class: key.Tonic, Octave: 0}.MIDI() % 12
	for _, interval := range key.Scale() {
		set[(tonic+interval)%12] = true
	}
	return set
}

// nextScaleTone walks semitone by semitone in the current direction until it
// lands on a scale tone, reflecting the direction at the register bounds.
func nextScaleTone(current, direction, low, high int, scale map[int]bool) (int, int) {
	next := current
	for step := 0; step < 24; step++ {
		next += direction
		if next >= high || next <= low {
			direction = -direction
		}
		if scale[((next%12)+12)%12] {
			return next, direction
		}
	}
	return current, direction
}
