// Package timeline turns scheduled beats into an absolute event timeline
// with wall-clock times derived from the tempo map.
package timeline

import (
	"sort"

	"github.com/etherdaw/etherdaw-go/theory"
)

// Event types.
const (
	EventNote  = "note"
	EventChord = "chord"
	EventTempo = "tempo"
	EventKey   = "key"
)

// Event is one timeline entry. Beat is the authoritative position; Seconds
// is derived from the tempo map during Build.
type Event struct {
	Type    string  `json:"type"`
	Beat    float64 `json:"beat"`
	Seconds float64 `json:"seconds"`

	// note / chord; pitches carry both the spelled name and the MIDI number
	// so exported timelines need no further lookup.
	Instrument      string   `json:"instrument,omitempty"`
	Pitch           string   `json:"pitch,omitempty"`
	MIDI            int      `json:"midi,omitempty"`
	Pitches         []string `json:"pitches,omitempty"`
	MIDIs           []int    `json:"midis,omitempty"`
	Velocity        float64  `json:"velocity,omitempty"`
	DurationBeats   float64  `json:"durationBeats,omitempty"`
	DurationSeconds float64  `json:"durationSeconds,omitempty"`

	// tempo
	Tempo float64 `json:"tempo,omitempty"`

	// key
	Key string `json:"key,omitempty"`
}

// Timeline is the fully built event list, sorted by beat, with wall-clock
// times resolved against the tempo map.
type Timeline struct {
	Events       []Event  `json:"events"`
	Instruments  []string `json:"instruments"`
	InitialTempo float64  `json:"initialTempo"`
	TotalBeats   float64  `json:"totalBeats"`
	TotalSeconds float64  `json:"totalSeconds"`
}

// Builder accumulates events in any order; Build sorts them and computes
// seconds in a second pass, so callers never need to add events pre-sorted.
type Builder struct {
	initialTempo float64
	events       []Event
	instruments  map[string]bool
}

// NewBuilder returns a builder whose timeline starts at the given tempo.
func NewBuilder(initialTempo float64) *Builder {
	if initialTempo <= 0 {
		initialTempo = 120
	}
	return &Builder{
		initialTempo: initialTempo,
		instruments:  make(map[string]bool),
	}
}

// AddNote appends a single note event.
func (b *Builder) AddNote(instrument string, pitch theory.Pitch, beat, durationBeats, velocity float64) {
	b.instruments[instrument] = true
	b.events = append(b.events, Event{
		Type:          EventNote,
		Beat:          beat,
		Instrument:    instrument,
		Pitch:         pitch.String(),
		MIDI:          pitch.MIDI(),
		Velocity:      velocity,
		DurationBeats: durationBeats,
	})
}

// AddChord appends a chord event holding simultaneous pitches.
func (b *Builder) AddChord(instrument string, pitches []theory.Pitch, beat, durationBeats, velocity float64) {
	if len(pitches) == 0 {
		return
	}
	b.instruments[instrument] = true
	names := make([]string, len(pitches))
	midis := make([]int, len(pitches))
	for i, p := range pitches {
		names[i] = p.String()
		midis[i] = p.MIDI()
	}
	b.events = append(b.events, Event{
		Type:          EventChord,
		Beat:          beat,
		Instrument:    instrument,
		Pitches:       names,
		MIDIs:         midis,
		Velocity:      velocity,
		DurationBeats: durationBeats,
	})
}

// AddTempoChange appends a tempo change taking effect at the given beat.
func (b *Builder) AddTempoChange(beat, bpm float64) {
	if bpm <= 0 {
		return
	}
	b.events = append(b.events, Event{Type: EventTempo, Beat: beat, Tempo: bpm})
}

// AddKeyChange appends a key change at the given beat.
func (b *Builder) AddKeyChange(beat float64, key string) {
	b.events = append(b.events, Event{Type: EventKey, Beat: beat, Key: key})
}

// Build sorts the events and resolves wall-clock times. The sort is stable;
// at equal beats tempo changes come first so notes starting exactly at a
// tempo boundary already play at the new tempo. Note durations in seconds
// use the tempo in effect at the note's start.
func (b *Builder) Build() *Timeline {
	events := append([]Event{}, b.events...)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Beat != events[j].Beat {
			return events[i].Beat < events[j].Beat
		}
		return eventRank(events[i].Type) < eventRank(events[j].Type)
	})

	// Walk the tempo map once, re-basing elapsed seconds at each change.
	tempo := b.initialTempo
	baseBeat, baseSeconds := 0.0, 0.0
	totalBeats, totalSeconds := 0.0, 0.0
	for i := range events {
		ev := &events[i]
		ev.Seconds = baseSeconds + (ev.Beat-baseBeat)*60/tempo
		if ev.Type == EventTempo {
			baseBeat, baseSeconds = ev.Beat, ev.Seconds
			tempo = ev.Tempo
			continue
		}
		ev.DurationSeconds = ev.DurationBeats * 60 / tempo
		if end := ev.Beat + ev.DurationBeats; end > totalBeats {
			totalBeats = end
		}
		if end := ev.Seconds + ev.DurationSeconds; end > totalSeconds {
			totalSeconds = end
		}
	}

	instruments := make([]string, 0, len(b.instruments))
	for name := range b.instruments {
		instruments = append(instruments, name)
	}
	sort.Strings(instruments)

	return &Timeline{
		Events:       events,
		Instruments:  instruments,
		InitialTempo: b.initialTempo,
		TotalBeats:   totalBeats,
		TotalSeconds: totalSeconds,
	}
}

// eventRank orders event types at equal beats: tempo, key, then sounding
// events in insertion order.
func eventRank(eventType string) int {
	switch eventType {
	case EventTempo:
		return 0
	case EventKey:
		return 1
	default:
		return 2
	}
}
