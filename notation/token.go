// Package notation parses the textual micro-notation for notes, chords and
// drum grids: "C4:q", "Am7:h.@mf", "r:8", "x---x---".
package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etherdaw/etherdaw-go/theory"
)

// ParseError is a hard failure on a single malformed token. Callers decide
// whether one bad token aborts the pattern or is skipped with a warning.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse token %q: %s", e.Token, e.Reason)
}

func parseErrorf(token, format string, args ...any) *ParseError {
	return &ParseError{Token: token, Reason: fmt.Sprintf(format, args...)}
}

// Articulation tags recognized after the duration.
const (
	ArticAccent   = "accent"
	ArticMarcato  = "marcato"
	ArticStaccato = "staccato"
	ArticTenuto   = "tenuto"
	ArticLegato   = "legato"
	OrnamentTrill = "trill"
)

var articulationChars = map[byte]string{
	'>':  ArticAccent,
	'^':  ArticMarcato,
	'\'': ArticStaccato,
	'_':  ArticTenuto,
	'~':  ArticLegato,
}

// Note is one parsed note or rest token.
type Note struct {
	Rest          bool
	Pitch         theory.Pitch
	DurationBeats float64
	Velocity      float64 // 0 when unset; see HasVelocity
	HasVelocity   bool
	Articulation  string
	Ornament      string
	Probability   float64 // 1 = always plays
	OffsetBeats   float64 // explicit micro-timing offset
}

// IsBarSeparator reports whether the token is the "|" layout marker, which is
// a no-op for scheduling.
func IsBarSeparator(token string) bool {
	return strings.TrimSpace(token) == "|"
}

// ParseNote parses one note or rest token:
//
//	<pitch>:<dur><dot?><artic?>[@<velocity|dynamic>][?<probability>][+/-offset]
//
// pitch is [A-G][#b]?<octave> or r/rest.
func ParseNote(token string) (*Note, error) {
	body := strings.TrimSpace(token)
	if body == "" {
		return nil, parseErrorf(token, "empty token")
	}

	head, tail, found := strings.Cut(body, ":")
	if !found {
		return nil, parseErrorf(token, "missing duration separator")
	}

	note := &Note{Probability: 1}
	switch strings.ToLower(head) {
	case "r", "rest":
		note.Rest = true
	default:
		pitch, err := theory.ParsePitch(head)
		if err != nil {
			return nil, parseErrorf(token, "%v", err)
		}
		note.Pitch = pitch
	}

	tail = parseSuffixes(note, token, tail)
	if err := parseDuration(note, token, tail); err != nil {
		return nil, err
	}
	return note, nil
}

// parseDuration consumes <dur><dot?><artic?> from what remains after the
// suffix markers were stripped.
func parseDuration(note *Note, token, s string) error {
	if s == "" {
		return parseErrorf(token, "missing duration")
	}

	// Ornament suffix: "tr" after the duration, e.g. "q.tr".
	if strings.HasSuffix(s, "tr") && len(s) > 2 {
		note.Ornament = OrnamentTrill
		s = strings.TrimSuffix(s, "tr")
	}
	if len(s) > 0 {
		if artic, ok := articulationChars[s[len(s)-1]]; ok {
			note.Articulation = artic
			s = s[:len(s)-1]
		}
	}
	dotted := false
	if strings.HasSuffix(s, ".") {
		dotted = true
		s = strings.TrimSuffix(s, ".")
	}
	beats, err := theory.DurationBeats(s, dotted)
	if err != nil {
		return parseErrorf(token, "%v", err)
	}
	note.DurationBeats = beats
	return nil
}

// parseSuffixes strips trailing @velocity, ?probability and +/-offset markers,
// in any order, and returns what remains (duration + articulation).
func parseSuffixes(note *Note, token, s string) string {
	for {
		if i := strings.LastIndexByte(s, '@'); i >= 0 {
			if v, ok := parseVelocity(s[i+1:]); ok {
				note.Velocity = v
				note.HasVelocity = true
				s = s[:i]
				continue
			}
		}
		if i := strings.LastIndexByte(s, '?'); i >= 0 {
			if p, err := strconv.ParseFloat(s[i+1:], 64); err == nil {
				note.Probability = clamp01(p)
				s = s[:i]
				continue
			}
		}
		if i := strings.LastIndexAny(s, "+-"); i > 0 {
			if off, err := strconv.ParseFloat(s[i:], 64); err == nil {
				note.OffsetBeats = off
				s = s[:i]
				continue
			}
		}
		return s
	}
}

func parseVelocity(s string) (float64, bool) {
	if v, ok := theory.DynamicVelocity(s); ok {
		return v, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return clamp01(v), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
