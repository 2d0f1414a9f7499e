// Package diag collects structured compile diagnostics. Conditions that used
// to be console side effects (unknown pattern reference, unknown Markov
// preset) are recorded here and returned to the caller, so embedding contexts
// can inspect and route them instead of scraping stdout.
package diag

import "fmt"

// Diagnostic levels.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Diagnostic is one non-fatal compile condition.
type Diagnostic struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Level, d.Code, d.Message)
}

// Collector accumulates diagnostics during one compilation. The zero value
// is ready to use. Not safe for concurrent use; each compilation owns one.
type Collector struct {
	diags []Diagnostic
}

// Warnf records a warning.
func (c *Collector) Warnf(code, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Level: LevelWarning, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Errorf records a non-fatal error.
func (c *Collector) Errorf(code, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Level: LevelError, Code: code, Message: fmt.Sprintf(format, args...)})
}

// All returns every recorded diagnostic in order.
func (c *Collector) All() []Diagnostic {
	return c.diags
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}
