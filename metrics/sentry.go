// Package metrics reports compile telemetry to Sentry. Everything is a
// no-op when no DSN is configured, so the compiler itself never depends on
// network availability.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics initializes Sentry and returns a metrics client. An empty
// DSN yields a disabled client.
func NewSentryMetrics(dsn string) (*SentryMetrics, error) {
	if dsn == "" {
		return &SentryMetrics{enabled: false}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &SentryMetrics{enabled: true}, nil
}

// StartCompile begins a compile transaction; finish it via the returned span.
func (m *SentryMetrics) StartCompile(ctx context.Context, scorePath string) *sentry.Span {
	if !m.enabled {
		return nil
	}
	span := sentry.StartSpan(ctx, "compile", sentry.WithTransactionName("etherdaw.compile"))
	span.SetTag("score", scorePath)
	return span
}

// RecordCompile records one compilation's duration and output size.
func (m *SentryMetrics) RecordCompile(ctx context.Context, duration time.Duration, notes, sections int, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "compile.result")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("notes", notes)
	span.SetData("sections", sections)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Compile: %d notes, %d sections", notes, sections)
}

// RecordDiagnostics records how noisy a compilation was.
func (m *SentryMetrics) RecordDiagnostics(ctx context.Context, warnings, errors int) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "compile.diagnostics")
	defer span.Finish()

	span.SetData("warnings", warnings)
	span.SetData("errors", errors)
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Diagnostics: %d warnings, %d errors", warnings, errors)
}

// Flush drains buffered events before process exit.
func (m *SentryMetrics) Flush(timeout time.Duration) {
	if m.enabled {
		sentry.Flush(timeout)
	}
}
