package taskreactor

import (
	"time"

	"github.com/joeycumines/go-taskreactor/internal/ratelimit"
)

// DiagnosticLogger receives reactor lifecycle diagnostics: construction,
// task additions, Execute start/stop, and fatal-error capture. It is entirely separate from
// Listener (spec-level task/milestone progress) — this is ambient,
// best-effort observability the reactor emits about itself, never about
// user task outcomes.
//
// Calls never happen while the reactor's internal lock is held, the same
// discipline applied to Listener and Task.Run.
type DiagnosticLogger interface {
	Logf(category, format string, args ...any)
}

// NoopDiagnosticLogger discards everything. It is the default.
type NoopDiagnosticLogger struct{}

// Logf implements DiagnosticLogger.
func (NoopDiagnosticLogger) Logf(string, string, ...any) {}

// RateLimitedDiagnosticLogger wraps another DiagnosticLogger, throttling how
// often a given category of diagnostic may be emitted. This exists because
// a pathologically large or fast-failing graph can otherwise produce one
// diagnostic line per node, per run — overwhelming whatever backend the
// caller's DiagnosticLogger writes to.
type RateLimitedDiagnosticLogger struct {
	next    DiagnosticLogger
	limiter *ratelimit.Limiter
}

// NewRateLimitedDiagnosticLogger wraps next, applying rates (per
// diagnostic category) via an internal sliding-window limiter. Panics if
// rates is invalid (see ratelimit.NewLimiter).
func NewRateLimitedDiagnosticLogger(next DiagnosticLogger, rates map[time.Duration]int) *RateLimitedDiagnosticLogger {
	if next == nil {
		next = NoopDiagnosticLogger{}
	}
	return &RateLimitedDiagnosticLogger{
		next:    next,
		limiter: ratelimit.NewLimiter(rates),
	}
}

// Logf implements DiagnosticLogger, dropping the line if category has
// exceeded its configured rate.
func (x *RateLimitedDiagnosticLogger) Logf(category, format string, args ...any) {
	if x.limiter.Allow(category) {
		x.next.Logf(category, format, args...)
	}
}

// DefaultDiagnosticRates is a reasonable default for
// NewRateLimitedDiagnosticLogger: at most 20 lines per category per second,
// and at most 200 per category per minute.
var DefaultDiagnosticRates = map[time.Duration]int{
	time.Second: 20,
	time.Minute: 200,
}
