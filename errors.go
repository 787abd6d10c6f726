package taskreactor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyExecuted is returned by Reactor.Execute if the reactor was
// already executed once. A Reactor is single-use.
var ErrAlreadyExecuted = errors.New("taskreactor: reactor already executed")

type (
	// tunnel carries a user-thrown error across the worker-thread boundary,
	// so it can be unwrapped into a ReactorFailure at the Execute boundary.
	// It has no role outside this package.
	tunnel struct {
		cause error
	}

	// ReactorFailure is returned by Reactor.Execute when a fatal task
	// failure (or a listener failure, which is always treated as fatal)
	// occurred. Cause is the original error that triggered the failure;
	// Suppressed holds any additional errors collected alongside it (for
	// example, the original task error when a listener itself fails while
	// reporting that task's failure, or the causes of fatal failures
	// recorded after the first). Errors from several Aggregator
	// sub-listeners for one event are not listed here: they are combined
	// into a single error within Cause.
	ReactorFailure struct {
		Cause      error
		Suppressed []error
	}

	// DiscoveryFailure wraps an error returned by a TaskBuilder's
	// DiscoverTasks during Reactor construction.
	DiscoveryFailure struct {
		BuilderIndex int
		Cause        error
	}

	// multiError bundles a primary error with zero or more suppressed
	// errors, in the manner of Java's Throwable.addSuppressed: the primary
	// error is reported first, but every error is reachable via Unwrap, so
	// errors.Is / errors.As still match against any of them.
	multiError struct {
		primary    error
		suppressed []error
	}
)

func (e *tunnel) Error() string { return e.cause.Error() }
func (e *tunnel) Unwrap() error { return e.cause }

// Error implements the error interface.
func (e *ReactorFailure) Error() string {
	if len(e.Suppressed) == 0 {
		return fmt.Sprintf("taskreactor: fatal failure: %v", e.Cause)
	}
	return fmt.Sprintf("taskreactor: fatal failure: %v (+%d suppressed)", e.Cause, len(e.Suppressed))
}

// Unwrap returns Cause, for errors.Is / errors.As against the original
// failure.
func (e *ReactorFailure) Unwrap() error { return e.Cause }

// Error implements the error interface.
func (e *DiscoveryFailure) Error() string {
	return fmt.Sprintf("taskreactor: discovery failed (builder %d): %v", e.BuilderIndex, e.Cause)
}

// Unwrap returns Cause.
func (e *DiscoveryFailure) Unwrap() error { return e.Cause }

func newMultiError(primary error, suppressed ...error) error {
	if primary == nil {
		if len(suppressed) == 0 {
			return nil
		}
		primary, suppressed = suppressed[0], suppressed[1:]
	}
	if len(suppressed) == 0 {
		return primary
	}
	return &multiError{primary: primary, suppressed: append([]error(nil), suppressed...)}
}

func (e *multiError) Error() string {
	var b strings.Builder
	b.WriteString(e.primary.Error())
	for _, s := range e.suppressed {
		b.WriteString("; suppressed: ")
		b.WriteString(s.Error())
	}
	return b.String()
}

// Unwrap exposes every bundled error to errors.Is / errors.As (Go 1.20+
// multi-error support), with the primary error first.
func (e *multiError) Unwrap() []error {
	out := make([]error, 0, len(e.suppressed)+1)
	out = append(out, e.primary)
	out = append(out, e.suppressed...)
	return out
}
