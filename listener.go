package taskreactor

// Listener receives structured progress events from a Reactor. All four
// methods default to no-op via NoopListener, which implementations may
// embed to override only the events they care about.
//
// Events to a given Listener instance may arrive concurrently, on different
// goroutines (one per task-node completing independently); implementations
// that need serialization must provide their own.
//
// A non-nil error returned from any method is always treated as fatal to
// the reactor — including errors from OnTaskStarted / OnTaskCompleted,
// which are distinct from a task's own failure (reported via
// OnTaskFailed).
type Listener interface {
	// OnTaskStarted fires immediately before t.Run.
	OnTaskStarted(t Task) error

	// OnTaskCompleted fires after t.Run returns nil. Exclusive with
	// OnTaskFailed: exactly one of the two fires per task.
	OnTaskCompleted(t Task) error

	// OnTaskFailed fires after t.Run returns a non-nil error. fatal mirrors
	// t.FailureIsFatal(): true means the reactor will abort once in-flight
	// work drains, false means the graph proceeds as though t had
	// succeeded.
	OnTaskFailed(t Task, err error, fatal bool) error

	// OnAttained fires exactly once per distinct milestone, after every
	// task attaining it has emitted its completion or failure event (or
	// immediately, for a milestone with no contributing task).
	OnAttained(m Milestone) error
}

// NoopListener implements Listener with every method a no-op. Embed it to
// get defaults for events you don't care about.
type NoopListener struct{}

func (NoopListener) OnTaskStarted(Task) error             { return nil }
func (NoopListener) OnTaskCompleted(Task) error           { return nil }
func (NoopListener) OnTaskFailed(Task, error, bool) error { return nil }
func (NoopListener) OnAttained(Milestone) error           { return nil }

// NOOP is a Listener that does nothing and never fails.
var NOOP Listener = NoopListener{}

// Aggregator fans each event out to every listed sub-listener, in
// registration order, and is itself a Listener. If one or more
// sub-listeners return an error for a given event, the first is retained
// and every subsequent one is attached to it as a suppressed error, in one
// combined error whose Unwrap exposes all of them to errors.Is / errors.As;
// all sub-listeners still run regardless of earlier failures.
type Aggregator []Listener

// NewAggregator is a convenience constructor, equivalent to
// Aggregator(listeners).
func NewAggregator(listeners ...Listener) Aggregator {
	return append(Aggregator(nil), listeners...)
}

func (a Aggregator) OnTaskStarted(t Task) error {
	return a.fanOut(func(l Listener) error { return l.OnTaskStarted(t) })
}

func (a Aggregator) OnTaskCompleted(t Task) error {
	return a.fanOut(func(l Listener) error { return l.OnTaskCompleted(t) })
}

func (a Aggregator) OnTaskFailed(t Task, err error, fatal bool) error {
	return a.fanOut(func(l Listener) error { return l.OnTaskFailed(t, err, fatal) })
}

func (a Aggregator) OnAttained(m Milestone) error {
	return a.fanOut(func(l Listener) error { return l.OnAttained(m) })
}

func (a Aggregator) fanOut(call func(Listener) error) error {
	var primary error
	var suppressed []error
	for _, l := range a {
		if l == nil {
			continue
		}
		if err := call(l); err != nil {
			if primary == nil {
				primary = err
			} else {
				suppressed = append(suppressed, err)
			}
		}
	}
	return newMultiError(primary, suppressed...)
}
