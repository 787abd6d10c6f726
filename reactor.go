package taskreactor

import (
	"fmt"
	"sync"
)

// RunTaskFunc is the overridable hook invoked in place of Task.Run for every
// task-node action. The default simply calls t.Run(r); a caller may override
// it via WithRunTaskHook to install per-task context (for example a
// thread-local "current task" marker) around the call.
type RunTaskFunc func(r *Reactor, t Task) error

func defaultRunTask(r *Reactor, t Task) error { return t.Run(r) }

// Option configures a Reactor at construction time.
type Option func(*Reactor)

// WithRunTaskHook overrides the function used to run a Task, wrapping
// Task.Run so a caller may install per-task context around it. See
// RunTaskFunc.
func WithRunTaskHook(fn RunTaskFunc) Option {
	return func(r *Reactor) {
		if fn != nil {
			r.runTask = fn
		}
	}
}

// WithDiagnosticLogger installs a DiagnosticLogger to receive reactor
// lifecycle diagnostics. The default is NoopDiagnosticLogger.
func WithDiagnosticLogger(log DiagnosticLogger) Option {
	return func(r *Reactor) {
		if log != nil {
			r.diag = log
		}
	}
}

// Reactor is a single-use concurrent executor of tasks wired together by the
// milestones they require and attain. Construct with New, populate further
// via Add/AddAll, then call Execute exactly once.
//
// The zero value is not usable; always construct via New.
type Reactor struct {
	mu   sync.Mutex
	cond sync.Cond

	milestones map[Milestone]*node
	nodes      []*node // task-nodes only, in insertion order (for Size/Iterate)

	pending   int
	executor  Executor
	listener  Listener
	fatal     error
	started   bool
	executed  bool

	runTask RunTaskFunc
	diag    DiagnosticLogger
}

// New constructs a Reactor, running every builder's DiscoverTasks in order
// and adding the tasks each returns. Builders may observe the partially
// constructed reactor (for example to Add further tasks of their own), but
// construction completes in full before any Execute call.
//
// Returns a DiscoveryFailure if any builder's DiscoverTasks returns an
// error; in that case the returned Reactor is nil.
func New(builders []TaskBuilder, opts ...Option) (*Reactor, error) {
	r := &Reactor{
		milestones: make(map[Milestone]*node),
		runTask:    defaultRunTask,
		diag:       NoopDiagnosticLogger{},
	}
	r.cond.L = &r.mu
	for _, opt := range opts {
		opt(r)
	}

	r.diag.Logf("construct", "discovering tasks from %d builder(s)", len(builders))
	for i, b := range builders {
		if b == nil {
			continue
		}
		tasks, err := b.DiscoverTasks(r)
		if err != nil {
			return nil, &DiscoveryFailure{BuilderIndex: i, Cause: err}
		}
		if err := r.AddAll(tasks); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Size reports the number of task nodes currently registered. Milestone
// nodes are not counted.
func (r *Reactor) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// Iterate returns the tasks currently registered with the reactor, in
// insertion order. The returned slice is a snapshot; it is not kept in sync
// with later Add/AddAll calls. It takes the reactor lock while copying, so
// it may be called concurrently with Execute and never sees a partially
// applied AddAll.
func (r *Reactor) Iterate() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.task
	}
	return out
}

// Add registers a single task. Equivalent to AddAll([]Task{task}).
func (r *Reactor) Add(task Task) error {
	return r.AddAll([]Task{task})
}

// AddAll atomically materializes nodes for every task in tasks, wires all
// edges, then attempts to schedule newly runnable nodes. It may be called
// before Execute, or re-entrantly from within a running task's Run method.
//
// Batching matters: tasks sharing a milestone must be added in the same
// AddAll call (or before Execute) for that milestone's wiring to be
// complete before any of them can run.
func (r *Reactor) AddAll(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	r.mu.Lock()

	taskNodes := make([]*node, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		tn := newTaskNode(t)
		for _, m := range t.Requires() {
			mn := r.milestoneNodeLocked(m)
			tn.addPrereq(mn)
		}
		for _, a := range t.Attains() {
			an := r.milestoneNodeLocked(a)
			an.addPrereq(tn)
		}
		tn.action = func() { r.runTaskNode(tn) }
		taskNodes = append(taskNodes, tn)
		r.nodes = append(r.nodes, tn)
	}

	added, total := len(taskNodes), len(r.nodes)

	if r.started {
		for _, tn := range taskNodes {
			r.tryRun(tn)
		}
		for _, mn := range r.milestones {
			r.tryRun(mn)
		}
	}

	r.mu.Unlock()
	r.diag.Logf("addAll", "added %d task(s), reactor now has %d total", added, total)
	return nil
}

// milestoneNodeLocked fetches or creates the node for m. Caller must hold r.mu.
func (r *Reactor) milestoneNodeLocked(m Milestone) *node {
	if mn, ok := r.milestones[m]; ok {
		return mn
	}
	mn := newMilestoneNode(m)
	mn.action = func() { r.runMilestoneNode(mn) }
	r.milestones[m] = mn
	return mn
}

// tryRun submits n to the executor if it is runnable. Caller must hold r.mu.
func (r *Reactor) tryRun(n *node) {
	if r.executor == nil || n.submitted {
		return
	}
	if !n.runnable() {
		return
	}
	n.submitted = true
	r.pending++
	r.executor.Submit(n.action)
}

// Execute is the single-use entry point: stores pool and listener, schedules
// every source node (nodes with no prerequisites), then blocks until no
// submitted node is still running: either every node is done, or a fatal
// error has been recorded and the nodes already in flight have finished.
//
// Returns ErrAlreadyExecuted if called more than once. Returns a
// *ReactorFailure wrapping the fatal cause if any task or listener call
// failed fatally.
func (r *Reactor) Execute(pool Executor, listener Listener) error {
	if pool == nil {
		panic(`taskreactor: Execute: nil pool`)
	}
	if listener == nil {
		listener = NOOP
	}

	r.mu.Lock()
	if r.executed {
		r.mu.Unlock()
		return ErrAlreadyExecuted
	}
	r.executed = true
	nodeCount, milestoneCount := len(r.nodes), len(r.milestones)
	r.mu.Unlock()

	r.diag.Logf("execute", "starting with %d task node(s), %d milestone(s)", nodeCount, milestoneCount)

	r.mu.Lock()
	r.started = true
	r.executor = pool
	r.listener = listener

	for _, n := range r.nodes {
		r.tryRun(n)
	}
	for _, mn := range r.milestones {
		r.tryRun(mn)
	}

	for r.pending > 0 && r.fatal == nil {
		r.cond.Wait()
	}
	// A fatal error stops scheduling of new work but not in-flight work;
	// drain remaining pending nodes before returning so the executor
	// reference can be safely released and a caller's process doesn't see
	// dangling submissions land on a torn-down reactor.
	for r.pending > 0 {
		r.cond.Wait()
	}

	fatal := r.fatal
	r.executor = nil
	r.listener = nil
	r.mu.Unlock()

	if fatal != nil {
		r.diag.Logf("execute", "fatal: %v", fatal)
		return fatal.(*ReactorFailure)
	}
	r.diag.Logf("execute", "completed without fatal error")
	return nil
}

// recordFatalLocked stores rf as the fatal failure if none is recorded yet;
// otherwise rf's cause and suppressed errors are folded into the existing
// failure's Suppressed list, preserving arrival order. Caller must hold r.mu.
//
// Once set, r.fatal is always a *ReactorFailure; nothing else ever assigns
// to the field.
func (r *Reactor) recordFatalLocked(rf *ReactorFailure) {
	if rf == nil {
		return
	}
	if r.fatal == nil {
		r.fatal = rf
		return
	}
	existing := r.fatal.(*ReactorFailure)
	existing.Suppressed = append(existing.Suppressed, rf.Cause)
	existing.Suppressed = append(existing.Suppressed, rf.Suppressed...)
}

// runMilestoneNode is the action closure of a milestone-node. Runs lock-free
// except for the scheduling critical section at the end.
func (r *Reactor) runMilestoneNode(n *node) {
	err := r.listener.OnAttained(n.milestone)

	r.mu.Lock()
	n.done = true
	if err != nil {
		r.recordFatalLocked(&ReactorFailure{Cause: fmt.Errorf("taskreactor: onAttained listener: %w", err)})
	}
	if r.fatal == nil {
		for d := range n.downstream {
			r.tryRun(d)
		}
	}
	r.pending--
	r.cond.Broadcast()
	r.mu.Unlock()
}

// runTaskNode is the action closure of a task-node. Runs lock-free except
// for the scheduling critical section at the end.
func (r *Reactor) runTaskNode(n *node) {
	t := n.task

	var fatalErr *ReactorFailure

	if err := r.listener.OnTaskStarted(t); err != nil {
		fatalErr = &ReactorFailure{Cause: fmt.Errorf("taskreactor: onTaskStarted listener: %w", err)}
	} else {
		runErr := func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("taskreactor: task %q panicked: %v", t.DisplayName(), p)
				}
			}()
			return r.runTask(r, t)
		}()

		if runErr == nil {
			if err := r.listener.OnTaskCompleted(t); err != nil {
				fatalErr = &ReactorFailure{Cause: fmt.Errorf("taskreactor: onTaskCompleted listener: %w", err)}
			}
		} else {
			tunneled := &tunnel{cause: runErr}
			if lErr := r.listener.OnTaskFailed(t, tunneled.cause, t.FailureIsFatal()); lErr != nil {
				// The listener itself threw while reporting a task failure:
				// this is always fatal, with the original task error
				// attached as a suppressed error, per the suppressed-error
				// ordering the aggregator already uses elsewhere.
				fatalErr = &ReactorFailure{
					Cause:      fmt.Errorf("taskreactor: onTaskFailed listener: %w", lErr),
					Suppressed: []error{tunneled.cause},
				}
			} else if t.FailureIsFatal() {
				fatalErr = &ReactorFailure{Cause: tunneled.cause}
			}
			// non-fatal task failure: swallowed, downstream milestones are
			// still attained as though t had succeeded.
		}
	}

	r.mu.Lock()
	n.done = true
	if fatalErr != nil {
		r.recordFatalLocked(fatalErr)
	}
	if r.fatal == nil {
		for d := range n.downstream {
			r.tryRun(d)
		}
	}
	r.pending--
	r.cond.Broadcast()
	r.mu.Unlock()
}
