package taskreactor

import "fmt"

type (
	// Task is an immutable unit of work. Instances are normally created via
	// NewTask or the fluent NewTaskSpec builder, but any type satisfying
	// this interface may be handed to Reactor.Add / Reactor.AddAll.
	Task interface {
		// Requires lists the milestones that must be attained before this
		// task may start.
		Requires() []Milestone

		// Attains lists the milestones this task contributes to.
		Attains() []Milestone

		// DisplayName is used for progress reporting only.
		DisplayName() string

		// FailureIsFatal reports whether a returned error from Run should
		// abort the reactor (true) or merely be reported, with the graph
		// proceeding as though the task had succeeded (false).
		FailureIsFatal() bool

		// Run performs the task's work. It may call Reactor.Add or
		// Reactor.AddAll to register more tasks.
		Run(r *Reactor) error
	}

	// RunFunc is the signature of Task.Run, exposed for NewTask callers.
	RunFunc func(r *Reactor) error

	taskImpl struct {
		requires    []Milestone
		attains     []Milestone
		displayName string
		fatal       bool
		run         RunFunc
	}
)

// NewTask constructs a Task from its constituent parts. run must not be nil.
func NewTask(displayName string, requires, attains []Milestone, fatal bool, run RunFunc) Task {
	if run == nil {
		panic(`taskreactor: NewTask: nil run func`)
	}
	return &taskImpl{
		requires:    append([]Milestone(nil), requires...),
		attains:     append([]Milestone(nil), attains...),
		displayName: displayName,
		fatal:       fatal,
		run:         run,
	}
}

func (x *taskImpl) Requires() []Milestone      { return x.requires }
func (x *taskImpl) Attains() []Milestone       { return x.attains }
func (x *taskImpl) DisplayName() string        { return x.displayName }
func (x *taskImpl) FailureIsFatal() bool       { return x.fatal }
func (x *taskImpl) Run(r *Reactor) error       { return x.run(r) }

// TaskSpec is a fluent, mutable builder for a single Task. Zero value is
// usable; DisplayName defaults to "" and FailureIsFatal defaults to false
// (a non-fatal task) until Fatal is called.
//
//	task := taskreactor.NewTaskSpec("1st").
//	    NotFatal().
//	    Attains(m1).
//	    Run(func(r *taskreactor.Reactor) error { return errBoom })
type TaskSpec struct {
	name     string
	requires []Milestone
	attains  []Milestone
	fatal    bool
}

// NewTaskSpec starts a fluent Task builder with the given display name.
func NewTaskSpec(displayName string) *TaskSpec {
	return &TaskSpec{name: displayName}
}

// Requires appends to the set of milestones this task requires.
func (x *TaskSpec) Requires(m ...Milestone) *TaskSpec {
	x.requires = append(x.requires, m...)
	return x
}

// Attains appends to the set of milestones this task attains.
func (x *TaskSpec) Attains(m ...Milestone) *TaskSpec {
	x.attains = append(x.attains, m...)
	return x
}

// Fatal marks the task as fatal on failure (the default is non-fatal).
func (x *TaskSpec) Fatal() *TaskSpec {
	x.fatal = true
	return x
}

// NotFatal marks the task as non-fatal on failure (this is already the
// default, provided for readability at call sites).
func (x *TaskSpec) NotFatal() *TaskSpec {
	x.fatal = false
	return x
}

// Run finalizes the spec into a Task, using fn as its action.
func (x *TaskSpec) Run(fn RunFunc) Task {
	return NewTask(x.name, x.requires, x.attains, x.fatal, fn)
}

type (
	// TaskBuilder discovers a batch of tasks, optionally observing the
	// Reactor it will be (or is being) added to. Implementations external
	// to this package may wrap annotation-index-based discovery, config
	// file parsing, or anything else; the reactor only ever consumes the
	// returned slice.
	TaskBuilder interface {
		DiscoverTasks(r *Reactor) ([]Task, error)
	}

	// TaskBuilderFunc adapts a function to TaskBuilder.
	TaskBuilderFunc func(r *Reactor) ([]Task, error)
)

// DiscoverTasks implements TaskBuilder.
func (f TaskBuilderFunc) DiscoverTasks(r *Reactor) ([]Task, error) { return f(r) }

// EMPTY is a TaskBuilder that discovers no tasks.
var EMPTY TaskBuilder = TaskBuilderFunc(func(*Reactor) ([]Task, error) { return nil, nil })

// FromTasks wraps a fixed collection of already-constructed tasks as a
// TaskBuilder.
func FromTasks(tasks ...Task) TaskBuilder {
	cp := append([]Task(nil), tasks...)
	return TaskBuilderFunc(func(*Reactor) ([]Task, error) { return cp, nil })
}

// Union combines multiple builders into one, discovering tasks from each in
// order and concatenating the results. If any builder fails, Union stops and
// returns that error, wrapped with the index of the failing builder.
func Union(builders ...TaskBuilder) TaskBuilder {
	cp := append([]TaskBuilder(nil), builders...)
	return TaskBuilderFunc(func(r *Reactor) ([]Task, error) {
		var out []Task
		for i, b := range cp {
			tasks, err := b.DiscoverTasks(r)
			if err != nil {
				return nil, fmt.Errorf("taskreactor: union: builder %d: %w", i, err)
			}
			out = append(out, tasks...)
		}
		return out, nil
	})
}
