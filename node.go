package taskreactor

// node is the reactor's internal representation of either a task or a
// milestone. All fields are guarded by the owning Reactor's mutex, except
// the body of action itself, which always runs lock-free.
type node struct {
	// prereqs are upstream nodes that must be done before this node may be
	// submitted.
	prereqs map[*node]struct{}

	// downstream are nodes that have this node in their prereqs.
	downstream map[*node]struct{}

	// action runs when the node is scheduled: for a task-node, it runs the
	// task and fires listener events; for a milestone-node, it fires
	// onAttained. It runs at most once, outside the reactor lock.
	action func()

	submitted bool
	done      bool

	// task and milestone are mutually exclusive; set according to which
	// kind of node this is, for diagnostics and iteration.
	task      Task
	milestone Milestone
	isTask    bool
}

func newTaskNode(t Task) *node {
	return &node{
		prereqs:    make(map[*node]struct{}),
		downstream: make(map[*node]struct{}),
		task:       t,
		isTask:     true,
	}
}

func newMilestoneNode(m Milestone) *node {
	return &node{
		prereqs:    make(map[*node]struct{}),
		downstream: make(map[*node]struct{}),
		milestone:  m,
	}
}

// addPrereq wires dep as a prerequisite of x: dep -> x.
func (x *node) addPrereq(dep *node) {
	x.prereqs[dep] = struct{}{}
	dep.downstream[x] = struct{}{}
}

// runnable reports whether every prerequisite of x is done. Caller must hold
// the reactor lock.
func (x *node) runnable() bool {
	for p := range x.prereqs {
		if !p.done {
			return false
		}
	}
	return true
}
