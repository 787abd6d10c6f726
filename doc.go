// Package taskreactor implements a concurrent executor for a set of
// inter-dependent units of work whose dependencies are expressed not
// directly between tasks but through named synchronization points called
// milestones.
//
// The reactor computes a bipartite directed acyclic graph of tasks and
// milestones, dispatches ready work to a caller-supplied [Executor], and
// propagates completion events through the graph as they occur. Tasks may
// be added dynamically, including from within a running task's own Run
// method. Structured progress is reported via a [Listener].
//
// # Usage
//
//	r, err := taskreactor.New([]taskreactor.TaskBuilder{
//	    taskreactor.TaskBuilderFunc(func(r *taskreactor.Reactor) ([]taskreactor.Task, error) {
//	        return []taskreactor.Task{
//	            taskreactor.NewTask("fetch", nil, []taskreactor.Milestone{fetched}, false,
//	                func(r *taskreactor.Reactor) error { return nil }),
//	        }, nil
//	    }),
//	})
//	if err != nil {
//	    // a builder's DiscoverTasks failed; see DiscoveryFailure
//	}
//
//	if err := r.Execute(pool, listener); err != nil {
//	    var failure *taskreactor.ReactorFailure
//	    if errors.As(err, &failure) {
//	        // failure.Cause is the original task error
//	    }
//	}
//
// # Concurrency
//
// The reactor owns a single mutex plus condition variable; all graph
// mutation and scheduling decisions are serialized by it. A task's Run
// method, and every Listener callback, always execute outside that lock, so
// they may safely call [Reactor.Add] or [Reactor.AddAll] re-entrantly.
//
// Out of scope: persistence, distribution, priorities, deadlines,
// cancellation of in-flight tasks, cycle detection beyond what falls out
// naturally (a cycle simply leaves work un-runnable), dynamic removal of
// tasks, and reuse of a Reactor for a second Execute.
package taskreactor
