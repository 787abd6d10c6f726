package taskreactor

// Milestone is an opaque synchronization point. The reactor only ever
// compares milestones for equality, via Go's built-in `==`, and uses them as
// map keys internally — so any comparable value works, from an interned
// string to a pointer used purely for its identity. The reactor never
// constructs milestones on its own; it only interns the ones declared by
// tasks via Task.Requires and Task.Attains.
//
// A Milestone value MUST be comparable (usable as a map key). Passing an
// incomparable value (a slice, map, or func, or a struct/array containing
// one) will panic the first time the reactor attempts to intern it.
type Milestone any
