// Package sdp provides the semidefinite feasibility boundary consumed by
// the analysis engine.
//
// The [Solver] interface takes a compiled LMI program and a strictness
// shift and reports a feasible point or infeasibility. [Subgradient] is the
// default implementation: projected subgradient ascent on the concave
// minimum-eigenvalue function of the aggregated constraints. Any external
// SDP solver can be substituted behind the same interface.
package sdp
