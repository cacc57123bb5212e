// Package iqc runs the analysis pipeline: configure, align, build
// multipliers, assemble the global LMI, solve, extract.
//
// [Analyze] maps every block of an uncertain system to its IQC multiplier,
// augments the plant state with the multiplier filter states, and forms the
// periodic dissipation inequality whose feasibility at level γ certifies
// that the worst-case induced gain from the free inputs to the performance
// outputs is at most γ. The smallest feasible level is located by an
// upward bracket followed by bisection; the trace and the certificate are
// returned in [Result].
//
// Solver infeasibility is not an error: it surfaces as Result.Valid=false
// with a NaN performance. Malformed systems (continuous timestep, unmapped
// block variants, misaligned horizon-periods) fail before any solve.
package iqc
