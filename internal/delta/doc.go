// Package delta provides the catalog of uncertainty and disturbance blocks
// attached to uncertain systems.
//
// Every block implements [Delta]: per-step channel dimensions under a
// horizon-period, eager validation, horizon-period re-expansion, and
// seeded random sampling of concrete admissible realizations. Variants:
//
//   - [Slti]: static time-invariant real gain, |δ| ≤ bound
//   - [Dlti]: norm-bounded dynamic LTI operator
//   - [Sltv]: arbitrarily time-varying gain with per-step bounds
//   - [SltvRateBound]: time-varying gain with magnitude and rate bounds
//   - [SectorBounded]: memoryless sector-bounded nonlinearity
//   - [DelaySlti]: integer delay of unknown length up to a maximum
//   - [DelayZ], [Integrator]: exact state operators (z⁻¹ and 1/s)
//   - [ConstantWindow]: disturbance frozen across a step window
//
// Blocks are immutable once constructed. The matching IQC multipliers live
// in the mult package, which dispatches on the concrete block type.
package delta
