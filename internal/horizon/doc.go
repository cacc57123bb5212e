// Package horizon provides the periodic time-indexing primitives shared by
// every uncertain-system object in this module.
//
// A [HorizonPeriod] (H,P) splits the infinite discrete time axis into a
// transient of H unique steps followed by a block of P steps repeating
// forever. Per-step data is stored in arrays of length H+P; [HorizonPeriod.Index]
// normalizes an absolute step into that backing array.
//
//   - [Common]: minimal simultaneous refinement of several horizon-periods
//   - [Expand]: re-tile a per-step array onto a refined horizon-period
//
// Two objects can be combined only when their horizon-periods match
// exactly; composition code aligns operands through [Common] and [Expand]
// first.
package horizon
