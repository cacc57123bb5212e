// Package mult builds the IQC multiplier matching each uncertainty or
// disturbance block.
//
// A [Multiplier] pairs a stable filter applied to the block's channel with
// matrix decision variables and side constraints (semidefiniteness or a
// KYP certificate) forming the middle matrix of the quadratic constraint.
// [ForDelta] dispatches on the concrete block type:
//
//   - static gain, dynamic LTI, unknown delay → filtered D-scalings
//   - time-varying gains → memoryless per-step scalings
//   - sector nonlinearity → per-step weighted sector form
//   - delay state operator → per-step storage telescoping
//   - constant-window disturbance → first-difference S-procedure term
//
// The basis is specified through the [BasisSpec] tagged union: generated
// from length and poles, or supplied as transfer functions, a scalar-input
// realization, or a full block realization.
package mult
