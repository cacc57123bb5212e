// Package lmi builds linear matrix inequality programs.
//
// A [Program] collects symmetric matrix decision variables and affine
// constraints E(x) ⪰ 0, where each [Expr] is a constant plus terms of the
// form L·X·Lᵀ or L·X·R + Rᵀ·X·Lᵀ in the variables. [Program.Compile]
// scalarizes everything into the canonical semidefinite form
// F(x) = F0 + Σ xₖFₖ ⪰ 0 consumed by the sdp package.
package lmi
