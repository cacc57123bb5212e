package lmi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Congruence maps an expression E of dimension r through a linear signal
// map s = T·ξ, returning Tᵀ·E·T as an expression over ξ. T must be r×n;
// the result has dimension n. Used to push quadratic forms stated on
// filter outputs down to augmented state/input coordinates.
func Congruence(e *Expr, t *mat.Dense) (*Expr, error) {
	tr, tc := t.Dims()
	if tr != e.dim {
		return nil, fmt.Errorf("%w: map has %d rows, expression dim %d", ErrDimension, tr, e.dim)
	}
	out := &Expr{dim: tc}
	if e.con != nil {
		var tmp, res mat.Dense
		tmp.Mul(t.T(), e.con)
		res.Mul(&tmp, t)
		out.con = &res
	}
	for _, tm := range e.terms {
		if tm.k != nil {
			var tmp, nk mat.Dense
			tmp.Mul(t.T(), tm.k)
			nk.Mul(&tmp, t)
			out.terms = append(out.terms, term{v: tm.v, k: &nk})
			continue
		}
		var nl, nr mat.Dense
		nl.Mul(t.T(), tm.l)
		nr.Mul(tm.r, t)
		out.terms = append(out.terms, term{l: &nl, r: &nr, v: tm.v, pair: tm.pair})
	}
	return out, nil
}

// Accumulate adds another expression of the same dimension into e.
func (e *Expr) Accumulate(other *Expr) error {
	if other.dim != e.dim {
		return fmt.Errorf("%w: accumulating dim %d into dim %d", ErrDimension, other.dim, e.dim)
	}
	if other.con != nil {
		if err := e.AddConst(other.con); err != nil {
			return err
		}
	}
	e.terms = append(e.terms, other.terms...)
	return nil
}
