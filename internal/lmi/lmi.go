package lmi

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimension indicates a term or constant whose shape does not match
	// its expression or variable.
	ErrDimension = errors.New("lmi: dimension mismatch")
)

// Var identifies one symmetric matrix decision variable in a program.
type Var struct {
	id   int
	name string
	dim  int
}

func (v Var) Name() string { return v.name }
func (v Var) Dim() int     { return v.dim }

// Scalars is the number of free entries of the variable: n(n+1)/2.
func (v Var) Scalars() int { return v.dim * (v.dim + 1) / 2 }

// Program collects symmetric matrix decision variables and affine matrix
// inequality constraints of the form E(x) ⪰ 0.
type Program struct {
	vars        []Var
	constraints []Constraint
}

func NewProgram() *Program {
	return &Program{}
}

// NewVariable declares a symmetric dim×dim decision variable.
func (p *Program) NewVariable(name string, dim int) Var {
	v := Var{id: len(p.vars), name: name, dim: dim}
	p.vars = append(p.vars, v)
	return v
}

func (p *Program) Variables() []Var { return p.vars }

// Require adds the constraint e ⪰ 0.
func (p *Program) Require(name string, e *Expr) {
	p.constraints = append(p.constraints, Constraint{Name: name, Expr: e})
}

func (p *Program) Constraints() []Constraint { return p.constraints }

type Constraint struct {
	Name string
	Expr *Expr
}

// term contributes L·X·R to its expression, plus the transpose when pair
// is set. When k is non-nil the term is x·K for a scalar variable instead.
type term struct {
	l, r *mat.Dense
	v    Var
	pair bool
	k    *mat.Dense
}

// Expr is an affine symmetric matrix expression: a constant plus terms
// linear in the program's decision variables.
type Expr struct {
	dim   int
	con   *mat.Dense
	terms []term
}

func NewExpr(dim int) *Expr {
	return &Expr{dim: dim}
}

func (e *Expr) Dim() int { return e.dim }

// AddConst accumulates a constant symmetric matrix.
func (e *Expr) AddConst(m mat.Matrix) error {
	r, c := m.Dims()
	if r != e.dim || c != e.dim {
		return fmt.Errorf("%w: constant is %dx%d, expression is %dx%d", ErrDimension, r, c, e.dim, e.dim)
	}
	if e.con == nil {
		e.con = mat.NewDense(e.dim, e.dim, nil)
	}
	e.con.Add(e.con, m)
	return nil
}

// AddSym adds the one-sided symmetric term L·X·Lᵀ.
func (e *Expr) AddSym(l *mat.Dense, v Var) error {
	lr, lc := l.Dims()
	if lr != e.dim || lc != v.dim {
		return fmt.Errorf("%w: left factor is %dx%d, want %dx%d", ErrDimension, lr, lc, e.dim, v.dim)
	}
	var r mat.Dense
	r.CloneFrom(l.T())
	e.terms = append(e.terms, term{l: l, r: &r, v: v})
	return nil
}

// AddSymScaled adds the scaled one-sided term s·L·X·Lᵀ.
func (e *Expr) AddSymScaled(l *mat.Dense, v Var, s float64) error {
	lr, lc := l.Dims()
	if lr != e.dim || lc != v.dim {
		return fmt.Errorf("%w: left factor is %dx%d, want %dx%d", ErrDimension, lr, lc, e.dim, v.dim)
	}
	var sl, r mat.Dense
	sl.Scale(s, l)
	r.CloneFrom(l.T())
	e.terms = append(e.terms, term{l: &sl, r: &r, v: v})
	return nil
}

// AddScaledConst adds x·K for a scalar (1x1) variable x and a constant
// symmetric matrix K.
func (e *Expr) AddScaledConst(v Var, k mat.Matrix) error {
	if v.dim != 1 {
		return fmt.Errorf("%w: AddScaledConst requires a scalar variable, got dim %d", ErrDimension, v.dim)
	}
	r, c := k.Dims()
	if r != e.dim || c != e.dim {
		return fmt.Errorf("%w: coefficient is %dx%d, expression is %dx%d", ErrDimension, r, c, e.dim, e.dim)
	}
	var kd mat.Dense
	kd.CloneFrom(k)
	e.terms = append(e.terms, term{v: v, k: &kd})
	return nil
}

// AddPair adds the paired term L·X·R + Rᵀ·X·Lᵀ.
func (e *Expr) AddPair(l *mat.Dense, v Var, r *mat.Dense) error {
	lr, lc := l.Dims()
	rr, rc := r.Dims()
	if lr != e.dim || lc != v.dim || rr != v.dim || rc != e.dim {
		return fmt.Errorf("%w: pair factors are %dx%d and %dx%d for var dim %d",
			ErrDimension, lr, lc, rr, rc, v.dim)
	}
	e.terms = append(e.terms, term{l: l, r: r, v: v, pair: true})
	return nil
}

// AddScaledVar adds s·X, requiring the variable dimension to match the
// expression.
func (e *Expr) AddScaledVar(v Var, s float64) error {
	if v.dim != e.dim {
		return fmt.Errorf("%w: variable dim %d, expression dim %d", ErrDimension, v.dim, e.dim)
	}
	l := mat.NewDense(e.dim, e.dim, nil)
	r := mat.NewDense(e.dim, e.dim, nil)
	for i := 0; i < e.dim; i++ {
		l.Set(i, i, s)
		r.Set(i, i, 0.5)
	}
	// s·X = (sI)·X·(I/2) + (I/2)·X·(sI) since X is symmetric.
	e.terms = append(e.terms, term{l: l, r: r, v: v, pair: true})
	return nil
}

// AddShift accumulates s·I.
func (e *Expr) AddShift(s float64) {
	if e.con == nil {
		e.con = mat.NewDense(e.dim, e.dim, nil)
	}
	for i := 0; i < e.dim; i++ {
		e.con.Set(i, i, e.con.At(i, i)+s)
	}
}

// Negate returns the expression -E, used to state E ⪯ 0 as -E ⪰ 0.
func (e *Expr) Negate() *Expr {
	out := &Expr{dim: e.dim}
	if e.con != nil {
		out.con = mat.NewDense(e.dim, e.dim, nil)
		out.con.Scale(-1, e.con)
	}
	for _, t := range e.terms {
		if t.k != nil {
			var nk mat.Dense
			nk.Scale(-1, t.k)
			out.terms = append(out.terms, term{v: t.v, k: &nk})
			continue
		}
		var nl mat.Dense
		nl.Scale(-1, t.l)
		out.terms = append(out.terms, term{l: &nl, r: t.r, v: t.v, pair: t.pair})
	}
	return out
}
