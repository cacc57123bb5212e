package lmi

import (
	"gonum.org/v1/gonum/mat"
)

// Compiled is the canonical scalarized form of a program: every constraint
// becomes F(x) = F0 + Σ xₖFₖ ⪰ 0 over one shared scalar decision vector x,
// obtained by enumerating the upper-triangular entries of every symmetric
// matrix variable.
type Compiled struct {
	NumScalars  int
	offsets     []int
	vars        []Var
	Constraints []CompiledConstraint
}

type CompiledConstraint struct {
	Name string
	Dim  int
	F0   *mat.SymDense
	// F[k] is the coefficient of scalar k; nil entries are zero.
	F []*mat.SymDense
}

// Compile scalarizes the program. The mapping from variable entries to
// scalar indices is row-major over the upper triangle, variable by variable
// in declaration order.
func (p *Program) Compile() *Compiled {
	c := &Compiled{vars: p.vars}
	c.offsets = make([]int, len(p.vars))
	n := 0
	for i, v := range p.vars {
		c.offsets[i] = n
		n += v.Scalars()
	}
	c.NumScalars = n

	for _, con := range p.constraints {
		cc := CompiledConstraint{
			Name: con.Name,
			Dim:  con.Expr.dim,
			F0:   mat.NewSymDense(con.Expr.dim, nil),
			F:    make([]*mat.SymDense, n),
		}
		if con.Expr.con != nil {
			symmetrize(cc.F0, con.Expr.con)
		}
		for _, t := range con.Expr.terms {
			p.scalarizeTerm(c, &cc, t)
		}
		c.Constraints = append(c.Constraints, cc)
	}
	return c
}

func (p *Program) scalarizeTerm(c *Compiled, cc *CompiledConstraint, t term) {
	if t.k != nil {
		idx := c.offsets[t.v.id]
		if cc.F[idx] == nil {
			cc.F[idx] = mat.NewSymDense(cc.Dim, nil)
		}
		accumulateSym(cc.F[idx], t.k)
		return
	}
	nv := t.v.dim
	base := c.offsets[t.v.id]
	k := 0
	basis := mat.NewDense(nv, nv, nil)
	for i := 0; i < nv; i++ {
		for j := i; j < nv; j++ {
			basis.Zero()
			basis.Set(i, j, 1)
			if i != j {
				basis.Set(j, i, 1)
			}

			var lb, contrib mat.Dense
			lb.Mul(t.l, basis)
			contrib.Mul(&lb, t.r)
			if t.pair {
				var tr mat.Dense
				tr.CloneFrom(contrib.T())
				contrib.Add(&contrib, &tr)
			}

			idx := base + k
			if cc.F[idx] == nil {
				cc.F[idx] = mat.NewSymDense(cc.Dim, nil)
			}
			accumulateSym(cc.F[idx], &contrib)
			k++
		}
	}
}

// scalarIndex maps an upper-triangular entry (i,j), i ≤ j, of variable v to
// its position in the shared decision vector.
func (c *Compiled) scalarIndex(v Var, i, j int) int {
	n := v.dim
	// Row-major upper triangle offset of (i,j).
	return c.offsets[v.id] + i*n - i*(i-1)/2 + (j - i)
}

// Eval computes F0 + Σ xₖFₖ for one compiled constraint.
func (cc *CompiledConstraint) Eval(x []float64) *mat.SymDense {
	out := mat.NewSymDense(cc.Dim, nil)
	out.CopySym(cc.F0)
	for k, f := range cc.F {
		if f == nil || x[k] == 0 {
			continue
		}
		for i := 0; i < cc.Dim; i++ {
			for j := i; j < cc.Dim; j++ {
				out.SetSym(i, j, out.At(i, j)+x[k]*f.At(i, j))
			}
		}
	}
	return out
}

// Solution carries the decision vector of a feasible point and maps it back
// to the program's matrix variables.
type Solution struct {
	Feasible bool
	// MinEig is the smallest eigenvalue over all constraints at the point.
	MinEig     float64
	Iterations int
	X          []float64

	compiled *Compiled
}

func NewSolution(c *Compiled, x []float64, feasible bool, minEig float64, iters int) *Solution {
	return &Solution{Feasible: feasible, MinEig: minEig, Iterations: iters, X: x, compiled: c}
}

// Matrix reconstructs the value of a symmetric matrix variable.
func (s *Solution) Matrix(v Var) *mat.SymDense {
	out := mat.NewSymDense(v.dim, nil)
	for i := 0; i < v.dim; i++ {
		for j := i; j < v.dim; j++ {
			out.SetSym(i, j, s.X[s.compiled.scalarIndex(v, i, j)])
		}
	}
	return out
}

func symmetrize(dst *mat.SymDense, src *mat.Dense) {
	n, _ := src.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(src.At(i, j)+src.At(j, i)))
		}
	}
}

func accumulateSym(dst *mat.SymDense, src *mat.Dense) {
	n, _ := src.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, dst.At(i, j)+0.5*(src.At(i, j)+src.At(j, i)))
		}
	}
}
