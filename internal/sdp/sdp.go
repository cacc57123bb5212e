package sdp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/lmi"
)

// ErrEigen indicates an eigendecomposition failure inside the feasibility
// oracle. It never escapes as a certified result: callers see it as an
// invalid solve.
var ErrEigen = errors.New("sdp: eigendecomposition failed")

// Solver decides feasibility of a compiled LMI program: find x with
// F_c(x) ⪰ shift·I for every constraint c. Implementations return the
// decision vector on success; infeasibility is reported through
// Solution.Feasible, not as an error.
type Solver interface {
	Solve(c *lmi.Compiled, shift float64) (*lmi.Solution, error)
}

// Tolerances bounds the work of the default solver.
type Tolerances struct {
	MaxIter int
	// InitStep scales the per-iteration move cap.
	InitStep float64
	// Margin is how far above the requested shift the oracle pushes the
	// minimum eigenvalue before declaring feasibility.
	Margin float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		MaxIter:  4000,
		InitStep: 1.0,
		Margin:   1e-9,
	}
}

// Subgradient maximizes the minimum eigenvalue over all constraints by
// target-level subgradient steps. φ(x) = min_c λmin(F_c(x)) is concave in
// x; at the worst constraint with unit eigenvector v, the subgradient
// component for scalar k is vᵀFₖv. Each step projects onto the halfspace
// where the linearization reaches the target level, so the distance to
// the feasible level set never grows even when steps fail to improve φ,
// which happens whenever the minimum eigenvalue is degenerate.
type Subgradient struct {
	Tol Tolerances

	// Progress, when set, observes each accepted iterate.
	Progress func(iter int, minEig float64)
}

func NewSubgradient() *Subgradient {
	return &Subgradient{Tol: DefaultTolerances()}
}

func (s *Subgradient) Solve(c *lmi.Compiled, shift float64) (*lmi.Solution, error) {
	if len(c.Constraints) == 0 {
		return lmi.NewSolution(c, make([]float64, c.NumScalars), true, math.Inf(1), 0), nil
	}

	x := make([]float64, c.NumScalars)
	best := make([]float64, c.NumScalars)
	phi, worst, v, err := evaluate(c, x)
	if err != nil {
		return nil, err
	}
	bestPhi := phi
	copy(best, x)

	// Aim slightly above the acceptance level so the projection reaches
	// the margin instead of crawling toward it asymptotically. The move
	// cap keeps infeasible programs from running off to overflow.
	aim := shift + 2*s.Tol.Margin
	maxMove := 1e6 * s.Tol.InitStep

	iters := 0
	for iter := 0; iter < s.Tol.MaxIter; iter++ {
		iters = iter + 1
		if bestPhi >= shift+s.Tol.Margin {
			break
		}

		g := gradient(c, worst, v)
		norm2 := 0.0
		for _, gi := range g {
			norm2 += gi * gi
		}
		if norm2 < 1e-28 {
			// No decision variable moves the active eigenvalue.
			break
		}

		// Every step is kept, improving or not: with a degenerate minimum
		// eigenvalue a single-eigenvector step need not raise φ, but it
		// still shrinks the distance to every point of the target level
		// set.
		t := (aim - phi) / norm2
		if move := t * math.Sqrt(norm2); move > maxMove {
			t = maxMove / math.Sqrt(norm2)
		}
		for k := range x {
			x[k] += t * g[k]
		}

		phi, worst, v, err = evaluate(c, x)
		if err != nil {
			return nil, err
		}
		if phi > bestPhi {
			bestPhi = phi
			copy(best, x)
		}

		if s.Progress != nil {
			s.Progress(iter, bestPhi)
		}
	}

	feasible := bestPhi >= shift+s.Tol.Margin
	return lmi.NewSolution(c, best, feasible, bestPhi, iters), nil
}

// evaluate returns the minimum eigenvalue over all constraints, the index
// of the worst constraint, and its unit eigenvector.
func evaluate(c *lmi.Compiled, x []float64) (float64, int, []float64, error) {
	phi := math.Inf(1)
	worst := -1
	var vec []float64
	for i := range c.Constraints {
		f := c.Constraints[i].Eval(x)
		val, v, err := minEig(f)
		if err != nil {
			return 0, 0, nil, err
		}
		if val < phi {
			phi = val
			worst = i
			vec = v
		}
	}
	return phi, worst, vec, nil
}

func gradient(c *lmi.Compiled, worst int, v []float64) []float64 {
	cc := &c.Constraints[worst]
	g := make([]float64, c.NumScalars)
	for k, f := range cc.F {
		if f == nil {
			continue
		}
		// vᵀ F v
		acc := 0.0
		for i := 0; i < cc.Dim; i++ {
			row := 0.0
			for j := 0; j < cc.Dim; j++ {
				row += f.At(i, j) * v[j]
			}
			acc += v[i] * row
		}
		g[k] = acc
	}
	return g
}

func minEig(f *mat.SymDense) (float64, []float64, error) {
	var eig mat.EigenSym
	if !eig.Factorize(f, true) {
		return 0, nil, ErrEigen
	}
	vals := eig.Values(nil)
	idx := 0
	for i, v := range vals {
		if v < vals[idx] {
			idx = i
		}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	n, _ := f.Dims()
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = vecs.At(i, idx)
	}
	return vals[idx], v, nil
}
