package ss

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

var (
	// ErrType marks a wrong object kind at the conversion boundary.
	ErrType = errors.New("ss: wrong input kind")
	// ErrHorizon marks a system whose horizon-period is not the trivial
	// single-period case.
	ErrHorizon = errors.New("ss: non-trivial horizon-period")
	// ErrSingular marks a frequency response evaluation that hit a singular
	// resolvent or an unsolvable algebraic loop.
	ErrSingular = errors.New("ss: singular system matrix")
)

// StateSpace is a plain time-invariant linear system. Dt > 0 is the sample
// interval of a discrete-time system; zero marks continuous time. A nil A
// matrix means a static system.
type StateSpace struct {
	A, B, C, D *mat.Dense
	Dt         float64
}

// New validates the realization dimensions against D, which is required
// and fixes the io widths.
func New(a, b, c, d *mat.Dense, dt float64) (*StateSpace, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: d matrix is required", ErrType)
	}
	if dt < 0 {
		return nil, fmt.Errorf("%w: negative sample interval %g", ErrType, dt)
	}
	out, in := d.Dims()
	n := 0
	if a != nil {
		r, cc := a.Dims()
		if r != cc {
			return nil, fmt.Errorf("%w: a is %dx%d", horizon.ErrDimension, r, cc)
		}
		n = r
	}
	if b != nil {
		r, cc := b.Dims()
		if r != n || cc != in {
			return nil, fmt.Errorf("%w: b is %dx%d, want %dx%d", horizon.ErrDimension, r, cc, n, in)
		}
	} else if n > 0 {
		return nil, fmt.Errorf("%w: missing b for %d states", horizon.ErrDimension, n)
	}
	if c != nil {
		r, cc := c.Dims()
		if r != out || cc != n {
			return nil, fmt.Errorf("%w: c is %dx%d, want %dx%d", horizon.ErrDimension, r, cc, out, n)
		}
	} else if n > 0 {
		return nil, fmt.Errorf("%w: missing c for %d states", horizon.ErrDimension, n)
	}
	return &StateSpace{A: a, B: b, C: c, D: d, Dt: dt}, nil
}

func (s *StateSpace) StateDim() int {
	if s.A == nil {
		return 0
	}
	n, _ := s.A.Dims()
	return n
}

func (s *StateSpace) InDim() int {
	_, in := s.D.Dims()
	return in
}

func (s *StateSpace) OutDim() int {
	out, _ := s.D.Dims()
	return out
}

// Response evaluates the frequency response G at one point on the
// stability boundary: z = e^{jθ} for a discrete system with θ = omega·Dt,
// or s = jω for a continuous one. The complex resolvent is solved in a
// doubled real embedding, since the dense algebra here is real-only.
func (s *StateSpace) Response(omega float64) (re, im *mat.Dense, err error) {
	out, in := s.D.Dims()
	n := s.StateDim()
	if n == 0 {
		return cloneDense(s.D), mat.NewDense(out, in, nil), nil
	}

	var lr, li float64
	if s.Dt > 0 {
		theta := omega * s.Dt
		lr, li = math.Cos(theta), math.Sin(theta)
	} else {
		lr, li = 0, omega
	}

	// (λI - A)X = B with λ = lr + j·li, stacked as [Xr; Xi].
	big := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -s.A.At(i, j)
			if i == j {
				big.Set(i, j, lr+v)
				big.Set(n+i, n+j, lr+v)
			} else {
				big.Set(i, j, v)
				big.Set(n+i, n+j, v)
			}
		}
		big.Set(i, n+i, -li)
		big.Set(n+i, i, li)
	}
	rhs := mat.NewDense(2*n, in, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < in; j++ {
			rhs.Set(i, j, s.B.At(i, j))
		}
	}
	var x mat.Dense
	if err := x.Solve(big, rhs); err != nil {
		return nil, nil, fmt.Errorf("%w: at omega %g", ErrSingular, omega)
	}

	xr := x.Slice(0, n, 0, in)
	xi := x.Slice(n, 2*n, 0, in)
	gr := mat.NewDense(out, in, nil)
	gi := mat.NewDense(out, in, nil)
	gr.Mul(s.C, xr)
	gr.Add(gr, s.D)
	gi.Mul(s.C, xi)
	return gr, gi, nil
}

// InfinityNorm estimates the H∞ norm by a frequency sweep with local
// refinement around the coarse peak.
func (s *StateSpace) InfinityNorm() (float64, error) {
	var lo, hi float64
	if s.Dt > 0 {
		lo, hi = 0, math.Pi/s.Dt
	} else {
		lo, hi = 0, 1e4
	}

	const coarse = 400
	peak, at := 0.0, lo
	for i := 0; i <= coarse; i++ {
		omega := lo + (hi-lo)*float64(i)/coarse
		g, err := s.gainAt(omega)
		if err != nil {
			return 0, err
		}
		if g > peak {
			peak, at = g, omega
		}
	}

	span := (hi - lo) / coarse
	for pass := 0; pass < 6; pass++ {
		l, r := math.Max(lo, at-span), math.Min(hi, at+span)
		for i := 0; i <= 40; i++ {
			omega := l + (r-l)*float64(i)/40
			g, err := s.gainAt(omega)
			if err != nil {
				return 0, err
			}
			if g > peak {
				peak, at = g, omega
			}
		}
		span /= 10
	}
	return peak, nil
}

// gainAt is the largest singular value of the response at one frequency,
// computed on the real embedding [[Gr, -Gi], [Gi, Gr]].
func (s *StateSpace) gainAt(omega float64) (float64, error) {
	gr, gi, err := s.Response(omega)
	if err != nil {
		return 0, err
	}
	out, in := gr.Dims()
	emb := mat.NewDense(2*out, 2*in, nil)
	for i := 0; i < out; i++ {
		for j := 0; j < in; j++ {
			emb.Set(i, j, gr.At(i, j))
			emb.Set(out+i, in+j, gr.At(i, j))
			emb.Set(i, in+j, -gi.At(i, j))
			emb.Set(out+i, j, gi.At(i, j))
		}
	}
	var svd mat.SVD
	if !svd.Factorize(emb, mat.SVDNone) {
		return 0, fmt.Errorf("%w: svd at omega %g", ErrSingular, omega)
	}
	return svd.Values(nil)[0], nil
}

func cloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	var out mat.Dense
	out.CloneFrom(m)
	return &out
}
