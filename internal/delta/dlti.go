package delta

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// Dlti is a norm-bounded dynamic LTI operator block: an unknown stable
// linear time-invariant system with induced gain at most bound.
type Dlti struct {
	name  string
	dim   int
	bound float64
	hp    horizon.HorizonPeriod
}

func NewDlti(name string) (*Dlti, error) {
	return NewDltiFull(name, 1, 1.0, horizon.Trivial())
}

func NewDltiFull(name string, dim int, bound float64, hp horizon.HorizonPeriod) (*Dlti, error) {
	d := &Dlti{name: name, dim: dim, bound: bound, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dlti) Name() string                         { return d.name }
func (d *Dlti) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *Dlti) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *Dlti) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *Dlti) Disturbance() bool                    { return false }
func (d *Dlti) Dim() int                             { return d.dim }
func (d *Dlti) Bound() float64                       { return d.bound }

func (d *Dlti) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	if d.bound < 0 {
		return fmt.Errorf("%w: %s: negative bound %g", ErrConstruction, d.name, d.bound)
	}
	return nil
}

func (d *Dlti) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	if err := d.hp.Expandable(hp); err != nil {
		return nil, err
	}
	return &Dlti{name: d.name, dim: d.dim, bound: d.bound, hp: hp}, nil
}

// Sample draws a random stable LTI system and scales it so that the
// small-gain estimate ‖D‖ + ‖C‖‖B‖/(1-‖A‖) stays within the bound, which
// guarantees the true induced gain does too.
func (d *Dlti) Sample(rng *rand.Rand) (*Sample, error) {
	n := 2
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, (2*rng.Float64()-1)*0.3/float64(n))
		}
	}
	b := mat.NewDense(n, d.dim, nil)
	c := mat.NewDense(d.dim, n, nil)
	dd := mat.NewDense(d.dim, d.dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d.dim; j++ {
			b.Set(i, j, 2*rng.Float64()-1)
			c.Set(j, i, 2*rng.Float64()-1)
		}
	}
	for i := 0; i < d.dim; i++ {
		for j := 0; j < d.dim; j++ {
			dd.Set(i, j, 2*rng.Float64()-1)
		}
	}

	est := gainEstimate(a, b, c, dd)
	if est > 0 {
		scale := d.bound * rng.Float64() / est
		c.Scale(scale, c)
		dd.Scale(scale, dd)
	}

	total := d.hp.Total()
	return &Sample{
		A:  repeat(a, total),
		B:  repeat(b, total),
		C:  repeat(c, total),
		D:  repeat(dd, total),
		HP: d.hp,
	}, nil
}

// CheckSample uses the same conservative small-gain estimate used for
// sampling, so every sample this block draws passes its own check.
func (d *Dlti) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	for t := 1; t < d.hp.Total(); t++ {
		if s.StateDim(t) != s.StateDim(0) {
			return fmt.Errorf("%w: %s: time-varying sample for LTI block", ErrValidation, d.name)
		}
	}
	if s.StateDim(0) == 0 {
		g := s.Gain(0, d.dim, d.dim)
		if sigmaMax(g) > d.bound+1e-9 {
			return fmt.Errorf("%w: %s: static gain exceeds bound %g", ErrValidation, d.name, d.bound)
		}
		return nil
	}
	est := gainEstimate(s.A[0], s.B[0], s.C[0], s.D[0])
	if est > d.bound+1e-9 {
		return fmt.Errorf("%w: %s: gain estimate %g exceeds bound %g",
			ErrValidation, d.name, est, d.bound)
	}
	return nil
}

// gainEstimate bounds the induced gain of a discrete LTI system from above
// via the small-gain inequality. Returns +Inf when the state matrix has
// spectral norm at or above one.
func gainEstimate(a, b, c, d *mat.Dense) float64 {
	na := sigmaMax(a)
	if na >= 1 {
		return math.Inf(1)
	}
	return sigmaMax(d) + sigmaMax(c)*sigmaMax(b)/(1-na)
}

func sigmaMax(m *mat.Dense) float64 {
	if m == nil {
		return 0
	}
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return math.Inf(1)
	}
	vals := svd.Values(nil)
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}
