package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// DelaySlti is a bounded integer delay block for discrete-time systems:
// the operator z^(-k) for an unknown k with 0 ≤ k ≤ MaxDelay.
type DelaySlti struct {
	name     string
	dim      int
	maxDelay int
	hp       horizon.HorizonPeriod
}

// NewDelaySlti constructs a scalar delay of at most one step.
func NewDelaySlti(name string) (*DelaySlti, error) {
	return NewDelaySltiFull(name, 1, 1, horizon.Trivial())
}

func NewDelaySltiFull(name string, dim, maxDelay int, hp horizon.HorizonPeriod) (*DelaySlti, error) {
	d := &DelaySlti{name: name, dim: dim, maxDelay: maxDelay, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DelaySlti) Name() string                         { return d.name }
func (d *DelaySlti) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *DelaySlti) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *DelaySlti) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *DelaySlti) Disturbance() bool                    { return false }
func (d *DelaySlti) Dim() int                             { return d.dim }
func (d *DelaySlti) MaxDelay() int                        { return d.maxDelay }

func (d *DelaySlti) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	if d.maxDelay < 1 {
		return fmt.Errorf("%w: %s: maximum delay %d < 1", ErrConstruction, d.name, d.maxDelay)
	}
	return nil
}

func (d *DelaySlti) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	if err := d.hp.Expandable(hp); err != nil {
		return nil, err
	}
	return &DelaySlti{name: d.name, dim: d.dim, maxDelay: d.maxDelay, hp: hp}, nil
}

// Sample picks a delay length uniformly in {0, ..., MaxDelay} and returns
// its shift-register realization.
func (d *DelaySlti) Sample(rng *rand.Rand) (*Sample, error) {
	k := rng.Intn(d.maxDelay + 1)
	a, b, c, dd := shiftRegister(k, d.dim)
	total := d.hp.Total()
	return &Sample{
		A:  repeat(a, total),
		B:  repeat(b, total),
		C:  repeat(c, total),
		D:  repeat(dd, total),
		HP: d.hp,
	}, nil
}

func (d *DelaySlti) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	n := s.StateDim(0)
	if n%d.dim != 0 {
		return fmt.Errorf("%w: %s: state width %d is not a multiple of channel width %d",
			ErrValidation, d.name, n, d.dim)
	}
	k := n / d.dim
	if k > d.maxDelay {
		return fmt.Errorf("%w: %s: delay %d exceeds maximum %d", ErrValidation, d.name, k, d.maxDelay)
	}
	a, b, c, dd := shiftRegister(k, d.dim)
	for t := 0; t < d.hp.Total(); t++ {
		if s.StateDim(t) != n {
			return fmt.Errorf("%w: %s: time-varying sample for LTI delay", ErrValidation, d.name)
		}
		if !denseEqual(s.A[t], a) || !denseEqual(s.B[t], b) ||
			!denseEqual(s.C[t], c) || !denseEqual(s.Gain(t, d.dim, d.dim), dd) {
			return fmt.Errorf("%w: %s: sample is not a pure %d-step delay", ErrValidation, d.name, k)
		}
	}
	return nil
}

// shiftRegister returns the canonical realization of z^(-k) on a channel of
// the given width. k = 0 yields the identity.
func shiftRegister(k, dim int) (a, b, c, d *mat.Dense) {
	if k == 0 {
		return nil, nil, nil, scaledEye(dim, 1)
	}
	n := k * dim
	a = mat.NewDense(n, n, nil)
	for i := dim; i < n; i++ {
		a.Set(i, i-dim, 1)
	}
	b = mat.NewDense(n, dim, nil)
	for i := 0; i < dim; i++ {
		b.Set(i, i, 1)
	}
	c = mat.NewDense(dim, n, nil)
	for i := 0; i < dim; i++ {
		c.Set(i, n-dim+i, 1)
	}
	d = mat.NewDense(dim, dim, nil)
	return a, b, c, d
}

func denseEqual(x, y *mat.Dense) bool {
	if x == nil || y == nil {
		return (x == nil || isZero(x)) && (y == nil || isZero(y))
	}
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr || xc != yc {
		return false
	}
	return mat.EqualApprox(x, y, 1e-9)
}

func isZero(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
