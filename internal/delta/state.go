package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// DelayZ is the periodic one-step delay state operator z^(-1) with
// possibly time-varying channel widths. It is exact rather than uncertain:
// its admissible set contains only the shift itself. It appears when a
// discrete system's state loop is exposed as an explicit feedback channel,
// e.g. at the conversion boundary.
type DelayZ struct {
	name string
	dims []int
	hp   horizon.HorizonPeriod
}

func NewDelayZ(name string) (*DelayZ, error) {
	return NewDelayZFull(name, []int{1}, horizon.Trivial())
}

func NewDelayZFull(name string, dims []int, hp horizon.HorizonPeriod) (*DelayZ, error) {
	d := &DelayZ{name: name, dims: dims, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DelayZ) Name() string                         { return d.name }
func (d *DelayZ) HorizonPeriod() horizon.HorizonPeriod { return d.hp }

// DimIn at step t is the entering signal width, which becomes the state
// width at t+1.
func (d *DelayZ) DimIn() []int {
	in := make([]int, d.hp.Total())
	for t := range in {
		in[t] = d.dims[d.hp.Next(t)]
	}
	return in
}

func (d *DelayZ) DimOut() []int { return d.dims }
func (d *DelayZ) Disturbance() bool                    { return false }
func (d *DelayZ) Dims() []int                          { return d.dims }

func (d *DelayZ) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	return checkDims(d.name, d.dims, d.hp.Total())
}

func (d *DelayZ) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	dims, err := horizon.Expand(d.dims, d.hp, hp)
	if err != nil {
		return nil, err
	}
	return &DelayZ{name: d.name, dims: dims, hp: hp}, nil
}

// Sample returns the only admissible realization: the shift operator
// itself, x(t+1) = u(t), y(t) = x(t).
func (d *DelayZ) Sample(_ *rand.Rand) (*Sample, error) {
	total := d.hp.Total()
	s := &Sample{
		A:  make([]*mat.Dense, total),
		B:  make([]*mat.Dense, total),
		C:  make([]*mat.Dense, total),
		D:  make([]*mat.Dense, total),
		HP: d.hp,
	}
	for t := 0; t < total; t++ {
		n := d.dims[t]
		nn := d.dims[d.hp.Next(t)]
		s.A[t] = mat.NewDense(nn, n, nil)
		s.B[t] = scaledEye(nn, 1)
		s.C[t] = scaledEye(n, 1)
		s.D[t] = mat.NewDense(n, n, nil)
	}
	return s, nil
}

func (d *DelayZ) CheckSample(s *Sample) error {
	want, _ := d.Sample(nil)
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	for t := 0; t < d.hp.Total(); t++ {
		if !denseEqual(s.A[t], want.A[t]) || !denseEqual(s.B[t], want.B[t]) ||
			!denseEqual(s.C[t], want.C[t]) || !denseEqual(s.D[t], want.D[t]) {
			return fmt.Errorf("%w: %s: sample is not the shift operator", ErrValidation, d.name)
		}
	}
	return nil
}

// Integrator is the continuous-time integrator state operator 1/s, the
// continuous analogue of [DelayZ].
type Integrator struct {
	name string
	dim  int
	hp   horizon.HorizonPeriod
}

func NewIntegrator(name string) (*Integrator, error) {
	return NewIntegratorFull(name, 1)
}

func NewIntegratorFull(name string, dim int) (*Integrator, error) {
	d := &Integrator{name: name, dim: dim, hp: horizon.Trivial()}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Integrator) Name() string                         { return d.name }
func (d *Integrator) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *Integrator) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *Integrator) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *Integrator) Disturbance() bool                    { return false }
func (d *Integrator) Dim() int                             { return d.dim }

func (d *Integrator) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	return nil
}

// MatchHorizonPeriod rejects any non-trivial target: continuous-time state
// operators carry no periodic per-step data to re-tile.
func (d *Integrator) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	if !hp.Equal(horizon.Trivial()) {
		return nil, fmt.Errorf("%w: %s: integrator is continuous-time only", ErrTimeDomain, d.name)
	}
	return d, nil
}

func (d *Integrator) Sample(_ *rand.Rand) (*Sample, error) {
	a := mat.NewDense(d.dim, d.dim, nil)
	b := scaledEye(d.dim, 1)
	c := scaledEye(d.dim, 1)
	dd := mat.NewDense(d.dim, d.dim, nil)
	return &Sample{
		A:  []*mat.Dense{a},
		B:  []*mat.Dense{b},
		C:  []*mat.Dense{c},
		D:  []*mat.Dense{dd},
		HP: d.hp,
	}, nil
}

func (d *Integrator) CheckSample(s *Sample) error {
	want, _ := d.Sample(nil)
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	if !denseEqual(s.A[0], want.A[0]) || !denseEqual(s.B[0], want.B[0]) ||
		!denseEqual(s.C[0], want.C[0]) || !denseEqual(s.D[0], want.D[0]) {
		return fmt.Errorf("%w: %s: sample is not the integrator", ErrValidation, d.name)
	}
	return nil
}
