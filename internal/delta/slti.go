package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// Slti is a static, time-invariant real gain block: the operator δ·I with
// an unknown scalar δ, |δ| ≤ bound, constant over all time.
type Slti struct {
	name  string
	dim   int
	bound float64
	hp    horizon.HorizonPeriod
}

// NewSlti constructs a unit-bound scalar static gain block.
func NewSlti(name string) (*Slti, error) {
	return NewSltiFull(name, 1, 1.0, horizon.Trivial())
}

func NewSltiFull(name string, dim int, bound float64, hp horizon.HorizonPeriod) (*Slti, error) {
	d := &Slti{name: name, dim: dim, bound: bound, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Slti) Name() string                         { return d.name }
func (d *Slti) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *Slti) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *Slti) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *Slti) Disturbance() bool                    { return false }
func (d *Slti) Dim() int                             { return d.dim }
func (d *Slti) Bound() float64                       { return d.bound }

func (d *Slti) Validate() error {
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

func (d *Slti) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	if err := d.hp.Expandable(hp); err != nil {
		return nil, err
	}
	return &Slti{name: d.name, dim: d.dim, bound: d.bound, hp: hp}, nil
}

func (d *Slti) Sample(rng *rand.Rand) (*Sample, error) {
	v := (2*rng.Float64() - 1) * d.bound
	total := d.hp.Total()
	gains := make([]*mat.Dense, total)
	for t := range gains {
		gains[t] = scaledEye(d.dim, v)
	}
	return &Sample{D: gains, HP: d.hp}, nil
}

func (d *Slti) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	var v float64
	for t := 0; t < d.hp.Total(); t++ {
		if s.StateDim(t) != 0 {
			return fmt.Errorf("%w: %s: static block sampled with state", ErrValidation, d.name)
		}
		g := s.Gain(t, d.dim, d.dim)
		if t == 0 {
			v = g.At(0, 0)
		}
		for i := 0; i < d.dim; i++ {
			for j := 0; j < d.dim; j++ {
				want := 0.0
				if i == j {
					want = v
				}
				if diff := g.At(i, j) - want; diff > 1e-9 || diff < -1e-9 {
					return fmt.Errorf("%w: %s: gain not constant scalar times identity",
						ErrValidation, d.name)
				}
			}
		}
	}
	if v > d.bound || v < -d.bound {
		return fmt.Errorf("%w: %s: gain %g exceeds bound %g", ErrValidation, d.name, v, d.bound)
	}
	return nil
}
