package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// Sltv is a static, arbitrarily time-varying real gain block: δ(t)·I with
// |δ(t)| ≤ bound(t) at every step and no constraint between steps.
type Sltv struct {
	name   string
	dim    int
	bounds []float64
	hp     horizon.HorizonPeriod
}

func NewSltv(name string) (*Sltv, error) {
	return NewSltvFull(name, 1, []float64{1}, horizon.Trivial())
}

func NewSltvFull(name string, dim int, bounds []float64, hp horizon.HorizonPeriod) (*Sltv, error) {
	d := &Sltv{name: name, dim: dim, bounds: bounds, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Sltv) Name() string                         { return d.name }
func (d *Sltv) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *Sltv) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *Sltv) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *Sltv) Disturbance() bool                    { return false }
func (d *Sltv) Dim() int                             { return d.dim }
func (d *Sltv) Bounds() []float64                    { return d.bounds }

func (d *Sltv) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	return checkBounds(d.name, d.bounds, d.hp.Total())
}

func (d *Sltv) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	bounds, err := horizon.Expand(d.bounds, d.hp, hp)
	if err != nil {
		return nil, err
	}
	return &Sltv{name: d.name, dim: d.dim, bounds: bounds, hp: hp}, nil
}

func (d *Sltv) Sample(rng *rand.Rand) (*Sample, error) {
	total := d.hp.Total()
	gains := make([]*mat.Dense, total)
	for t := range gains {
		gains[t] = scaledEye(d.dim, (2*rng.Float64()-1)*d.bounds[t])
	}
	return &Sample{D: gains, HP: d.hp}, nil
}

func (d *Sltv) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	for t := 0; t < d.hp.Total(); t++ {
		if s.StateDim(t) != 0 {
			return fmt.Errorf("%w: %s: static block sampled with state", ErrValidation, d.name)
		}
		if g := sigmaMax(s.Gain(t, d.dim, d.dim)); g > d.bounds[t]+1e-9 {
			return fmt.Errorf("%w: %s: gain %g exceeds bound %g at step %d",
				ErrValidation, d.name, g, d.bounds[t], t)
		}
	}
	return nil
}
