package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// SectorBounded is a memoryless nonlinearity confined to the sector
// [low(t), high(t)]: its graph satisfies low(t)·x² ≤ x·φ(x,t) ≤ high(t)·x²
// at every step.
type SectorBounded struct {
	name string
	dim  int
	low  []float64
	high []float64
	hp   horizon.HorizonPeriod
}

// NewSectorBounded constructs a scalar nonlinearity in the sector [-1, 1].
func NewSectorBounded(name string) (*SectorBounded, error) {
	return NewSectorBoundedFull(name, 1, []float64{-1}, []float64{1}, horizon.Trivial())
}

func NewSectorBoundedFull(name string, dim int, low, high []float64, hp horizon.HorizonPeriod) (*SectorBounded, error) {
	d := &SectorBounded{name: name, dim: dim, low: low, high: high, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SectorBounded) Name() string                         { return d.name }
func (d *SectorBounded) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *SectorBounded) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *SectorBounded) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *SectorBounded) Disturbance() bool                    { return false }
func (d *SectorBounded) Dim() int                             { return d.dim }
func (d *SectorBounded) Low() []float64                       { return d.low }
func (d *SectorBounded) High() []float64                      { return d.high }

func (d *SectorBounded) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	total := d.hp.Total()
	if len(d.low) != total || len(d.high) != total {
		return fmt.Errorf("%w: %s: sector arrays have lengths %d/%d, want %d",
			horizon.ErrDimension, d.name, len(d.low), len(d.high), total)
	}
	for t := range d.low {
		if d.low[t] > d.high[t] {
			return fmt.Errorf("%w: %s: empty sector [%g,%g] at step %d",
				ErrConstruction, d.name, d.low[t], d.high[t], t)
		}
	}
	return nil
}

func (d *SectorBounded) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	low, err := horizon.Expand(d.low, d.hp, hp)
	if err != nil {
		return nil, err
	}
	high, err := horizon.Expand(d.high, d.hp, hp)
	if err != nil {
		return nil, err
	}
	return &SectorBounded{name: d.name, dim: d.dim, low: low, high: high, hp: hp}, nil
}

// Sample draws a per-step linear slope inside the sector. Linear slopes are
// admissible instances of the nonlinearity.
func (d *SectorBounded) Sample(rng *rand.Rand) (*Sample, error) {
	total := d.hp.Total()
	gains := make([]*mat.Dense, total)
	for t := range gains {
		slope := d.low[t] + rng.Float64()*(d.high[t]-d.low[t])
		gains[t] = scaledEye(d.dim, slope)
	}
	return &Sample{D: gains, HP: d.hp}, nil
}

func (d *SectorBounded) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	for t := 0; t < d.hp.Total(); t++ {
		if s.StateDim(t) != 0 {
			return fmt.Errorf("%w: %s: memoryless block sampled with state", ErrValidation, d.name)
		}
		slope := s.Gain(t, d.dim, d.dim).At(0, 0)
		if slope < d.low[t]-1e-9 || slope > d.high[t]+1e-9 {
			return fmt.Errorf("%w: %s: slope %g outside sector [%g,%g] at step %d",
				ErrValidation, d.name, slope, d.low[t], d.high[t], t)
		}
	}
	return nil
}
