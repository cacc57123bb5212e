package delta

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// SltvRateBound is a rate-bounded time-varying gain block: δ(t)·I with
// |δ(t)| ≤ bound(t) and |δ(t+1) − δ(t)| ≤ rate(t) at every step.
type SltvRateBound struct {
	name   string
	dim    int
	bounds []float64
	rates  []float64
	hp     horizon.HorizonPeriod
}

func NewSltvRateBound(name string) (*SltvRateBound, error) {
	return NewSltvRateBoundFull(name, 1, []float64{1}, []float64{1}, horizon.Trivial())
}

func NewSltvRateBoundFull(name string, dim int, bounds, rates []float64, hp horizon.HorizonPeriod) (*SltvRateBound, error) {
	d := &SltvRateBound{name: name, dim: dim, bounds: bounds, rates: rates, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SltvRateBound) Name() string                         { return d.name }
func (d *SltvRateBound) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *SltvRateBound) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *SltvRateBound) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *SltvRateBound) Disturbance() bool                    { return false }
func (d *SltvRateBound) Dim() int                             { return d.dim }
func (d *SltvRateBound) Bounds() []float64                    { return d.bounds }
func (d *SltvRateBound) Rates() []float64                     { return d.rates }

func (d *SltvRateBound) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	if err := checkBounds(d.name, d.bounds, d.hp.Total()); err != nil {
		return err
	}
	if err := checkBounds(d.name, d.rates, d.hp.Total()); err != nil {
		return err
	}
	return nil
}

func (d *SltvRateBound) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	bounds, err := horizon.Expand(d.bounds, d.hp, hp)
	if err != nil {
		return nil, err
	}
	rates, err := horizon.Expand(d.rates, d.hp, hp)
	if err != nil {
		return nil, err
	}
	return &SltvRateBound{name: d.name, dim: d.dim, bounds: bounds, rates: rates, hp: hp}, nil
}

// Sample draws a random walk honoring both the magnitude and the rate
// bounds, including the rate constraint across the periodic wrap. Each
// value is drawn from the intersection of its magnitude interval, the
// rate interval from the previous value, a backward-propagated interval
// that keeps later magnitude bounds reachable, and a closing budget that
// keeps the period-start value reachable through the wrap. Zero lies in
// every admissible interval, so the walk never strands.
func (d *SltvRateBound) Sample(rng *rand.Rand) (*Sample, error) {
	total := d.hp.Total()
	start := d.hp.Horizon

	// ahead[t] is the magnitude interval at t shrunk so every later
	// magnitude bound stays reachable within the intervening rates.
	aheadLo := make([]float64, total)
	aheadHi := make([]float64, total)
	aheadLo[total-1], aheadHi[total-1] = -d.bounds[total-1], d.bounds[total-1]
	for t := total - 2; t >= 0; t-- {
		aheadLo[t] = math.Max(-d.bounds[t], aheadLo[t+1]-d.rates[t])
		aheadHi[t] = math.Min(d.bounds[t], aheadHi[t+1]+d.rates[t])
	}

	// budget[t] is the total rate available from step t back to the
	// period start through the wrap.
	budget := make([]float64, total+1)
	for t := total - 1; t >= start; t-- {
		budget[t] = budget[t+1] + d.rates[t]
	}

	gains := make([]*mat.Dense, total)
	vals := make([]float64, total)
	for t := 0; t < total; t++ {
		lo, hi := aheadLo[t], aheadHi[t]
		if t > 0 {
			lo = math.Max(lo, vals[t-1]-d.rates[t-1])
			hi = math.Min(hi, vals[t-1]+d.rates[t-1])
		}
		if t > start {
			lo = math.Max(lo, vals[start]-budget[t])
			hi = math.Min(hi, vals[start]+budget[t])
		}
		switch {
		case lo < hi:
			vals[t] = lo + (hi-lo)*rng.Float64()
		case lo == hi:
			vals[t] = lo
		default:
			// Jointly tight bounds: take the nearest point of the
			// reachable interval to the overlap midpoint.
			w := 0.5 * (lo + hi)
			vals[t] = math.Min(aheadHi[t], math.Max(aheadLo[t], w))
		}
		gains[t] = scaledEye(d.dim, vals[t])
	}
	return &Sample{D: gains, HP: d.hp}, nil
}

func (d *SltvRateBound) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	total := d.hp.Total()
	vals := make([]float64, total)
	for t := 0; t < total; t++ {
		if s.StateDim(t) != 0 {
			return fmt.Errorf("%w: %s: static block sampled with state", ErrValidation, d.name)
		}
		vals[t] = s.Gain(t, d.dim, d.dim).At(0, 0)
		if vals[t] > d.bounds[t]+1e-9 || vals[t] < -d.bounds[t]-1e-9 {
			return fmt.Errorf("%w: %s: gain %g exceeds bound %g at step %d",
				ErrValidation, d.name, vals[t], d.bounds[t], t)
		}
	}
	for t := 0; t < total; t++ {
		next := d.hp.Next(t)
		step := vals[next] - vals[t]
		if step > d.rates[t]+1e-9 || step < -d.rates[t]-1e-9 {
			return fmt.Errorf("%w: %s: rate %g exceeds bound %g at step %d",
				ErrValidation, d.name, step, d.rates[t], t)
		}
	}
	return nil
}
