package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// ConstantWindow is a disturbance block restricting a free input signal to
// be constant across a caller-specified subset of time steps: at every step
// flagged in-window the signal must equal its value at the most recent
// window-entry step, and it is unconstrained elsewhere.
type ConstantWindow struct {
	name   string
	dim    int
	window []bool
	hp     horizon.HorizonPeriod
}

// NewConstantWindow constructs a scalar disturbance frozen over the whole
// repeating block.
func NewConstantWindow(name string) (*ConstantWindow, error) {
	return NewConstantWindowFull(name, 1, []bool{true}, horizon.Trivial())
}

func NewConstantWindowFull(name string, dim int, window []bool, hp horizon.HorizonPeriod) (*ConstantWindow, error) {
	d := &ConstantWindow{name: name, dim: dim, window: window, hp: hp}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ConstantWindow) Name() string                         { return d.name }
func (d *ConstantWindow) HorizonPeriod() horizon.HorizonPeriod { return d.hp }
func (d *ConstantWindow) DimIn() []int                         { return repeat(d.dim, d.hp.Total()) }
func (d *ConstantWindow) DimOut() []int                        { return repeat(d.dim, d.hp.Total()) }
func (d *ConstantWindow) Disturbance() bool                    { return true }
func (d *ConstantWindow) Dim() int                             { return d.dim }

// Window returns the per-step in-window flags. Callers must not mutate the
// slice.
func (d *ConstantWindow) Window() []bool { return d.window }

// Frozen reports whether the signal is pinned to its previous value at
// array index i: both i and its cyclic predecessor lie in the window.
func (d *ConstantWindow) Frozen(i int) bool {
	if !d.window[i] {
		return false
	}
	prev := -1
	for j := 0; j < d.hp.Total(); j++ {
		if d.hp.Next(j) == i {
			prev = j
			break
		}
	}
	return prev >= 0 && d.window[prev]
}

func (d *ConstantWindow) Validate() error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if err := d.hp.Validate(); err != nil {
		return err
	}
	if d.dim <= 0 {
		return fmt.Errorf("%w: %s: non-positive dimension %d", ErrConstruction, d.name, d.dim)
	}
	if len(d.window) != d.hp.Total() {
		return fmt.Errorf("%w: %s: window has %d steps, want %d",
			horizon.ErrDimension, d.name, len(d.window), d.hp.Total())
	}
	return nil
}

func (d *ConstantWindow) MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error) {
	window, err := horizon.Expand(d.window, d.hp, hp)
	if err != nil {
		return nil, err
	}
	return &ConstantWindow{name: d.name, dim: d.dim, window: window, hp: hp}, nil
}

// Sample draws a concrete admissible signal: per-step values held constant
// across frozen steps, independent elsewhere. The signal occupies the D
// slot of the sample (one column per step).
func (d *ConstantWindow) Sample(rng *rand.Rand) (*Sample, error) {
	total := d.hp.Total()
	vals := make([]*mat.Dense, total)
	for t := 0; t < total; t++ {
		vals[t] = mat.NewDense(d.dim, 1, nil)
		for i := 0; i < d.dim; i++ {
			vals[t].Set(i, 0, 2*rng.Float64()-1)
		}
	}
	for t := 0; t < total; t++ {
		next := d.hp.Next(t)
		if d.Frozen(next) {
			vals[next].Copy(vals[t])
		}
	}
	return &Sample{D: vals, HP: d.hp}, nil
}

func (d *ConstantWindow) CheckSample(s *Sample) error {
	if !s.HP.Equal(d.hp) {
		return fmt.Errorf("%w: %s: sample horizon-period %v, want %v",
			horizon.ErrDimension, d.name, s.HP, d.hp)
	}
	for t := 0; t < d.hp.Total(); t++ {
		next := d.hp.Next(t)
		if !d.Frozen(next) {
			continue
		}
		cur := s.Gain(t, d.dim, 1)
		nxt := s.Gain(next, d.dim, 1)
		if !mat.EqualApprox(cur, nxt, 1e-9) {
			return fmt.Errorf("%w: %s: signal not frozen entering step %d",
				ErrValidation, d.name, next)
		}
	}
	return nil
}
