// Package optim sweeps a scenario parameter and certifies the gain at
// every grid value, tracing how the bound grows with the uncertainty
// size and locating robustness margins.
package optim

import (
	"fmt"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/iqc"
	"github.com/san-kum/iqcert/internal/ulft"
)

// Point is one sweep sample.
type Point struct {
	Value float64
	Bound float64
	Valid bool
}

type Sweep struct {
	values []float64
}

func NewSweep(from, to float64, points int) (*Sweep, error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one point", delta.ErrConstruction)
	}
	values := make([]float64, points)
	if points == 1 {
		values[0] = from
	} else {
		step := (to - from) / float64(points-1)
		for i := range values {
			values[i] = from + float64(i)*step
		}
	}
	return &Sweep{values: values}, nil
}

func (s *Sweep) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Run certifies every grid value in order. build maps a parameter value
// to the scenario it declares.
func (s *Sweep) Run(build func(v float64) (*ulft.Ulft, error), opts iqc.Options) ([]Point, error) {
	points := make([]Point, len(s.values))
	for i, v := range s.values {
		u, err := build(v)
		if err != nil {
			return nil, fmt.Errorf("value %g: %w", v, err)
		}
		res, err := iqc.Analyze(u, opts)
		if err != nil {
			return nil, fmt.Errorf("value %g: %w", v, err)
		}
		points[i] = Point{Value: v, Bound: res.Performance, Valid: res.Valid}
	}
	return points, nil
}

// Margin returns the largest swept value whose certified bound stays at
// or under target, and whether any value qualified.
func Margin(points []Point, target float64) (float64, bool) {
	var best float64
	found := false
	for _, p := range points {
		if !p.Valid || p.Bound > target {
			continue
		}
		if !found || p.Value > best {
			best = p.Value
			found = true
		}
	}
	return best, found
}
