package delta

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/horizon"
)

// Delta is an abstract uncertainty or disturbance block attached to an
// uncertain system. A Delta constrains an otherwise free signal pair: the
// block maps its input channel (width DimIn per step) to its output channel
// (width DimOut per step) in some admissible, possibly time-varying way.
//
// Implementations are immutable after construction; MatchHorizonPeriod
// returns a re-expanded copy rather than mutating the receiver.
type Delta interface {
	Name() string
	HorizonPeriod() horizon.HorizonPeriod

	// DimIn and DimOut are per-step channel widths, length Total().
	DimIn() []int
	DimOut() []int

	// Disturbance reports whether the block constrains a free input signal
	// rather than an uncertain feedback operator.
	Disturbance() bool

	Validate() error

	// MatchHorizonPeriod re-expands all per-step data onto a refined
	// horizon-period without changing semantics.
	MatchHorizonPeriod(hp horizon.HorizonPeriod) (Delta, error)

	// Sample draws a random concrete realization consistent with the
	// declared bounds. Used by test generation only, never by analysis.
	Sample(rng *rand.Rand) (*Sample, error)

	// CheckSample confirms a candidate concrete realization satisfies the
	// declared bounds at every step.
	CheckSample(s *Sample) error
}

// Sample is a concrete periodic linear realization of an uncertainty block:
// per-step state-space matrices under a shared horizon-period. Static
// blocks have empty A/B/C and act through D alone.
type Sample struct {
	A, B, C, D []*mat.Dense
	HP         horizon.HorizonPeriod
}

// StateDim returns the sample's state width at array index i.
func (s *Sample) StateDim(i int) int {
	if s.A == nil || s.A[i] == nil {
		return 0
	}
	r, _ := s.A[i].Dims()
	return r
}

// Gain returns the static gain D at array index i, or a zero matrix of the
// given size when unset.
func (s *Sample) Gain(i, rows, cols int) *mat.Dense {
	if s.D == nil || s.D[i] == nil {
		return mat.NewDense(rows, cols, nil)
	}
	return s.D[i]
}

// repeat fills a per-step slice of length n with a constant value.
func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrConstruction)
	}
	return nil
}

func checkDims(name string, dims []int, total int) error {
	if len(dims) != total {
		return fmt.Errorf("%w: %s: %d per-step dimensions, want %d",
			horizon.ErrDimension, name, len(dims), total)
	}
	for t, d := range dims {
		if d <= 0 {
			return fmt.Errorf("%w: %s: non-positive dimension %d at step %d",
				ErrConstruction, name, d, t)
		}
	}
	return nil
}

func checkBounds(name string, bounds []float64, total int) error {
	if len(bounds) != total {
		return fmt.Errorf("%w: %s: %d per-step bounds, want %d",
			horizon.ErrDimension, name, len(bounds), total)
	}
	for t, b := range bounds {
		if b < 0 {
			return fmt.Errorf("%w: %s: negative bound %g at step %d",
				ErrConstruction, name, b, t)
		}
	}
	return nil
}

// scaledEye returns v * I(n).
func scaledEye(n int, v float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, v)
	}
	return m
}
