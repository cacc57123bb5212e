package horizon

import (
	"errors"
	"fmt"
)

// Domain errors for horizon-period operations.
var (
	// ErrDimension indicates incompatible horizon-periods or mismatched
	// per-step array lengths.
	ErrDimension = errors.New("horizon: dimension mismatch")

	// ErrConstruction indicates an invalid horizon-period pair.
	ErrConstruction = errors.New("horizon: invalid horizon-period")
)

// HorizonPeriod describes an infinite time axis split into a transient of
// Horizon steps followed by an infinitely repeating block of Period steps.
// Per-step attribute arrays carried by objects with this horizon-period
// always have length Total() = Horizon + Period. Step indices are 0-based:
// steps 0..Horizon-1 are unique transient steps, steps Horizon..Total()-1
// repeat forever.
type HorizonPeriod struct {
	Horizon int
	Period  int
}

// Trivial is the single-period time-invariant horizon-period.
func Trivial() HorizonPeriod {
	return HorizonPeriod{Horizon: 0, Period: 1}
}

func (hp HorizonPeriod) Validate() error {
	if hp.Horizon < 0 {
		return fmt.Errorf("%w: horizon %d < 0", ErrConstruction, hp.Horizon)
	}
	if hp.Period < 1 {
		return fmt.Errorf("%w: period %d < 1", ErrConstruction, hp.Period)
	}
	return nil
}

// Total is the length of every per-step array carried under hp.
func (hp HorizonPeriod) Total() int {
	return hp.Horizon + hp.Period
}

// Index normalizes an absolute time step t >= 0 into the backing array:
// transient steps map one-to-one, later steps wrap into the repeating block.
func (hp HorizonPeriod) Index(t int) int {
	if t < hp.Horizon {
		return t
	}
	return hp.Horizon + (t-hp.Horizon)%hp.Period
}

// Next returns the backing-array index of the step following array index i,
// wrapping the end of the repeating block back to its start. Used by
// periodic recursions (state updates, storage-function coupling).
func (hp HorizonPeriod) Next(i int) int {
	if i+1 < hp.Total() {
		return i + 1
	}
	return hp.Horizon
}

func (hp HorizonPeriod) Equal(other HorizonPeriod) bool {
	return hp.Horizon == other.Horizon && hp.Period == other.Period
}

func (hp HorizonPeriod) String() string {
	return fmt.Sprintf("[%d,%d]", hp.Horizon, hp.Period)
}

// Expandable reports whether hp can be expanded to target: the new period
// must be an integer multiple of the old one and the new transient must be
// reachable from the old transient by a whole number of old periods.
func (hp HorizonPeriod) Expandable(target HorizonPeriod) error {
	if target.Period%hp.Period != 0 {
		return fmt.Errorf("%w: period %d is not a multiple of %d",
			ErrDimension, target.Period, hp.Period)
	}
	if target.Horizon < hp.Horizon || (target.Horizon-hp.Horizon)%hp.Period != 0 {
		return fmt.Errorf("%w: horizon %d not reachable from %d by whole periods of %d",
			ErrDimension, target.Horizon, hp.Horizon, hp.Period)
	}
	return nil
}

// Common computes the minimal simultaneous refinement of the given
// horizon-periods: the smallest (H,P) every input can be expanded to.
// Fails when the transients cannot be brought onto a shared period
// boundary.
func Common(hps ...HorizonPeriod) (HorizonPeriod, error) {
	if len(hps) == 0 {
		return Trivial(), nil
	}
	for _, hp := range hps {
		if err := hp.Validate(); err != nil {
			return HorizonPeriod{}, err
		}
	}
	period := hps[0].Period
	maxHorizon := hps[0].Horizon
	for _, hp := range hps[1:] {
		period = lcm(period, hp.Period)
		if hp.Horizon > maxHorizon {
			maxHorizon = hp.Horizon
		}
	}
	// The common transient must satisfy H ≡ hᵢ (mod pᵢ) for every input.
	// If a solution exists, one lies within lcm steps of the largest input
	// transient.
	for h := maxHorizon; h < maxHorizon+period; h++ {
		ok := true
		for _, hp := range hps {
			if (h-hp.Horizon)%hp.Period != 0 {
				ok = false
				break
			}
		}
		if ok {
			return HorizonPeriod{Horizon: h, Period: period}, nil
		}
	}
	return HorizonPeriod{}, fmt.Errorf("%w: no common refinement of %v", ErrDimension, hps)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

// Expand re-tiles a per-step array from one horizon-period to a refined
// one: transient entries map one-to-one and the repeating block is re-tiled
// to the new period length. The source array must have length from.Total().
func Expand[T any](xs []T, from, to HorizonPeriod) ([]T, error) {
	if len(xs) != from.Total() {
		return nil, fmt.Errorf("%w: array length %d, want %d", ErrDimension, len(xs), from.Total())
	}
	if err := from.Expandable(to); err != nil {
		return nil, err
	}
	out := make([]T, to.Total())
	for t := range out {
		out[t] = xs[from.Index(t)]
	}
	return out, nil
}
