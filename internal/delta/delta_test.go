package delta

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/san-kum/iqcert/internal/horizon"
)

func TestNameRequired(t *testing.T) {
	if _, err := NewSlti(""); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for missing name, got %v", err)
	}
	if _, err := NewSltv(""); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for missing name, got %v", err)
	}
	if _, err := NewConstantWindow(""); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for missing name, got %v", err)
	}
}

func TestSltiDefaults(t *testing.T) {
	d, err := NewSlti("del")
	if err != nil {
		t.Fatalf("NewSlti failed: %v", err)
	}
	if d.Dim() != 1 || d.Bound() != 1.0 {
		t.Errorf("defaults: dim %d bound %g, want 1 and 1", d.Dim(), d.Bound())
	}
	if !d.HorizonPeriod().Equal(horizon.Trivial()) {
		t.Errorf("default horizon-period %v, want [0,1]", d.HorizonPeriod())
	}
}

func TestSltiRejectsNegativeBound(t *testing.T) {
	if _, err := NewSltiFull("del", 1, -0.5, horizon.Trivial()); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for negative bound, got %v", err)
	}
}

func TestSltiSampleWithinBound(t *testing.T) {
	d, _ := NewSltiFull("del", 2, 0.7, horizon.Trivial())
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		s, err := d.Sample(rng)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if err := d.CheckSample(s); err != nil {
			t.Errorf("sample %d rejected by its own block: %v", i, err)
		}
	}
}

func TestSltvPerStepBounds(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 1, Period: 2}
	d, err := NewSltvFull("tv", 1, []float64{0.1, 0.5, 0.9}, hp)
	if err != nil {
		t.Fatalf("NewSltvFull failed: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	s, err := d.Sample(rng)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if err := d.CheckSample(s); err != nil {
		t.Errorf("sample rejected: %v", err)
	}
}

func TestSltvWrongBoundLength(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 1, Period: 2}
	if _, err := NewSltvFull("tv", 1, []float64{1, 1}, hp); !errors.Is(err, horizon.ErrDimension) {
		t.Errorf("expected ErrDimension for 2 bounds under [1,2], got %v", err)
	}
}

func TestRateBoundSample(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 4}
	d, err := NewSltvRateBoundFull("rb", 1,
		[]float64{1, 1, 1, 1}, []float64{0.2, 0.2, 0.2, 0.2}, hp)
	if err != nil {
		t.Fatalf("NewSltvRateBoundFull failed: %v", err)
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		s, err := d.Sample(rng)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if err := d.CheckSample(s); err != nil {
			t.Errorf("sample %d violates rate bound: %v", i, err)
		}
	}
}

func TestRateBoundSampleTightMagnitudes(t *testing.T) {
	// Steps with much tighter magnitude bounds than their neighbors force
	// the walk to descend early instead of overshooting the rate limit,
	// and the wrap back to the period start must still honor the last
	// rate bound.
	hp := horizon.HorizonPeriod{Horizon: 1, Period: 3}
	d, err := NewSltvRateBoundFull("rb", 1,
		[]float64{1, 0.3, 1, 0.5}, []float64{0.4, 0.4, 0.4, 0.4}, hp)
	if err != nil {
		t.Fatalf("NewSltvRateBoundFull failed: %v", err)
	}

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		s, err := d.Sample(rng)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if err := d.CheckSample(s); err != nil {
			t.Errorf("sample %d rejected: %v", i, err)
		}
	}
}

func TestDelaySampleIsPureDelay(t *testing.T) {
	d, err := NewDelaySltiFull("lag", 1, 3, horizon.Trivial())
	if err != nil {
		t.Fatalf("NewDelaySltiFull failed: %v", err)
	}

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		s, err := d.Sample(rng)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if err := d.CheckSample(s); err != nil {
			t.Errorf("sample %d rejected: %v", i, err)
		}
		if s.StateDim(0) > 3 {
			t.Errorf("delay state %d exceeds maximum 3", s.StateDim(0))
		}
	}
}

func TestConstantWindowFrozenSteps(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 4}
	d, err := NewConstantWindowFull("dist", 1, []bool{true, true, true, false}, hp)
	if err != nil {
		t.Fatalf("NewConstantWindowFull failed: %v", err)
	}

	// Step 0 follows step 3 cyclically; 3 is out of window, so 0 is an
	// entry step and not frozen. Steps 1 and 2 are frozen.
	if d.Frozen(0) {
		t.Error("step 0 should be a window entry, not frozen")
	}
	if !d.Frozen(1) || !d.Frozen(2) {
		t.Error("steps 1 and 2 should be frozen")
	}
	if d.Frozen(3) {
		t.Error("step 3 is out of window")
	}

	rng := rand.New(rand.NewSource(11))
	s, err := d.Sample(rng)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if err := d.CheckSample(s); err != nil {
		t.Errorf("sample rejected: %v", err)
	}
}

func TestSequenceUniqueNames(t *testing.T) {
	a, _ := NewSlti("a")
	b, _ := NewSlti("b")
	dup, _ := NewSlti("a")

	s, err := NewSequence(a, b)
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	if err := s.Add(dup); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for duplicate name, got %v", err)
	}
}

func TestSequenceRemoveMissing(t *testing.T) {
	a, _ := NewSlti("a")
	s, _ := NewSequence(a)

	if err := s.Remove("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Errorf("remove existing failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("sequence length %d after removal, want 0", s.Len())
	}
}

func TestSequenceMatchHorizonPeriod(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 2}
	a, _ := NewSltvFull("a", 1, []float64{0.5, 0.8}, hp)
	b, _ := NewSlti("b")
	s, _ := NewSequence(a, b)

	target := horizon.HorizonPeriod{Horizon: 2, Period: 4}
	out, err := s.MatchHorizonPeriod(target)
	if err != nil {
		t.Fatalf("MatchHorizonPeriod failed: %v", err)
	}
	for _, d := range out.All() {
		if !d.HorizonPeriod().Equal(target) {
			t.Errorf("%s: horizon-period %v, want %v", d.Name(), d.HorizonPeriod(), target)
		}
	}
	// Original untouched.
	if !a.HorizonPeriod().Equal(hp) {
		t.Error("MatchHorizonPeriod mutated its receiver")
	}
}

func TestSequencePartition(t *testing.T) {
	u, _ := NewSlti("unc")
	w, _ := NewConstantWindow("win")
	s, _ := NewSequence(u, w)

	if n := len(s.Uncertainties()); n != 1 {
		t.Errorf("uncertainty count %d, want 1", n)
	}
	if n := len(s.Disturbances()); n != 1 {
		t.Errorf("disturbance count %d, want 1", n)
	}
}
