package horizon

import (
	"errors"
	"testing"
)

func TestIndexNormalization(t *testing.T) {
	hp := HorizonPeriod{Horizon: 2, Period: 3}

	want := []int{0, 1, 2, 3, 4, 2, 3, 4, 2, 3}
	for i, w := range want {
		if got := hp.Index(i); got != w {
			t.Errorf("Index(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestNextWrapsIntoRepeatingBlock(t *testing.T) {
	hp := HorizonPeriod{Horizon: 2, Period: 3}

	if got := hp.Next(3); got != 4 {
		t.Errorf("Next(3) = %d, want 4", got)
	}
	if got := hp.Next(4); got != 2 {
		t.Errorf("Next(4) = %d, want 2 (wrap to period start)", got)
	}
}

func TestCommonRefinement(t *testing.T) {
	a := HorizonPeriod{Horizon: 0, Period: 2}
	b := HorizonPeriod{Horizon: 0, Period: 3}

	got, err := Common(a, b)
	if err != nil {
		t.Fatalf("Common failed: %v", err)
	}
	if got.Horizon != 0 || got.Period != 6 {
		t.Errorf("Common = %v, want [0,6]", got)
	}
}

func TestCommonWithTransients(t *testing.T) {
	a := HorizonPeriod{Horizon: 2, Period: 2}
	b := HorizonPeriod{Horizon: 0, Period: 1}

	got, err := Common(a, b)
	if err != nil {
		t.Fatalf("Common failed: %v", err)
	}
	if got.Horizon != 2 || got.Period != 2 {
		t.Errorf("Common = %v, want [2,2]", got)
	}
}

func TestCommonSingleInput(t *testing.T) {
	hp := HorizonPeriod{Horizon: 3, Period: 4}
	got, err := Common(hp)
	if err != nil {
		t.Fatalf("Common failed: %v", err)
	}
	if !got.Equal(hp) {
		t.Errorf("Common of one input = %v, want %v", got, hp)
	}
}

func TestExpandableRejectsPartialPeriods(t *testing.T) {
	hp := HorizonPeriod{Horizon: 1, Period: 2}

	if err := hp.Expandable(HorizonPeriod{Horizon: 2, Period: 2}); err == nil {
		t.Error("expected error: transient 2 not reachable from 1 by whole periods of 2")
	}
	if err := hp.Expandable(HorizonPeriod{Horizon: 3, Period: 4}); err != nil {
		t.Errorf("expected [1,2] expandable to [3,4], got %v", err)
	}
	if err := hp.Expandable(HorizonPeriod{Horizon: 1, Period: 3}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for non-multiple period, got %v", err)
	}
}

func TestExpandRetiling(t *testing.T) {
	from := HorizonPeriod{Horizon: 1, Period: 2}
	to := HorizonPeriod{Horizon: 3, Period: 4}

	xs := []float64{10, 1, 2}
	got, err := Expand(xs, from, to)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	want := []float64{10, 1, 2, 1, 2, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expanded length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandRejectsBadLength(t *testing.T) {
	from := HorizonPeriod{Horizon: 0, Period: 2}
	_, err := Expand([]int{1, 2, 3}, from, HorizonPeriod{Horizon: 0, Period: 4})
	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for wrong backing length, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := (HorizonPeriod{Horizon: -1, Period: 1}).Validate(); !errors.Is(err, ErrConstruction) {
		t.Error("expected ErrConstruction for negative horizon")
	}
	if err := (HorizonPeriod{Horizon: 0, Period: 0}).Validate(); !errors.Is(err, ErrConstruction) {
		t.Error("expected ErrConstruction for zero period")
	}
	if err := Trivial().Validate(); err != nil {
		t.Errorf("trivial horizon-period should validate, got %v", err)
	}
}
