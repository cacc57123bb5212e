package storage

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/iqcert/internal/iqc"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	res := &iqc.Result{
		Performance: 2.125,
		Valid:       true,
		Gammas:      []float64{1, 4, 2.5, 1.75, 2.125},
		Feasible:    []bool{false, true, true, false, true},
	}
	runID, err := st.Save("uncertain_gain", 1e-3, 250*time.Millisecond, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Scenario != "uncertain_gain" || !meta.Valid {
		t.Fatalf("metadata changed: %+v", meta)
	}
	if meta.Performance != 2.125 || meta.Solves != 5 {
		t.Fatalf("metadata performance %v solves %d", meta.Performance, meta.Solves)
	}

	gammas, feasible, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(gammas) != 5 || len(feasible) != 5 {
		t.Fatalf("trace has %d/%d rows, want 5", len(gammas), len(feasible))
	}
	if gammas[1] != 4 || feasible[0] || !feasible[1] {
		t.Fatalf("trace changed: %v %v", gammas, feasible)
	}
}

func TestSaveInvalidResult(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	res := &iqc.Result{
		Performance: math.NaN(),
		Gammas:      []float64{1, 4},
		Feasible:    []bool{false, false},
	}
	runID, err := st.Save("unstable", 1e-3, time.Second, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Valid || meta.Performance != 0 {
		t.Fatalf("invalid run stored as %+v", meta)
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("fresh store has %d runs", len(runs))
	}

	res := &iqc.Result{Performance: 2, Valid: true, Gammas: []float64{2}, Feasible: []bool{true}}
	if _, err := st.Save("a", 1e-3, time.Second, res); err != nil {
		t.Fatalf("save: %v", err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].Scenario != "a" {
		t.Fatalf("list = %+v", runs)
	}
}

func TestListMissingDir(t *testing.T) {
	st := New("does-not-exist")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("missing dir listed %d runs", len(runs))
	}
}
