package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/iqcert/internal/iqc"
)

func TestModelTracksBracket(t *testing.T) {
	var m Model
	m.solves = []solve{
		{gamma: 1, feasible: false},
		{gamma: 4, feasible: true},
		{gamma: 2.5, feasible: true},
		{gamma: 1.75, feasible: false},
	}
	lo, hi := m.bracket()
	if lo != 1.75 || hi != 2.5 {
		t.Fatalf("bracket = [%v, %v], want [1.75, 2.5]", lo, hi)
	}

	m.solves = nil
	lo, hi = m.bracket()
	if lo != 0 || !math.IsInf(hi, 1) {
		t.Fatalf("empty bracket = [%v, %v]", lo, hi)
	}
}

func TestModelUpdateFinishes(t *testing.T) {
	m := Model{progress: make(chan solve, 4), done: make(chan outcome, 1)}
	m.progress <- solve{gamma: 1, feasible: false}

	next, _ := m.Update(doneMsg{result: &iqc.Result{Performance: 2, Valid: true}})
	got := next.(Model)
	if !got.finished {
		t.Fatal("done message did not finish the model")
	}
	if len(got.solves) != 1 {
		t.Fatalf("pending solves not drained: %d", len(got.solves))
	}
	res, err := got.Result()
	if err != nil || res == nil || !res.Valid {
		t.Fatalf("result not carried: %v %v", res, err)
	}
}

func TestModelRunOutlivesAbandonedView(t *testing.T) {
	// Nothing reads the progress channel, standing in for an aborted
	// view. The analysis must still run to completion even when it
	// reports far more solves than the channel buffers.
	m := NewModel("stale", func(progress func(float64, bool)) (*iqc.Result, error) {
		for i := 0; i < 500; i++ {
			progress(float64(i+1), false)
		}
		return &iqc.Result{Performance: 2, Valid: true}, nil
	})

	select {
	case o := <-m.done:
		if o.err != nil || o.result == nil || !o.result.Valid {
			t.Fatalf("run outcome lost: %+v %v", o.result, o.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("analysis goroutine blocked on an unread progress channel")
	}
}

func TestModelViewRenders(t *testing.T) {
	var m Model
	m.solves = []solve{{gamma: 1, feasible: false}, {gamma: 4, feasible: true}}
	view := m.View()
	if !strings.Contains(view, "bracket") || !strings.Contains(view, "solves") {
		t.Fatalf("view missing sections:\n%s", view)
	}
}

func TestFeasibleMarksWidth(t *testing.T) {
	marks := FeasibleMarks(make([]bool, 100), 10)
	if count := strings.Count(marks, "✗"); count != 10 {
		t.Fatalf("marks not clipped to width: %d", count)
	}
}
