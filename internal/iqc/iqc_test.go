package iqc

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/ulft"
)

// firstOrder builds x+ = pole·x + d, e = x.
func firstOrder(t *testing.T, pole float64) *ulft.Ulft {
	t.Helper()
	u, err := ulft.NewTimeInvariant(
		mat.NewDense(1, 1, []float64{pole}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{0}),
		nil, 1)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	return u
}

func TestAnalyzeFirstOrderGain(t *testing.T) {
	// Pole at -0.5 with unit input and output maps: the induced gain is
	// 1/(1-0.5) = 2, attained at the Nyquist frequency.
	res, err := Analyze(firstOrder(t, -0.5), Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !res.Valid {
		t.Fatalf("stable system reported invalid: %+v", res)
	}
	if res.Performance < 1.9 || res.Performance > 2.3 {
		t.Fatalf("performance = %v, want near 2", res.Performance)
	}
	if len(res.Gammas) != len(res.Feasible) || len(res.Gammas) == 0 {
		t.Fatalf("trace lengths %d and %d", len(res.Gammas), len(res.Feasible))
	}
	if res.Solution == nil || !res.Solution.Feasible {
		t.Fatalf("missing certificate")
	}
}

func TestAnalyzeConstantWindowReducesBound(t *testing.T) {
	u := firstOrder(t, -0.5)
	base, err := Analyze(u, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	blk, err := delta.NewConstantWindowFull("hold", 1, []bool{true}, horizon.Trivial())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	frozen, err := u.AddDisturbance(blk)
	if err != nil {
		t.Fatalf("add disturbance: %v", err)
	}
	held, err := Analyze(frozen, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !base.Valid || !held.Valid {
		t.Fatalf("valid = %v/%v", base.Valid, held.Valid)
	}
	// Freezing the input cannot increase the worst-case gain.
	if held.Performance >= base.Performance {
		t.Fatalf("frozen bound %v, unconstrained bound %v", held.Performance, base.Performance)
	}
}

func TestAnalyzeMatchHorizonPeriodInvariance(t *testing.T) {
	u := firstOrder(t, -0.5)
	opts := Options{GammaTol: 1e-4, MaxSolves: 80}
	base, err := Analyze(u, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	m, err := u.MatchHorizonPeriod(horizon.HorizonPeriod{Horizon: 1, Period: 2})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	refined, err := Analyze(m, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !base.Valid || !refined.Valid {
		t.Fatalf("valid = %v/%v", base.Valid, refined.Valid)
	}
	rel := math.Abs(base.Performance-refined.Performance) / base.Performance
	if rel >= 2e-3 {
		t.Fatalf("relative drift %v across re-expansion", rel)
	}
}

func TestAnalyzeSltiUncertainty(t *testing.T) {
	// x+ = (0.5+delta)x + d with |delta| <= 0.3: the worst pole is 0.8, so
	// the worst-case gain is 1/(1-0.8) = 5.
	blk, err := delta.NewSltiFull("par", 1, 0.3, horizon.Trivial())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	seq, err := delta.NewSequence(blk)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	u, err := ulft.NewTimeInvariant(
		mat.NewDense(1, 1, []float64{0.5}),
		mat.NewDense(1, 2, []float64{1, 1}),
		mat.NewDense(2, 1, []float64{1, 1}),
		mat.NewDense(2, 2, nil),
		seq, 1)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	res, err := Analyze(u, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !res.Valid {
		t.Fatalf("robustly stable system reported invalid")
	}
	if res.Performance < 4.8 || res.Performance > 8 {
		t.Fatalf("performance = %v, want near 5", res.Performance)
	}
}

func TestAnalyzeUnstable(t *testing.T) {
	res, err := Analyze(firstOrder(t, 1.2), Options{GammaMax: 50})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Valid {
		t.Fatalf("unstable system certified with bound %v", res.Performance)
	}
	if !math.IsNaN(res.Performance) {
		t.Fatalf("invalid result carries performance %v", res.Performance)
	}
	if len(res.Gammas) == 0 {
		t.Fatalf("no bracket trace recorded")
	}
}

func TestAnalyzeContinuousRejected(t *testing.T) {
	u, err := ulft.NewTimeInvariant(nil, nil, nil, mat.NewDense(1, 1, nil), nil, ulft.Continuous)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	if _, err := Analyze(u, Options{}); !errors.Is(err, delta.ErrUnsupported) {
		t.Fatalf("continuous system accepted: %v", err)
	}
}

func TestAnalyzeReachability(t *testing.T) {
	u := firstOrder(t, 0.5)
	full, err := Analyze(u, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	r, err := u.Reachability(2)
	if err != nil {
		t.Fatalf("reachability: %v", err)
	}
	finite, err := Analyze(r, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !full.Valid || !finite.Valid {
		t.Fatalf("valid = %v/%v", full.Valid, finite.Valid)
	}
	// A finite reachability horizon never exceeds the infinite-horizon
	// bound.
	if finite.Performance > full.Performance+0.1 {
		t.Fatalf("reachability bound %v above full bound %v", finite.Performance, full.Performance)
	}

	// Freezing the input over the whole reachability window shrinks the
	// bound further.
	window := make([]bool, r.HorizonPeriod().Total())
	for i := range window {
		window[i] = true
	}
	blk, err := delta.NewConstantWindowFull("hold", 1, window, r.HorizonPeriod())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	held, err := r.AddDisturbance(blk)
	if err != nil {
		t.Fatalf("add disturbance: %v", err)
	}
	frozen, err := Analyze(held, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !frozen.Valid || frozen.Performance >= finite.Performance {
		t.Fatalf("frozen reachability bound %v, free bound %v", frozen.Performance, finite.Performance)
	}

	// A window confined to horizon steps past the reachability time sits
	// where the output is already zero, so freezing there leaves the bound
	// unchanged.
	m, err := u.MatchHorizonPeriod(horizon.HorizonPeriod{Horizon: 5, Period: 1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	wide, err := m.Reachability(2)
	if err != nil {
		t.Fatalf("reachability: %v", err)
	}
	base, err := Analyze(wide, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	tail := make([]bool, wide.HorizonPeriod().Total())
	tail[3], tail[4] = true, true
	idleBlk, err := delta.NewConstantWindowFull("idle", 1, tail, wide.HorizonPeriod())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	withIdle, err := wide.AddDisturbance(idleBlk)
	if err != nil {
		t.Fatalf("add disturbance: %v", err)
	}
	idle, err := Analyze(withIdle, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !base.Valid || !idle.Valid {
		t.Fatalf("valid = %v/%v", base.Valid, idle.Valid)
	}
	rel := math.Abs(idle.Performance-base.Performance) / base.Performance
	if rel >= 0.01 {
		t.Fatalf("idle window moved the bound by %v: %v vs %v", rel, idle.Performance, base.Performance)
	}
}
