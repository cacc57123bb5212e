package iqc

import (
	"fmt"
	"math"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/lmi"
	"github.com/san-kum/iqcert/internal/mult"
	"github.com/san-kum/iqcert/internal/sdp"
	"github.com/san-kum/iqcert/internal/ulft"
)

// Options configures one analysis call.
type Options struct {
	// Verbose prints the bisection trace as it runs.
	Verbose bool

	// LmiShift strengthens every non-strict inequality into F(x) ⪰ shift·I.
	LmiShift float64

	// GammaMax caps the upward bracket search; exceeding it yields an
	// invalid result instead of an error.
	GammaMax float64

	// GammaTol is the relative width at which bisection stops.
	GammaTol float64

	// MaxSolves bounds the total number of feasibility solves.
	MaxSolves int

	// Solver decides feasibility of each candidate program; nil selects the
	// default subgradient oracle.
	Solver sdp.Solver

	// Progress, when set, receives every candidate level as it is decided.
	Progress func(gamma float64, feasible bool)

	// Multiplier holds per-block construction overrides, keyed by block
	// name.
	Multiplier map[string]mult.Options
}

func DefaultOptions() Options {
	return Options{
		LmiShift:  1e-7,
		GammaMax:  1e6,
		GammaTol:  1e-3,
		MaxSolves: 60,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LmiShift == 0 {
		o.LmiShift = d.LmiShift
	}
	if o.GammaMax == 0 {
		o.GammaMax = d.GammaMax
	}
	if o.GammaTol == 0 {
		o.GammaTol = d.GammaTol
	}
	if o.MaxSolves == 0 {
		o.MaxSolves = d.MaxSolves
	}
	if o.Solver == nil {
		o.Solver = sdp.NewSubgradient()
	}
	return o
}

// Result is the outcome of one analysis call. Performance is a certified
// upper bound on the induced gain only when Valid is set; callers must
// check Valid before using it.
type Result struct {
	Performance float64
	Valid       bool

	// Gammas and Feasible trace every candidate level in solve order.
	Gammas   []float64
	Feasible []bool

	// Solution is the certificate at the smallest feasible level.
	Solution *lmi.Solution
}

// Analyze certifies an upper bound on the worst-case induced gain of the
// uncertain system: every attached block is mapped to its IQC multiplier,
// the plant and all multiplier filters are assembled into one periodic
// dissipation LMI, and the smallest feasible gain level is found by
// bracketing and bisection.
func Analyze(u *ulft.Ulft, opts Options) (*Result, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil system", delta.ErrConstruction)
	}
	if !u.Timestep().Discrete() {
		return nil, fmt.Errorf("%w: analysis needs a discrete timestep", delta.ErrUnsupported)
	}
	if err := u.Deltas().Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	mults := make([]mult.Multiplier, u.Deltas().Len())
	for j, blk := range u.Deltas().All() {
		mo := opts.Multiplier[blk.Name()]
		mo.Discrete = true
		m, err := mult.ForDelta(blk, mo)
		if err != nil {
			return nil, err
		}
		mults[j] = m
	}
	kernels, fsdTotal := buildKernels(u, mults)

	res := &Result{Performance: math.NaN()}
	solve := func(gamma float64) (*lmi.Solution, error) {
		prog, err := buildProgram(u, kernels, fsdTotal, gamma)
		if err != nil {
			return nil, err
		}
		sol, err := opts.Solver.Solve(prog.Compile(), opts.LmiShift)
		if err != nil {
			return nil, err
		}
		res.Gammas = append(res.Gammas, gamma)
		res.Feasible = append(res.Feasible, sol.Feasible)
		if opts.Verbose {
			fmt.Printf("iqc: gamma=%-12.6g feasible=%-5v mineig=%.3g iters=%d\n",
				gamma, sol.Feasible, sol.MinEig, sol.Iterations)
		}
		if opts.Progress != nil {
			opts.Progress(gamma, sol.Feasible)
		}
		return sol, nil
	}

	// Bracket upward from unit gain.
	lo, hi := 0.0, 1.0
	var best *lmi.Solution
	for {
		sol, err := solve(hi)
		if err != nil {
			return nil, err
		}
		if sol.Feasible {
			best = sol
			break
		}
		lo = hi
		hi *= 4
		if hi > opts.GammaMax || len(res.Gammas) >= opts.MaxSolves {
			return res, nil
		}
	}

	// Bisect down to the requested relative width.
	for hi-lo > opts.GammaTol*hi && len(res.Gammas) < opts.MaxSolves {
		mid := 0.5 * (lo + hi)
		sol, err := solve(mid)
		if err != nil {
			return nil, err
		}
		if sol.Feasible {
			hi, best = mid, sol
		} else {
			lo = mid
		}
	}

	res.Performance = hi
	res.Valid = true
	res.Solution = best
	return res, nil
}
