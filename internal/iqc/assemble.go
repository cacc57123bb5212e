package iqc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/lmi"
	"github.com/san-kum/iqcert/internal/mult"
	"github.com/san-kum/iqcert/internal/ulft"
)

// kernel ties one multiplier to its channel location in the plant's io
// layout and its filter-state slot in the augmented state.
type kernel struct {
	m           mult.Multiplier
	disturbance bool

	// Per-step channel offsets: zOff/wOff index the plant output/input for
	// uncertainty kernels, sOff the free-input block for disturbances.
	zOff, wOff, sOff []int
	zDim, wDim, sDim []int

	// stateOff is the filter-state offset behind the plant states.
	stateOff int
}

// buildKernels lays out every multiplier's channels and filter states.
func buildKernels(u *ulft.Ulft, mults []mult.Multiplier) ([]kernel, int) {
	total := u.HorizonPeriod().Total()
	kernels := make([]kernel, len(mults))

	zOff := make([]int, total)
	wOff := make([]int, total)
	sOff := make([]int, total)
	stateOff := 0
	for j, m := range mults {
		blk := u.Deltas().At(j)
		k := kernel{
			m:           m,
			disturbance: m.Disturbance(),
			stateOff:    stateOff,
			zOff:        make([]int, total),
			wOff:        make([]int, total),
			sOff:        make([]int, total),
			zDim:        make([]int, total),
			wDim:        make([]int, total),
			sDim:        make([]int, total),
		}
		for t := 0; t < total; t++ {
			if k.disturbance {
				k.sOff[t] = sOff[t]
				k.sDim[t] = blk.DimOut()[t]
				sOff[t] += k.sDim[t]
			} else {
				k.zOff[t] = zOff[t]
				k.wOff[t] = wOff[t]
				k.zDim[t] = blk.DimIn()[t]
				k.wDim[t] = blk.DimOut()[t]
				zOff[t] += k.zDim[t]
				wOff[t] += k.wDim[t]
			}
		}
		stateOff += m.FilterStateDim()
		kernels[j] = k
	}
	return kernels, stateOff
}

// buildProgram assembles the feasibility program certifying induced gain at
// most gamma: per-step storage positivity plus the periodic KYP-form
// dissipation inequality in augmented (state, input) coordinates, with
// every multiplier's quadratic form pushed down through its filter map.
func buildProgram(u *ulft.Ulft, kernels []kernel, fsdTotal int, gamma float64) (*lmi.Program, error) {
	prog := lmi.NewProgram()
	hp := u.HorizonPeriod()
	total := hp.Total()

	// Per-multiplier middle matrices, one expression per step.
	mexprs := make([][]*lmi.Expr, len(kernels))
	for j, k := range kernels {
		exprs, err := k.m.Register(prog)
		if err != nil {
			return nil, fmt.Errorf("multiplier %s: %w", k.m.Name(), err)
		}
		mexprs[j] = exprs
	}

	// Storage variables; the augmented state is [plant; filters].
	pvars := make([]lmi.Var, total)
	pdims := make([]int, total)
	for t := 0; t < total; t++ {
		pdims[t] = u.StateDim(t) + fsdTotal
		if pdims[t] == 0 {
			continue
		}
		pvars[t] = prog.NewVariable(fmt.Sprintf("P.%d", t), pdims[t])
		psd := lmi.NewExpr(pdims[t])
		if err := psd.AddScaledVar(pvars[t], 1); err != nil {
			return nil, err
		}
		prog.Require(fmt.Sprintf("P.%d.psd", t), psd)
	}

	for t := 0; t < total; t++ {
		next := hp.Next(t)
		nxi := pdims[t]
		nxiNext := pdims[next]
		in := u.InDim(t)
		dim := nxi + in

		e := lmi.NewExpr(dim)

		// Dissipation: storage decrease across the step.
		if nxiNext > 0 {
			tr, err := stepMap(u, kernels, t)
			if err != nil {
				return nil, err
			}
			if err := e.AddSymScaled(transpose(tr), pvars[next], -1); err != nil {
				return nil, err
			}
		}
		if nxi > 0 {
			cur := mat.NewDense(dim, nxi, nil)
			for i := 0; i < nxi; i++ {
				cur.Set(i, i, 1)
			}
			if err := e.AddSymScaled(cur, pvars[t], 1); err != nil {
				return nil, err
			}
		}

		// Multiplier forms: uncertainties subtract, disturbances relax.
		for j, k := range kernels {
			phi, err := filterMap(u, k, t, fsdTotal)
			if err != nil {
				return nil, err
			}
			cong, err := lmi.Congruence(mexprs[j][t], phi)
			if err != nil {
				return nil, fmt.Errorf("multiplier %s step %d: %w", k.m.Name(), t, err)
			}
			if !k.disturbance {
				cong = cong.Negate()
			}
			if err := e.Accumulate(cong); err != nil {
				return nil, err
			}
		}

		// Performance: gamma^2 |d|^2 - |e|^2.
		if err := e.AddConst(performanceConst(u, t, fsdTotal, gamma)); err != nil {
			return nil, err
		}

		prog.Require(fmt.Sprintf("step.%d", t), e)
	}
	return prog, nil
}

// stepMap builds the augmented one-step update [ξ+; ] = T·[ξ; u] at array
// index t: the plant update stacked over every filter's update driven by
// its channel.
func stepMap(u *ulft.Ulft, kernels []kernel, t int) (*mat.Dense, error) {
	hp := u.HorizonPeriod()
	next := hp.Next(t)
	np := u.StateDim(t)
	npNext := u.StateDim(next)
	fsdTotal := 0
	for _, k := range kernels {
		fsdTotal += k.m.FilterStateDim()
	}
	nxi := np + fsdTotal
	dim := nxi + u.InDim(t)

	tr := mat.NewDense(npNext+fsdTotal, dim, nil)
	if a := u.A(t); a != nil {
		copyBlock(tr, 0, 0, a)
	}
	if b := u.B(t); b != nil {
		copyBlock(tr, 0, nxi, b)
	}
	for _, k := range kernels {
		fsd := k.m.FilterStateDim()
		if fsd == 0 {
			continue
		}
		fa, fb, _, _ := k.m.Filter()
		row := npNext + k.stateOff
		if fa != nil {
			copyBlock(tr, row, np+k.stateOff, fa)
		}
		if fb != nil {
			r, err := channelMap(u, k, t, fsdTotal)
			if err != nil {
				return nil, err
			}
			var drive mat.Dense
			drive.Mul(fb, r)
			addBlock(tr, row, 0, &drive)
		}
	}
	return tr, nil
}

// channelMap builds the multiplier's filter input r = R·[ξ; u]: for an
// uncertainty kernel [z; w] with z read off the plant output and w off the
// plant input, for a disturbance kernel the constrained free-input slice.
func channelMap(u *ulft.Ulft, k kernel, t, fsdTotal int) (*mat.Dense, error) {
	np := u.StateDim(t)
	nxi := np + fsdTotal
	in := u.InDim(t)
	dim := nxi + in

	if k.disturbance {
		r := mat.NewDense(k.sDim[t], dim, nil)
		base := nxi + u.UncertaintyOutDim(t) + k.sOff[t]
		for i := 0; i < k.sDim[t]; i++ {
			r.Set(i, base+i, 1)
		}
		return r, nil
	}

	zd, wd := k.zDim[t], k.wDim[t]
	r := mat.NewDense(zd+wd, dim, nil)
	cp, dp := u.C(t), u.D(t)
	for i := 0; i < zd; i++ {
		if cp != nil {
			for j := 0; j < np; j++ {
				r.Set(i, j, cp.At(k.zOff[t]+i, j))
			}
		}
		for j := 0; j < in; j++ {
			r.Set(i, nxi+j, dp.At(k.zOff[t]+i, j))
		}
	}
	for i := 0; i < wd; i++ {
		r.Set(zd+i, nxi+k.wOff[t]+i, 1)
	}
	return r, nil
}

// filterMap builds the multiplier's filter output map Φ with
// Ψ(r) = C_f·x_f + D_f·r in augmented coordinates; a fully nil filter is
// the identity on the channel.
func filterMap(u *ulft.Ulft, k kernel, t, fsdTotal int) (*mat.Dense, error) {
	r, err := channelMap(u, k, t, fsdTotal)
	if err != nil {
		return nil, err
	}
	_, _, fc, fd := k.m.Filter()
	if fc == nil && fd == nil {
		return r, nil
	}

	np := u.StateDim(t)
	_, dim := r.Dims()
	out := k.m.OutDim(t)
	phi := mat.NewDense(out, dim, nil)
	if fd != nil {
		var through mat.Dense
		through.Mul(fd, r)
		copyBlock(phi, 0, 0, &through)
	}
	if fc != nil {
		addBlock(phi, 0, np+k.stateOff, fc)
	}
	return phi, nil
}

// performanceConst is the constant term gamma^2·S_dᵀS_d − EᵀE where S_d
// selects the free inputs and E maps to the performance outputs.
func performanceConst(u *ulft.Ulft, t, fsdTotal int, gamma float64) *mat.Dense {
	np := u.StateDim(t)
	nxi := np + fsdTotal
	in := u.InDim(t)
	dim := nxi + in
	zTot := u.UncertaintyInDim(t)
	wTot := u.UncertaintyOutDim(t)
	pe := u.PerfOutDim(t)
	fi := in - wTot

	k := mat.NewDense(dim, dim, nil)
	for i := 0; i < fi; i++ {
		idx := nxi + wTot + i
		k.Set(idx, idx, gamma*gamma)
	}

	if pe == 0 {
		return k
	}
	ep := mat.NewDense(pe, dim, nil)
	cp, dp := u.C(t), u.D(t)
	for i := 0; i < pe; i++ {
		if cp != nil {
			for j := 0; j < np; j++ {
				ep.Set(i, j, cp.At(zTot+i, j))
			}
		}
		for j := 0; j < in; j++ {
			ep.Set(i, nxi+j, dp.At(zTot+i, j))
		}
	}
	var ee mat.Dense
	ee.Mul(ep.T(), ep)
	k.Sub(k, &ee)
	return k
}

func copyBlock(dst *mat.Dense, r0, c0 int, src mat.Matrix) {
	r, c := src.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(r0+i, c0+j, src.At(i, j))
		}
	}
}

func addBlock(dst *mat.Dense, r0, c0 int, src mat.Matrix) {
	r, c := src.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(r0+i, c0+j, dst.At(r0+i, c0+j)+src.At(i, j))
		}
	}
}

func transpose(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(m.T())
	return &out
}
