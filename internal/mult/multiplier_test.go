package mult

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

func TestForDeltaSlti(t *testing.T) {
	b, err := delta.NewSltiFull("par", 2, 0.8, horizon.Trivial())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if m.Disturbance() {
		t.Fatalf("uncertainty kernel reports disturbance")
	}
	if got := m.ChannelDim(0); got != 4 {
		t.Fatalf("channel dim = %d, want 4", got)
	}
	if m.FilterStateDim() != 0 {
		t.Fatalf("memoryless kernel has filter states")
	}

	prog := lmi.NewProgram()
	exprs, err := m.Register(prog)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(exprs) != 1 {
		t.Fatalf("got %d step expressions, want 1", len(exprs))
	}
	if exprs[0].Dim() != m.OutDim(0) {
		t.Fatalf("expr dim %d, filter out dim %d", exprs[0].Dim(), m.OutDim(0))
	}
	if len(prog.Constraints()) == 0 {
		t.Fatalf("no semidefiniteness constraint on the scaling")
	}
}

func TestForDeltaDltiDynamicBasis(t *testing.T) {
	b, err := delta.NewDltiFull("op", 1, 1.5, horizon.Trivial())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true, Basis: LengthPoles{Length: 2, Poles: []complex128{0.5}}})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if got := m.FilterStateDim(); got != 2 {
		t.Fatalf("filter state dim = %d, want 2", got)
	}
	if got := m.OutDim(0); got != 4 {
		t.Fatalf("filter out dim = %d, want 4", got)
	}
	prog := lmi.NewProgram()
	if _, err := m.Register(prog); err != nil {
		t.Fatalf("register: %v", err)
	}
	prog.Compile()
}

func TestForDeltaDelaySltiKYP(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 1}
	b, err := delta.NewDelaySltiFull("lag", 1, 3, hp)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true, Basis: LengthPoles{Length: 2, Poles: []complex128{0.2}}})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	prog := lmi.NewProgram()
	if _, err := m.Register(prog); err != nil {
		t.Fatalf("register: %v", err)
	}
	var kyp bool
	for _, c := range prog.Constraints() {
		if strings.HasSuffix(c.Name, ".kyp") {
			kyp = true
		}
	}
	if !kyp {
		t.Fatalf("delay kernel did not register a KYP certificate")
	}

	// Explicit override falls back to direct semidefiniteness.
	off := false
	m, err = ForDelta(b, Options{Discrete: true, ConstraintQ11KYP: &off,
		Basis: LengthPoles{Length: 2, Poles: []complex128{0.2}}})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	prog = lmi.NewProgram()
	if _, err := m.Register(prog); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, c := range prog.Constraints() {
		if strings.HasSuffix(c.Name, ".kyp") {
			t.Fatalf("KYP certificate registered despite override")
		}
	}
}

func TestForDeltaTimeVarying(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 1, Period: 2}
	b, err := delta.NewSltvFull("gain", 1, []float64{1, 0.5, 0.25}, hp)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	prog := lmi.NewProgram()
	exprs, err := m.Register(prog)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(exprs) != hp.Total() {
		t.Fatalf("got %d step expressions, want %d", len(exprs), hp.Total())
	}

	// Dynamic scalings are unsound against arbitrary time variation.
	_, err = ForDelta(b, Options{Discrete: true, Basis: LengthPoles{Length: 2, Poles: []complex128{0.5}}})
	if !errors.Is(err, delta.ErrConstruction) {
		t.Fatalf("dynamic basis on a time-varying block accepted: %v", err)
	}
}

func TestForDeltaSector(t *testing.T) {
	b, err := delta.NewSectorBoundedFull("phi", 1, []float64{-0.5}, []float64{1}, horizon.Trivial())
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	prog := lmi.NewProgram()
	exprs, err := m.Register(prog)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if exprs[0].Dim() != 2 {
		t.Fatalf("expr dim = %d, want 2", exprs[0].Dim())
	}
	// One weight plus its positivity constraint per step.
	if len(prog.Variables()) != 1 || len(prog.Constraints()) != 1 {
		t.Fatalf("got %d vars and %d constraints, want 1 and 1",
			len(prog.Variables()), len(prog.Constraints()))
	}
}

func TestForDeltaDelayZ(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 2}
	b, err := delta.NewDelayZFull("x", []int{1, 2}, hp)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	// Entering width at step t is the state width at t+1.
	if got := m.ChannelDim(0); got != 3 {
		t.Fatalf("channel dim at 0 = %d, want 3", got)
	}
	if got := m.ChannelDim(1); got != 3 {
		t.Fatalf("channel dim at 1 = %d, want 3", got)
	}
	prog := lmi.NewProgram()
	exprs, err := m.Register(prog)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(exprs) != 2 {
		t.Fatalf("got %d step expressions, want 2", len(exprs))
	}
}

func TestForDeltaConstantWindow(t *testing.T) {
	hp := horizon.HorizonPeriod{Horizon: 0, Period: 3}
	b, err := delta.NewConstantWindowFull("hold", 1, []bool{true, true, false}, hp)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	m, err := ForDelta(b, Options{Discrete: true})
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if !m.Disturbance() {
		t.Fatalf("window kernel is not a disturbance")
	}
	prog := lmi.NewProgram()
	exprs, err := m.Register(prog)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(exprs) != 3 {
		t.Fatalf("got %d step expressions, want 3", len(exprs))
	}
	// Only steps whose predecessor is also inside the window carry a free
	// variable; here that is step 1 alone.
	if len(prog.Variables()) != 1 {
		t.Fatalf("got %d free variables, want 1", len(prog.Variables()))
	}
}

func TestForDeltaUnsupported(t *testing.T) {
	b, err := delta.NewIntegratorFull("int", 1)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := ForDelta(b, Options{}); !errors.Is(err, delta.ErrUnsupported) {
		t.Fatalf("integrator mapped to a multiplier: %v", err)
	}
}
