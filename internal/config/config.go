package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/iqc"
	"github.com/san-kum/iqcert/internal/mult"
	"github.com/san-kum/iqcert/internal/ulft"
)

const (
	DefaultTimestep = 1.0
	DefaultShift    = 1e-7
	DefaultGammaMax = 1e6
	DefaultGammaTol = 1e-3
	DefaultSolves   = 60
)

// Config declares one analysis scenario: the uncertain plant, its blocks,
// and the solver settings.
type Config struct {
	Name     string         `yaml:"name"`
	System   SystemConfig   `yaml:"system"`
	Deltas   []DeltaConfig  `yaml:"deltas"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// Matrix is a row-major block in the file format; an empty value stands
// for a zero block of implied size.
type Matrix [][]float64

// SystemConfig declares the plant realization. Each of A, B, C, D holds
// either one matrix replicated over every step or one matrix per step of
// the horizon plus period.
type SystemConfig struct {
	Horizon  int      `yaml:"horizon"`
	Period   int      `yaml:"period"`
	Timestep float64  `yaml:"timestep"`
	A        []Matrix `yaml:"a"`
	B        []Matrix `yaml:"b"`
	C        []Matrix `yaml:"c"`
	D        []Matrix `yaml:"d"`
}

// DeltaConfig declares one uncertainty or disturbance block. Scalar
// fields cover the time-invariant variants; the slice fields carry
// per-step data and may hold a single entry to replicate.
type DeltaConfig struct {
	Name     string    `yaml:"name"`
	Variant  string    `yaml:"variant"`
	Dim      int       `yaml:"dim"`
	Bound    float64   `yaml:"bound"`
	Bounds   []float64 `yaml:"bounds"`
	Rates    []float64 `yaml:"rates"`
	Low      []float64 `yaml:"low"`
	High     []float64 `yaml:"high"`
	Window   []bool    `yaml:"window"`
	MaxDelay int       `yaml:"max_delay"`

	// BasisLength > 1 requests a dynamic multiplier basis with the given
	// pole (0 keeps the generated default poles).
	BasisLength int     `yaml:"basis_length"`
	BasisPole   float64 `yaml:"basis_pole"`
}

type AnalysisConfig struct {
	Verbose   bool    `yaml:"verbose"`
	LmiShift  float64 `yaml:"lmi_shift"`
	GammaMax  float64 `yaml:"gamma_max"`
	GammaTol  float64 `yaml:"gamma_tol"`
	MaxSolves int     `yaml:"max_solves"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "uncertain_gain",
		System: SystemConfig{
			Timestep: DefaultTimestep,
			A:        []Matrix{{{0.5}}},
			B:        []Matrix{{{1, 1}}},
			C:        []Matrix{{{1}, {1}}},
			D:        []Matrix{{{0, 0}, {0, 0}}},
		},
		Deltas: []DeltaConfig{
			{Name: "gain", Variant: "slti", Dim: 1, Bound: 0.3},
		},
		Analysis: AnalysisConfig{
			LmiShift:  DefaultShift,
			GammaMax:  DefaultGammaMax,
			GammaTol:  DefaultGammaTol,
			MaxSolves: DefaultSolves,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// HorizonPeriod reads the declared pair; a missing period means a purely
// periodic declaration of length one.
func (s SystemConfig) HorizonPeriod() horizon.HorizonPeriod {
	p := s.Period
	if p < 1 {
		p = 1
	}
	return horizon.HorizonPeriod{Horizon: s.Horizon, Period: p}
}

// Build assembles the declared uncertain plant.
func (c *Config) Build() (*ulft.Ulft, error) {
	hp := c.System.HorizonPeriod()
	total := hp.Total()

	var seq *delta.Sequence
	if len(c.Deltas) > 0 {
		blocks := make([]delta.Delta, len(c.Deltas))
		for i, dc := range c.Deltas {
			blk, err := dc.Block(hp)
			if err != nil {
				return nil, fmt.Errorf("delta %q: %w", dc.Name, err)
			}
			blocks[i] = blk
		}
		var err error
		seq, err = delta.NewSequence(blocks...)
		if err != nil {
			return nil, err
		}
	}

	a, err := steps(c.System.A, total)
	if err != nil {
		return nil, fmt.Errorf("a: %w", err)
	}
	b, err := steps(c.System.B, total)
	if err != nil {
		return nil, fmt.Errorf("b: %w", err)
	}
	cm, err := steps(c.System.C, total)
	if err != nil {
		return nil, fmt.Errorf("c: %w", err)
	}
	d, err := steps(c.System.D, total)
	if err != nil {
		return nil, fmt.Errorf("d: %w", err)
	}

	ts := c.System.Timestep
	if ts == 0 {
		ts = DefaultTimestep
	}
	return ulft.New(a, b, cm, d, seq, hp, ulft.Timestep(ts))
}

// Block builds the declared uncertainty or disturbance block over hp.
func (dc DeltaConfig) Block(hp horizon.HorizonPeriod) (delta.Delta, error) {
	total := hp.Total()
	dim := dc.Dim
	if dim == 0 {
		dim = 1
	}
	switch dc.Variant {
	case "slti":
		return delta.NewSltiFull(dc.Name, dim, dc.Bound, hp)
	case "dlti":
		return delta.NewDltiFull(dc.Name, dim, dc.Bound, hp)
	case "delay":
		return delta.NewDelaySltiFull(dc.Name, dim, dc.MaxDelay, hp)
	case "sltv":
		return delta.NewSltvFull(dc.Name, dim, expand(dc.Bounds, dc.Bound, total), hp)
	case "sltv_rate":
		return delta.NewSltvRateBoundFull(dc.Name, dim,
			expand(dc.Bounds, dc.Bound, total),
			expand(dc.Rates, 2*dc.Bound, total), hp)
	case "sector":
		return delta.NewSectorBoundedFull(dc.Name, dim,
			expand(dc.Low, -dc.Bound, total),
			expand(dc.High, dc.Bound, total), hp)
	case "window":
		return delta.NewConstantWindowFull(dc.Name, dim, expandWindow(dc.Window, total), hp)
	default:
		return nil, fmt.Errorf("%w: delta variant %q", delta.ErrUnsupported, dc.Variant)
	}
}

// Options maps the analysis settings onto the engine; zero fields keep
// the engine defaults.
func (c *Config) Options() iqc.Options {
	return iqc.Options{
		Verbose:    c.Analysis.Verbose,
		LmiShift:   c.Analysis.LmiShift,
		GammaMax:   c.Analysis.GammaMax,
		GammaTol:   c.Analysis.GammaTol,
		MaxSolves:  c.Analysis.MaxSolves,
		Multiplier: c.MultiplierOptions(),
	}
}

// MultiplierOptions collects the per-block basis requests.
func (c *Config) MultiplierOptions() map[string]mult.Options {
	out := make(map[string]mult.Options)
	for _, dc := range c.Deltas {
		if dc.BasisLength <= 1 {
			continue
		}
		spec := mult.LengthPoles{Length: dc.BasisLength}
		if dc.BasisPole != 0 {
			spec.Poles = []complex128{complex(dc.BasisPole, 0)}
		}
		out[dc.Name] = mult.Options{Basis: spec}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m Matrix) dense() (*mat.Dense, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, nil
	}
	cols := len(m[0])
	out := mat.NewDense(len(m), cols, nil)
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d",
				horizon.ErrDimension, i, len(row), cols)
		}
		for j, v := range row {
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// steps expands the per-step matrix list: one entry replicates across
// every step, otherwise one entry per step is required.
func steps(ms []Matrix, total int) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, total)
	switch len(ms) {
	case 0:
	case 1:
		m, err := ms[0].dense()
		if err != nil {
			return nil, err
		}
		for t := range out {
			out[t] = m
		}
	case total:
		for t, blk := range ms {
			m, err := blk.dense()
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", t, err)
			}
			out[t] = m
		}
	default:
		return nil, fmt.Errorf("%w: %d matrices for %d steps",
			horizon.ErrDimension, len(ms), total)
	}
	return out, nil
}

func expand(vals []float64, fill float64, total int) []float64 {
	switch len(vals) {
	case 0:
		out := make([]float64, total)
		for t := range out {
			out[t] = fill
		}
		return out
	case 1:
		out := make([]float64, total)
		for t := range out {
			out[t] = vals[0]
		}
		return out
	default:
		// Wrong lengths fall through to the block constructor's check.
		return vals
	}
}

func expandWindow(vals []bool, total int) []bool {
	switch len(vals) {
	case 0:
		out := make([]bool, total)
		for t := range out {
			out[t] = true
		}
		return out
	case 1:
		out := make([]bool, total)
		for t := range out {
			out[t] = vals[0]
		}
		return out
	default:
		return vals
	}
}
