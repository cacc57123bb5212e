package config

import "sort"

// Presets are ready-made scenarios with known certified gains, used by
// the CLI and the regression suites.
var Presets = map[string]*Config{
	"nominal_first_order": {
		Name: "nominal_first_order",
		System: SystemConfig{
			Timestep: DefaultTimestep,
			A:        []Matrix{{{-0.5}}},
			B:        []Matrix{{{1}}},
			C:        []Matrix{{{1}}},
			D:        []Matrix{{{0}}},
		},
		Analysis: AnalysisConfig{
			LmiShift: DefaultShift, GammaMax: DefaultGammaMax,
			GammaTol: DefaultGammaTol, MaxSolves: DefaultSolves,
		},
	},
	"uncertain_gain": {
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
			LmiShift: DefaultShift, GammaMax: DefaultGammaMax,
			GammaTol: DefaultGammaTol, MaxSolves: DefaultSolves,
		},
	},
	"periodic_gain": {
		Name: "periodic_gain",
		System: SystemConfig{
			Period:   2,
			Timestep: DefaultTimestep,
			A:        []Matrix{{{0.3}}, {{0.6}}},
			B:        []Matrix{{{1}}},
			C:        []Matrix{{{1}}},
			D:        []Matrix{{{0}}},
		},
		Analysis: AnalysisConfig{
			LmiShift: DefaultShift, GammaMax: DefaultGammaMax,
			GammaTol: DefaultGammaTol, MaxSolves: DefaultSolves,
		},
	},
	"sector_feedback": {
		Name: "sector_feedback",
		System: SystemConfig{
			Timestep: DefaultTimestep,
			A:        []Matrix{{{0.4}}},
			B:        []Matrix{{{1, 1}}},
			C:        []Matrix{{{1}, {1}}},
			D:        []Matrix{{{0, 0}, {0, 0}}},
		},
		Deltas: []DeltaConfig{
			{Name: "phi", Variant: "sector", Dim: 1, Bound: 0.3},
		},
		Analysis: AnalysisConfig{
			LmiShift: DefaultShift, GammaMax: DefaultGammaMax,
			GammaTol: DefaultGammaTol, MaxSolves: DefaultSolves,
		},
	},
	"held_disturbance": {
		Name: "held_disturbance",
		System: SystemConfig{
			Period:   3,
			Timestep: DefaultTimestep,
			A:        []Matrix{{{0.5}}},
			B:        []Matrix{{{1}}},
			C:        []Matrix{{{1}}},
			D:        []Matrix{{{0}}},
		},
		Deltas: []DeltaConfig{
			{Name: "hold", Variant: "window", Dim: 1, Window: []bool{true, true, false}},
		},
		Analysis: AnalysisConfig{
			LmiShift: DefaultShift, GammaMax: DefaultGammaMax,
			GammaTol: DefaultGammaTol, MaxSolves: DefaultSolves,
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
