package config

import "sort"

var Presets = map[string]map[string]*Config{
	"delayed_decay": {
		"reference": {
			Model: "delayed_decay", Integrator: "euler", End: 2, Dt: 0.1, Runs: 1,
			Params: map[string]float64{"alpha": -1, "tau": 1, "x0": 1},
		},
		"oscillating": {
			Model: "delayed_decay", Integrator: "rkf45", End: 30, Dt: 0.01, Runs: 1,
			Params: map[string]float64{"alpha": -2, "tau": 1, "x0": 1},
		},
	},
	"delayed_ou": {
		"single": {
			Model: "delayed_ou", Integrator: "euler_maruyama", End: 10, Dt: 0.003, Runs: 4,
			Params: map[string]float64{"alpha": -1, "tau": 1, "D": 1, "x0": 1},
		},
		"density": {
			Model: "delayed_ou", Integrator: "euler_maruyama", End: 10, Dt: 0.01, Runs: 200,
			Params:  map[string]float64{"alpha": -1, "tau": 1, "D": 1, "x0": 1},
			Density: DensityConfig{Enabled: true, Bins: 50, Every: 100, Lo: -5, Hi: 5},
		},
	},
	"brownian": {
		"statistics": {
			Model: "brownian", Integrator: "euler_maruyama", End: 10, Dt: 0.01, Runs: 100,
			Params:  map[string]float64{"D": 1},
			Density: DensityConfig{Enabled: true, Bins: 50, Every: 100, Lo: -17, Hi: 17},
		},
	},
	"wilson_cowan": {
		"pulse": {
			Model: "wilson_cowan", Integrator: "euler_maruyama", End: 40, Dt: 0.01, Runs: 1,
			Params: map[string]float64{"tau": 1, "D": 0},
		},
		"noisy": {
			Model: "wilson_cowan", Integrator: "euler_maruyama", End: 40, Dt: 0.01, Runs: 20,
			Params: map[string]float64{"tau": 1, "D": 0.01},
		},
	},
	"exp_decay": {
		"reference": {
			Model: "exp_decay", Integrator: "rkf45", End: 5, Dt: 0.1, Runs: 1,
			Params: map[string]float64{"rate": 1, "x0": 1},
		},
		"backward": {
			Model: "exp_decay", Integrator: "rkf45", Start: 5, End: 0, Dt: -0.1, Runs: 1,
			Params: map[string]float64{"rate": 1, "x0": 1},
		},
	},
}

// GetPreset returns a copy of a preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
