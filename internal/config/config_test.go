package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/delaysim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "delayed_decay" {
		t.Errorf("expected model delayed_decay, got %s", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	r, err := cfg.Range()
	if err != nil {
		t.Fatal(err)
	}
	if r.Steps != 1000 {
		t.Errorf("expected 1000 steps, got %d", r.Steps)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"backward", func(c *Config) { c.Start, c.End, c.Dt = 5, 0, -0.1 }, true},
		{"single point", func(c *Config) { c.End = 0 }, true},
		{"zero dt", func(c *Config) { c.Dt = 0 }, false},
		{"wrong sign", func(c *Config) { c.Dt = -0.1 }, false},
		{"no runs", func(c *Config) { c.Runs = 0 }, false},
		{"no model", func(c *Config) { c.Model = "" }, false},
		{"empty density", func(c *Config) { c.Density = DensityConfig{Enabled: true, Bins: 10, Lo: 1, Hi: 1} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Dt = 0
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidRange) {
		t.Errorf("zero dt should wrap ErrInvalidRange, got %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	cfg := GetPreset("delayed_ou", "density")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "delayed_ou" || loaded.Runs != 200 || loaded.Params["D"] != 1 {
		t.Errorf("loaded %+v", loaded)
	}
	if !loaded.Density.Enabled || loaded.Density.Bins != 50 {
		t.Errorf("density not restored: %+v", loaded.Density)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("delayed_decay", "reference")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 0.1 || cfg.End != 2 {
		t.Errorf("expected dt 0.1 and tn 2, got %v and %v", cfg.Dt, cfg.End)
	}

	cfg.Params["alpha"] = 42
	if Presets["delayed_decay"]["reference"].Params["alpha"] != -1 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("delayed_decay", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "reference") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("wilson_cowan")
	if len(presets) != 2 || presets[0] != "noisy" {
		t.Errorf("ListPresets(wilson_cowan) = %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsValidate(t *testing.T) {
	for model, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
			if cfg.Model != model {
				t.Errorf("%s/%s: model field %q", model, name, cfg.Model)
			}
		}
	}
}
