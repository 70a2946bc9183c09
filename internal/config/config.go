package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/delaysim/internal/history"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultRuns     = 1
	DefaultBins     = 50
	DefaultBound    = 5.0
	DefaultEvery    = 10
)

type Config struct {
	Model      string             `yaml:"model"`
	Integrator string             `yaml:"integrator"`
	Start      float64            `yaml:"t0"`
	End        float64            `yaml:"tn"`
	Dt         float64            `yaml:"dt"`
	Window     int                `yaml:"window,omitempty"`
	Seed       uint64             `yaml:"seed"`
	Runs       int                `yaml:"runs"`
	Workers    int                `yaml:"workers,omitempty"`
	CheckState bool               `yaml:"validate"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Density    DensityConfig      `yaml:"density"`
}

// DensityConfig sets up the probability density collected over an ensemble.
// Every component uses the same fixed bounds.
type DensityConfig struct {
	Enabled bool    `yaml:"enabled"`
	Bins    int     `yaml:"bins"`
	Every   int     `yaml:"every"`
	Lo      float64 `yaml:"lo"`
	Hi      float64 `yaml:"hi"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "delayed_decay",
		Integrator: "euler",
		Start:      0,
		End:        DefaultDuration,
		Dt:         DefaultDt,
		Runs:       DefaultRuns,
		CheckState: true,
		Density: DensityConfig{
			Bins:  DefaultBins,
			Every: DefaultEvery,
			Lo:    -DefaultBound,
			Hi:    DefaultBound,
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

// Range builds the time range of a run.
func (c *Config) Range() (history.TimeRange, error) {
	return history.NewRangeStep(c.Start, c.End, c.Dt)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model is required")
	}
	if c.Integrator == "" {
		return fmt.Errorf("config: integrator is required")
	}
	if _, err := c.Range(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Runs < 1 {
		return fmt.Errorf("config: runs must be positive, got %d", c.Runs)
	}
	if c.Density.Enabled {
		if c.Density.Bins < 1 {
			return fmt.Errorf("config: density bins must be positive, got %d", c.Density.Bins)
		}
		if c.Density.Hi <= c.Density.Lo {
			return fmt.Errorf("config: density bounds [%g, %g] are empty", c.Density.Lo, c.Density.Hi)
		}
	}
	return nil
}

// Clone returns a deep copy, so presets are never modified through the result.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}
