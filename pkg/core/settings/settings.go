// Package settings loads engine defaults from config/valuation.yaml, then applies DCF_*
// environment overrides.
package settings

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"dcf_valuation/pkg/core/valuation"
)

// DefaultPath is where cmd/api and the calc-engine look for the settings file.
const DefaultPath = "config/valuation.yaml"

type Settings struct {
	Defaults Defaults `yaml:"defaults" envPrefix:"DCF_"`
	Solver   Solver   `yaml:"solver" envPrefix:"DCF_SOLVER_"`
	Grid     Grid     `yaml:"grid" envPrefix:"DCF_GRID_"`
	Server   Server   `yaml:"server" envPrefix:"DCF_"`
}

// Defaults seed ModelParameters when a request leaves fields out.
type Defaults struct {
	DiscountRate       float64 `yaml:"discount_rate" env:"DISCOUNT_RATE"`
	GrowthRate         float64 `yaml:"growth_rate" env:"GROWTH_RATE"`
	Years              int     `yaml:"years" env:"YEARS"`
	TerminalMethod     string  `yaml:"terminal_method" env:"TERMINAL_METHOD"`
	TerminalMultiple   float64 `yaml:"terminal_multiple" env:"TERMINAL_MULTIPLE"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate" env:"TERMINAL_GROWTH_RATE"`
	BaseMetric         string  `yaml:"base_metric" env:"BASE_METRIC"`
}

type Solver struct {
	LowGrowth     float64 `yaml:"low_growth" env:"LOW_GROWTH"`   // Percent
	HighGrowth    float64 `yaml:"high_growth" env:"HIGH_GROWTH"` // Percent
	MaxIterations int     `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	Tolerance     float64 `yaml:"tolerance" env:"TOLERANCE"`
}

type Grid struct {
	Workers   int `yaml:"workers" env:"WORKERS"`
	CacheSize int `yaml:"cache_size" env:"CACHE_SIZE"`
}

type Server struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

func Default() Settings {
	return Settings{
		Defaults: Defaults{
			DiscountRate:       10,
			GrowthRate:         5,
			Years:              10,
			TerminalMethod:     string(valuation.ExitMultiple),
			TerminalMultiple:   15,
			TerminalGrowthRate: 2.5,
			BaseMetric:         "eps",
		},
		Solver: Solver{
			LowGrowth:     valuation.DefaultBounds.Low * 100,
			HighGrowth:    valuation.DefaultBounds.High * 100,
			MaxIterations: valuation.DefaultMaxIterations,
			Tolerance:     valuation.DefaultTolerance,
		},
		Grid: Grid{
			CacheSize: 4096,
		},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads path over Default() and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return s, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if _, err := valuation.ParseTerminalMethod(s.Defaults.TerminalMethod); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := s.Params().Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if s.Solver.LowGrowth >= s.Solver.HighGrowth {
		return fmt.Errorf("solver: low_growth (%v) must be below high_growth (%v)", s.Solver.LowGrowth, s.Solver.HighGrowth)
	}
	if s.Solver.LowGrowth <= -100 {
		return fmt.Errorf("solver: low_growth must be above -100%%")
	}
	return nil
}

// Params converts the defaults into a parameter set.
func (s Settings) Params() valuation.ModelParameters {
	method, err := valuation.ParseTerminalMethod(s.Defaults.TerminalMethod)
	if err != nil {
		method = valuation.TerminalMethod(s.Defaults.TerminalMethod)
	}
	return valuation.ModelParameters{
		DiscountRate:       s.Defaults.DiscountRate,
		GrowthRate:         s.Defaults.GrowthRate,
		Years:              s.Defaults.Years,
		TerminalMethod:     method,
		TerminalMultiple:   s.Defaults.TerminalMultiple,
		TerminalGrowthRate: s.Defaults.TerminalGrowthRate,
	}
}

func (s Settings) NewSolver() valuation.Solver {
	return valuation.Solver{
		Bounds:        valuation.Bounds{Low: s.Solver.LowGrowth / 100, High: s.Solver.HighGrowth / 100},
		MaxIterations: s.Solver.MaxIterations,
		Tolerance:     s.Solver.Tolerance,
	}
}
