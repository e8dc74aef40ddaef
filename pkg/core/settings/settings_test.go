package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dcf_valuation/pkg/core/valuation"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valuation.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := s.Params()
	if p.Years != 10 || p.TerminalMethod != valuation.ExitMultiple || p.DiscountRate != 10 {
		t.Errorf("unexpected default params: %+v", p)
	}
	solver := s.NewSolver()
	if solver.Bounds != valuation.DefaultBounds {
		t.Errorf("expected default bounds, got %+v", solver.Bounds)
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeFile(t, `
defaults:
  discount_rate: 8
  terminal_method: perpetuity
  terminal_growth_rate: 3
solver:
  high_growth: 150
grid:
  workers: 3
`)
	t.Setenv("DCF_DISCOUNT_RATE", "9.5")
	t.Setenv("DCF_GRID_CACHE_SIZE", "16")
	t.Setenv("DCF_ADDR", ":9090")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := s.Params()
	if p.DiscountRate != 9.5 {
		t.Errorf("environment should win over file, got discount %v", p.DiscountRate)
	}
	if p.TerminalMethod != valuation.PerpetuityGrowth || p.TerminalGrowthRate != 3 {
		t.Errorf("unexpected terminal settings: %+v", p)
	}
	if p.Years != 10 {
		t.Errorf("unset fields keep defaults, got years %d", p.Years)
	}
	if s.Grid.Workers != 3 || s.Grid.CacheSize != 16 {
		t.Errorf("unexpected grid settings: %+v", s.Grid)
	}
	if s.Server.Addr != ":9090" {
		t.Errorf("unexpected addr %q", s.Server.Addr)
	}
	if b := s.NewSolver().Bounds; b.High != 1.5 || b.Low != -0.5 {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad method":    "defaults:\n  terminal_method: dividend\n",
		"zero years":    "defaults:\n  years: 0\n",
		"bad bounds":    "solver:\n  low_growth: 50\n  high_growth: 20\n",
		"broken yaml":   "defaults: [",
		"discount -100": "defaults:\n  discount_rate: -100\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_RepoConfig(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "..", DefaultPath))
	if err != nil {
		t.Fatalf("repository config should load: %v", err)
	}
	if !strings.HasPrefix(s.Server.Addr, ":") {
		t.Errorf("unexpected addr %q", s.Server.Addr)
	}
}
