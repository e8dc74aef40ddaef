package valuation

import (
	"fmt"
	"math"
	"strings"
)

// TerminalMethod selects which terminal value formula closes the projection horizon.
type TerminalMethod string

const (
	ExitMultiple     TerminalMethod = "exit_multiple"
	PerpetuityGrowth TerminalMethod = "perpetuity_growth"
)

// ParseTerminalMethod accepts the canonical names plus a few loose spellings used by callers.
func ParseTerminalMethod(s string) (TerminalMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exit_multiple", "exit-multiple", "multiple", "exit":
		return ExitMultiple, nil
	case "perpetuity_growth", "perpetuity-growth", "perpetuity", "gordon":
		return PerpetuityGrowth, nil
	}
	return "", fmt.Errorf("unknown terminal method %q", s)
}

func (m *TerminalMethod) UnmarshalText(b []byte) error {
	parsed, err := ParseTerminalMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModelParameters holds one evaluation's assumptions.
// Rates are in percent units (6 means 6%); they are converted to decimals on ingestion.
// Only the terminal field matching TerminalMethod is read; the other is carried for the caller.
type ModelParameters struct {
	DiscountRate       float64        `json:"discount_rate" yaml:"discount_rate"`
	GrowthRate         float64        `json:"growth_rate" yaml:"growth_rate"`
	Years              int            `json:"years" yaml:"years"`
	TerminalMethod     TerminalMethod `json:"terminal_method" yaml:"terminal_method"`
	TerminalMultiple   float64        `json:"terminal_multiple" yaml:"terminal_multiple"`
	TerminalGrowthRate float64        `json:"terminal_growth_rate" yaml:"terminal_growth_rate"`
}

func (p ModelParameters) WithDiscountRate(v float64) ModelParameters {
	p.DiscountRate = v
	return p
}

func (p ModelParameters) WithGrowthRate(v float64) ModelParameters {
	p.GrowthRate = v
	return p
}

func (p ModelParameters) WithTerminalMultiple(v float64) ModelParameters {
	p.TerminalMultiple = v
	return p
}

func (p ModelParameters) WithTerminalGrowthRate(v float64) ModelParameters {
	p.TerminalGrowthRate = v
	return p
}

// NonConvergentTerminal reports whether the perpetuity formula has no finite value
// for these parameters (discount rate at or below the terminal growth rate).
func (p ModelParameters) NonConvergentTerminal() bool {
	return p.TerminalMethod == PerpetuityGrowth && p.DiscountRate <= p.TerminalGrowthRate
}

// Validate rejects inputs outside the calculator's documented domain.
func (p ModelParameters) Validate() error {
	finite := []struct {
		name string
		v    float64
	}{
		{"discount_rate", p.DiscountRate},
		{"growth_rate", p.GrowthRate},
		{"terminal_multiple", p.TerminalMultiple},
		{"terminal_growth_rate", p.TerminalGrowthRate},
	}
	for _, f := range finite {
		if !isFinite(f.v) {
			return &DomainError{Field: f.name, Value: f.v, Reason: "must be a finite number"}
		}
	}
	if p.Years < 1 {
		return &DomainError{Field: "years", Value: p.Years, Reason: "must be at least 1"}
	}
	if p.DiscountRate <= -100 {
		return &DomainError{Field: "discount_rate", Value: p.DiscountRate, Reason: "must be greater than -100%"}
	}
	switch p.TerminalMethod {
	case ExitMultiple, PerpetuityGrowth:
	default:
		return &DomainError{Field: "terminal_method", Value: string(p.TerminalMethod), Reason: "unknown method"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
