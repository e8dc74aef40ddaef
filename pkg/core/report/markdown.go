// Package report renders valuation results and sensitivity grids as Markdown tables,
// optionally converted to HTML.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"dcf_valuation/pkg/core/sensitivity"
	"dcf_valuation/pkg/core/valuation"
)

// Round2 rounds half away from zero to two decimals. Non-finite values are returned as is.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundAll applies Round2 to every element, returning a new slice.
func RoundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Round2(v)
	}
	return out
}

// RoundResult returns a copy of res with every currency figure rounded to cents.
func RoundResult(res valuation.ValuationResult) valuation.ValuationResult {
	res.Value = Round2(res.Value)
	res.Flows = RoundAll(res.Flows)
	res.TerminalValue = Round2(res.TerminalValue)
	res.PresentValues = RoundAll(res.PresentValues)
	res.PVFlows = Round2(res.PVFlows)
	res.PVTerminal = Round2(res.PVTerminal)
	return res
}

func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Valuation renders the year-by-year projection of one evaluation.
func Valuation(title string, price float64, p valuation.ModelParameters, res valuation.ValuationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "- Discount rate: %s\n", sensitivity.FormatPercent.Label(p.DiscountRate))
	fmt.Fprintf(&b, "- Growth rate: %s over %d years\n", sensitivity.FormatPercent.Label(p.GrowthRate), p.Years)
	switch p.TerminalMethod {
	case valuation.PerpetuityGrowth:
		fmt.Fprintf(&b, "- Terminal: perpetuity growth at %s\n", sensitivity.FormatPercent.Label(p.TerminalGrowthRate))
	default:
		fmt.Fprintf(&b, "- Terminal: exit multiple of %s\n", sensitivity.FormatMultiple.Label(p.TerminalMultiple))
	}
	b.WriteString("\n| Year | Projected | Present value |\n|---:|---:|---:|\n")
	for i, f := range res.Flows {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, money(f), money(res.PresentValues[i]))
	}
	fmt.Fprintf(&b, "| Terminal | %s | %s |\n\n", money(res.TerminalValue), money(res.PVTerminal))

	fmt.Fprintf(&b, "**Intrinsic value: %s**", money(res.Value))
	if price > 0 {
		fmt.Fprintf(&b, " vs price %s (margin of safety %s)", money(price),
			sensitivity.FormatPercent.Label(valuation.MarginOfSafety(res.Value, price)*100))
	}
	b.WriteString("\n")
	if res.NonConvergent {
		b.WriteString("\n> Terminal growth is at or above the discount rate; the terminal value was set to 0.\n")
	}
	return b.String()
}

// Grid renders a sensitivity grid with the band label in each cell.
func Grid(title string, g *sensitivity.Grid) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "| %s / %s |", g.Rows.Param, g.Cols.Param)
	for _, l := range g.Cols.Labels() {
		fmt.Fprintf(&b, " %s |", l)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(g.Cols.Values)))
	b.WriteString("\n")

	rowLabels := g.Rows.Labels()
	for i, row := range g.Cells {
		fmt.Fprintf(&b, "| **%s** |", rowLabels[i])
		for _, c := range row {
			// degenerate value cells still carry the discounted flows; only implied cells are empty
			if c.NonConvergent && g.Kind == sensitivity.KindImpliedGrowth {
				b.WriteString(" n/a |")
				continue
			}
			fmt.Fprintf(&b, " %s (%s) |", g.Output.Label(c.Value), c.Band.Describe(g.Kind))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ToHTML converts Markdown (including tables) to HTML.
func ToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
