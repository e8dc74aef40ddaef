// Package sensitivity re-evaluates the valuation model across two-parameter perturbations
// and classifies each cell against the market price or the user's growth assumption.
package sensitivity

import (
	"fmt"

	"dcf_valuation/pkg/core/valuation"
)

// Offsets is the symmetric 5-step window applied to each axis.
var Offsets = []int{-2, -1, 0, 1, 2}

// Param names the model parameter that occupies an axis.
type Param string

const (
	ParamDiscountRate       Param = "discount_rate"
	ParamGrowthRate         Param = "growth_rate"
	ParamTerminalMultiple   Param = "terminal_multiple"
	ParamTerminalGrowthRate Param = "terminal_growth_rate"
)

// Axis step sizes.
const (
	DiscountStep       = 1.0 // percentage points
	GrowthStep         = 1.0 // percentage points
	TerminalMultStep   = 2.0 // x
	TerminalGrowthStep = 0.5 // percentage points
)

// Format tells the presentation layer how to render axis keys and cell values.
type Format string

const (
	FormatCurrency Format = "currency"
	FormatPercent  Format = "percent"
	FormatMultiple Format = "multiple"
)

// Label renders v for display. Currency is a bare two-decimal amount with a "$" marker.
func (f Format) Label(v float64) string {
	switch f {
	case FormatCurrency:
		return fmt.Sprintf("$%.2f", v)
	case FormatPercent:
		return fmt.Sprintf("%.1f%%", v)
	case FormatMultiple:
		return fmt.Sprintf("%.1fx", v)
	}
	return fmt.Sprintf("%g", v)
}

func (p Param) Format() Format {
	if p == ParamTerminalMultiple {
		return FormatMultiple
	}
	return FormatPercent
}

// Apply returns a copy of base with the parameter set to v.
func (p Param) Apply(base valuation.ModelParameters, v float64) valuation.ModelParameters {
	switch p {
	case ParamDiscountRate:
		return base.WithDiscountRate(v)
	case ParamGrowthRate:
		return base.WithGrowthRate(v)
	case ParamTerminalMultiple:
		return base.WithTerminalMultiple(v)
	case ParamTerminalGrowthRate:
		return base.WithTerminalGrowthRate(v)
	}
	return base
}

// Of reads the parameter's current value from p.
func (p Param) Of(m valuation.ModelParameters) float64 {
	switch p {
	case ParamDiscountRate:
		return m.DiscountRate
	case ParamGrowthRate:
		return m.GrowthRate
	case ParamTerminalMultiple:
		return m.TerminalMultiple
	case ParamTerminalGrowthRate:
		return m.TerminalGrowthRate
	}
	return 0
}

// Axis is one dimension of a grid. Values ascend and Values[len/2] is the base value.
type Axis struct {
	Param  Param     `json:"param"`
	Format Format    `json:"format"`
	Step   float64   `json:"step"`
	Values []float64 `json:"values"`
}

func NewAxis(param Param, base, step float64) Axis {
	values := make([]float64, len(Offsets))
	for i, k := range Offsets {
		values[i] = base + float64(k)*step
	}
	return Axis{Param: param, Format: param.Format(), Step: step, Values: values}
}

func (a Axis) Labels() []string {
	out := make([]string, len(a.Values))
	for i, v := range a.Values {
		out[i] = a.Format.Label(v)
	}
	return out
}

// Kind identifies which output a grid carries.
type Kind string

const (
	KindValue         Kind = "value_matrix"
	KindImpliedGrowth Kind = "implied_growth_matrix"
)

// Cell is one re-evaluation of the model.
type Cell struct {
	Value         float64 `json:"value"`
	Band          Band    `json:"band"`
	Converged     bool    `json:"converged"`
	NonConvergent bool    `json:"non_convergent"`
}

// Grid maps Rows.Values[i] x Cols.Values[j] to Cells[i][j].
type Grid struct {
	Kind   Kind                      `json:"kind"`
	Rows   Axis                      `json:"rows"`
	Cols   Axis                      `json:"cols"`
	Output Format                    `json:"output"`
	Cells  [][]Cell                  `json:"cells"`
	Base   valuation.ModelParameters `json:"base"`
}

func (g *Grid) At(i, j int) float64 {
	return g.Cells[i][j].Value
}

// Values returns the scalar outputs only.
func (g *Grid) Values() [][]float64 {
	out := make([][]float64, len(g.Cells))
	for i, row := range g.Cells {
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = c.Value
		}
	}
	return out
}

// Center is the cell evaluated at the unperturbed base parameters.
func (g *Grid) Center() Cell {
	return g.Cells[len(g.Rows.Values)/2][len(g.Cols.Values)/2]
}

// Params returns the parameter set used for cell (i, j).
func (g *Grid) Params(i, j int) valuation.ModelParameters {
	p := g.Rows.Param.Apply(g.Base, g.Rows.Values[i])
	return g.Cols.Param.Apply(p, g.Cols.Values[j])
}
