package sensitivity

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"dcf_valuation/pkg/core/valuation"
)

func baseParams() valuation.ModelParameters {
	return valuation.ModelParameters{
		DiscountRate:       6,
		GrowthRate:         10,
		Years:              10,
		TerminalMethod:     valuation.ExitMultiple,
		TerminalMultiple:   15,
		TerminalGrowthRate: 2.5,
	}
}

func assertShape(t *testing.T, g *Grid) {
	t.Helper()
	if len(g.Rows.Values) != 5 || len(g.Cols.Values) != 5 {
		t.Fatalf("expected 5x5 axes, got %dx%d", len(g.Rows.Values), len(g.Cols.Values))
	}
	if len(g.Cells) != 5 {
		t.Fatalf("expected 5 rows of cells, got %d", len(g.Cells))
	}
	for i, row := range g.Cells {
		if len(row) != 5 {
			t.Fatalf("row %d: expected 5 cells, got %d", i, len(row))
		}
	}
}

func TestValueMatrix(t *testing.T) {
	p := baseParams()
	base := valuation.ComputeIntrinsicValue(5, p)

	g, err := NewGenerator().ValueMatrix(5, base.Value, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertShape(t, g)

	if g.Kind != KindValue || g.Output != FormatCurrency {
		t.Errorf("unexpected kind/output: %s/%s", g.Kind, g.Output)
	}
	if g.Rows.Param != ParamDiscountRate || g.Cols.Param != ParamGrowthRate {
		t.Errorf("unexpected axes: %s x %s", g.Rows.Param, g.Cols.Param)
	}
	if !floats.Equal(g.Rows.Values, []float64{4, 5, 6, 7, 8}) {
		t.Errorf("unexpected discount axis %v", g.Rows.Values)
	}
	if !floats.Equal(g.Cols.Values, []float64{8, 9, 10, 11, 12}) {
		t.Errorf("unexpected growth axis %v", g.Cols.Values)
	}

	if g.At(2, 2) != base.Value {
		t.Errorf("center %v should equal base evaluation %v", g.At(2, 2), base.Value)
	}
	if g.Center().Band != BandNeutral {
		t.Errorf("center band should be neutral, got %s", g.Center().Band)
	}

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			want := valuation.ComputeIntrinsicValue(5, g.Params(i, j)).Value
			if g.At(i, j) != want {
				t.Errorf("cell (%d,%d): expected %v, got %v", i, j, want, g.At(i, j))
			}
			if j > 0 && g.At(i, j) < g.At(i, j-1) {
				t.Errorf("value should rise with growth at (%d,%d)", i, j)
			}
			if i > 0 && g.At(i, j) > g.At(i-1, j) {
				t.Errorf("value should fall with discount rate at (%d,%d)", i, j)
			}
		}
	}

	// lowest discount, highest growth is far above price
	if g.Cells[0][4].Band != BandStrongFavorable {
		t.Errorf("expected strong_favorable corner, got %s", g.Cells[0][4].Band)
	}
	if g.Cells[4][0].Band != BandStrongUnfavorable {
		t.Errorf("expected strong_unfavorable corner, got %s", g.Cells[4][0].Band)
	}
}

func TestImpliedGrowthMatrix_ExitMultiple(t *testing.T) {
	p := baseParams()
	price := valuation.ComputeIntrinsicValue(5, p).Value

	g, err := NewGenerator(WithWorkers(2)).ImpliedGrowthMatrix(5, price, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertShape(t, g)

	if g.Cols.Param != ParamTerminalMultiple || g.Cols.Format != FormatMultiple {
		t.Errorf("expected terminal multiple columns, got %s (%s)", g.Cols.Param, g.Cols.Format)
	}
	if !floats.Equal(g.Cols.Values, []float64{11, 13, 15, 17, 19}) {
		t.Errorf("unexpected multiple axis %v", g.Cols.Values)
	}
	if g.Output != FormatPercent {
		t.Errorf("implied growth should be a percent output, got %s", g.Output)
	}

	center := g.Center()
	if math.Abs(center.Value-10) > 0.1 || !center.Converged {
		t.Errorf("center should recover 10%% growth, got %+v", center)
	}
	if center.Band != BandNeutral {
		t.Errorf("center band should be neutral, got %s", center.Band)
	}

	// Higher multiple needs less growth to justify the same price
	for i := range g.Cells {
		for j := 1; j < 5; j++ {
			if g.At(i, j) > g.At(i, j-1) {
				t.Errorf("implied growth should fall with the multiple at (%d,%d)", i, j)
			}
		}
	}
	// Higher discount needs more growth
	for j := 0; j < 5; j++ {
		for i := 1; i < 5; i++ {
			if g.At(i, j) < g.At(i-1, j) {
				t.Errorf("implied growth should rise with the discount rate at (%d,%d)", i, j)
			}
		}
	}
}

func TestImpliedGrowthMatrix_Perpetuity(t *testing.T) {
	p := baseParams()
	p.TerminalMethod = valuation.PerpetuityGrowth
	p.DiscountRate = 5
	p.TerminalGrowthRate = 3.5
	price := valuation.ComputeIntrinsicValue(5, p).Value

	g, err := NewGenerator().ImpliedGrowthMatrix(5, price, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertShape(t, g)

	if g.Cols.Param != ParamTerminalGrowthRate {
		t.Fatalf("expected terminal growth columns, got %s", g.Cols.Param)
	}
	if !floats.Equal(g.Cols.Values, []float64{2.5, 3, 3.5, 4, 4.5}) {
		t.Errorf("unexpected terminal growth axis %v", g.Cols.Values)
	}
	if math.Abs(g.Center().Value-10) > 0.1 {
		t.Errorf("center should recover 10%% growth, got %v", g.Center().Value)
	}

	// rows 3..7: any cell with discount <= terminal growth is degenerate
	for i, r := range g.Rows.Values {
		for j, tg := range g.Cols.Values {
			c := g.Cells[i][j]
			if r <= tg {
				if !c.NonConvergent || c.Value != 0 || c.Band != BandUnknown {
					t.Errorf("cell (r=%v, g=%v) should be degenerate, got %+v", r, tg, c)
				}
			} else if c.NonConvergent {
				t.Errorf("cell (r=%v, g=%v) should not be degenerate", r, tg)
			}
		}
	}
}

func TestGenerator_RejectsInvalidCells(t *testing.T) {
	p := baseParams()
	p.DiscountRate = -98.5 // lowest row lands at -100.5

	_, err := NewGenerator().ValueMatrix(5, 100, p)
	var de *valuation.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Field != "discount_rate" {
		t.Errorf("expected discount_rate error, got %s", de.Field)
	}

	p = baseParams()
	p.Years = 0
	if _, err := NewGenerator().ImpliedGrowthMatrix(5, 100, p); !errors.As(err, &de) {
		t.Fatalf("expected DomainError for zero years, got %v", err)
	}
}

func TestValueMatrix_RejectsOverflowingCell(t *testing.T) {
	overflow := valuation.ModelFunc(func(base float64, p valuation.ModelParameters) valuation.ValuationResult {
		if p.GrowthRate > 10 {
			return valuation.ValuationResult{Value: math.Inf(1)}
		}
		return valuation.ComputeIntrinsicValue(base, p)
	})
	gen := NewGenerator(WithSolver(valuation.Solver{Model: overflow}), WithCache(64))

	_, err := gen.ValueMatrix(5, 100, baseParams())
	var de *valuation.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if de.Field != "value" {
		t.Errorf("expected value error, got %s", de.Field)
	}
	if gen.CachedCells() > 15 {
		t.Errorf("failed cells should not be cached, got %d", gen.CachedCells())
	}
}

func TestGenerator_Cache(t *testing.T) {
	gen := NewGenerator(WithCache(128))
	p := baseParams()

	first, err := gen.ValueMatrix(5, 150, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gen.CachedCells(); n != 25 {
		t.Errorf("expected 25 cached cells, got %d", n)
	}

	// same tuple, different price: values reused, bands recomputed
	second, err := gen.ValueMatrix(5, 1000, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gen.CachedCells(); n != 25 {
		t.Errorf("expected cache to stay at 25 cells, got %d", n)
	}
	for i := range first.Cells {
		if !floats.Equal(first.Values()[i], second.Values()[i]) {
			t.Errorf("row %d differs between cached calls", i)
		}
	}
	if second.Center().Band != BandStrongUnfavorable {
		t.Errorf("bands must follow the new price, got %s", second.Center().Band)
	}

	if _, err := gen.ImpliedGrowthMatrix(5, 150, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gen.CachedCells(); n != 50 {
		t.Errorf("expected 50 cached cells, got %d", n)
	}
}

func TestGenerator_NoCache(t *testing.T) {
	gen := NewGenerator()
	if _, err := gen.ValueMatrix(5, 150, baseParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.CachedCells() != 0 {
		t.Error("cache should be disabled by default")
	}
}
