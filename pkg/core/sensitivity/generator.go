package sensitivity

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dcf_valuation/pkg/core/valuation"
)

// Generator builds sensitivity grids. It is safe for concurrent use.
type Generator struct {
	solver  valuation.Solver
	workers int
	cache   *cellCache
}

type Option func(*Generator)

// WithSolver replaces the implied-growth solver. Its Model is also used for value cells.
func WithSolver(s valuation.Solver) Option {
	return func(g *Generator) { g.solver = s }
}

// WithWorkers bounds how many cells are evaluated at once. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithCache enables an LRU of the given number of cells shared across calls.
func WithCache(size int) Option {
	return func(g *Generator) { g.cache = newCellCache(size) }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{solver: valuation.DefaultSolver()}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers <= 0 {
		g.workers = runtime.GOMAXPROCS(0)
	}
	return g
}

// ValueMatrix evaluates intrinsic value over discount rate (rows) x growth rate (cols),
// 1pp steps each, and bands every cell against price.
func (g *Generator) ValueMatrix(baseValue, price float64, p valuation.ModelParameters) (*Grid, error) {
	grid := &Grid{
		Kind:   KindValue,
		Rows:   NewAxis(ParamDiscountRate, p.DiscountRate, DiscountStep),
		Cols:   NewAxis(ParamGrowthRate, p.GrowthRate, GrowthStep),
		Output: FormatCurrency,
		Base:   p,
	}

	err := g.fill(grid, baseValue, func(cp valuation.ModelParameters) (Cell, error) {
		key := valueKey{base: baseValue, params: cp}
		if c, ok := g.cache.get(key); ok {
			return c, nil
		}
		res := g.model().Evaluate(baseValue, cp)
		if err := res.Validate(); err != nil {
			return Cell{}, err
		}
		c := Cell{Value: res.Value, Converged: true, NonConvergent: res.NonConvergent}
		g.cache.add(key, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	for i := range grid.Cells {
		for j := range grid.Cells[i] {
			grid.Cells[i][j].Band = ClassifyValue(grid.Cells[i][j].Value, price)
		}
	}
	return grid, nil
}

// ImpliedGrowthMatrix solves for the growth implied by price over discount rate (rows) x
// terminal parameter (cols). The column axis is the exit multiple (2x steps) or the
// terminal growth rate (0.5pp steps) depending on p.TerminalMethod. Cells are banded
// against p.GrowthRate, the user's own growth assumption.
func (g *Generator) ImpliedGrowthMatrix(baseValue, price float64, p valuation.ModelParameters) (*Grid, error) {
	cols := NewAxis(ParamTerminalMultiple, p.TerminalMultiple, TerminalMultStep)
	if p.TerminalMethod == valuation.PerpetuityGrowth {
		cols = NewAxis(ParamTerminalGrowthRate, p.TerminalGrowthRate, TerminalGrowthStep)
	}
	grid := &Grid{
		Kind:   KindImpliedGrowth,
		Rows:   NewAxis(ParamDiscountRate, p.DiscountRate, DiscountStep),
		Cols:   cols,
		Output: FormatPercent,
		Base:   p,
	}

	sk := solverKey{bounds: g.solver.Bounds, iterations: g.solver.MaxIterations, tolerance: g.solver.Tolerance}
	err := g.fill(grid, baseValue, func(cp valuation.ModelParameters) (Cell, error) {
		// growth is the unknown, so it stays out of the key
		key := impliedKey{target: price, base: baseValue, params: cp.WithGrowthRate(0), solver: sk}
		if c, ok := g.cache.get(key); ok {
			return c, nil
		}
		res := g.solver.Solve(price, baseValue, cp)
		c := Cell{Value: res.Rate, Converged: res.Converged, NonConvergent: res.NonConvergent}
		g.cache.add(key, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	for i := range grid.Cells {
		for j, c := range grid.Cells[i] {
			if c.NonConvergent {
				grid.Cells[i][j].Band = BandUnknown
				continue
			}
			grid.Cells[i][j].Band = ClassifyImpliedGrowth(c.Value, p.GrowthRate)
		}
	}
	return grid, nil
}

// fill validates every cell's parameters, then evaluates the cells concurrently.
// The first cell that fails to evaluate fails the grid.
func (g *Generator) fill(grid *Grid, baseValue float64, eval func(valuation.ModelParameters) (Cell, error)) error {
	if _, err := valuation.Evaluate(baseValue, grid.Base); err != nil {
		return fmt.Errorf("%s: base parameters: %w", grid.Kind, err)
	}

	rows, cols := len(grid.Rows.Values), len(grid.Cols.Values)
	params := make([][]valuation.ModelParameters, rows)
	for i := range params {
		params[i] = make([]valuation.ModelParameters, cols)
		for j := range params[i] {
			cp := grid.Params(i, j)
			if err := cp.Validate(); err != nil {
				return fmt.Errorf("%s: cell (%s=%v, %s=%v): %w", grid.Kind,
					grid.Rows.Param, grid.Rows.Values[i], grid.Cols.Param, grid.Cols.Values[j], err)
			}
			params[i][j] = cp
		}
	}

	grid.Cells = make([][]Cell, rows)
	for i := range grid.Cells {
		grid.Cells[i] = make([]Cell, cols)
	}

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			eg.Go(func() error {
				c, err := eval(params[i][j])
				if err != nil {
					return fmt.Errorf("%s: cell (%s=%v, %s=%v): %w", grid.Kind,
						grid.Rows.Param, grid.Rows.Values[i], grid.Cols.Param, grid.Cols.Values[j], err)
				}
				grid.Cells[i][j] = c
				return nil
			})
		}
	}
	return eg.Wait()
}

func (g *Generator) model() valuation.Evaluator {
	if g.solver.Model != nil {
		return g.solver.Model
	}
	return valuation.ModelFunc(valuation.ComputeIntrinsicValue)
}

// CachedCells reports how many cells the LRU currently holds.
func (g *Generator) CachedCells() int {
	return g.cache.len()
}
