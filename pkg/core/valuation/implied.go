package valuation

import "math"

// Evaluator runs the forward model. The solver and the sensitivity grids call the
// model through it so a caching layer can sit in between.
type Evaluator interface {
	Evaluate(baseValue float64, p ModelParameters) ValuationResult
}

// ModelFunc adapts a plain function to Evaluator.
type ModelFunc func(baseValue float64, p ModelParameters) ValuationResult

func (f ModelFunc) Evaluate(baseValue float64, p ModelParameters) ValuationResult {
	return f(baseValue, p)
}

// Bounds is the growth search interval in decimal rates (-0.5 = -50%).
type Bounds struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

var DefaultBounds = Bounds{Low: -0.50, High: 1.00}

const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 0.01 // currency units, one cent
)

// Solver inverts ComputeIntrinsicValue along the growth axis by bisection.
// Zero fields take the defaults, so Solver{} behaves like DefaultSolver().
type Solver struct {
	Bounds        Bounds
	MaxIterations int
	Tolerance     float64
	Model         Evaluator // nil means ComputeIntrinsicValue
}

func DefaultSolver() Solver {
	return Solver{
		Bounds:        DefaultBounds,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// ImpliedGrowth is the outcome of one inversion.
type ImpliedGrowth struct {
	Rate       float64 `json:"rate"` // percent
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`

	// NonConvergent means the perpetuity terminal value was degenerate for the input
	// parameters; the search was skipped and Rate is 0.
	NonConvergent bool `json:"non_convergent"`
}

// Solve finds the growth rate at which the model value matches targetPrice.
// p.GrowthRate is ignored. The value is assumed non-decreasing in growth; when the root lies
// outside Bounds the nearest bound is approached and Converged is false.
func (s Solver) Solve(targetPrice, baseValue float64, p ModelParameters) ImpliedGrowth {
	if p.NonConvergentTerminal() {
		return ImpliedGrowth{NonConvergent: true}
	}

	model := s.Model
	if model == nil {
		model = ModelFunc(ComputeIntrinsicValue)
	}
	iterations := s.MaxIterations
	if iterations <= 0 {
		iterations = DefaultMaxIterations
	}
	tolerance := s.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	low, high := s.Bounds.Low, s.Bounds.High
	if low == high {
		// an empty interval (as in the zero Solver) has nothing to search
		low, high = DefaultBounds.Low, DefaultBounds.High
	}
	if low > high {
		low, high = high, low
	}

	var mid float64
	for i := 1; i <= iterations; i++ {
		mid = (low + high) / 2
		value := model.Evaluate(baseValue, p.WithGrowthRate(mid*100)).Value

		if math.Abs(value-targetPrice) < tolerance {
			return ImpliedGrowth{Rate: mid * 100, Converged: true, Iterations: i}
		}
		if value > targetPrice {
			high = mid
		} else {
			low = mid
		}
	}
	return ImpliedGrowth{Rate: mid * 100, Iterations: iterations}
}

// SolveImpliedGrowth returns the implied growth rate in percent using the default solver.
func SolveImpliedGrowth(targetPrice, baseValue float64, p ModelParameters) float64 {
	return DefaultSolver().Solve(targetPrice, baseValue, p).Rate
}
