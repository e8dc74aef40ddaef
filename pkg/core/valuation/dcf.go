package valuation

import (
	"math"
)

// ValuationResult holds the per-share outputs of one forward DCF evaluation
type ValuationResult struct {
	Value         float64   `json:"value"`          // PV(flows) + PV(terminal)
	Flows         []float64 `json:"flows"`          // Undiscounted, Flows[i] is year i+1
	TerminalValue float64   `json:"terminal_value"` // Undiscounted, at end of final year

	PresentValues []float64 `json:"present_values"` // Discounted Flows, same indexing
	PVFlows       float64   `json:"pv_flows"`
	PVTerminal    float64   `json:"pv_terminal"`

	// NonConvergent is set when the perpetuity formula had no finite value and the
	// terminal value was collapsed to 0.
	NonConvergent bool `json:"non_convergent"`
}

// ComputeIntrinsicValue projects baseValue forward at a constant growth rate and discounts
// the yearly values plus a terminal value back to today.
//
// FORMULA: Value = Σ [ V_0(1+g)^t / (1+r)^t ] + TV / (1+r)^N
//
// It performs no validation: the result is defined for any finite inputs with Years >= 1
// and DiscountRate > -100. Use Evaluate at input boundaries.
func ComputeIntrinsicValue(baseValue float64, p ModelParameters) ValuationResult {
	r := p.DiscountRate / 100
	g := p.GrowthRate / 100

	res := ValuationResult{
		Flows:         make([]float64, 0, max(p.Years, 0)),
		PresentValues: make([]float64, 0, max(p.Years, 0)),
	}

	current := baseValue
	for year := 1; year <= p.Years; year++ {
		current *= 1 + g
		pv := PresentValue(current, r, year)

		res.Flows = append(res.Flows, current)
		res.PresentValues = append(res.PresentValues, pv)
		res.PVFlows += pv
	}

	// current is now V_final
	switch p.TerminalMethod {
	case PerpetuityGrowth:
		gTerm := p.TerminalGrowthRate / 100
		if r > gTerm {
			res.TerminalValue = TerminalValueGordonGrowth(current*(1+gTerm), r, gTerm)
		} else {
			res.NonConvergent = true
		}
	default:
		res.TerminalValue = TerminalValueExitMultiple(current, p.TerminalMultiple)
	}

	res.PVTerminal = PresentValue(res.TerminalValue, r, p.Years)
	res.Value = res.PVFlows + res.PVTerminal
	return res
}

// Evaluate validates the inputs before running ComputeIntrinsicValue.
func Evaluate(baseValue float64, p ModelParameters) (ValuationResult, error) {
	if !isFinite(baseValue) {
		return ValuationResult{}, &DomainError{Field: "base_value", Value: baseValue, Reason: "must be a finite number"}
	}
	if err := p.Validate(); err != nil {
		return ValuationResult{}, err
	}
	res := ComputeIntrinsicValue(baseValue, p)
	if err := res.Validate(); err != nil {
		return ValuationResult{}, err
	}
	return res, nil
}

// Validate reports a DomainError when finite inputs overflowed during projection
// (large growth over a long horizon), so no Inf or NaN leaves the calculator.
func (r ValuationResult) Validate() error {
	if !isFinite(r.Value) {
		return &DomainError{Field: "value", Value: r.Value, Reason: "result is not finite"}
	}
	if !isFinite(r.TerminalValue) {
		return &DomainError{Field: "terminal_value", Value: r.TerminalValue, Reason: "result is not finite"}
	}
	return nil
}

// PresentValue calculates PV of a single cash flow.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, discountRate float64, periods int) float64 {
	if periods < 0 {
		return 0
	}
	return cashFlow / math.Pow(1+discountRate, float64(periods))
}

// TerminalValueExitMultiple capitalizes the final-year value at a fixed multiple.
//
// FORMULA: TV = V_N × M
func TerminalValueExitMultiple(finalValue, multiple float64) float64 {
	return finalValue * multiple
}

// TerminalValueGordonGrowth calculates terminal value using Gordon Growth Model.
//
// FORMULA: TV = CF_{t+1} / (r - g)
//
// Where:
//   - CF_{t+1} = Next period's cash flow (after forecast horizon)
//   - r = Discount rate
//   - g = Long-run growth rate (must be < r)
func TerminalValueGordonGrowth(nextPeriodCF, discountRate, growthRate float64) float64 {
	if discountRate <= growthRate {
		return 0 // Invalid: growth must be less than discount rate
	}
	return nextPeriodCF / (discountRate - growthRate)
}

// MarginOfSafety is the relative gap between an intrinsic value and the market price.
// Positive means the price is below value. Returns 0 when price is not positive.
func MarginOfSafety(value, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (value - price) / price
}
