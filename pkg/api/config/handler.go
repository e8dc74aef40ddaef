package config

import (
	"encoding/json"
	"net/http"

	"dcf_valuation/pkg/core/settings"
	"dcf_valuation/pkg/core/valuation"
)

type Response struct {
	Defaults       valuation.ModelParameters  `json:"defaults"`
	BaseMetric     string                     `json:"base_metric"`
	SolverBounds   valuation.Bounds           `json:"solver_bounds"` // Decimal growth rates
	MaxIterations  int                        `json:"max_iterations"`
	Tolerance      float64                    `json:"tolerance"`
	TerminalMethod []valuation.TerminalMethod `json:"terminal_methods"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Settings settings.Settings
}

// NewHandler creates a new config handler
func NewHandler(s settings.Settings) *Handler {
	return &Handler{
		Settings: s,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	solver := h.Settings.NewSolver()
	resp := Response{
		Defaults:       h.Settings.Params(),
		BaseMetric:     h.Settings.Defaults.BaseMetric,
		SolverBounds:   solver.Bounds,
		MaxIterations:  solver.MaxIterations,
		Tolerance:      solver.Tolerance,
		TerminalMethod: []valuation.TerminalMethod{valuation.ExitMultiple, valuation.PerpetuityGrowth},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
