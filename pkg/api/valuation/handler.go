package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dcf_valuation/pkg/core/report"
	"dcf_valuation/pkg/core/sensitivity"
	"dcf_valuation/pkg/core/settings"
	"dcf_valuation/pkg/core/valuation"
	"dcf_valuation/pkg/models"
)

// ParamsInput is a partial ModelParameters; nil fields fall back to the configured defaults.
type ParamsInput struct {
	DiscountRate       *float64 `json:"discount_rate"`
	GrowthRate         *float64 `json:"growth_rate"`
	Years              *int     `json:"years"`
	TerminalMethod     *string  `json:"terminal_method"`
	TerminalMultiple   *float64 `json:"terminal_multiple"`
	TerminalGrowthRate *float64 `json:"terminal_growth_rate"`
}

// ValuationRequest is shared by every endpoint. Either BaseValue or Snapshot supplies the
// per-share metric; Price falls back to Snapshot.Price.
type ValuationRequest struct {
	Ticker     string                 `json:"ticker"`
	BaseValue  *float64               `json:"base_value"`
	BaseMetric string                 `json:"base_metric"` // "eps" or "fcf", used with Snapshot
	Price      float64                `json:"price"`
	Snapshot   *models.MarketSnapshot `json:"snapshot"`
	Params     ParamsInput            `json:"params"`
}

type DCFResponse struct {
	RequestID      string                    `json:"request_id"`
	Ticker         string                    `json:"ticker"`
	BaseValue      float64                   `json:"base_value"`
	Price          float64                   `json:"price"`
	Params         valuation.ModelParameters `json:"params"`
	Result         valuation.ValuationResult `json:"result"`
	MarginOfSafety float64                   `json:"margin_of_safety"`
	Band           sensitivity.Band          `json:"band"`

	// Set only when the request carried a snapshot.
	PriceMultiple float64    `json:"price_multiple,omitempty"` // P/E or P/FCF, per base_metric
	AsOf          *time.Time `json:"as_of,omitempty"`
}

type ImpliedGrowthResponse struct {
	RequestID     string                    `json:"request_id"`
	Ticker        string                    `json:"ticker"`
	Price         float64                   `json:"price"`
	Params        valuation.ModelParameters `json:"params"`
	ImpliedGrowth valuation.ImpliedGrowth   `json:"implied_growth"`
	AssumedGrowth float64                   `json:"assumed_growth"`
	Band          sensitivity.Band          `json:"band"`
}

type SensitivityResponse struct {
	RequestID     string            `json:"request_id"`
	Ticker        string            `json:"ticker"`
	ValueMatrix   *sensitivity.Grid `json:"value_matrix"`
	ImpliedMatrix *sensitivity.Grid `json:"implied_growth_matrix"`
}

// Handler serves the valuation endpoints.
type Handler struct {
	Settings  settings.Settings
	Solver    valuation.Solver
	Generator *sensitivity.Generator
}

func NewHandler(s settings.Settings) *Handler {
	solver := s.NewSolver()
	return &Handler{
		Settings: s,
		Solver:   solver,
		Generator: sensitivity.NewGenerator(
			sensitivity.WithSolver(solver),
			sensitivity.WithWorkers(s.Grid.Workers),
			sensitivity.WithCache(s.Grid.CacheSize),
		),
	}
}

// Routes mounts the handlers under /api/valuation.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/valuation", func(r chi.Router) {
		r.Post("/dcf", h.HandleDCF)
		r.Post("/implied-growth", h.HandleImpliedGrowth)
		r.Post("/sensitivity", h.HandleSensitivity)
		r.Post("/report", h.HandleReport)
	})
}

// input is a fully resolved request.
type input struct {
	ticker   string
	base     float64
	price    float64
	params   valuation.ModelParameters
	multiple float64
	asOf     *time.Time
}

func (h *Handler) resolve(req ValuationRequest) (input, error) {
	in := input{ticker: strings.ToUpper(req.Ticker), price: req.Price, params: h.Settings.Params()}

	kindName := req.BaseMetric
	if kindName == "" {
		kindName = h.Settings.Defaults.BaseMetric
	}
	kind, err := models.ParseMetricKind(kindName)
	if err != nil {
		return in, err
	}

	switch {
	case req.BaseValue != nil:
		in.base = *req.BaseValue
	case req.Snapshot != nil:
		in.base = req.Snapshot.BaseValue(kind)
	default:
		return in, fmt.Errorf("base_value or snapshot is required")
	}

	if req.Snapshot != nil {
		if in.ticker == "" {
			in.ticker = strings.ToUpper(req.Snapshot.Ticker)
		}
		if in.price == 0 {
			in.price = req.Snapshot.Price
		}
		if req.Params.GrowthRate == nil && len(req.Snapshot.HistoricalGrowth) > 0 {
			in.params.GrowthRate = req.Snapshot.SuggestedGrowth()
		}
		in.multiple = req.Snapshot.PriceMultiple(kind)
		if !req.Snapshot.FetchedAt.IsZero() {
			fetched := req.Snapshot.FetchedAt
			in.asOf = &fetched
		}
	}

	p := req.Params
	if p.DiscountRate != nil {
		in.params.DiscountRate = *p.DiscountRate
	}
	if p.GrowthRate != nil {
		in.params.GrowthRate = *p.GrowthRate
	}
	if p.Years != nil {
		in.params.Years = *p.Years
	}
	if p.TerminalMethod != nil {
		method, err := valuation.ParseTerminalMethod(*p.TerminalMethod)
		if err != nil {
			return in, err
		}
		in.params.TerminalMethod = method
	}
	if p.TerminalMultiple != nil {
		in.params.TerminalMultiple = *p.TerminalMultiple
	}
	if p.TerminalGrowthRate != nil {
		in.params.TerminalGrowthRate = *p.TerminalGrowthRate
	}

	if _, err := valuation.Evaluate(in.base, in.params); err != nil {
		return in, err
	}
	return in, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (input, bool) {
	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return input{}, false
	}
	in, err := h.resolve(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return input{}, false
	}
	return in, true
}

func (h *Handler) HandleDCF(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	res := valuation.ComputeIntrinsicValue(in.base, in.params)
	resp := DCFResponse{
		RequestID:      uuid.NewString(),
		Ticker:         in.ticker,
		BaseValue:      in.base,
		Price:          in.price,
		Params:         in.params,
		Result:         report.RoundResult(res),
		MarginOfSafety: valuation.MarginOfSafety(res.Value, in.price),
		Band:           sensitivity.ClassifyValue(res.Value, in.price),
		PriceMultiple:  in.multiple,
		AsOf:           in.asOf,
	}
	fmt.Printf("[VALUATION] %s DCF: base=%.2f value=%.2f price=%.2f\n", in.ticker, in.base, res.Value, in.price)
	writeJSON(w, resp)
}

func (h *Handler) HandleImpliedGrowth(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	if in.price <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("price must be positive"))
		return
	}

	implied := h.Solver.Solve(in.price, in.base, in.params)
	band := sensitivity.ClassifyImpliedGrowth(implied.Rate, in.params.GrowthRate)
	if implied.NonConvergent {
		band = sensitivity.BandUnknown
	}
	resp := ImpliedGrowthResponse{
		RequestID:     uuid.NewString(),
		Ticker:        in.ticker,
		Price:         in.price,
		Params:        in.params,
		ImpliedGrowth: implied,
		AssumedGrowth: in.params.GrowthRate,
		Band:          band,
	}
	fmt.Printf("[VALUATION] %s implied growth: %.2f%% (converged=%v, iterations=%d)\n",
		in.ticker, implied.Rate, implied.Converged, implied.Iterations)
	writeJSON(w, resp)
}

func (h *Handler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	valueGrid, impliedGrid, err := h.grids(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	fmt.Printf("[VALUATION] %s sensitivity grids built (cached cells: %d)\n", in.ticker, h.Generator.CachedCells())
	writeJSON(w, SensitivityResponse{
		RequestID:     uuid.NewString(),
		Ticker:        in.ticker,
		ValueMatrix:   valueGrid,
		ImpliedMatrix: impliedGrid,
	})
}

// HandleReport renders the projection and both grids; ?format=markdown skips HTML conversion.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	valueGrid, impliedGrid, err := h.grids(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	title := in.ticker
	if title == "" {
		title = "Valuation"
	}
	md := strings.Join([]string{
		report.Valuation(title, in.price, in.params, valuation.ComputeIntrinsicValue(in.base, in.params)),
		report.Grid("Intrinsic value: discount rate x growth rate", valueGrid),
	}, "\n")
	if impliedGrid != nil {
		md += "\n" + report.Grid("Implied growth: discount rate x terminal", impliedGrid)
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, md)
		return
	}
	html, err := report.ToHTML(md)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// grids builds both matrices. The implied-growth matrix needs a positive price and is nil otherwise.
func (h *Handler) grids(in input) (*sensitivity.Grid, *sensitivity.Grid, error) {
	valueGrid, err := h.Generator.ValueMatrix(in.base, in.price, in.params)
	if err != nil {
		return nil, nil, err
	}
	if in.price <= 0 {
		return valueGrid, nil, nil
	}
	impliedGrid, err := h.Generator.ImpliedGrowthMatrix(in.base, in.price, in.params)
	if err != nil {
		return nil, nil, err
	}
	return valueGrid, impliedGrid, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("[WARNING] Failed to encode response: %v\n", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	var de *valuation.DomainError
	if errors.As(err, &de) {
		fmt.Printf("[VALUATION] Rejected input: %v\n", de)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
