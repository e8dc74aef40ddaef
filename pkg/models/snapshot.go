package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MetricKind selects which trailing per-share figure seeds the projection.
type MetricKind string

const (
	MetricEPS MetricKind = "eps"
	MetricFCF MetricKind = "fcf"
)

func ParseMetricKind(s string) (MetricKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eps", "earnings":
		return MetricEPS, nil
	case "fcf", "fcf_per_share", "free_cash_flow":
		return MetricFCF, nil
	}
	return "", fmt.Errorf("unknown base metric %q", s)
}

// MarketSnapshot is what the data retrieval step hands to the engine.
type MarketSnapshot struct {
	Ticker           string    `json:"ticker"`
	Price            float64   `json:"price"`
	EPS              float64   `json:"eps"`                         // Trailing earnings per share
	FCFPerShare      float64   `json:"fcf_per_share"`               // Trailing free cash flow per share
	HistoricalGrowth []float64 `json:"historical_growth,omitempty"` // Percent, e.g. 5y / 10y CAGR
	FetchedAt        time.Time `json:"fetched_at"`
}

// BaseValue returns the per-share metric for kind.
func (s MarketSnapshot) BaseValue(kind MetricKind) float64 {
	if kind == MetricFCF {
		return s.FCFPerShare
	}
	return s.EPS
}

// SuggestedGrowth is the median of the historical growth rates; 0 when none are known.
// With an even count the lower middle rate is used.
func (s MarketSnapshot) SuggestedGrowth() float64 {
	if len(s.HistoricalGrowth) == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.HistoricalGrowth...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// PriceMultiple is price over the selected base metric (P/E or P/FCF); 0 when the metric is not positive.
func (s MarketSnapshot) PriceMultiple(kind MetricKind) float64 {
	base := s.BaseValue(kind)
	if base <= 0 {
		return 0
	}
	return s.Price / base
}
