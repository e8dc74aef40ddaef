package sensitivity

// Band is a five-way classification of a grid cell. Favorable always means "better for a
// buyer at the current price": for the value matrix that is a value above the price, for the
// implied-growth matrix it is an implied growth below the user's own assumption.
type Band string

const (
	BandStrongFavorable   Band = "strong_favorable"
	BandFavorable         Band = "favorable"
	BandNeutral           Band = "neutral"
	BandUnfavorable       Band = "unfavorable"
	BandStrongUnfavorable Band = "strong_unfavorable"
	BandUnknown           Band = "unknown"
)

// ClassifyValue bands the relative deviation of an intrinsic value from the market price.
// Thresholds are symmetric at 5% and 15%.
func ClassifyValue(value, price float64) Band {
	if price <= 0 {
		return BandUnknown
	}
	d := (value - price) / price
	switch {
	case d > 0.15:
		return BandStrongFavorable
	case d > 0.05:
		return BandFavorable
	case d >= -0.05:
		return BandNeutral
	case d >= -0.15:
		return BandUnfavorable
	default:
		return BandStrongUnfavorable
	}
}

// ClassifyImpliedGrowth bands implied minus assumed growth, in percentage points.
// Lower implied growth is favorable: the market expects less than the user believes achievable.
func ClassifyImpliedGrowth(implied, assumed float64) Band {
	diff := implied - assumed
	switch {
	case diff < -5:
		return BandStrongFavorable
	case diff < -1:
		return BandFavorable
	case diff <= 1:
		return BandNeutral
	case diff < 5:
		return BandUnfavorable
	default:
		return BandStrongUnfavorable
	}
}

var bandLabels = map[Kind]map[Band]string{
	KindValue: {
		BandStrongFavorable:   "Undervalued >15%",
		BandFavorable:         "Undervalued 5-15%",
		BandNeutral:           "Fair value ±5%",
		BandUnfavorable:       "Overvalued 5-15%",
		BandStrongUnfavorable: "Overvalued >15%",
	},
	KindImpliedGrowth: {
		BandStrongFavorable:   "Market expects much less",
		BandFavorable:         "Market expects less",
		BandNeutral:           "In line with assumption",
		BandUnfavorable:       "Market expects more",
		BandStrongUnfavorable: "Market expects much more",
	},
}

// Describe returns a display label for the band in the context of a grid kind.
func (b Band) Describe(kind Kind) string {
	if label, ok := bandLabels[kind][b]; ok {
		return label
	}
	return "n/a"
}
