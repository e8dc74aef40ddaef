package sensitivity

import "testing"

func TestClassifyValue(t *testing.T) {
	tests := []struct {
		value, price float64
		want         Band
	}{
		{130, 100, BandStrongFavorable},
		{115.5, 100, BandStrongFavorable},
		{115, 100, BandFavorable},
		{106, 100, BandFavorable},
		{105, 100, BandNeutral},
		{100, 100, BandNeutral},
		{95, 100, BandNeutral},
		{94, 100, BandUnfavorable},
		{85, 100, BandUnfavorable},
		{84.9, 100, BandStrongUnfavorable},
		{-10, 100, BandStrongUnfavorable},
		{50, 0, BandUnknown},
		{50, -3, BandUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyValue(tt.value, tt.price); got != tt.want {
			t.Errorf("ClassifyValue(%v, %v) = %s, want %s", tt.value, tt.price, got, tt.want)
		}
	}
}

func TestClassifyImpliedGrowth(t *testing.T) {
	tests := []struct {
		implied, assumed float64
		want             Band
	}{
		{2, 10, BandStrongFavorable},
		{5, 10, BandFavorable},
		{8.5, 10, BandFavorable},
		{9, 10, BandNeutral},
		{10, 10, BandNeutral},
		{11, 10, BandNeutral},
		{11.5, 10, BandUnfavorable},
		{14.9, 10, BandUnfavorable},
		{15, 10, BandStrongUnfavorable},
		{40, 10, BandStrongUnfavorable},
	}
	for _, tt := range tests {
		if got := ClassifyImpliedGrowth(tt.implied, tt.assumed); got != tt.want {
			t.Errorf("ClassifyImpliedGrowth(%v, %v) = %s, want %s", tt.implied, tt.assumed, got, tt.want)
		}
	}
}

func TestBandPolarity(t *testing.T) {
	// Higher is better for value, lower is better for implied growth.
	if ClassifyValue(200, 100) != BandStrongFavorable {
		t.Error("value well above price should be favorable")
	}
	if ClassifyImpliedGrowth(30, 10) != BandStrongUnfavorable {
		t.Error("implied growth well above assumption should be unfavorable")
	}
}

func TestBandDescribe(t *testing.T) {
	if got := BandStrongFavorable.Describe(KindValue); got != "Undervalued >15%" {
		t.Errorf("unexpected label %q", got)
	}
	if got := BandFavorable.Describe(KindImpliedGrowth); got != "Market expects less" {
		t.Errorf("unexpected label %q", got)
	}
	if got := BandUnknown.Describe(KindValue); got != "n/a" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestAxisLabels(t *testing.T) {
	a := NewAxis(ParamTerminalMultiple, 15, TerminalMultStep)
	want := []string{"11.0x", "13.0x", "15.0x", "17.0x", "19.0x"}
	for i, l := range a.Labels() {
		if l != want[i] {
			t.Errorf("label %d: expected %s, got %s", i, want[i], l)
		}
	}
	if got := FormatPercent.Label(6); got != "6.0%" {
		t.Errorf("unexpected percent label %q", got)
	}
	if got := FormatCurrency.Label(170.2706); got != "$170.27" {
		t.Errorf("unexpected currency label %q", got)
	}
}
