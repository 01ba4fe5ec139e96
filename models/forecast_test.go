package models

import (
	"math"
	"testing"
	"time"
)

func weeklySeries(start time.Time, values ...float64) []weeklyPoint {
	points := make([]weeklyPoint, 0, len(values))
	for i, v := range values {
		points = append(points, weeklyPoint{Week: start.AddDate(0, 0, 7*i), Value: v})
	}
	return points
}

func flatSeries(start time.Time, value float64, weeks int) []weeklyPoint {
	points := make([]weeklyPoint, 0, weeks)
	for i := 0; i < weeks; i++ {
		points = append(points, weeklyPoint{Week: start.AddDate(0, 0, 7*i), Value: value})
	}
	return points
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTrailingAverage(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	points := weeklySeries(start, 10, 20, 30, 40)
	if got := trailingAverage(points, 2); !almostEqual(got, 35) {
		t.Fatalf("trailing 2 expected 35, got %v", got)
	}
	// window longer than the series averages everything
	if got := trailingAverage(points, 8); !almostEqual(got, 25) {
		t.Fatalf("trailing 8 over 4 points expected 25, got %v", got)
	}
	if got := trailingAverage(nil, 8); got != 0 {
		t.Fatalf("empty series expected 0, got %v", got)
	}
}

func TestWeeklyTrend(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	// under 24 weeks there is no trend
	if got := weeklyTrend(flatSeries(start, 100, 23)); got != 0 {
		t.Fatalf("short series expected no trend, got %v", got)
	}

	// prior 12 weeks at 100/wk, recent 12 at 112/wk: slope 1/wk
	points := append(flatSeries(start, 100, 12), flatSeries(start.AddDate(0, 0, 7*12), 112, 12)...)
	if got := weeklyTrend(points); !almostEqual(got, 1) {
		t.Fatalf("expected slope 1, got %v", got)
	}

	// declining series produces a negative slope
	points = append(flatSeries(start, 112, 12), flatSeries(start.AddDate(0, 0, 7*12), 100, 12)...)
	if got := weeklyTrend(points); !almostEqual(got, -1) {
		t.Fatalf("expected slope -1, got %v", got)
	}
}

func TestForecastSeries_FlatHistory(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := flatSeries(start, 50, 30)

	forecasts := ForecastSeries(points, 4, nil)
	if len(forecasts) != 4 {
		t.Fatalf("expected 4 forecast points, got %d", len(forecasts))
	}

	last := points[len(points)-1].Week
	for i, f := range forecasts {
		expectedWeek := last.AddDate(0, 0, 7*(i+1)).Format("2006-01-02")
		if f.Week != expectedWeek {
			t.Fatalf("point %d expected week %s, got %s", i, expectedWeek, f.Week)
		}
		if !almostEqual(f.Forecast, 50) {
			t.Fatalf("flat history expected 50/wk, got %v", f.Forecast)
		}
		if !almostEqual(f.Low, 40) || !almostEqual(f.High, 60) {
			t.Fatalf("expected +/-20%% band 40-60, got %v-%v", f.Low, f.High)
		}
	}
}

func TestForecastSeries_SeasonalAndFloor(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := flatSeries(start, 100, 30)

	// a seasonal index scales the projection for that month
	last := points[len(points)-1].Week
	nextMonth := last.AddDate(0, 0, 7).Month()
	forecasts := ForecastSeries(points, 1, map[time.Month]float64{nextMonth: 1.5})
	if !almostEqual(forecasts[0].Forecast, 150) {
		t.Fatalf("seasonal index 1.5 expected 150, got %v", forecasts[0].Forecast)
	}

	// a hard decline never projects below zero
	decline := append(flatSeries(start, 2000, 12), flatSeries(start.AddDate(0, 0, 7*12), 8, 12)...)
	forecasts = ForecastSeries(decline, 6, nil)
	for _, f := range forecasts {
		if f.Forecast < 0 || f.Low < 0 {
			t.Fatalf("forecast dipped below zero: %+v", f)
		}
	}
}

func TestSeasonalIndices(t *testing.T) {
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := []weeklyPoint{
		{Week: jan, Value: 50},
		{Week: jan.AddDate(0, 0, 7), Value: 50},
		{Week: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Value: 150},
	}

	indices := SeasonalIndices(points)
	if !almostEqual(indices[time.January], 0.5) {
		t.Fatalf("January index expected 0.5, got %v", indices[time.January])
	}
	if !almostEqual(indices[time.February], 1.5) {
		t.Fatalf("February index expected 1.5, got %v", indices[time.February])
	}

	if got := SeasonalIndices(nil); got != nil {
		t.Fatalf("no history expected nil indices, got %v", got)
	}
}

func TestComputeFabricNeeds(t *testing.T) {
	// one product, two colours at 75/25, two sizes at 50/50
	variationMix := []variationMixRow{
		{ProductId: 1, VariationId: 11, Colour: "Indigo", Units: 75},
		{ProductId: 1, VariationId: 12, Colour: "Black", Units: 25},
	}
	sizeMix := []sizeMixRow{
		{ProductId: 1, Size: "M", Units: 50},
		{ProductId: 1, Size: "L", Units: 50},
	}
	bomRows := []bomJoinRow{
		{VariationId: 11, Size: "M", Code: "DEN-IND", FabricName: "Denim", FabricColour: "Indigo", FabricUnit: "m", QtyPerUnit: 1.2, WastagePercent: 10, CostPerUnit: 300},
		{VariationId: 11, Size: "L", Code: "DEN-IND", FabricName: "Denim", FabricColour: "Indigo", FabricUnit: "m", QtyPerUnit: 1.4, WastagePercent: 10, CostPerUnit: 300},
		// zero wastage falls back to the default 5%
		{VariationId: 12, Size: "M", Code: "DEN-BLK", FabricName: "Denim", FabricColour: "Black", FabricUnit: "m", QtyPerUnit: 1.2, WastagePercent: 0, CostPerUnit: 320},
		{VariationId: 12, Size: "L", Code: "DEN-BLK", FabricName: "Denim", FabricColour: "Black", FabricUnit: "m", QtyPerUnit: 1.4, WastagePercent: 0, CostPerUnit: 320},
	}

	needs := ComputeFabricNeeds(100, sizeMix, variationMix, bomRows)
	if len(needs) != 2 {
		t.Fatalf("expected 2 fabric colours, got %d", len(needs))
	}

	// indigo: 75 units split 37.5/37.5 across sizes, (37.5*1.2 + 37.5*1.4) * 1.10
	indigo := needs["DEN-IND"]
	if indigo == nil {
		t.Fatal("missing DEN-IND need")
	}
	if !almostEqual(indigo.Qty, 107.25) {
		t.Fatalf("indigo qty expected 107.25, got %v", indigo.Qty)
	}

	// black: 25 units split 12.5/12.5, (12.5*1.2 + 12.5*1.4) * 1.05
	black := needs["DEN-BLK"]
	if black == nil {
		t.Fatal("missing DEN-BLK need")
	}
	if !almostEqual(black.Qty, 34.125) {
		t.Fatalf("black qty expected 34.125, got %v", black.Qty)
	}
	if black.Fabric != "Denim" || black.Unit != "m" || !almostEqual(black.Cost, 320) {
		t.Fatalf("black need metadata wrong: %+v", black)
	}

	if got := ComputeFabricNeeds(100, nil, variationMix, bomRows); got != nil {
		t.Fatalf("empty size mix expected nil, got %v", got)
	}
}
