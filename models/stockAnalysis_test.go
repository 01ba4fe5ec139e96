package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestClassifyStock(t *testing.T) {
	cases := []struct {
		name     string
		balance  string
		avgDaily string
		leadTime int
		expected StockStatus
	}{
		// avgDaily 2/day, lead 14 days: ORDER_NOW at <= 42, ORDER_SOON at <= 56
		{"well stocked", "200", "2", 14, StockStatusOk},
		{"just above soon threshold", "56.01", "2", 14, StockStatusOk},
		{"at soon threshold", "56", "2", 14, StockStatusOrderSoon},
		{"between thresholds", "50", "2", 14, StockStatusOrderSoon},
		{"at now threshold", "42", "2", 14, StockStatusOrderNow},
		{"below now threshold", "10", "2", 14, StockStatusOrderNow},
		{"zero balance", "0", "2", 14, StockStatusOrderNow},
		{"negative balance", "-5", "2", 14, StockStatusOrderNow},
		// no consumption collapses both thresholds to balance <= 0
		{"no consumption with stock", "1", "0", 14, StockStatusOk},
		{"no consumption zero stock", "0", "0", 14, StockStatusOrderNow},
		{"no consumption negative stock", "-1", "0", 14, StockStatusOrderNow},
		// longer lead time pushes the thresholds out
		{"long lead time", "100", "2", 60, StockStatusOrderNow},
	}

	for _, tc := range cases {
		got := ClassifyStock(d(tc.balance), d(tc.avgDaily), tc.leadTime)
		if got != tc.expected {
			t.Fatalf("%s: ClassifyStock(%s, %s, %d) expected %s, got %s",
				tc.name, tc.balance, tc.avgDaily, tc.leadTime, tc.expected, got)
		}
	}
}

func TestSuggestedOrderQty(t *testing.T) {
	cases := []struct {
		name     string
		balance  string
		avgDaily string
		minOrder string
		leadTime int
		expected string
	}{
		// ceil(2*30 - 40 + 2*14) = 48
		{"shortfall above min order", "40", "2", "10", 14, "48"},
		// ceil(2*30 - 100 + 2*14) = -12, clamped then floored to min order
		{"covered but min order applies", "100", "2", "10", 14, "10"},
		{"covered no min order", "100", "2", "0", 14, "0"},
		// fractional demand rounds up
		{"fractional rounds up", "0", "1.5", "0", 7, "56"},
		{"zero consumption", "50", "0", "25", 14, "25"},
		{"negative balance adds to need", "-10", "1", "0", 14, "54"},
	}

	for _, tc := range cases {
		got := SuggestedOrderQty(d(tc.balance), d(tc.avgDaily), d(tc.minOrder), tc.leadTime)
		if !got.Equal(d(tc.expected)) {
			t.Fatalf("%s: SuggestedOrderQty(%s, %s, %s, %d) expected %s, got %s",
				tc.name, tc.balance, tc.avgDaily, tc.minOrder, tc.leadTime, tc.expected, got)
		}
	}
}

func TestDaysOfCover(t *testing.T) {
	if got := daysOfCover(d("56"), d("2")); got == nil || *got != 28 {
		t.Fatalf("expected 28 days of cover, got %v", got)
	}
	if got := daysOfCover(d("5"), d("2")); got == nil || *got != 2 {
		t.Fatalf("expected truncation to 2 days, got %v", got)
	}
	if got := daysOfCover(d("10"), d("0")); got != nil {
		t.Fatalf("expected nil days of cover with no consumption, got %d", *got)
	}
}
