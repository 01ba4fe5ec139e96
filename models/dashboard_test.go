package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func resetDashboardMemo() {
	dashboardMemoMu.Lock()
	dashboardMemo = nil
	dashboardMemoAt = time.Time{}
	dashboardMemoMu.Unlock()
}

func TestDashboardMemo_RoundTripAndExpiry(t *testing.T) {
	resetDashboardMemo()
	defer resetDashboardMemo()

	if got := getDashboardMemo(); got != nil {
		t.Fatalf("empty memo expected nil, got %+v", got)
	}

	d := &Dashboard{
		GeneratedAt: time.Now(),
		Current:     DashboardPeriod{Revenue: decimal.NewFromInt(50000), OrderCount: 120},
		TopProducts: []*DashboardTopProduct{
			{ProductId: 1, Name: "Indigo Kurta", Units: 40},
		},
	}
	setDashboardMemo(d)

	got := getDashboardMemo()
	if got == nil {
		t.Fatal("expected memoised dashboard back")
	}
	if got.Current.OrderCount != 120 || len(got.TopProducts) != 1 {
		t.Fatalf("memo content mismatch: %+v", got)
	}

	// expiry: backdate the memo beyond the TTL
	dashboardMemoMu.Lock()
	dashboardMemoAt = time.Now().Add(-dashboardCacheTTL - time.Second)
	dashboardMemoMu.Unlock()
	if got := getDashboardMemo(); got != nil {
		t.Fatalf("expired memo expected nil, got %+v", got)
	}
}

func TestDashboardMemo_CopiesRows(t *testing.T) {
	resetDashboardMemo()
	defer resetDashboardMemo()

	original := &Dashboard{
		TopProducts: []*DashboardTopProduct{
			{ProductId: 1, Name: "Indigo Kurta"},
		},
	}
	setDashboardMemo(original)

	// callers decorate their copy; the stored memo must not see it
	first := getDashboardMemo()
	first.TopProducts[0].Product = &Product{ID: 1, Name: "Indigo Kurta"}

	second := getDashboardMemo()
	if second.TopProducts[0].Product != nil {
		t.Fatal("memo rows leaked between callers")
	}

	// nor should later edits to the caller's input
	original.TopProducts[0].Name = "changed"
	if got := getDashboardMemo(); got.TopProducts[0].Name != "Indigo Kurta" {
		t.Fatalf("memo shares rows with setter input: %q", got.TopProducts[0].Name)
	}
}

func TestInvalidateDashboardCache_ClearsMemo(t *testing.T) {
	resetDashboardMemo()
	defer resetDashboardMemo()

	setDashboardMemo(&Dashboard{})
	InvalidateDashboardCache()
	if got := getDashboardMemo(); got != nil {
		t.Fatalf("invalidated memo expected nil, got %+v", got)
	}
}
