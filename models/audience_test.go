package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestCompileAudienceFilter_EmptyFilterMatchesEveryone(t *testing.T) {
	fragments := CompileAudienceFilter(&AudienceFilter{}, time.Now())
	if len(fragments) != 0 {
		t.Fatalf("empty filter expected no fragments, got %d", len(fragments))
	}
}

func TestCompileAudienceFilter_Ranges(t *testing.T) {
	ltvMin := decimal.NewFromInt(5000)
	filter := &AudienceFilter{
		Tiers:         []CustomerTier{CustomerTierGold, CustomerTierSilver},
		OrderCountMin: intPtr(3),
		OrderCountMax: intPtr(10),
		LtvMin:        &ltvMin,
	}

	fragments := CompileAudienceFilter(filter, time.Now())
	expected := []string{
		"tier IN ?",
		"order_count >= ?",
		"order_count <= ?",
		"ltv >= ?",
	}
	if len(fragments) != len(expected) {
		t.Fatalf("expected %d fragments, got %d", len(expected), len(fragments))
	}
	for i, clause := range expected {
		if fragments[i].Clause != clause {
			t.Fatalf("fragment %d expected %q, got %q", i, clause, fragments[i].Clause)
		}
	}
	if got := fragments[1].Args[0]; got != 3 {
		t.Fatalf("order_count min arg expected 3, got %v", got)
	}
}

func TestCompileAudienceFilter_DayWindows(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	filter := &AudienceFilter{
		LastOrderWithinDays: intPtr(30),
		NoOrderWithinDays:   intPtr(90),
	}

	fragments := CompileAudienceFilter(filter, now)
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}

	if fragments[0].Clause != "last_order_at >= ?" {
		t.Fatalf("unexpected recency clause %q", fragments[0].Clause)
	}
	if cutoff := fragments[0].Args[0].(time.Time); !cutoff.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("recency cutoff expected %v, got %v", now.AddDate(0, 0, -30), cutoff)
	}

	// lapsed check must also match customers who never ordered
	if fragments[1].Clause != "(last_order_at IS NULL OR last_order_at < ?)" {
		t.Fatalf("unexpected lapsed clause %q", fragments[1].Clause)
	}
}

func TestCompileAudienceFilter_Tags(t *testing.T) {
	filter := &AudienceFilter{
		TagsInclude: []string{"vip", "festive"},
		TagsExclude: []string{"wholesale"},
	}

	fragments := CompileAudienceFilter(filter, time.Now())
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}

	if fragments[0].Clause != "(tags LIKE ? OR tags LIKE ?)" {
		t.Fatalf("include clause expected OR of matches, got %q", fragments[0].Clause)
	}
	if fragments[0].Args[0] != "%vip%" || fragments[0].Args[1] != "%festive%" {
		t.Fatalf("include args expected substring patterns, got %v", fragments[0].Args)
	}

	if fragments[1].Clause != "(tags IS NULL OR tags NOT LIKE ?)" {
		t.Fatalf("exclude clause expected negated match, got %q", fragments[1].Clause)
	}
	if fragments[1].Args[0] != "%wholesale%" {
		t.Fatalf("exclude arg expected %%wholesale%%, got %v", fragments[1].Args[0])
	}
}

func TestCompileAudienceFilter_Flags(t *testing.T) {
	filter := &AudienceFilter{
		States:           []string{"MH", "KA"},
		AcceptsMarketing: boolPtr(true),
		ExcludeRtoRisk:   boolPtr(true),
	}

	fragments := CompileAudienceFilter(filter, time.Now())
	if len(fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(fragments))
	}
	if fragments[2].Clause != "rto_risk = ?" || fragments[2].Args[0] != false {
		t.Fatalf("rto exclusion expected rto_risk = false, got %q %v",
			fragments[2].Clause, fragments[2].Args)
	}

	// ExcludeRtoRisk set to false is a no-op, not an inverted match
	filter.ExcludeRtoRisk = boolPtr(false)
	fragments = CompileAudienceFilter(filter, time.Now())
	if len(fragments) != 2 {
		t.Fatalf("expected rto fragment dropped, got %d fragments", len(fragments))
	}
}
