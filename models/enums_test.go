package models

import (
	"testing"
	"time"
)

func TestCustomerTierUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    CustomerTier
		wantErr bool
	}{
		{`"bronze"`, CustomerTierBronze, false},
		{`"vip"`, CustomerTierVip, false},
		{`"platinum"`, "", true},
		{`"GOLD"`, "", true},
		{`42`, "", true},
	}

	for _, tc := range cases {
		var tier CustomerTier
		err := tier.UnmarshalJSON([]byte(tc.in))
		if tc.wantErr {
			if err == nil {
				t.Fatalf("UnmarshalJSON(%s) expected error, got %q", tc.in, tier)
			}
			continue
		}
		if err != nil {
			t.Fatalf("UnmarshalJSON(%s) error: %v", tc.in, err)
		}
		if tier != tc.want {
			t.Fatalf("UnmarshalJSON(%s) expected %q, got %q", tc.in, tc.want, tier)
		}
	}
}

func TestCustomerTierIsValid(t *testing.T) {
	for _, tier := range []CustomerTier{CustomerTierBronze, CustomerTierSilver, CustomerTierGold, CustomerTierVip} {
		if !tier.IsValid() {
			t.Fatalf("%q expected valid", tier)
		}
	}
	if CustomerTier("platinum").IsValid() {
		t.Fatal("platinum expected invalid")
	}
	if CustomerTier("").IsValid() {
		t.Fatal("empty tier expected invalid")
	}
}

func TestOrderStatusUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    OrderStatus
		wantErr bool
	}{
		{`"pending"`, OrderStatusPending, false},
		{`"shipped"`, OrderStatusShipped, false},
		{`"rto"`, OrderStatusRto, false},
		{`"bogus"`, "", true},
		{`"SHIPPED"`, "", true},
		{`42`, "", true},
	}

	for _, tc := range cases {
		var status OrderStatus
		err := status.UnmarshalJSON([]byte(tc.in))
		if tc.wantErr {
			if err == nil {
				t.Fatalf("UnmarshalJSON(%s) expected error, got %q", tc.in, status)
			}
			continue
		}
		if err != nil {
			t.Fatalf("UnmarshalJSON(%s) error: %v", tc.in, err)
		}
		if status != tc.want {
			t.Fatalf("UnmarshalJSON(%s) expected %q, got %q", tc.in, tc.want, status)
		}
	}
}

func TestReconciliationStatusUnmarshalJSON(t *testing.T) {
	var status ReconciliationStatus
	if err := status.UnmarshalJSON([]byte(`"submitted"`)); err != nil || status != ReconciliationStatusSubmitted {
		t.Fatalf("expected submitted, got %q (%v)", status, err)
	}
	if err := status.UnmarshalJSON([]byte(`"finalised"`)); err == nil {
		t.Fatal("finalised expected error")
	}
	if err := status.UnmarshalJSON([]byte(`7`)); err == nil {
		t.Fatal("non-string expected error")
	}
}

func TestCampaignSendStatusUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    CampaignSendStatus
		wantErr bool
	}{
		{`"queued"`, CampaignSendStatusQueued, false},
		{`"delivered"`, CampaignSendStatusDelivered, false},
		{`"bounced"`, CampaignSendStatusBounced, false},
		{`"opened"`, "", true},
		{`null`, "", true},
	}

	for _, tc := range cases {
		var status CampaignSendStatus
		err := status.UnmarshalJSON([]byte(tc.in))
		if tc.wantErr {
			if err == nil {
				t.Fatalf("UnmarshalJSON(%s) expected error, got %q", tc.in, status)
			}
			continue
		}
		if err != nil {
			t.Fatalf("UnmarshalJSON(%s) error: %v", tc.in, err)
		}
		if status != tc.want {
			t.Fatalf("UnmarshalJSON(%s) expected %q, got %q", tc.in, tc.want, status)
		}
	}
}

func TestTransactionDirectionUnmarshalJSON(t *testing.T) {
	var dir TransactionDirection
	if err := dir.UnmarshalJSON([]byte(`"inward"`)); err != nil || dir != TransactionDirectionInward {
		t.Fatalf("expected inward, got %q (%v)", dir, err)
	}
	if err := dir.UnmarshalJSON([]byte(`"sideways"`)); err == nil {
		t.Fatal("sideways expected error")
	}
}

func TestCampaignSendStatusIsTerminal(t *testing.T) {
	cases := map[CampaignSendStatus]bool{
		CampaignSendStatusQueued:     false,
		CampaignSendStatusDispatched: false,
		CampaignSendStatusDelivered:  true,
		CampaignSendStatusBounced:    true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%q IsTerminal expected %v, got %v", status, want, got)
		}
	}
}

func TestMyDateStringUnmarshalJSON(t *testing.T) {
	var d MyDateString
	if err := d.UnmarshalJSON([]byte(`"2026-08-26T10:30:00"`)); err != nil {
		t.Fatalf("datetime form error: %v", err)
	}
	if !time.Time(d).Equal(time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed datetime %v", time.Time(d))
	}

	if err := d.UnmarshalJSON([]byte(`"2026-08-26"`)); err != nil {
		t.Fatalf("date-only form error: %v", err)
	}
	if !time.Time(d).Equal(time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date %v", time.Time(d))
	}

	if err := d.UnmarshalJSON([]byte(`"26/08/2026"`)); err == nil {
		t.Fatal("unsupported layout expected error")
	}
	if err := d.UnmarshalJSON([]byte(`12345`)); err == nil {
		t.Fatal("non-string expected error")
	}
}
