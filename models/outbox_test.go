package models

import (
	"testing"
	"time"
)

func TestConvertToEmailDispatchMessage(t *testing.T) {
	created := time.Date(2026, 8, 20, 9, 15, 0, 0, time.FixedZone("IST", 5*3600+1800))
	rec := EmailOutboxRecord{
		ID:            7,
		CampaignId:    3,
		SendId:        99,
		Email:         "priya@example.com",
		Subject:       "Monsoon sale",
		Preheader:     "Up to 40% off",
		BodyHtml:      "<p>Hello</p>",
		CorrelationId: "corr-123",
		CreatedAt:     created,
	}

	msg := ConvertToEmailDispatchMessage(rec)
	if msg.OutboxId != 7 || msg.CampaignId != 3 || msg.SendId != 99 {
		t.Fatalf("ids not carried over: %+v", msg)
	}
	if msg.Email != rec.Email || msg.Subject != rec.Subject || msg.BodyHtml != rec.BodyHtml {
		t.Fatalf("payload not carried over: %+v", msg)
	}
	if msg.CorrelationId != "corr-123" {
		t.Fatalf("correlation id expected corr-123, got %q", msg.CorrelationId)
	}

	// queued-at is normalised to UTC so consumers never see a zone offset
	if !msg.QueuedAt.Equal(created) {
		t.Fatalf("QueuedAt expected %v, got %v", created, msg.QueuedAt)
	}
	if msg.QueuedAt.Location() != time.UTC {
		t.Fatalf("QueuedAt expected UTC, got %v", msg.QueuedAt.Location())
	}
}
