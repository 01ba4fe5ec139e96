package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/cohapparel/coherp_backend/utils"
)

// Covers the sending -> sent flip when the last two delivery webhooks land
// at the same time: each resolves one of the two remaining sends, and the
// campaign must still end up sent with both counters advanced.
func TestCampaignConcurrentDeliveryFlip(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "coherp_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	for i, email := range []string{"asha@example.com", "vikram@example.com"} {
		if _, err := models.CreateCustomer(ctx, &models.NewCustomer{
			Name:             fmt.Sprintf("Customer %d", i+1),
			Email:            email,
			AcceptsMarketing: utils.NewTrue(),
		}); err != nil {
			t.Fatalf("CreateCustomer(%s): %v", email, err)
		}
	}

	audience, err := models.CreateAudience(ctx, &models.NewAudience{
		Name: "Everyone",
	})
	if err != nil {
		t.Fatalf("CreateAudience: %v", err)
	}

	campaign, err := models.CreateEmailCampaign(ctx, &models.NewEmailCampaign{
		Name:       "Monsoon Sale",
		AudienceId: audience.ID,
		Subject:    "Monsoon sale is live",
		BodyHtml:   "<p>Up to 40% off linen.</p>",
	})
	if err != nil {
		t.Fatalf("CreateEmailCampaign: %v", err)
	}

	sent, err := models.SendCampaign(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("SendCampaign: %v", err)
	}
	if sent.Status != models.CampaignStatusSending {
		t.Fatalf("campaign status = %s, want sending", sent.Status)
	}
	if sent.RecipientCount != 2 {
		t.Fatalf("recipient count = %d, want 2", sent.RecipientCount)
	}

	var sends []models.CampaignSend
	if err := db.WithContext(ctx).Where("campaign_id = ?", campaign.ID).Find(&sends).Error; err != nil {
		t.Fatalf("fetch sends: %v", err)
	}
	if len(sends) != 2 {
		t.Fatalf("send rows = %d, want 2", len(sends))
	}

	// Resolve both sends at once, one delivered and one bounced.
	var wg sync.WaitGroup
	webhookErrs := make(chan error, 2)
	bounceReason := "mailbox full"
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := models.ApplyDeliveryStatus(ctx, sends[0].ID, models.CampaignSendStatusDelivered, nil); err != nil {
			webhookErrs <- err
		}
	}()
	go func() {
		defer wg.Done()
		if err := models.ApplyDeliveryStatus(ctx, sends[1].ID, models.CampaignSendStatusBounced, &bounceReason); err != nil {
			webhookErrs <- err
		}
	}()
	wg.Wait()
	close(webhookErrs)
	for err := range webhookErrs {
		t.Fatalf("ApplyDeliveryStatus: %v", err)
	}

	var got models.EmailCampaign
	if err := db.WithContext(ctx).First(&got, campaign.ID).Error; err != nil {
		t.Fatalf("fetch campaign: %v", err)
	}
	if got.Status != models.CampaignStatusSent {
		t.Fatalf("campaign status = %s, want sent", got.Status)
	}
	if got.SentAt == nil {
		t.Fatalf("sent campaign has nil SentAt")
	}
	if got.DeliveredCount != 1 || got.BouncedCount != 1 {
		t.Fatalf("counters = %d delivered / %d bounced, want 1 / 1",
			got.DeliveredCount, got.BouncedCount)
	}

	// A replayed webhook for an already-resolved send changes nothing.
	if err := models.ApplyDeliveryStatus(ctx, sends[0].ID, models.CampaignSendStatusBounced, &bounceReason); err != nil {
		t.Fatalf("replayed webhook: %v", err)
	}
	if err := db.WithContext(ctx).First(&got, campaign.ID).Error; err != nil {
		t.Fatalf("refetch campaign: %v", err)
	}
	if got.DeliveredCount != 1 || got.BouncedCount != 1 {
		t.Fatalf("counters moved on replay: %d delivered / %d bounced",
			got.DeliveredCount, got.BouncedCount)
	}
}
