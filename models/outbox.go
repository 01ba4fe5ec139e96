package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
)

// EmailOutboxRecord is one queued email dispatch. Rows are written in the
// same transaction as the CampaignSend they belong to and picked up by the
// outbox dispatcher afterwards, so a crash between commit and publish never
// loses a send.
type EmailOutboxRecord struct {
	ID               int                 `gorm:"primary_key" json:"id"`
	CampaignId       int                 `gorm:"index;not null" json:"campaign_id"`
	SendId           int                 `gorm:"index;not null" json:"send_id"`
	Email            string              `gorm:"size:100;not null" json:"email"`
	Subject          string              `gorm:"size:255;not null" json:"subject"`
	Preheader        string              `gorm:"size:255" json:"preheader"`
	BodyHtml         string              `gorm:"type:mediumtext" json:"body_html"`
	CorrelationId    string              `gorm:"size:64" json:"correlation_id"`
	PublishStatus    OutboxPublishStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"publish_status"`
	PublishAttempts  int                 `gorm:"default:0" json:"publish_attempts"`
	LastPublishError *string             `gorm:"size:1000" json:"last_publish_error"`
	NextAttemptAt    *time.Time          `json:"next_attempt_at"`
	LockedAt         *time.Time          `json:"locked_at"`
	LockedBy         *string             `gorm:"size:64" json:"locked_by"`
	PublishedAt      *time.Time          `json:"published_at"`
	PubSubMessageId  *string             `gorm:"size:64" json:"pub_sub_message_id"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToEmailDispatchMessage(rec EmailOutboxRecord) config.EmailDispatchMessage {
	return config.EmailDispatchMessage{
		OutboxId:      rec.ID,
		CampaignId:    rec.CampaignId,
		SendId:        rec.SendId,
		Email:         rec.Email,
		Subject:       rec.Subject,
		Preheader:     rec.Preheader,
		BodyHtml:      rec.BodyHtml,
		QueuedAt:      rec.CreatedAt.UTC(),
		CorrelationId: rec.CorrelationId,
	}
}

// CountPendingOutbox reports rows the dispatcher has not finished with yet.
func CountPendingOutbox(ctx context.Context, campaignId int) (int64, error) {
	var count int64
	err := config.GetDB().WithContext(ctx).Model(&EmailOutboxRecord{}).
		Where("campaign_id = ?", campaignId).
		Where("publish_status IN ?", []OutboxPublishStatus{
			OutboxPublishStatusPending,
			OutboxPublishStatusProcessing,
			OutboxPublishStatusFailed,
		}).
		Count(&count).Error
	return count, err
}
