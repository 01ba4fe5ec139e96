package models

import (
	"context"
	"fmt"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/prometheus"
	"github.com/cohapparel/coherp_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sendBatchSize = 500

type EmailCampaign struct {
	ID             int            `gorm:"primary_key" json:"id"`
	Name           string         `gorm:"size:100;not null;uniqueIndex" json:"name"`
	AudienceId     int            `gorm:"index;not null" json:"audience_id"`
	Audience       *Audience      `json:"audience"`
	Subject        string         `gorm:"size:255;not null" json:"subject"`
	Preheader      string         `gorm:"size:255" json:"preheader"`
	BodyHtml       string         `gorm:"type:mediumtext" json:"body_html"`
	HeaderImageUrl string         `gorm:"size:500" json:"header_image_url"`
	Status         CampaignStatus `gorm:"type:enum('draft','scheduled','sending','sent');not null;default:'draft';index" json:"status"`
	ScheduledAt    *time.Time     `json:"scheduled_at"`
	SentAt         *time.Time     `json:"sent_at"`
	RecipientCount int            `gorm:"default:0" json:"recipient_count"`
	DeliveredCount int            `gorm:"default:0" json:"delivered_count"`
	BouncedCount   int            `gorm:"default:0" json:"bounced_count"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Outbox rows not yet published, surfaced while a send is in flight.
	PendingDispatch *int64 `gorm:"-" json:"pending_dispatch,omitempty"`
}

type CampaignSend struct {
	ID           int                `gorm:"primary_key" json:"id"`
	CampaignId   int                `gorm:"index;not null" json:"campaign_id"`
	CustomerId   int                `gorm:"index;not null" json:"customer_id"`
	Email        string             `gorm:"size:100;not null" json:"email"`
	Status       CampaignSendStatus `gorm:"type:enum('queued','dispatched','delivered','bounced');not null;default:'queued';index" json:"status"`
	DispatchedAt *time.Time         `json:"dispatched_at"`
	ResolvedAt   *time.Time         `json:"resolved_at"`
	ErrorMessage *string            `gorm:"size:500" json:"error_message"`
	CreatedAt    time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"-" json:"customer,omitempty"`
}

type NewEmailCampaign struct {
	Name           string        `json:"name" binding:"required"`
	AudienceId     int           `json:"audience_id" binding:"required"`
	Subject        string        `json:"subject" binding:"required"`
	Preheader      string        `json:"preheader"`
	BodyHtml       string        `json:"body_html" binding:"required"`
	HeaderImageUrl string        `json:"header_image_url" binding:"omitempty,url"`
	ScheduledAt    *MyDateString `json:"scheduled_at"`
}

type EmailCampaignsEdge Edge[EmailCampaign]
type EmailCampaignsConnection struct {
	Edges    []*EmailCampaignsEdge `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

func (c EmailCampaign) GetCursor() string {
	return c.CreatedAt.String()
}

func (c EmailCampaign) GetId() int {
	return c.ID
}

func (input *NewEmailCampaign) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[EmailCampaign](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[EmailCampaign](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return utils.ValidateResourceId[Audience](ctx, input.AudienceId)
}

func CreateEmailCampaign(ctx context.Context, input *NewEmailCampaign) (*EmailCampaign, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	campaign := EmailCampaign{
		Name:           input.Name,
		AudienceId:     input.AudienceId,
		Subject:        input.Subject,
		Preheader:      input.Preheader,
		BodyHtml:       input.BodyHtml,
		HeaderImageUrl: input.HeaderImageUrl,
		Status:         CampaignStatusDraft,
	}
	if input.ScheduledAt != nil {
		t := time.Time(*input.ScheduledAt)
		campaign.ScheduledAt = &t
		campaign.Status = CampaignStatusScheduled
	}

	if err := config.GetDB().WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func UpdateEmailCampaign(ctx context.Context, id int, input *NewEmailCampaign) (*EmailCampaign, error) {
	campaign, err := utils.FetchModel[EmailCampaign](ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != CampaignStatusDraft && campaign.Status != CampaignStatusScheduled {
		return nil, utils.NewAppError("IMMUTABLE", "campaign has already been sent")
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":           input.Name,
		"AudienceId":     input.AudienceId,
		"Subject":        input.Subject,
		"Preheader":      input.Preheader,
		"BodyHtml":       input.BodyHtml,
		"HeaderImageUrl": input.HeaderImageUrl,
	}
	if input.ScheduledAt != nil {
		t := time.Time(*input.ScheduledAt)
		updates["ScheduledAt"] = &t
		updates["Status"] = CampaignStatusScheduled
	} else {
		updates["ScheduledAt"] = nil
		updates["Status"] = CampaignStatusDraft
	}

	if err := config.GetDB().WithContext(ctx).Model(campaign).Updates(updates).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

func DeleteEmailCampaign(ctx context.Context, id int) error {
	campaign, err := utils.FetchModel[EmailCampaign](ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status == CampaignStatusSending || campaign.Status == CampaignStatusSent {
		return utils.NewAppError("IMMUTABLE", "campaign has already been sent")
	}
	return config.GetDB().WithContext(ctx).Delete(campaign).Error
}

func GetEmailCampaign(ctx context.Context, id int) (*EmailCampaign, error) {
	return utils.FetchModel[EmailCampaign](ctx, id, "Audience")
}

func PaginateEmailCampaign(ctx context.Context, limit *int, after *string,
	name *string, status *CampaignStatus) (*EmailCampaignsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&EmailCampaign{})
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[EmailCampaign](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var connection EmailCampaignsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		campaignEdge := EmailCampaignsEdge(edge)
		connection.Edges = append(connection.Edges, &campaignEdge)
	}

	return &connection, err
}

// SendCampaign expands the campaign's audience into CampaignSend rows and a
// matching outbox record per recipient, all in one transaction, then moves
// the campaign to sending. Only marketing-consented customers with an email
// address are included. A redis lock keeps two admins from double-sending.
func SendCampaign(ctx context.Context, id int) (*EmailCampaign, error) {
	release, err := utils.ObtainLock(ctx, "campaign-send", fmt.Sprint(id), "EmailCampaign", "SendCampaign")
	if err != nil {
		return nil, err
	}
	defer release()

	campaign, err := utils.FetchModel[EmailCampaign](ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != CampaignStatusDraft && campaign.Status != CampaignStatusScheduled {
		return nil, utils.NewAppError("INVALID_STATE", "campaign is "+string(campaign.Status))
	}

	audience, err := utils.FetchModel[Audience](ctx, campaign.AudienceId)
	if err != nil {
		return nil, err
	}
	filter, err := audience.ParsedFilters()
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var recipients []*Customer
	dbCtx := db.WithContext(ctx).Model(&Customer{}).
		Select("id, email").
		Where("email <> ''").
		Where("accepts_marketing = ?", true)
	if err := applyAudienceFilter(dbCtx, filter).Find(&recipients).Error; err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, utils.NewAppError("EMPTY_AUDIENCE", "audience matches no contactable customers")
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sends := make([]*CampaignSend, 0, len(recipients))
		for _, r := range recipients {
			sends = append(sends, &CampaignSend{
				CampaignId: campaign.ID,
				CustomerId: r.ID,
				Email:      r.Email,
				Status:     CampaignSendStatusQueued,
			})
		}
		if err := tx.CreateInBatches(sends, sendBatchSize).Error; err != nil {
			return err
		}

		outbox := make([]*EmailOutboxRecord, 0, len(sends))
		for _, s := range sends {
			outbox = append(outbox, &EmailOutboxRecord{
				CampaignId:    campaign.ID,
				SendId:        s.ID,
				Email:         s.Email,
				Subject:       campaign.Subject,
				Preheader:     campaign.Preheader,
				BodyHtml:      campaign.BodyHtml,
				CorrelationId: correlationId,
				PublishStatus: OutboxPublishStatusPending,
			})
		}
		if err := tx.CreateInBatches(outbox, sendBatchSize).Error; err != nil {
			return err
		}

		return tx.Model(campaign).Updates(map[string]interface{}{
			"Status":         CampaignStatusSending,
			"RecipientCount": len(sends),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	prometheus.CampaignSendsQueuedCounter.
		WithLabelValues(fmt.Sprint(campaign.ID)).
		Add(float64(len(recipients)))

	InvalidateDashboardCache()
	return campaign, nil
}

// MarkSendDispatched flips a queued send to dispatched. Used by the direct
// processor when Pub/Sub is not configured.
func MarkSendDispatched(ctx context.Context, sendId int) error {
	now := time.Now().UTC()
	return config.GetDB().WithContext(ctx).Model(&CampaignSend{}).
		Where("id = ? AND status = ?", sendId, CampaignSendStatusQueued).
		Updates(map[string]interface{}{
			"Status":       CampaignSendStatusDispatched,
			"DispatchedAt": &now,
		}).Error
}

// ApplyDeliveryStatus records a delivered/bounced event for one send, bumps
// the campaign counters and flips the campaign to sent once every send is
// terminal.
func ApplyDeliveryStatus(ctx context.Context, sendId int, status CampaignSendStatus, errorMessage *string) error {
	if !status.IsTerminal() {
		return utils.NewAppError("INVALID_STATUS", "delivery status must be delivered or bounced")
	}

	send, err := utils.FetchModel[CampaignSend](ctx, sendId)
	if err != nil {
		return err
	}
	if send.Status.IsTerminal() {
		// duplicate webhook delivery, already counted
		return nil
	}

	now := time.Now().UTC()
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize the flip decision: two terminal webhooks for the last
		// two sends must not both count the other as still pending.
		var campaign EmailCampaign
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&campaign, send.CampaignId).Error
		if err != nil {
			return err
		}

		result := tx.Model(&CampaignSend{}).
			Where("id = ? AND status IN ?", sendId,
				[]CampaignSendStatus{CampaignSendStatusQueued, CampaignSendStatusDispatched}).
			Updates(map[string]interface{}{
				"Status":       status,
				"ResolvedAt":   &now,
				"ErrorMessage": errorMessage,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		counterColumn := "delivered_count"
		if status == CampaignSendStatusBounced {
			counterColumn = "bounced_count"
		}
		err = tx.Model(&EmailCampaign{}).
			Where("id = ?", send.CampaignId).
			Update(counterColumn, gorm.Expr(counterColumn+" + 1")).Error
		if err != nil {
			return err
		}

		// Locking read so the count sees rows committed after this
		// transaction's snapshot was taken (it may have waited on the
		// campaign lock above).
		var remaining int64
		err = tx.Model(&CampaignSend{}).
			Where("campaign_id = ?", send.CampaignId).
			Where("status IN ?", []CampaignSendStatus{CampaignSendStatusQueued, CampaignSendStatusDispatched}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Count(&remaining).Error
		if err != nil {
			return err
		}
		if remaining == 0 {
			err = tx.Model(&EmailCampaign{}).
				Where("id = ? AND status = ?", send.CampaignId, CampaignStatusSending).
				Updates(map[string]interface{}{
					"Status": CampaignStatusSent,
					"SentAt": &now,
				}).Error
			if err != nil {
				return err
			}
			InvalidateDashboardCache()
		}
		return nil
	})
}

// PaginateCampaignSend lists the per-recipient delivery records of one
// campaign.
func PaginateCampaignSend(ctx context.Context, campaignId int, limit *int, after *string,
	status *CampaignSendStatus) (*CampaignSendsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&CampaignSend{}).
		Where("campaign_id = ?", campaignId)
	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[CampaignSend](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var connection CampaignSendsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		sendEdge := CampaignSendsEdge(edge)
		connection.Edges = append(connection.Edges, &sendEdge)
	}

	return &connection, err
}

type CampaignSendsEdge Edge[CampaignSend]
type CampaignSendsConnection struct {
	Edges    []*CampaignSendsEdge `json:"edges"`
	PageInfo *PageInfo            `json:"pageInfo"`
}

func (s CampaignSend) GetCursor() string {
	return s.CreatedAt.String()
}

func (s CampaignSend) GetId() int {
	return s.ID
}
