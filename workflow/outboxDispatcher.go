package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/cohapparel/coherp_backend/prometheus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPublishBackoff = 10 * time.Minute

// publishBackoff doubles the delay per attempt, capped at maxPublishBackoff.
func publishBackoff(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt && backoff < maxPublishBackoff; i++ {
		backoff *= 2
	}
	if backoff > maxPublishBackoff {
		backoff = maxPublishBackoff
	}
	return backoff
}

// OutboxDispatcher drains email outbox rows onto the dispatch topic. Claims
// run under SELECT ... FOR UPDATE SKIP LOCKED so several replicas can share
// one table, and each claimed batch is published with bounded concurrency.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize      int
	PublishWorkers int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PublishWorkers: 8,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()
	for {
		d.drainOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drainOnce claims one batch under row locks, then publishes the batch
// outside the claim transaction so a slow topic never holds DB locks.
func (d *OutboxDispatcher) drainOnce(ctx context.Context) {
	if d.DB == nil {
		return
	}
	now := time.Now().UTC()

	batch, err := d.claimBatch(ctx, now)
	if err != nil {
		if d.Logger != nil {
			d.Logger.WithField("field", "OutboxDispatcher").Error("outbox claim failed: " + err.Error())
		}
		return
	}
	if len(batch) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.PublishWorkers)
	for _, rec := range batch {
		if rec.PublishStatus == models.OutboxPublishStatusDead {
			continue
		}
		rec := rec
		g.Go(func() error {
			msg := models.ConvertToEmailDispatchMessage(rec)
			pubID, pubErr := config.PublishEmailDispatchWithResult(gctx, msg)
			if pubErr != nil {
				d.scheduleRetry(gctx, rec, pubErr)
				return nil
			}
			d.finishSent(gctx, rec, pubID, now)
			return nil
		})
	}
	_ = g.Wait()
}

// claimBatch picks up rows that are PENDING or FAILED and due, plus
// PROCESSING rows whose lock went stale when a previous dispatcher died.
// Poison rows hit MaxAttempts inside the claim and go DEAD without a
// publish attempt.
func (d *OutboxDispatcher) claimBatch(ctx context.Context, now time.Time) ([]models.EmailOutboxRecord, error) {
	staleBefore := now.Add(-d.LockTimeout)
	retryable := []models.OutboxPublishStatus{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}

	var batch []models.EmailOutboxRecord
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where(
				"(publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)) OR (publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?)",
				retryable, now, models.OutboxPublishStatusProcessing, staleBefore,
			).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&batch).Error
		if err != nil {
			return err
		}

		for i := range batch {
			rec := &batch[i]
			if d.MaxAttempts > 0 && rec.PublishAttempts >= d.MaxAttempts {
				reason := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				rec.PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.EmailOutboxRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &reason,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				prometheus.RecordOutboxPublish("dead")
				continue
			}

			rec.PublishStatus = models.OutboxPublishStatusProcessing
			rec.PublishAttempts++
			if err := tx.Model(&models.EmailOutboxRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusProcessing,
				"locked_at":          &now,
				"locked_by":          &d.DispatcherID,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return batch, err
}

func (d *OutboxDispatcher) finishSent(ctx context.Context, rec models.EmailOutboxRecord, pubsubMsgID string, now time.Time) {
	_ = d.DB.WithContext(ctx).Model(&models.EmailOutboxRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &pubsubMsgID,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error

	_ = models.MarkSendDispatched(ctx, rec.SendId)
	prometheus.RecordOutboxPublish("sent")
}

// scheduleRetry doubles the backoff per attempt up to maxPublishBackoff, or
// parks the row as DEAD once attempts are exhausted.
func (d *OutboxDispatcher) scheduleRetry(ctx context.Context, rec models.EmailOutboxRecord, pubErr error) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	reason := pubErr.Error()

	entry := d.Logger
	if entry == nil {
		entry = logrus.StandardLogger()
	}
	log := entry.WithFields(logrus.Fields{
		"field":       "OutboxDispatcher",
		"campaign_id": rec.CampaignId,
		"record_id":   rec.ID,
		"attempt":     rec.PublishAttempts,
	})

	if d.MaxAttempts > 0 && rec.PublishAttempts >= d.MaxAttempts {
		_ = db.Model(&models.EmailOutboxRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &reason,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		prometheus.RecordOutboxPublish("dead")
		log.Error("outbox publish moved to DEAD after max attempts: " + reason)
		return
	}

	next := now.Add(publishBackoff(d.InitialBackoff, rec.PublishAttempts))

	_ = db.Model(&models.EmailOutboxRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &reason,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
	prometheus.RecordOutboxPublish("failed")
	log.WithField("next_attempt_at", next.Format(time.RFC3339Nano)).Error("outbox publish failed: " + reason)
}
