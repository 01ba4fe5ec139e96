package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FabricColourReconciliation is a stock-count workflow: a draft captures the
// physically counted quantity; submitting snapshots the system balance,
// computes the variance and freezes the record.
type FabricColourReconciliation struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	FabricColourId int                  `gorm:"index;not null" json:"fabric_colour_id" binding:"required"`
	CountedQty     decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"counted_qty"`
	SystemQty      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"system_qty"`
	Variance       decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"variance"`
	Status         ReconciliationStatus `gorm:"type:enum('draft','submitted');not null;default:'draft'" json:"status"`
	Notes          string               `gorm:"type:text" json:"notes"`
	SubmittedAt    *time.Time           `json:"submitted_at"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFabricColourReconciliation struct {
	FabricColourId int             `json:"fabric_colour_id" binding:"required"`
	CountedQty     decimal.Decimal `json:"counted_qty"`
	Notes          string          `json:"notes"`
}

type ReconciliationsEdge Edge[FabricColourReconciliation]
type ReconciliationsConnection struct {
	Edges    []*ReconciliationsEdge `json:"edges"`
	PageInfo *PageInfo              `json:"pageInfo"`
}

func (r FabricColourReconciliation) GetCursor() string { return r.CreatedAt.String() }
func (r FabricColourReconciliation) GetId() int        { return r.ID }

func (input *NewFabricColourReconciliation) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[FabricColour](ctx, input.FabricColourId); err != nil {
		return utils.NewAppError("NOT_FOUND", "fabric colour not found")
	}
	if input.CountedQty.IsNegative() {
		return utils.NewAppError("INVALID_QTY", "counted qty cannot be negative")
	}
	return nil
}

func CreateReconciliation(ctx context.Context, input *NewFabricColourReconciliation) (*FabricColourReconciliation, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	rec := FabricColourReconciliation{
		FabricColourId: input.FabricColourId,
		CountedQty:     input.CountedQty,
		Status:         ReconciliationStatusDraft,
		Notes:          input.Notes,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func UpdateReconciliation(ctx context.Context, id int, input *NewFabricColourReconciliation) (*FabricColourReconciliation, error) {
	rec, err := utils.FetchModel[FabricColourReconciliation](ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != ReconciliationStatusDraft {
		return nil, utils.NewAppError("IMMUTABLE", "submitted reconciliation cannot be edited")
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(rec).Updates(map[string]interface{}{
		"FabricColourId": input.FabricColourId,
		"CountedQty":     input.CountedQty,
		"Notes":          input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func DeleteReconciliation(ctx context.Context, id int) (*FabricColourReconciliation, error) {
	rec, err := utils.FetchModel[FabricColourReconciliation](ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != ReconciliationStatusDraft {
		return nil, utils.NewAppError("IMMUTABLE", "submitted reconciliation cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// SubmitReconciliation snapshots the system balance at submit time and, when
// the count differs, writes an adjusting ledger transaction so the book
// balance matches the physical count.
func SubmitReconciliation(ctx context.Context, id int) (*FabricColourReconciliation, error) {
	rec, err := utils.FetchModel[FabricColourReconciliation](ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != ReconciliationStatusDraft {
		return nil, utils.NewAppError("IMMUTABLE", "reconciliation already submitted")
	}

	now := time.Now()
	var systemQty, variance decimal.Decimal

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		// Snapshot the balance under the colour lock so a ledger write
		// racing the submit cannot slip between snapshot and adjustment.
		var colour FabricColour
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&colour, rec.FabricColourId).Error
		if err != nil {
			return err
		}
		systemQty = colour.CurrentBalance
		variance = rec.CountedQty.Sub(systemQty)

		err = tx.WithContext(ctx).Model(rec).Updates(map[string]interface{}{
			"SystemQty":   systemQty,
			"Variance":    variance,
			"Status":      ReconciliationStatusSubmitted,
			"SubmittedAt": &now,
		}).Error
		if err != nil {
			return err
		}

		if variance.IsZero() {
			return nil
		}

		direction := TransactionDirectionInward
		qty := variance
		if variance.IsNegative() {
			direction = TransactionDirectionOutward
			qty = variance.Neg()
		}
		adj := FabricColourTransaction{
			FabricColourId:  rec.FabricColourId,
			Direction:       direction,
			Quantity:        qty,
			TransactionDate: now,
			Reference:       "reconciliation",
			Notes:           "stock count adjustment",
		}
		if err := tx.WithContext(ctx).Create(&adj).Error; err != nil {
			return err
		}
		return recomputeFabricColourBalance(ctx, tx, rec.FabricColourId)
	})
	if err != nil {
		return nil, err
	}

	InvalidateDashboardCache()
	_ = utils.ClearRedisCache[FabricColour](rec.FabricColourId)

	rec.SystemQty = systemQty
	rec.Variance = variance
	rec.Status = ReconciliationStatusSubmitted
	rec.SubmittedAt = &now

	return rec, nil
}

func GetReconciliation(ctx context.Context, id int) (*FabricColourReconciliation, error) {
	return utils.FetchModel[FabricColourReconciliation](ctx, id)
}

func PaginateReconciliation(ctx context.Context, limit *int, after *string,
	fabricColourId *int, status *ReconciliationStatus) (*ReconciliationsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FabricColourReconciliation{})
	if fabricColourId != nil && *fabricColourId > 0 {
		dbCtx.Where("fabric_colour_id = ?", *fabricColourId)
	}
	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[FabricColourReconciliation](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var conn ReconciliationsConnection
	conn.PageInfo = pageInfo
	for _, edge := range edges {
		recEdge := ReconciliationsEdge(edge)
		conn.Edges = append(conn.Edges, &recEdge)
	}
	return &conn, nil
}
