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

type FabricColourTransaction struct {
	ID              int                  `gorm:"primary_key" json:"id"`
	FabricColourId  int                  `gorm:"index;not null" json:"fabric_colour_id" binding:"required"`
	Direction       TransactionDirection `gorm:"type:enum('inward','outward');not null" json:"direction" binding:"required"`
	Quantity        decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"quantity" binding:"required"`
	TransactionDate time.Time            `gorm:"index;not null" json:"transaction_date"`
	Reference       string               `gorm:"size:100" json:"reference"`
	Notes           string               `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`

	FabricColour *FabricColour `gorm:"-" json:"fabric_colour,omitempty"`
}

type NewFabricColourTransaction struct {
	FabricColourId  int                  `json:"fabric_colour_id" binding:"required"`
	Direction       TransactionDirection `json:"direction" binding:"required"`
	Quantity        decimal.Decimal      `json:"quantity" binding:"required"`
	TransactionDate *MyDateString        `json:"transaction_date"`
	Reference       string               `json:"reference"`
	Notes           string               `json:"notes"`
}

type FabricColourTransactionsEdge Edge[FabricColourTransaction]
type FabricColourTransactionsConnection struct {
	Edges    []*FabricColourTransactionsEdge `json:"edges"`
	PageInfo *PageInfo                       `json:"pageInfo"`
}

func (t FabricColourTransaction) GetCursor() string { return t.CreatedAt.String() }
func (t FabricColourTransaction) GetId() int        { return t.ID }

// SignedQuantity is +qty for inward, -qty for outward.
func (t *FabricColourTransaction) SignedQuantity() decimal.Decimal {
	if t.Direction == TransactionDirectionOutward {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

func (input *NewFabricColourTransaction) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[FabricColour](ctx, input.FabricColourId); err != nil {
		return utils.NewAppError("NOT_FOUND", "fabric colour not found")
	}
	if !input.Quantity.IsPositive() {
		return utils.NewAppError("INVALID_QTY", "quantity must be positive")
	}
	return nil
}

// CreateFabricColourTransaction appends a ledger row and recomputes the
// colour's current_balance inside the same transaction, so the invariant
// balance == SUM(inward) - SUM(outward) holds after every write.
func CreateFabricColourTransaction(ctx context.Context, input *NewFabricColourTransaction) (*FabricColourTransaction, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	txn := FabricColourTransaction{
		FabricColourId:  input.FabricColourId,
		Direction:       input.Direction,
		Quantity:        input.Quantity,
		TransactionDate: time.Time(*input.TransactionDate.SetDefaultNowIfNil()),
		Reference:       input.Reference,
		Notes:           input.Notes,
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockFabricColour(ctx, tx, input.FabricColourId); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Create(&txn).Error; err != nil {
			return err
		}
		return recomputeFabricColourBalance(ctx, tx, input.FabricColourId)
	})
	if err != nil {
		return nil, err
	}

	InvalidateDashboardCache()
	_ = utils.ClearRedisCache[FabricColour](input.FabricColourId)

	return &txn, nil
}

// DeleteFabricColourTransaction removes a ledger row (correction entry) and
// recomputes the balance.
func DeleteFabricColourTransaction(ctx context.Context, id int) (*FabricColourTransaction, error) {
	txn, err := utils.FetchModel[FabricColourTransaction](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := lockFabricColour(ctx, tx, txn.FabricColourId); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Delete(txn).Error; err != nil {
			return err
		}
		return recomputeFabricColourBalance(ctx, tx, txn.FabricColourId)
	})
	if err != nil {
		return nil, err
	}

	InvalidateDashboardCache()
	_ = utils.ClearRedisCache[FabricColour](txn.FabricColourId)

	return txn, nil
}

// lockFabricColour serializes ledger writes per colour: without the row
// lock two concurrent writes each SUM a snapshot missing the other's row
// and the last UpdateColumn persists the incomplete total. Callers must
// take the lock BEFORE touching ledger rows; a writer that inserts first
// would hold its new row's lock while waiting here, deadlocking against
// a lock holder whose SUM wants that row.
func lockFabricColour(ctx context.Context, tx *gorm.DB, fabricColourId int) error {
	var colour FabricColour
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&colour, fabricColourId).Error
}

func recomputeFabricColourBalance(ctx context.Context, tx *gorm.DB, fabricColourId int) error {
	if err := lockFabricColour(ctx, tx, fabricColourId); err != nil {
		return err
	}

	// Locking read so the sum reads latest committed rows, not this
	// transaction's snapshot.
	var balance decimal.Decimal
	err := tx.WithContext(ctx).Model(&FabricColourTransaction{}).
		Where("fabric_colour_id = ?", fabricColourId).
		Select("COALESCE(SUM(CASE WHEN direction = 'inward' THEN quantity ELSE -quantity END), 0)").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scan(&balance).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&FabricColour{}).
		Where("id = ?", fabricColourId).
		UpdateColumn("current_balance", balance).Error
}

func PaginateFabricColourTransaction(ctx context.Context, limit *int, after *string,
	fabricColourId *int, direction *TransactionDirection,
	fromDate *MyDateString, toDate *MyDateString) (*FabricColourTransactionsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FabricColourTransaction{})
	if fabricColourId != nil && *fabricColourId > 0 {
		dbCtx.Where("fabric_colour_id = ?", *fabricColourId)
	}
	if direction != nil && *direction != "" {
		dbCtx.Where("direction = ?", *direction)
	}
	if fromDate != nil {
		dbCtx.Where("transaction_date >= ?", time.Time(*fromDate))
	}
	if toDate != nil {
		dbCtx.Where("transaction_date <= ?", time.Time(*toDate))
	}

	edges, pageInfo, err := FetchPageCompositeCursor[FabricColourTransaction](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var conn FabricColourTransactionsConnection
	conn.PageInfo = pageInfo
	for _, edge := range edges {
		txnEdge := FabricColourTransactionsEdge(edge)
		conn.Edges = append(conn.Edges, &txnEdge)
	}
	return &conn, nil
}

// RebuildFabricColourBalances recomputes every colour balance from the ledger.
// Used by cmd/stock-rebuild after manual data fixes.
func RebuildFabricColourBalances(ctx context.Context) (int, error) {
	db := config.GetDB()

	var colourIds []int
	if err := db.WithContext(ctx).Model(&FabricColour{}).Pluck("id", &colourIds).Error; err != nil {
		return 0, err
	}

	for _, id := range colourIds {
		err := db.Transaction(func(tx *gorm.DB) error {
			return recomputeFabricColourBalance(ctx, tx, id)
		})
		if err != nil {
			return 0, err
		}
	}

	InvalidateDashboardCache()
	_ = utils.ClearRedisCache[FabricColour](colourIds...)

	return len(colourIds), nil
}
