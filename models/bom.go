package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

// BomRole names a fabric's function within a garment (body, lining, rib...).
// A variation binds each role to a fabric colour; a sku binds each role to a
// per-size consumption quantity.
type BomRole struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name" binding:"required"`
}

type VariationBomLine struct {
	ID             int       `gorm:"primary_key" json:"id"`
	VariationId    int       `gorm:"index:idx_vbl_variation_role,unique;not null" json:"variation_id"`
	RoleId         int       `gorm:"index:idx_vbl_variation_role,unique;not null" json:"role_id"`
	FabricColourId int       `gorm:"index;not null" json:"fabric_colour_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type SkuBomLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SkuId          int             `gorm:"index:idx_sbl_sku_role,unique;not null" json:"sku_id"`
	RoleId         int             `gorm:"index:idx_sbl_sku_role,unique;not null" json:"role_id"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	WastagePercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wastage_percent"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewVariationBomLine struct {
	VariationId    int `json:"variation_id" binding:"required"`
	RoleId         int `json:"role_id" binding:"required"`
	FabricColourId int `json:"fabric_colour_id" binding:"required"`
}

type NewSkuBomLine struct {
	SkuId          int             `json:"sku_id" binding:"required"`
	RoleId         int             `json:"role_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	WastagePercent decimal.Decimal `json:"wastage_percent"`
}

func SetVariationBomLine(ctx context.Context, input *NewVariationBomLine) (*VariationBomLine, error) {
	if err := utils.ValidateResourceId[Variation](ctx, input.VariationId); err != nil {
		return nil, utils.NewAppError("NOT_FOUND", "variation not found")
	}
	if err := utils.ValidateResourceId[BomRole](ctx, input.RoleId); err != nil {
		return nil, utils.NewAppError("NOT_FOUND", "bom role not found")
	}
	if err := utils.ValidateResourceId[FabricColour](ctx, input.FabricColourId); err != nil {
		return nil, utils.NewAppError("NOT_FOUND", "fabric colour not found")
	}

	db := config.GetDB()

	// upsert on (variation, role): rebinding a role swaps the fabric colour
	var line VariationBomLine
	err := db.WithContext(ctx).
		Where("variation_id = ? AND role_id = ?", input.VariationId, input.RoleId).
		First(&line).Error
	if err == nil {
		if err := db.WithContext(ctx).Model(&line).
			UpdateColumn("FabricColourId", input.FabricColourId).Error; err != nil {
			return nil, err
		}
		line.FabricColourId = input.FabricColourId
		return &line, nil
	}

	line = VariationBomLine{
		VariationId:    input.VariationId,
		RoleId:         input.RoleId,
		FabricColourId: input.FabricColourId,
	}
	if err := db.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func SetSkuBomLine(ctx context.Context, input *NewSkuBomLine) (*SkuBomLine, error) {
	if err := utils.ValidateResourceId[Sku](ctx, input.SkuId); err != nil {
		return nil, utils.NewAppError("NOT_FOUND", "sku not found")
	}
	if err := utils.ValidateResourceId[BomRole](ctx, input.RoleId); err != nil {
		return nil, utils.NewAppError("NOT_FOUND", "bom role not found")
	}
	if !input.Quantity.IsPositive() {
		return nil, utils.NewAppError("INVALID_QTY", "bom quantity must be positive")
	}
	if input.WastagePercent.IsNegative() {
		return nil, utils.NewAppError("INVALID_QTY", "wastage percent cannot be negative")
	}

	db := config.GetDB()

	var line SkuBomLine
	err := db.WithContext(ctx).
		Where("sku_id = ? AND role_id = ?", input.SkuId, input.RoleId).
		First(&line).Error
	if err == nil {
		if err := db.WithContext(ctx).Model(&line).Updates(map[string]interface{}{
			"Quantity":       input.Quantity,
			"WastagePercent": input.WastagePercent,
		}).Error; err != nil {
			return nil, err
		}
		line.Quantity = input.Quantity
		line.WastagePercent = input.WastagePercent
		return &line, nil
	}

	line = SkuBomLine{
		SkuId:          input.SkuId,
		RoleId:         input.RoleId,
		Quantity:       input.Quantity,
		WastagePercent: input.WastagePercent,
	}
	if err := db.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func CreateBomRole(ctx context.Context, name string) (*BomRole, error) {
	if err := utils.ValidateUnique[BomRole](ctx, "name", name, 0); err != nil {
		return nil, err
	}
	role := BomRole{Name: name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}

	_ = utils.ClearRedisCache[BomRole]()

	return &role, nil
}

func ListBomRoles(ctx context.Context) ([]*BomRole, error) {
	roles, err := utils.RetrieveRedisList[BomRole]()
	if err != nil {
		return nil, err
	}

	if roles == nil {
		roles, err = utils.FetchAllModels[BomRole](ctx)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[BomRole](roles); err != nil {
			return nil, err
		}
	}

	return roles, nil
}
