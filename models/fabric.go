package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

type Fabric struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	Unit          string          `gorm:"size:20;not null;default:'m'" json:"unit"`
	LeadTimeDays  int             `gorm:"not null;default:14" json:"lead_time_days"`
	MinOrderQty   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_order_qty"`
	CostPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`
	Supplier      string          `gorm:"size:100" json:"supplier"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	FabricColours []*FabricColour `json:"fabric_colours"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type FabricColour struct {
	ID             int             `gorm:"primary_key" json:"id"`
	FabricId       int             `gorm:"index;not null" json:"fabric_id"`
	ColourName     string          `gorm:"size:50;not null" json:"colour_name"`
	Code           string          `gorm:"size:30;not null;uniqueIndex" json:"code"`
	CostPerUnit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	// zero means inherit from the parent fabric
	LeadTimeDays int             `gorm:"default:0" json:"lead_time_days"`
	MinOrderQty  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_order_qty"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Fabric *Fabric `gorm:"-" json:"fabric,omitempty"`
}

type NewFabric struct {
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit"`
	LeadTimeDays int             `json:"lead_time_days"`
	MinOrderQty  decimal.Decimal `json:"min_order_qty"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	Supplier     string          `json:"supplier"`
}

type NewFabricColour struct {
	FabricId     int             `json:"fabric_id" binding:"required"`
	ColourName   string          `json:"colour_name" binding:"required"`
	Code         string          `json:"code" binding:"required"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	LeadTimeDays int             `json:"lead_time_days"`
	MinOrderQty  decimal.Decimal `json:"min_order_qty"`
}

func (f Fabric) GetCursor() string { return f.CreatedAt.String() }
func (f Fabric) GetId() int        { return f.ID }

func (fc FabricColour) GetCursor() string { return fc.CreatedAt.String() }
func (fc FabricColour) GetId() int        { return fc.ID }

type FabricsEdge Edge[Fabric]
type FabricsConnection struct {
	Edges    []*FabricsEdge `json:"edges"`
	PageInfo *PageInfo      `json:"pageInfo"`
}

type FabricColoursEdge Edge[FabricColour]
type FabricColoursConnection struct {
	Edges    []*FabricColoursEdge `json:"edges"`
	PageInfo *PageInfo            `json:"pageInfo"`
}

// EffectiveLeadTimeDays resolves the colour override against the parent fabric.
func (fc *FabricColour) EffectiveLeadTimeDays(fabric *Fabric) int {
	if fc.LeadTimeDays > 0 {
		return fc.LeadTimeDays
	}
	return fabric.LeadTimeDays
}

// EffectiveMinOrderQty resolves the colour override against the parent fabric.
func (fc *FabricColour) EffectiveMinOrderQty(fabric *Fabric) decimal.Decimal {
	if fc.MinOrderQty.IsPositive() {
		return fc.MinOrderQty
	}
	return fabric.MinOrderQty
}

func (input *NewFabric) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Fabric](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Fabric](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.MinOrderQty.IsNegative() {
		return utils.NewAppError("INVALID_QTY", "min order qty cannot be negative")
	}
	if input.Unit == "" {
		input.Unit = "m"
	}
	return nil
}

func CreateFabric(ctx context.Context, input *NewFabric) (*Fabric, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	fabric := Fabric{
		Name:         input.Name,
		Unit:         input.Unit,
		LeadTimeDays: input.LeadTimeDays,
		MinOrderQty:  input.MinOrderQty,
		CostPerUnit:  input.CostPerUnit,
		Supplier:     input.Supplier,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&fabric).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func UpdateFabric(ctx context.Context, id int, input *NewFabric) (*Fabric, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	fabric, err := utils.FetchModel[Fabric](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(fabric).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Unit":         input.Unit,
		"LeadTimeDays": input.LeadTimeDays,
		"MinOrderQty":  input.MinOrderQty,
		"CostPerUnit":  input.CostPerUnit,
		"Supplier":     input.Supplier,
	}).Error
	if err != nil {
		return nil, err
	}
	return fabric, nil
}

func DeleteFabric(ctx context.Context, id int) (*Fabric, error) {
	fabric, err := utils.FetchModel[Fabric](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[FabricColour](ctx, "fabric_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewAppError("IN_USE", "fabric has colours and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(fabric).Error; err != nil {
		return nil, err
	}
	return fabric, nil
}

func GetFabric(ctx context.Context, id int) (*Fabric, error) {
	return utils.FetchModel[Fabric](ctx, id, "FabricColours")
}

func PaginateFabric(ctx context.Context, limit *int, after *string,
	name *string) (*FabricsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Fabric{})
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Fabric](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var conn FabricsConnection
	conn.PageInfo = pageInfo
	for _, edge := range edges {
		fabricEdge := FabricsEdge(edge)
		conn.Edges = append(conn.Edges, &fabricEdge)
	}
	return &conn, nil
}

func (input *NewFabricColour) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[FabricColour](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Fabric](ctx, input.FabricId); err != nil {
		return utils.NewAppError("NOT_FOUND", "fabric not found")
	}
	if err := utils.ValidateUnique[FabricColour](ctx, "code", input.Code, id); err != nil {
		return err
	}
	if input.MinOrderQty.IsNegative() {
		return utils.NewAppError("INVALID_QTY", "min order qty cannot be negative")
	}
	return nil
}

func CreateFabricColour(ctx context.Context, input *NewFabricColour) (*FabricColour, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	colour := FabricColour{
		FabricId:     input.FabricId,
		ColourName:   input.ColourName,
		Code:         input.Code,
		CostPerUnit:  input.CostPerUnit,
		LeadTimeDays: input.LeadTimeDays,
		MinOrderQty:  input.MinOrderQty,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&colour).Error; err != nil {
		return nil, err
	}
	return &colour, nil
}

func UpdateFabricColour(ctx context.Context, id int, input *NewFabricColour) (*FabricColour, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	colour, err := utils.FetchModel[FabricColour](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(colour).Updates(map[string]interface{}{
		"FabricId":     input.FabricId,
		"ColourName":   input.ColourName,
		"Code":         input.Code,
		"CostPerUnit":  input.CostPerUnit,
		"LeadTimeDays": input.LeadTimeDays,
		"MinOrderQty":  input.MinOrderQty,
	}).Error
	if err != nil {
		return nil, err
	}

	_ = utils.ClearRedisCache[FabricColour](id)

	return colour, nil
}

func DeleteFabricColour(ctx context.Context, id int) (*FabricColour, error) {
	colour, err := utils.FetchModel[FabricColour](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[FabricColourTransaction](ctx, "fabric_colour_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewAppError("IN_USE", "fabric colour has transactions and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(colour).Error; err != nil {
		return nil, err
	}

	_ = utils.ClearRedisCache[FabricColour](id)

	return colour, nil
}

func GetFabricColour(ctx context.Context, id int) (*FabricColour, error) {
	colour, err := utils.RetrieveRedis[FabricColour](id)
	if err != nil {
		return nil, err
	}

	if colour == nil {
		colour, err = utils.FetchModel[FabricColour](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[FabricColour](colour, id); err != nil {
			return nil, err
		}
	}

	return colour, nil
}

func PaginateFabricColour(ctx context.Context, limit *int, after *string,
	fabricId *int, colourName *string, code *string) (*FabricColoursConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FabricColour{})
	if fabricId != nil && *fabricId > 0 {
		dbCtx.Where("fabric_id = ?", *fabricId)
	}
	if colourName != nil && *colourName != "" {
		dbCtx.Where("colour_name LIKE ?", "%"+*colourName+"%")
	}
	if code != nil && *code != "" {
		dbCtx.Where("code LIKE ?", "%"+*code+"%")
	}

	edges, pageInfo, err := FetchPageCompositeCursor[FabricColour](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var conn FabricColoursConnection
	conn.PageInfo = pageInfo
	for _, edge := range edges {
		colourEdge := FabricColoursEdge(edge)
		conn.Edges = append(conn.Edges, &colourEdge)
	}
	return &conn, nil
}
