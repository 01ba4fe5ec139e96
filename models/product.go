package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

// SizeOrder is the canonical size axis used by size-mix breakdowns.
var SizeOrder = []string{"XS", "S", "M", "L", "XL", "2XL", "3XL"}

type Product struct {
	ID         int          `gorm:"primary_key" json:"id"`
	Name       string       `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	StyleCode  string       `gorm:"size:50" json:"style_code"`
	Category   string       `gorm:"size:50" json:"category"`
	IsActive   *bool        `gorm:"not null;default:true" json:"is_active"`
	Variations []*Variation `json:"variations"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type Variation struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ProductId int       `gorm:"index;not null" json:"product_id"`
	ColorName string    `gorm:"size:50;not null" json:"color_name"`
	Skus      []*Sku    `json:"skus"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Sku struct {
	ID          int             `gorm:"primary_key" json:"id"`
	VariationId int             `gorm:"index;not null" json:"variation_id"`
	SkuCode     string          `gorm:"size:50;not null;uniqueIndex" json:"sku_code"`
	Size        string          `gorm:"size:10;not null" json:"size"`
	SalesPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name       string          `json:"name" binding:"required"`
	StyleCode  string          `json:"style_code"`
	Category   string          `json:"category"`
	Variations []*NewVariation `json:"variations"`
}

type NewVariation struct {
	ColorName string    `json:"color_name" binding:"required"`
	Skus      []*NewSku `json:"skus"`
}

type NewSku struct {
	SkuCode    string          `json:"sku_code" binding:"required"`
	Size       string          `json:"size" binding:"required"`
	SalesPrice decimal.Decimal `json:"sales_price"`
}

func (p Product) GetCursor() string { return p.CreatedAt.String() }
func (p Product) GetId() int        { return p.ID }

type ProductsEdge Edge[Product]
type ProductsConnection struct {
	Edges    []*ProductsEdge `json:"edges"`
	PageInfo *PageInfo       `json:"pageInfo"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	sizes := make(map[string]bool, len(SizeOrder))
	for _, s := range SizeOrder {
		sizes[s] = true
	}
	for _, v := range input.Variations {
		for _, s := range v.Skus {
			if !sizes[s.Size] {
				return utils.NewAppError("INVALID_SIZE", "unknown size "+s.Size)
			}
			if err := utils.ValidateUnique[Sku](ctx, "sku_code", s.SkuCode, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:      input.Name,
		StyleCode: input.StyleCode,
		Category:  input.Category,
		IsActive:  utils.NewTrue(),
	}
	for _, v := range input.Variations {
		variation := Variation{ColorName: v.ColorName}
		for _, s := range v.Skus {
			variation.Skus = append(variation.Skus, &Sku{
				SkuCode:    s.SkuCode,
				Size:       s.Size,
				SalesPrice: s.SalesPrice,
			})
		}
		product.Variations = append(product.Variations, &variation)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id, "Variations", "Variations.Skus")
}

func PaginateProduct(ctx context.Context, limit *int, after *string,
	name *string, category *string) (*ProductsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Product{})
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if category != nil && *category != "" {
		dbCtx.Where("category = ?", *category)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Product](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var conn ProductsConnection
	conn.PageInfo = pageInfo
	for _, edge := range edges {
		productEdge := ProductsEdge(edge)
		conn.Edges = append(conn.Edges, &productEdge)
	}
	return &conn, nil
}
