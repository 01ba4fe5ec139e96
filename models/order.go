package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int             `gorm:"primary_key" json:"id"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	OrderNumber string          `gorm:"size:50;not null;uniqueIndex" json:"order_number" binding:"required"`
	OrderDate   time.Time       `gorm:"index;not null" json:"order_date"`
	Status      OrderStatus     `gorm:"type:enum('pending','shipped','delivered','rto','cancelled');not null;default:'pending'" json:"status"`
	Channel     string          `gorm:"size:50" json:"channel"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	OrderLines  []*OrderLine    `json:"order_lines"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"-" json:"customer,omitempty"`
}

type OrderLine struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"order_id"`
	SkuId     int             `gorm:"index;not null" json:"sku_id"`
	Qty       int             `gorm:"not null" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

type NewOrder struct {
	CustomerId  int             `json:"customer_id" binding:"required"`
	OrderNumber string          `json:"order_number" binding:"required"`
	OrderDate   *MyDateString   `json:"order_date"`
	Status      OrderStatus     `json:"status"`
	Channel     string          `json:"channel"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderLines  []*NewOrderLine `json:"order_lines"`
}

type NewOrderLine struct {
	SkuId     int             `json:"sku_id" binding:"required"`
	Qty       int             `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrdersEdge Edge[Order]
type OrdersConnection struct {
	Edges    []*OrdersEdge `json:"edges"`
	PageInfo *PageInfo     `json:"pageInfo"`
}

func (o Order) GetCursor() string {
	return o.CreatedAt.String()
}

func (o Order) GetId() int {
	return o.ID
}

func (input *NewOrder) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return utils.NewAppError("NOT_FOUND", "customer not found")
	}
	if err := utils.ValidateUnique[Order](ctx, "order_number", input.OrderNumber, 0); err != nil {
		return err
	}
	skuIds := make([]int, 0, len(input.OrderLines))
	for _, line := range input.OrderLines {
		if line.Qty <= 0 {
			return utils.NewAppError("INVALID_QTY", "order line qty must be positive")
		}
		skuIds = append(skuIds, line.SkuId)
	}
	if len(skuIds) > 0 {
		if err := utils.ValidateResourcesId[Sku](ctx, skuIds); err != nil {
			return utils.NewAppError("NOT_FOUND", "sku not found")
		}
	}
	if input.Status == "" {
		input.Status = OrderStatusPending
	}
	return nil
}

// CreateOrder records an order coming from the shop sync. Line totals and the
// order total are recomputed server-side; the denormalized customer stats are
// refreshed in the same transaction.
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	orderDate := time.Time(*input.OrderDate.SetDefaultNowIfNil())

	lines := make([]*OrderLine, 0, len(input.OrderLines))
	total := decimal.Zero
	for _, l := range input.OrderLines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
		total = total.Add(lineTotal)
		lines = append(lines, &OrderLine{
			SkuId:     l.SkuId,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	if total.IsZero() && !input.TotalAmount.IsZero() {
		total = input.TotalAmount
	}

	order := Order{
		CustomerId:  input.CustomerId,
		OrderNumber: input.OrderNumber,
		OrderDate:   orderDate,
		Status:      input.Status,
		Channel:     input.Channel,
		TotalAmount: total,
		OrderLines:  lines,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RefreshCustomerStats(ctx, order.CustomerId); err != nil {
		return nil, err
	}
	InvalidateDashboardCache()

	return &order, nil
}

// UpdateOrderStatus transitions an order (e.g. shipped -> delivered/rto on
// logistics callbacks) and keeps customer stats in sync.
func UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (*Order, error) {
	order, err := utils.FetchModel[Order](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(order).UpdateColumn("Status", status).Error; err != nil {
		return nil, err
	}

	if err := RefreshCustomerStats(ctx, order.CustomerId); err != nil {
		return nil, err
	}
	InvalidateDashboardCache()

	return order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	return utils.FetchModel[Order](ctx, id, "OrderLines")
}

func PaginateOrder(ctx context.Context, limit *int, after *string,
	customerId *int, status *OrderStatus, orderNumber *string,
	fromDate *MyDateString, toDate *MyDateString) (*OrdersConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Order{})
	if customerId != nil && *customerId > 0 {
		dbCtx.Where("customer_id = ?", *customerId)
	}
	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}
	if orderNumber != nil && *orderNumber != "" {
		dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	if fromDate != nil {
		dbCtx.Where("order_date >= ?", time.Time(*fromDate))
	}
	if toDate != nil {
		dbCtx.Where("order_date <= ?", time.Time(*toDate))
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Order](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var ordersConnection OrdersConnection
	ordersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		orderEdge := OrdersEdge(edge)
		ordersConnection.Edges = append(ordersConnection.Edges, &orderEdge)
	}

	return &ordersConnection, err
}
