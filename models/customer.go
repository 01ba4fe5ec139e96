package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Name             string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email            string          `gorm:"size:100;index" json:"email"`
	Phone            string          `gorm:"size:20" json:"phone"`
	State            string          `gorm:"size:50;index" json:"state"`
	City             string          `gorm:"size:50" json:"city"`
	Tier             CustomerTier    `gorm:"type:enum('bronze','silver','gold','vip');not null;default:'bronze'" json:"tier"`
	Tags             string          `gorm:"size:500" json:"tags"`
	Notes            string          `gorm:"type:text" json:"notes"`
	AcceptsMarketing *bool           `gorm:"not null;default:true" json:"accepts_marketing"`
	RtoRisk          *bool           `gorm:"not null;default:false" json:"rto_risk"`
	Ltv              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ltv"`
	OrderCount       int             `gorm:"default:0" json:"order_count"`
	FirstOrderAt     *time.Time      `json:"first_order_at"`
	LastOrderAt      *time.Time      `json:"last_order_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name             string       `json:"name" binding:"required"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	State            string       `json:"state"`
	City             string       `json:"city"`
	Tier             CustomerTier `json:"tier"`
	Tags             string       `json:"tags"`
	Notes            string       `json:"notes"`
	AcceptsMarketing *bool        `json:"accepts_marketing"`
	RtoRisk          *bool        `json:"rto_risk"`
}

type CustomersEdge Edge[Customer]
type CustomersConnection struct {
	Edges    []*CustomersEdge `json:"edges"`
	PageInfo *PageInfo        `json:"pageInfo"`
}

// returns decoded cursor string
func (c Customer) GetCursor() string {
	return c.CreatedAt.String()
}

func (c Customer) GetId() int {
	return c.ID
}

func (input *NewCustomer) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
			return err
		}
	}
	// validate unique email
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return utils.NewAppError("INVALID_EMAIL", "invalid email address")
		}
		if err := utils.ValidateUnique[Customer](ctx, "email", input.Email, id); err != nil {
			return err
		}
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewAppError("INVALID_PHONE", "invalid phone number")
		}
	}
	if input.Tier == "" {
		input.Tier = CustomerTierBronze
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	customer := Customer{
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		State:            input.State,
		City:             input.City,
		Tier:             input.Tier,
		Tags:             input.Tags,
		Notes:            input.Notes,
		AcceptsMarketing: input.AcceptsMarketing,
		RtoRisk:          input.RtoRisk,
	}
	if customer.AcceptsMarketing == nil {
		customer.AcceptsMarketing = utils.NewTrue()
	}
	if customer.RtoRisk == nil {
		customer.RtoRisk = utils.NewFalse()
	}

	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(customer).Updates(map[string]interface{}{
		"Name":             input.Name,
		"Email":            input.Email,
		"Phone":            input.Phone,
		"State":            input.State,
		"City":             input.City,
		"Tier":             input.Tier,
		"Tags":             input.Tags,
		"Notes":            input.Notes,
		"AcceptsMarketing": input.AcceptsMarketing,
		"RtoRisk":          input.RtoRisk,
	}).Error
	if err != nil {
		return nil, err
	}

	return customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	// customers with order history are retained for analytics
	count, err := utils.ResourceCountWhere[Order](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewAppError("IN_USE", "customer has orders and cannot be deleted")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func PaginateCustomer(ctx context.Context, limit *int, after *string,
	name *string, email *string, phone *string, state *string, tier *CustomerTier) (*CustomersConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Customer{})
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if email != nil && *email != "" {
		dbCtx.Where("email LIKE ?", "%"+*email+"%")
	}
	if phone != nil && *phone != "" {
		dbCtx.Where("phone LIKE ?", "%"+*phone+"%")
	}
	if state != nil && *state != "" {
		dbCtx.Where("state = ?", *state)
	}
	if tier != nil && *tier != "" {
		dbCtx.Where("tier = ?", *tier)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[Customer](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	var customersConnection CustomersConnection
	customersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		customerEdge := CustomersEdge(edge)
		customersConnection.Edges = append(customersConnection.Edges, &customerEdge)
	}

	return &customersConnection, err
}

// RefreshCustomerStats recomputes the denormalized LTV/order columns from the
// order history. Called after order mutations.
func RefreshCustomerStats(ctx context.Context, customerId int) error {
	db := config.GetDB()

	type row struct {
		OrderCount int
		Ltv        decimal.Decimal
		FirstOrder *time.Time
		LastOrder  *time.Time
	}
	var r row
	err := db.WithContext(ctx).Model(&Order{}).
		Where("customer_id = ?", customerId).
		Where("status <> ?", OrderStatusCancelled).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS ltv, MIN(order_date) AS first_order, MAX(order_date) AS last_order").
		Scan(&r).Error
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", customerId).
		Updates(map[string]interface{}{
			"OrderCount":   r.OrderCount,
			"Ltv":          r.Ltv,
			"FirstOrderAt": r.FirstOrder,
			"LastOrderAt":  r.LastOrder,
		}).Error
}
