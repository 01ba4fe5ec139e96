package models

import (
	"context"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/prometheus"
	"github.com/shopspring/decimal"
)

// consumptionWindowDays is the trailing window used to estimate the average
// daily outward quantity.
const consumptionWindowDays = 28

// coverageTargetDays is the stock coverage a suggested order should restore.
const coverageTargetDays = 30

type StockAnalysisRow struct {
	FabricColourId int             `json:"fabric_colour_id"`
	FabricName     string          `json:"fabric_name"`
	ColourName     string          `json:"colour_name"`
	Code           string          `json:"code"`
	Unit           string          `json:"unit"`
	Balance        decimal.Decimal `json:"balance"`
	AvgDailyUsage  decimal.Decimal `json:"avg_daily_usage"`
	DaysOfCover    *int            `json:"days_of_cover"`
	LeadTimeDays   int             `json:"lead_time_days"`
	MinOrderQty    decimal.Decimal `json:"min_order_qty"`
	Status         StockStatus     `json:"status"`
	SuggestedQty   decimal.Decimal `json:"suggested_qty"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	EstOrderCost   decimal.Decimal `json:"est_order_cost"`
}

type StockAnalysisReport struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	Rows           []*StockAnalysisRow `json:"rows"`
	OrderNowCount  int                 `json:"order_now_count"`
	OrderSoonCount int                 `json:"order_soon_count"`
	OkCount        int                 `json:"ok_count"`
}

// ClassifyStock applies the two reorder-point thresholds:
// balance <= avgDaily*(leadTime+7) days of demand means order now,
// balance <= avgDaily*(leadTime+14) means order soon.
// With zero consumption both thresholds collapse to balance <= 0.
func ClassifyStock(balance, avgDaily decimal.Decimal, leadTimeDays int) StockStatus {
	orderNowAt := avgDaily.Mul(decimal.NewFromInt(int64(leadTimeDays + 7)))
	orderSoonAt := avgDaily.Mul(decimal.NewFromInt(int64(leadTimeDays + 14)))

	switch {
	case balance.LessThanOrEqual(orderNowAt):
		return StockStatusOrderNow
	case balance.LessThanOrEqual(orderSoonAt):
		return StockStatusOrderSoon
	default:
		return StockStatusOk
	}
}

// SuggestedOrderQty restores coverageTargetDays of stock on top of what the
// lead time will consume: max(minOrder, ceil(avgDaily*30 - balance +
// avgDaily*leadTime)), never negative.
func SuggestedOrderQty(balance, avgDaily, minOrder decimal.Decimal, leadTimeDays int) decimal.Decimal {
	need := avgDaily.Mul(decimal.NewFromInt(coverageTargetDays)).
		Sub(balance).
		Add(avgDaily.Mul(decimal.NewFromInt(int64(leadTimeDays)))).
		Ceil()

	suggested := need
	if minOrder.GreaterThan(suggested) {
		suggested = minOrder
	}
	if suggested.IsNegative() {
		return decimal.Zero
	}
	return suggested
}

// daysOfCover is balance/avgDaily rounded down; nil when there is no
// consumption to divide by.
func daysOfCover(balance, avgDaily decimal.Decimal) *int {
	if !avgDaily.IsPositive() {
		return nil
	}
	days := int(balance.Div(avgDaily).IntPart())
	return &days
}

// GetStockAnalysis builds the reorder report for every active fabric colour.
func GetStockAnalysis(ctx context.Context) (*StockAnalysisReport, error) {
	defer prometheus.TrackDBOperation("stock_analysis")(time.Now())

	db := config.GetDB()

	type colourRow struct {
		Id                 int
		FabricName         string
		ColourName         string
		Code               string
		Unit               string
		CurrentBalance     decimal.Decimal
		CostPerUnit        decimal.Decimal
		LeadTimeDays       int
		MinOrderQty        decimal.Decimal
		FabricLeadTimeDays int
		FabricMinOrderQty  decimal.Decimal
	}

	var colours []colourRow
	err := db.WithContext(ctx).Model(&FabricColour{}).
		Select(`fabric_colours.id AS id,
			fabrics.name AS fabric_name,
			fabric_colours.colour_name AS colour_name,
			fabric_colours.code AS code,
			fabrics.unit AS unit,
			fabric_colours.current_balance AS current_balance,
			fabric_colours.cost_per_unit AS cost_per_unit,
			fabric_colours.lead_time_days AS lead_time_days,
			fabric_colours.min_order_qty AS min_order_qty,
			fabrics.lead_time_days AS fabric_lead_time_days,
			fabrics.min_order_qty AS fabric_min_order_qty`).
		Joins("JOIN fabrics ON fabrics.id = fabric_colours.fabric_id").
		Where("fabric_colours.is_active = ?", true).
		Order("fabrics.name, fabric_colours.colour_name").
		Scan(&colours).Error
	if err != nil {
		return nil, err
	}

	// trailing outward consumption per colour in one grouped query
	cutoff := time.Now().AddDate(0, 0, -consumptionWindowDays)
	type usageRow struct {
		FabricColourId int
		Outward        decimal.Decimal
	}
	var usages []usageRow
	err = db.WithContext(ctx).Model(&FabricColourTransaction{}).
		Select("fabric_colour_id, COALESCE(SUM(quantity), 0) AS outward").
		Where("direction = ?", TransactionDirectionOutward).
		Where("transaction_date >= ?", cutoff).
		Group("fabric_colour_id").
		Scan(&usages).Error
	if err != nil {
		return nil, err
	}
	outwardByColour := make(map[int]decimal.Decimal, len(usages))
	for _, u := range usages {
		outwardByColour[u.FabricColourId] = u.Outward
	}

	windowDays := decimal.NewFromInt(consumptionWindowDays)
	report := StockAnalysisReport{GeneratedAt: time.Now()}
	for _, c := range colours {
		avgDaily := outwardByColour[c.Id].Div(windowDays)

		colour := FabricColour{LeadTimeDays: c.LeadTimeDays, MinOrderQty: c.MinOrderQty}
		parent := Fabric{LeadTimeDays: c.FabricLeadTimeDays, MinOrderQty: c.FabricMinOrderQty}
		leadTime := colour.EffectiveLeadTimeDays(&parent)
		minOrder := colour.EffectiveMinOrderQty(&parent)

		status := ClassifyStock(c.CurrentBalance, avgDaily, leadTime)
		suggested := SuggestedOrderQty(c.CurrentBalance, avgDaily, minOrder, leadTime)

		row := StockAnalysisRow{
			FabricColourId: c.Id,
			FabricName:     c.FabricName,
			ColourName:     c.ColourName,
			Code:           c.Code,
			Unit:           c.Unit,
			Balance:        c.CurrentBalance,
			AvgDailyUsage:  avgDaily.Round(4),
			DaysOfCover:    daysOfCover(c.CurrentBalance, avgDaily),
			LeadTimeDays:   leadTime,
			MinOrderQty:    minOrder,
			Status:         status,
			SuggestedQty:   suggested,
			CostPerUnit:    c.CostPerUnit,
		}
		if status != StockStatusOk && c.CostPerUnit.IsPositive() {
			row.EstOrderCost = suggested.Mul(c.CostPerUnit).Round(0)
		}

		switch status {
		case StockStatusOrderNow:
			report.OrderNowCount++
		case StockStatusOrderSoon:
			report.OrderSoonCount++
		default:
			report.OkCount++
		}
		report.Rows = append(report.Rows, &row)
	}

	prometheus.UpdateStockStatusCounts(report.OrderNowCount, report.OrderSoonCount, report.OkCount)

	return &report, nil
}
