package models

import (
	"context"
	"sync"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dashboardCacheKey = "dashboard:summary"

// dashboardCacheTTL keeps the dashboard at most a minute stale.
const dashboardCacheTTL = 60 * time.Second

type DashboardPeriod struct {
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"order_count"`
	Aov        decimal.Decimal `json:"aov"`
}

type DashboardStatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

type DashboardTopProduct struct {
	ProductId int             `json:"product_id"`
	Name      string          `json:"name"`
	Units     int64           `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`

	Product *Product `json:"product,omitempty"`
}

type Dashboard struct {
	GeneratedAt      time.Time               `json:"generated_at"`
	Current          DashboardPeriod         `json:"current"`
	Previous         DashboardPeriod         `json:"previous"`
	RevenueChangePct *decimal.Decimal        `json:"revenue_change_pct"`
	StatusBreakdown  []*DashboardStatusCount `json:"status_breakdown"`
	TopProducts      []*DashboardTopProduct  `json:"top_products"`
	NewCustomers     int64                   `json:"new_customers"`
	ReturningRatePct decimal.Decimal         `json:"returning_rate_pct"`
	OrderNowCount    int64                   `json:"order_now_count"`
}

// In-process memo so the dashboard survives short redis outages. Guarded by
// the same TTL as the redis entry.
var (
	dashboardMemoMu sync.Mutex
	dashboardMemo   *Dashboard
	dashboardMemoAt time.Time
)

func InvalidateDashboardCache() {
	config.RemoveRedisKey(dashboardCacheKey)
	dashboardMemoMu.Lock()
	dashboardMemo = nil
	dashboardMemoMu.Unlock()
}

// getDashboardMemo copies the memoised dashboard so callers can decorate
// the rows without racing each other.
func getDashboardMemo() *Dashboard {
	dashboardMemoMu.Lock()
	defer dashboardMemoMu.Unlock()
	if dashboardMemo == nil || time.Since(dashboardMemoAt) > dashboardCacheTTL {
		return nil
	}
	cp := *dashboardMemo
	cp.TopProducts = make([]*DashboardTopProduct, len(dashboardMemo.TopProducts))
	for i, tp := range dashboardMemo.TopProducts {
		row := *tp
		cp.TopProducts[i] = &row
	}
	return &cp
}

func setDashboardMemo(d *Dashboard) {
	cp := *d
	cp.TopProducts = make([]*DashboardTopProduct, len(d.TopProducts))
	for i, tp := range d.TopProducts {
		row := *tp
		cp.TopProducts[i] = &row
	}
	dashboardMemoMu.Lock()
	dashboardMemo = &cp
	dashboardMemoAt = time.Now()
	dashboardMemoMu.Unlock()
}

func GetDashboard(ctx context.Context) (*Dashboard, error) {
	var cached Dashboard
	if found, err := config.GetRedisObject(dashboardCacheKey, &cached); err == nil && found {
		prometheus.RecordDashboardCache("hit")
		return &cached, nil
	}
	if memo := getDashboardMemo(); memo != nil {
		prometheus.RecordDashboardCache("hit_memo")
		return memo, nil
	}

	prometheus.RecordDashboardCache("miss")
	dashboard, err := buildDashboard(ctx)
	if err != nil {
		return nil, err
	}

	config.SetRedisObject(dashboardCacheKey, dashboard, dashboardCacheTTL)
	setDashboardMemo(dashboard)
	return dashboard, nil
}

func buildDashboard(ctx context.Context) (*Dashboard, error) {
	defer prometheus.TrackDBOperation("dashboard_build")(time.Now())

	db := config.GetDB()
	now := time.Now()
	currentFrom := now.AddDate(0, 0, -30)
	previousFrom := now.AddDate(0, 0, -60)

	dashboard := Dashboard{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		period, err := aggregateOrderPeriod(gctx, currentFrom, now)
		if err != nil {
			return err
		}
		dashboard.Current = *period
		return nil
	})

	g.Go(func() error {
		period, err := aggregateOrderPeriod(gctx, previousFrom, currentFrom)
		if err != nil {
			return err
		}
		dashboard.Previous = *period
		return nil
	})

	g.Go(func() error {
		return db.WithContext(gctx).Model(&Order{}).
			Select("status, COUNT(*) AS count").
			Where("order_date >= ?", currentFrom).
			Group("status").
			Scan(&dashboard.StatusBreakdown).Error
	})

	g.Go(func() error {
		topFrom := now.AddDate(0, 0, -90)
		return db.WithContext(gctx).Model(&OrderLine{}).
			Select(`products.id AS product_id,
				products.name AS name,
				COALESCE(SUM(order_lines.qty), 0) AS units,
				COALESCE(SUM(order_lines.line_total), 0) AS revenue`).
			Joins("JOIN skus ON skus.id = order_lines.sku_id").
			Joins("JOIN variations ON variations.id = skus.variation_id").
			Joins("JOIN products ON products.id = variations.product_id").
			Joins("JOIN orders ON orders.id = order_lines.order_id").
			Where("orders.order_date >= ?", topFrom).
			Where("orders.status <> ?", OrderStatusCancelled).
			Group("products.id, products.name").
			Order("revenue DESC").
			Limit(5).
			Scan(&dashboard.TopProducts).Error
	})

	g.Go(func() error {
		return db.WithContext(gctx).Model(&Customer{}).
			Where("first_order_at >= ?", currentFrom).
			Count(&dashboard.NewCustomers).Error
	})

	g.Go(func() error {
		var total, returning int64
		dbCtx := db.WithContext(gctx)
		err := dbCtx.Model(&Order{}).
			Where("order_date >= ?", currentFrom).
			Where("status <> ?", OrderStatusCancelled).
			Distinct("customer_id").
			Count(&total).Error
		if err != nil {
			return err
		}
		err = dbCtx.Model(&Order{}).
			Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("orders.order_date >= ?", currentFrom).
			Where("orders.status <> ?", OrderStatusCancelled).
			Where("customers.first_order_at < ?", currentFrom).
			Distinct("orders.customer_id").
			Count(&returning).Error
		if err != nil {
			return err
		}
		if total > 0 {
			dashboard.ReturningRatePct = decimal.NewFromInt(returning).
				Div(decimal.NewFromInt(total)).
				Mul(decimal.NewFromInt(100)).
				Round(1)
		}
		return nil
	})

	g.Go(func() error {
		report, err := GetStockAnalysis(gctx)
		if err != nil {
			return err
		}
		dashboard.OrderNowCount = int64(report.OrderNowCount)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dashboard.Previous.Revenue.IsPositive() {
		change := dashboard.Current.Revenue.Sub(dashboard.Previous.Revenue).
			Div(dashboard.Previous.Revenue).
			Mul(decimal.NewFromInt(100)).
			Round(1)
		dashboard.RevenueChangePct = &change
	}

	return &dashboard, nil
}

func aggregateOrderPeriod(ctx context.Context, from, to time.Time) (*DashboardPeriod, error) {
	var row struct {
		Revenue    decimal.Decimal
		OrderCount int64
	}
	err := config.GetDB().WithContext(ctx).Model(&Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS order_count").
		Where("order_date >= ? AND order_date < ?", from, to).
		Where("status <> ?", OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	period := DashboardPeriod{Revenue: row.Revenue, OrderCount: row.OrderCount}
	if row.OrderCount > 0 {
		period.Aov = row.Revenue.Div(decimal.NewFromInt(row.OrderCount)).Round(2)
	}
	return &period, nil
}
