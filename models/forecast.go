package models

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/prometheus"
)

const (
	DefaultForecastWeeks   = 8
	defaultWastagePercent  = 5.0
	forecastTopProducts    = 10
	forecastMinWeeks       = 30
	forecastCacheKeyPrefix = "forecast:report"
	forecastCacheTTL       = time.Hour
)

// weekStartExpr truncates a datetime to the Monday of its week.
const weekStartExpr = "DATE_SUB(DATE(order_date), INTERVAL WEEKDAY(order_date) DAY)"

type ForecastPoint struct {
	Week     string  `json:"week"`
	Forecast float64 `json:"forecast"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
}

type SeasonalityEntry struct {
	Month string  `json:"month"`
	Index float64 `json:"index"`
}

type ForecastDateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ForecastOverall struct {
	TotalOrders      int                `json:"totalOrders"`
	WeeksOfData      int                `json:"weeksOfData"`
	DateRange        ForecastDateRange  `json:"dateRange"`
	Recent12wAvg     float64            `json:"recent12wAvg"`
	Prev12wAvg       float64            `json:"prev12wAvg"`
	RecentAov        float64            `json:"recentAov"`
	PrevAov          float64            `json:"prevAov"`
	YoySamePeriodAvg *float64           `json:"yoySameperiodAvg,omitempty"`
	Seasonality      []SeasonalityEntry `json:"seasonality"`
}

type WeeklyHistoryEntry struct {
	Week    string  `json:"week"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
	Aov     float64 `json:"aov"`
}

type SizeBreakdownEntry struct {
	Size  string  `json:"size"`
	Pct   float64 `json:"pct"`
	Units float64 `json:"units"`
}

type ColourBreakdownEntry struct {
	Colour string  `json:"colour"`
	Pct    float64 `json:"pct"`
	Units  float64 `json:"units"`
}

type ProductHistoryEntry struct {
	Week  string `json:"week"`
	Units int    `json:"units"`
}

type ProductForecast struct {
	Name            string                 `json:"name"`
	Last12moUnits   int                    `json:"last12moUnits"`
	Recent8wAvg     float64                `json:"recent8wAvg"`
	ForecastTotal   float64                `json:"forecastTotal"`
	Forecasts       []ForecastPoint        `json:"forecasts"`
	SizeBreakdown   []SizeBreakdownEntry   `json:"sizeBreakdown"`
	ColourBreakdown []ColourBreakdownEntry `json:"colourBreakdown"`
	History         []ProductHistoryEntry  `json:"history"`
}

type FabricColourRequirement struct {
	Code        string  `json:"code"`
	Colour      string  `json:"colour"`
	Required    float64 `json:"required"`
	InStock     float64 `json:"inStock"`
	Gap         float64 `json:"gap"`
	CostPerUnit float64 `json:"costPerUnit"`
	OrderCost   float64 `json:"orderCost"`
}

type FabricRequirement struct {
	Name     string                    `json:"name"`
	Unit     string                    `json:"unit"`
	TotalQty float64                   `json:"totalQty"`
	Colours  []FabricColourRequirement `json:"colours"`
}

type PurchaseSuggestion struct {
	Code        string  `json:"code"`
	Fabric      string  `json:"fabric"`
	Colour      string  `json:"colour"`
	Unit        string  `json:"unit"`
	Required    float64 `json:"required"`
	InStock     float64 `json:"inStock"`
	ToOrder     float64 `json:"toOrder"`
	CostPerUnit float64 `json:"costPerUnit"`
	EstCost     float64 `json:"estCost"`
}

type ForecastSummary struct {
	TotalForecastUnits    float64 `json:"totalForecastUnits"`
	ProductsForecasted    int     `json:"productsForecasted"`
	FabricTypesNeeded     int     `json:"fabricTypesNeeded"`
	FabricColoursNeeded   int     `json:"fabricColoursNeeded"`
	ShortfallCount        int     `json:"shortfallCount"`
	CoveredByStock        int     `json:"coveredByStock"`
	EstimatedPurchaseCost float64 `json:"estimatedPurchaseCost"`
}

type ForecastReport struct {
	GeneratedAt        time.Time             `json:"generatedAt"`
	ForecastWeeks      int                   `json:"forecastWeeks"`
	WastagePercent     float64               `json:"wastagePercent"`
	Overall            ForecastOverall       `json:"overall"`
	WeeklyHistory      []WeeklyHistoryEntry  `json:"weeklyHistory"`
	OverallForecast    []ForecastPoint       `json:"overallForecast"`
	RevenueForecast    []ForecastPoint       `json:"revenueForecast"`
	Products           []*ProductForecast    `json:"products"`
	FabricRequirements []*FabricRequirement  `json:"fabricRequirements"`
	PurchaseOrders     []*PurchaseSuggestion `json:"purchaseOrders"`
	Summary            ForecastSummary       `json:"summary"`
}

// weeklyPoint is one observed week of a series, ordered ascending.
type weeklyPoint struct {
	Week  time.Time
	Value float64
}

type weeklyTotalRow struct {
	Week    time.Time
	Orders  int
	Revenue float64
	Aov     float64
}

// ForecastSeries projects a weekly series forward. The model is a trailing
// 8-week base level plus a linear trend taken from the recent-12 vs prior-12
// week averages, scaled by the month's seasonal index. The band is a flat
// +/-20% of each point, the same band the heavier models degrade to when
// history is short.
func ForecastSeries(points []weeklyPoint, steps int, seasonal map[time.Month]float64) []ForecastPoint {
	if len(points) == 0 || steps <= 0 {
		return nil
	}

	base := trailingAverage(points, 8)
	trend := weeklyTrend(points)
	last := points[len(points)-1].Week

	forecasts := make([]ForecastPoint, 0, steps)
	for i := 1; i <= steps; i++ {
		week := last.AddDate(0, 0, 7*i)
		value := base + trend*float64(i)
		if idx, ok := seasonal[week.Month()]; ok && idx > 0 {
			value *= idx
		}
		if value < 0 {
			value = 0
		}
		forecasts = append(forecasts, ForecastPoint{
			Week:     week.Format("2006-01-02"),
			Forecast: round1(value),
			Low:      round1(math.Max(0, value*0.8)),
			High:     round1(value * 1.2),
		})
	}
	return forecasts
}

func trailingAverage(points []weeklyPoint, n int) float64 {
	if len(points) == 0 {
		return 0
	}
	start := len(points) - n
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, p := range points[start:] {
		sum += p.Value
	}
	return sum / float64(len(points)-start)
}

// weeklyTrend is the per-week slope between the prior-12 and recent-12 week
// averages. Too little history means no trend.
func weeklyTrend(points []weeklyPoint) float64 {
	if len(points) < 24 {
		return 0
	}
	recent := 0.0
	for _, p := range points[len(points)-12:] {
		recent += p.Value
	}
	prev := 0.0
	for _, p := range points[len(points)-24 : len(points)-12] {
		prev += p.Value
	}
	return (recent/12 - prev/12) / 12
}

// SeasonalIndices maps each month to its average weekly value relative to
// the all-month average (1.0 = typical month).
func SeasonalIndices(points []weeklyPoint) map[time.Month]float64 {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, p := range points {
		sums[p.Week.Month()] += p.Value
		counts[p.Week.Month()]++
	}
	if len(counts) == 0 {
		return nil
	}

	monthAvgs := make(map[time.Month]float64, len(counts))
	total := 0.0
	for m, sum := range sums {
		avg := sum / float64(counts[m])
		monthAvgs[m] = avg
		total += avg
	}
	overall := total / float64(len(monthAvgs))
	if overall <= 0 {
		return nil
	}

	indices := make(map[time.Month]float64, len(monthAvgs))
	for m, avg := range monthAvgs {
		indices[m] = avg / overall
	}
	return indices
}

type sizeMixRow struct {
	ProductId int
	Size      string
	Units     float64
}

type variationMixRow struct {
	ProductId   int
	VariationId int
	Colour      string
	Units       float64
}

type bomJoinRow struct {
	VariationId    int
	Size           string
	ProductId      int
	FabricName     string
	FabricUnit     string
	FabricColourId int
	FabricColour   string
	Code           string
	CostPerUnit    float64
	QtyPerUnit     float64
	WastagePercent float64
}

type fabricNeed struct {
	Fabric string
	Colour string
	Unit   string
	Qty    float64
	Cost   float64
}

// ComputeFabricNeeds explodes a product's forecast units through its colour
// mix, size mix and bill of materials into fabric-colour quantities. Each
// BOM line applies its own wastage percentage, falling back to the default.
func ComputeFabricNeeds(totalUnits float64, sizeMix []sizeMixRow, variationMix []variationMixRow, bomRows []bomJoinRow) map[string]*fabricNeed {
	varTotal := 0.0
	for _, v := range variationMix {
		varTotal += v.Units
	}
	szTotal := 0.0
	for _, s := range sizeMix {
		szTotal += s.Units
	}
	if varTotal <= 0 || szTotal <= 0 {
		return nil
	}

	// (variation, size) -> bom lines
	bomIndex := make(map[int]map[string][]bomJoinRow)
	for _, b := range bomRows {
		if bomIndex[b.VariationId] == nil {
			bomIndex[b.VariationId] = make(map[string][]bomJoinRow)
		}
		bomIndex[b.VariationId][b.Size] = append(bomIndex[b.VariationId][b.Size], b)
	}

	needs := make(map[string]*fabricNeed)
	for _, v := range variationMix {
		varUnits := totalUnits * v.Units / varTotal
		for _, s := range sizeMix {
			sizeUnits := varUnits * s.Units / szTotal
			for _, b := range bomIndex[v.VariationId][s.Size] {
				wastage := b.WastagePercent
				if wastage <= 0 {
					wastage = defaultWastagePercent
				}
				qty := sizeUnits * b.QtyPerUnit * (1 + wastage/100)
				need, ok := needs[b.Code]
				if !ok {
					need = &fabricNeed{
						Fabric: b.FabricName,
						Colour: b.FabricColour,
						Unit:   b.FabricUnit,
						Cost:   b.CostPerUnit,
					}
					needs[b.Code] = need
				}
				need.Qty += qty
			}
		}
	}
	return needs
}

// GetForecastReport returns the cached report or builds a fresh one.
func GetForecastReport(ctx context.Context, weeks int) (*ForecastReport, error) {
	if weeks <= 0 {
		weeks = DefaultForecastWeeks
	}
	cacheKey := fmt.Sprintf("%s:%d", forecastCacheKeyPrefix, weeks)

	var cached ForecastReport
	if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	report, err := BuildForecastReport(ctx, weeks)
	if err != nil {
		return nil, err
	}
	config.SetRedisObject(cacheKey, report, forecastCacheTTL)
	return report, nil
}

func BuildForecastReport(ctx context.Context, weeks int) (*ForecastReport, error) {
	defer prometheus.TrackDBOperation("forecast_build")(time.Now())

	db := config.GetDB()
	now := time.Now()

	// weekly order totals across the whole history
	var weeklyTotals []weeklyTotalRow
	err := db.WithContext(ctx).Model(&Order{}).
		Select(weekStartExpr + ` AS week,
			COUNT(*) AS orders,
			COALESCE(SUM(total_amount), 0) AS revenue,
			COALESCE(AVG(total_amount), 0) AS aov`).
		Group("week").
		Order("week").
		Scan(&weeklyTotals).Error
	if err != nil {
		return nil, err
	}
	// first and last buckets are partial weeks
	if len(weeklyTotals) > 2 {
		weeklyTotals = weeklyTotals[1 : len(weeklyTotals)-1]
	}
	if len(weeklyTotals) == 0 {
		return nil, fmt.Errorf("no order history to forecast from")
	}

	// weekly units per product across the whole history
	type weeklyProductRow struct {
		Week      time.Time
		ProductId int
		Name      string
		Units     float64
	}
	var weeklyProducts []weeklyProductRow
	err = db.WithContext(ctx).Model(&OrderLine{}).
		Select(`DATE_SUB(DATE(orders.order_date), INTERVAL WEEKDAY(orders.order_date) DAY) AS week,
			products.id AS product_id,
			products.name AS name,
			COALESCE(SUM(order_lines.qty), 0) AS units`).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Joins("JOIN skus ON skus.id = order_lines.sku_id").
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Joins("JOIN products ON products.id = variations.product_id").
		Group("week, products.id, products.name").
		Order("week").
		Scan(&weeklyProducts).Error
	if err != nil {
		return nil, err
	}

	sixMonthsAgo := now.AddDate(0, -6, 0)

	var sizeMix []sizeMixRow
	err = db.WithContext(ctx).Model(&OrderLine{}).
		Select(`products.id AS product_id, skus.size AS size,
			COALESCE(SUM(order_lines.qty), 0) AS units`).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Joins("JOIN skus ON skus.id = order_lines.sku_id").
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Joins("JOIN products ON products.id = variations.product_id").
		Where("orders.order_date >= ?", sixMonthsAgo).
		Group("products.id, skus.size").
		Scan(&sizeMix).Error
	if err != nil {
		return nil, err
	}

	var variationMix []variationMixRow
	err = db.WithContext(ctx).Model(&OrderLine{}).
		Select(`products.id AS product_id, variations.id AS variation_id,
			variations.color_name AS colour,
			COALESCE(SUM(order_lines.qty), 0) AS units`).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Joins("JOIN skus ON skus.id = order_lines.sku_id").
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Joins("JOIN products ON products.id = variations.product_id").
		Where("orders.order_date >= ?", sixMonthsAgo).
		Group("products.id, variations.id, variations.color_name").
		Scan(&variationMix).Error
	if err != nil {
		return nil, err
	}

	var bomRows []bomJoinRow
	err = db.WithContext(ctx).Model(&SkuBomLine{}).
		Select(`variations.id AS variation_id,
			skus.size AS size,
			products.id AS product_id,
			fabrics.name AS fabric_name,
			fabrics.unit AS fabric_unit,
			fabric_colours.id AS fabric_colour_id,
			fabric_colours.colour_name AS fabric_colour,
			fabric_colours.code AS code,
			fabric_colours.cost_per_unit AS cost_per_unit,
			sku_bom_lines.quantity AS qty_per_unit,
			sku_bom_lines.wastage_percent AS wastage_percent`).
		Joins("JOIN skus ON skus.id = sku_bom_lines.sku_id").
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Joins("JOIN variation_bom_lines ON variation_bom_lines.variation_id = variations.id AND variation_bom_lines.role_id = sku_bom_lines.role_id").
		Joins("JOIN fabric_colours ON fabric_colours.id = variation_bom_lines.fabric_colour_id").
		Joins("JOIN fabrics ON fabrics.id = fabric_colours.fabric_id").
		Joins("JOIN products ON products.id = variations.product_id").
		Where("sku_bom_lines.quantity > 0").
		Scan(&bomRows).Error
	if err != nil {
		return nil, err
	}

	type stockRow struct {
		Code           string
		CurrentBalance float64
	}
	var stockRows []stockRow
	err = db.WithContext(ctx).Model(&FabricColour{}).
		Select("code, current_balance").
		Scan(&stockRows).Error
	if err != nil {
		return nil, err
	}
	stockByCode := make(map[string]float64, len(stockRows))
	for _, s := range stockRows {
		stockByCode[s.Code] = s.CurrentBalance
	}

	// overall stats
	overall := ForecastOverall{
		WeeksOfData: len(weeklyTotals),
		DateRange: ForecastDateRange{
			From: weeklyTotals[0].Week.Format("2006-01-02"),
			To:   weeklyTotals[len(weeklyTotals)-1].Week.Format("2006-01-02"),
		},
	}
	orderPoints := make([]weeklyPoint, 0, len(weeklyTotals))
	for _, w := range weeklyTotals {
		overall.TotalOrders += w.Orders
		orderPoints = append(orderPoints, weeklyPoint{Week: w.Week, Value: float64(w.Orders)})
	}
	overall.Recent12wAvg = round1(trailingAverage(orderPoints, 12))
	if len(weeklyTotals) >= 24 {
		prev := orderPoints[len(orderPoints)-24 : len(orderPoints)-12]
		overall.Prev12wAvg = round1(trailingAverage(prev, 12))
	}
	overall.RecentAov = trailingAovAverage(weeklyTotals, 12, 0)
	overall.PrevAov = trailingAovAverage(weeklyTotals, 12, 12)
	if len(weeklyTotals) > 56 {
		yoy := orderPoints[len(orderPoints)-56 : len(orderPoints)-48]
		v := round1(trailingAverage(yoy, len(yoy)))
		overall.YoySamePeriodAvg = &v
	}

	seasonal := SeasonalIndices(orderPoints)
	monthNames := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for m := time.January; m <= time.December; m++ {
		overall.Seasonality = append(overall.Seasonality, SeasonalityEntry{
			Month: monthNames[m-1],
			Index: math.Round(seasonal[m] * 100),
		})
	}

	// last 52 weeks for the chart
	historyStart := len(weeklyTotals) - 52
	if historyStart < 0 {
		historyStart = 0
	}
	var history []WeeklyHistoryEntry
	for _, w := range weeklyTotals[historyStart:] {
		history = append(history, WeeklyHistoryEntry{
			Week:    w.Week.Format("2006-01-02"),
			Orders:  w.Orders,
			Revenue: math.Round(w.Revenue),
			Aov:     math.Round(w.Aov),
		})
	}

	overallForecast := ForecastSeries(orderPoints, weeks, seasonal)
	recentAov := overall.RecentAov
	revenueForecast := make([]ForecastPoint, 0, len(overallForecast))
	for _, fc := range overallForecast {
		revenueForecast = append(revenueForecast, ForecastPoint{
			Week:     fc.Week,
			Forecast: math.Round(fc.Forecast * recentAov),
			Low:      math.Round(fc.Low * recentAov),
			High:     math.Round(fc.High * recentAov),
		})
	}

	// product-level series
	productSeries := make(map[int][]weeklyPoint)
	productNames := make(map[int]string)
	last12moUnits := make(map[int]float64)
	yearAgo := now.AddDate(-1, 0, 0)
	for _, wp := range weeklyProducts {
		productSeries[wp.ProductId] = append(productSeries[wp.ProductId], weeklyPoint{Week: wp.Week, Value: wp.Units})
		productNames[wp.ProductId] = wp.Name
		if !wp.Week.Before(yearAgo) {
			last12moUnits[wp.ProductId] += wp.Units
		}
	}

	type rankEntry struct {
		ProductId int
		Units     float64
	}
	ranking := make([]rankEntry, 0, len(last12moUnits))
	for id, units := range last12moUnits {
		ranking = append(ranking, rankEntry{ProductId: id, Units: units})
	}
	sort.Slice(ranking, func(i, j int) bool { return ranking[i].Units > ranking[j].Units })
	if len(ranking) > forecastTopProducts {
		ranking = ranking[:forecastTopProducts]
	}

	sizeMixByProduct := make(map[int][]sizeMixRow)
	for _, s := range sizeMix {
		sizeMixByProduct[s.ProductId] = append(sizeMixByProduct[s.ProductId], s)
	}
	variationMixByProduct := make(map[int][]variationMixRow)
	for _, v := range variationMix {
		variationMixByProduct[v.ProductId] = append(variationMixByProduct[v.ProductId], v)
	}
	bomByProduct := make(map[int][]bomJoinRow)
	for _, b := range bomRows {
		bomByProduct[b.ProductId] = append(bomByProduct[b.ProductId], b)
	}

	var products []*ProductForecast
	allNeeds := make(map[string]*fabricNeed)
	forecasted := make(map[int]bool)

	mergeNeeds := func(needs map[string]*fabricNeed) {
		for code, need := range needs {
			if existing, ok := allNeeds[code]; ok {
				existing.Qty += need.Qty
			} else {
				copied := *need
				allNeeds[code] = &copied
			}
		}
	}

	for _, r := range ranking {
		series := productSeries[r.ProductId]
		if len(series) < forecastMinWeeks {
			continue
		}
		forecasted[r.ProductId] = true

		forecasts := ForecastSeries(series, weeks, seasonal)
		totalFc := 0.0
		for _, f := range forecasts {
			totalFc += f.Forecast
		}

		product := ProductForecast{
			Name:          productNames[r.ProductId],
			Last12moUnits: int(r.Units),
			Recent8wAvg:   round1(trailingAverage(series, 8)),
			ForecastTotal: math.Round(totalFc),
			Forecasts:     forecasts,
		}

		szTotal := 0.0
		for _, s := range sizeMixByProduct[r.ProductId] {
			szTotal += s.Units
		}
		if szTotal > 0 {
			for _, size := range SizeOrder {
				for _, s := range sizeMixByProduct[r.ProductId] {
					if s.Size != size {
						continue
					}
					pct := s.Units / szTotal
					product.SizeBreakdown = append(product.SizeBreakdown, SizeBreakdownEntry{
						Size:  size,
						Pct:   round1(pct * 100),
						Units: math.Round(totalFc * pct),
					})
				}
			}
		}

		varRows := append([]variationMixRow(nil), variationMixByProduct[r.ProductId]...)
		sort.Slice(varRows, func(i, j int) bool { return varRows[i].Units > varRows[j].Units })
		varTotal := 0.0
		for _, v := range varRows {
			varTotal += v.Units
		}
		if varTotal > 0 {
			for _, v := range varRows {
				pct := v.Units / varTotal
				product.ColourBreakdown = append(product.ColourBreakdown, ColourBreakdownEntry{
					Colour: v.Colour,
					Pct:    round1(pct * 100),
					Units:  math.Round(totalFc * pct),
				})
			}
		}

		histStart := len(series) - 26
		if histStart < 0 {
			histStart = 0
		}
		for _, p := range series[histStart:] {
			product.History = append(product.History, ProductHistoryEntry{
				Week:  p.Week.Format("2006-01-02"),
				Units: int(p.Value),
			})
		}

		products = append(products, &product)
		mergeNeeds(ComputeFabricNeeds(totalFc, sizeMixByProduct[r.ProductId], variationMixByProduct[r.ProductId], bomByProduct[r.ProductId]))
	}

	// remaining products contribute fabric demand from a plain trailing
	// average projection
	for productId, series := range productSeries {
		if forecasted[productId] || len(bomByProduct[productId]) == 0 {
			continue
		}
		totalFc := trailingAverage(series, 8) * float64(weeks)
		if totalFc < 1 {
			continue
		}
		mergeNeeds(ComputeFabricNeeds(totalFc, sizeMixByProduct[productId], variationMixByProduct[productId], bomByProduct[productId]))
	}

	// group requirements by fabric, compare against stock
	fabricsByName := make(map[string]*FabricRequirement)
	var shortfalls []*PurchaseSuggestion
	covered := 0
	for code, need := range allNeeds {
		req, ok := fabricsByName[need.Fabric]
		if !ok {
			req = &FabricRequirement{Name: need.Fabric, Unit: need.Unit}
			fabricsByName[need.Fabric] = req
		}
		req.TotalQty += need.Qty

		current := stockByCode[code]
		gap := need.Qty - current
		orderCost := 0.0
		if gap > 0 && need.Cost > 0 {
			orderCost = math.Round(gap * need.Cost)
		}
		req.Colours = append(req.Colours, FabricColourRequirement{
			Code:        code,
			Colour:      need.Colour,
			Required:    round1(need.Qty),
			InStock:     round1(current),
			Gap:         round1(gap),
			CostPerUnit: need.Cost,
			OrderCost:   orderCost,
		})

		if gap > 0 {
			shortfalls = append(shortfalls, &PurchaseSuggestion{
				Code:        code,
				Fabric:      need.Fabric,
				Colour:      need.Colour,
				Unit:        need.Unit,
				Required:    round1(need.Qty),
				InStock:     round1(current),
				ToOrder:     round1(gap),
				CostPerUnit: need.Cost,
				EstCost:     orderCost,
			})
		} else {
			covered++
		}
	}

	fabricList := make([]*FabricRequirement, 0, len(fabricsByName))
	for _, req := range fabricsByName {
		req.TotalQty = round1(req.TotalQty)
		sort.Slice(req.Colours, func(i, j int) bool { return req.Colours[i].Required > req.Colours[j].Required })
		fabricList = append(fabricList, req)
	}
	sort.Slice(fabricList, func(i, j int) bool { return fabricList[i].TotalQty > fabricList[j].TotalQty })
	sort.Slice(shortfalls, func(i, j int) bool { return shortfalls[i].Required > shortfalls[j].Required })

	totalUnits := 0.0
	for _, p := range products {
		totalUnits += p.ForecastTotal
	}
	totalOrderCost := 0.0
	for _, s := range shortfalls {
		totalOrderCost += s.EstCost
	}

	report := ForecastReport{
		GeneratedAt:        now,
		ForecastWeeks:      weeks,
		WastagePercent:     defaultWastagePercent,
		Overall:            overall,
		WeeklyHistory:      history,
		OverallForecast:    overallForecast,
		RevenueForecast:    revenueForecast,
		Products:           products,
		FabricRequirements: fabricList,
		PurchaseOrders:     shortfalls,
		Summary: ForecastSummary{
			TotalForecastUnits:    math.Round(totalUnits),
			ProductsForecasted:    len(products),
			FabricTypesNeeded:     len(fabricList),
			FabricColoursNeeded:   len(allNeeds),
			ShortfallCount:        len(shortfalls),
			CoveredByStock:        covered,
			EstimatedPurchaseCost: totalOrderCost,
		},
	}
	return &report, nil
}

func trailingAovAverage(rows []weeklyTotalRow, n, offset int) float64 {
	end := len(rows) - offset
	if end <= 0 {
		return 0
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, r := range rows[start:end] {
		sum += r.Aov
	}
	return math.Round(sum / float64(end-start))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
