package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	catalogentity "github.com/vastralabs/karkhana/internal/catalog/entity"
	catalogrepo "github.com/vastralabs/karkhana/internal/catalog/repository"
	catalogsvc "github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/forecast/repository"
)

const (
	defaultForecastWeeks = 8
	maxForecastWeeks     = 26

	// weeks of history feeding the trend fit and the mix shares
	trendWindowWeeks = 26
	mixWindowWeeks   = 26

	// a product needs this much weekly history for a trend fit; below it the
	// projection falls back to the recent average
	minTrendWeeks     = 12
	recentWindowWeeks = 8

	topProductCount = 10

	forecastCacheKeyFmt = "forecast:demand:%d"
	forecastCacheTTL    = 10 * time.Minute
)

// Projection methods reported per product
const (
	MethodTrend         = "trend"
	MethodRecentAverage = "recent_average"
)

// ForecastService projects weekly demand from order history and converts it
// into fabric requirements via the resolved BOM.
type ForecastService struct {
	repo        *repository.DemandRepository
	resolver    *catalogsvc.BOMResolver
	productRepo *catalogrepo.ProductRepository
	rdb         *redis.Client
	logger      *zap.Logger
}

// NewForecastService creates a forecast service
func NewForecastService(
	repo *repository.DemandRepository,
	resolver *catalogsvc.BOMResolver,
	productRepo *catalogrepo.ProductRepository,
	rdb *redis.Client,
	logger *zap.Logger,
) *ForecastService {
	return &ForecastService{
		repo:        repo,
		resolver:    resolver,
		productRepo: productRepo,
		rdb:         rdb,
		logger:      logger,
	}
}

// WeekForecast one projected week with a confidence band
type WeekForecast struct {
	Week     string  `json:"week"`
	Forecast float64 `json:"forecast"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
}

// WeekHistory one historical week for charting
type WeekHistory struct {
	Week    string  `json:"week"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// OverallStats order-level demand summary
type OverallStats struct {
	TotalOrders     int64   `json:"total_orders"`
	WeeksOfData     int     `json:"weeks_of_data"`
	RecentWeeklyAvg float64 `json:"recent_weekly_avg"`
	PrevWeeklyAvg   float64 `json:"prev_weekly_avg"`
	RecentAOV       float64 `json:"recent_aov"`
}

// SizeShare one size's share of a product's demand
type SizeShare struct {
	Size  string  `json:"size"`
	Pct   float64 `json:"pct"`
	Units float64 `json:"units"`
}

// ColourShare one colourway's share of a product's demand
type ColourShare struct {
	Colour string  `json:"colour"`
	Pct    float64 `json:"pct"`
	Units  float64 `json:"units"`
}

// ProductForecast projected demand of one product with its size and colour
// split
type ProductForecast struct {
	ProductID       string         `json:"product_id"`
	Name            string         `json:"name"`
	Method          string         `json:"method"`
	RecentWeeklyAvg float64        `json:"recent_weekly_avg"`
	ForecastTotal   float64        `json:"forecast_total"`
	Forecasts       []WeekForecast `json:"forecasts"`
	SizeBreakdown   []SizeShare    `json:"size_breakdown"`
	ColourBreakdown []ColourShare  `json:"colour_breakdown"`
}

// FabricColourNeed projected requirement of one fabric colour against stock
type FabricColourNeed struct {
	FabricColourID string  `json:"fabric_colour_id"`
	Fabric         string  `json:"fabric"`
	Colour         string  `json:"colour"`
	Unit           string  `json:"unit"`
	Required       float64 `json:"required"`
	InStock        float64 `json:"in_stock"`
	Gap            float64 `json:"gap"`
	CostPerUnit    float64 `json:"cost_per_unit"`
	OrderCost      float64 `json:"order_cost"`
}

// FabricRequirement projected requirement of one fabric across its colours
type FabricRequirement struct {
	Fabric   string             `json:"fabric"`
	Unit     string             `json:"unit"`
	TotalQty float64            `json:"total_qty"`
	Colours  []FabricColourNeed `json:"colours"`
}

// ForecastSummary headline numbers of one forecast run
type ForecastSummary struct {
	TotalForecastUnits    float64 `json:"total_forecast_units"`
	ProductsForecasted    int     `json:"products_forecasted"`
	FabricColoursNeeded   int     `json:"fabric_colours_needed"`
	ShortfallCount        int     `json:"shortfall_count"`
	CoveredByStock        int     `json:"covered_by_stock"`
	EstimatedPurchaseCost float64 `json:"estimated_purchase_cost"`
}

// DemandForecast the full demand and fabric-requirement projection
type DemandForecast struct {
	GeneratedAt         time.Time           `json:"generated_at"`
	ForecastWeeks       int                 `json:"forecast_weeks"`
	Overall             OverallStats        `json:"overall"`
	WeeklyHistory       []WeekHistory       `json:"weekly_history"`
	OrderForecast       []WeekForecast      `json:"order_forecast"`
	RevenueForecast     []WeekForecast      `json:"revenue_forecast"`
	Products            []ProductForecast   `json:"products"`
	FabricRequirements  []FabricRequirement `json:"fabric_requirements"`
	PurchaseSuggestions []FabricColourNeed  `json:"purchase_suggestions"`
	Summary             ForecastSummary     `json:"summary"`
}

// GetDemandForecast projects the next weeks of demand and the fabric needed
// to cover it, serving from redis when fresh. Products without enough weekly
// history for a trend fit are projected from their recent average, so every
// selling product still contributes to the fabric requirements.
func (s *ForecastService) GetDemandForecast(ctx context.Context, weeks int) (*DemandForecast, error) {
	if weeks == 0 {
		weeks = defaultForecastWeeks
	}
	if weeks < 1 || weeks > maxForecastWeeks {
		return nil, fmt.Errorf("forecast weeks must be between 1 and %d: %w", maxForecastWeeks, ErrBadRequest)
	}

	cacheKey := fmt.Sprintf(forecastCacheKeyFmt, weeks)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var forecast DemandForecast
			if err := json.Unmarshal([]byte(cached), &forecast); err == nil {
				return &forecast, nil
			}
		}
	}

	forecast, err := s.buildForecast(ctx, weeks)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(forecast); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, forecastCacheTTL).Err(); err != nil {
				s.logger.Warn("cache demand forecast", zap.Error(err))
			}
		}
	}
	return forecast, nil
}

func (s *ForecastService) buildForecast(ctx context.Context, weeks int) (*DemandForecast, error) {
	forecast := &DemandForecast{
		GeneratedAt:   time.Now(),
		ForecastWeeks: weeks,
	}

	weekly, err := s.repo.WeeklyOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly orders: %w", err)
	}
	// the first and last buckets are partial weeks
	if len(weekly) > 2 {
		weekly = weekly[1 : len(weekly)-1]
	}
	if len(weekly) == 0 {
		return forecast, nil
	}

	forecast.Overall = overallStats(weekly)
	forecast.WeeklyHistory = weekHistory(weekly, 52)

	orderSeries := make([]float64, len(weekly))
	for i, w := range weekly {
		orderSeries[i] = float64(w.Orders)
	}
	lastWeek := weekly[len(weekly)-1].Week
	forecast.OrderForecast = projectSeries(orderSeries, lastWeek, weeks)
	forecast.RevenueForecast = scaleForecast(forecast.OrderForecast, forecast.Overall.RecentAOV)

	mixSince := time.Now().AddDate(0, 0, -7*mixWindowWeeks)
	sizeMix, err := s.repo.SizeMix(ctx, mixSince)
	if err != nil {
		return nil, fmt.Errorf("size mix: %w", err)
	}
	varMix, err := s.repo.VariationMix(ctx, mixSince)
	if err != nil {
		return nil, fmt.Errorf("variation mix: %w", err)
	}
	sizeByProduct := groupSizeMix(sizeMix)
	varByProduct := groupVariationMix(varMix)

	productWeekly, err := s.repo.WeeklyProductUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly product units: %w", err)
	}
	series := groupProductSeries(productWeekly)

	ranked := rankProducts(series)
	needs := make(map[string]*fabricNeed)

	for rank, pid := range ranked {
		ps := series[pid]
		projected, method := s.projectProduct(ps, lastWeek, weeks)
		total := sumForecast(projected)

		if err := s.accumulateFabricNeeds(ctx, total, sizeByProduct[pid], varByProduct[pid], needs); err != nil {
			return nil, err
		}

		// only the top sellers get a full per-product report; the rest still
		// feed the fabric projection above
		if rank >= topProductCount {
			continue
		}
		forecast.Products = append(forecast.Products, ProductForecast{
			ProductID:       pid,
			Name:            ps.name,
			Method:          method,
			RecentWeeklyAvg: round1(recentAverage(ps.units, recentWindowWeeks)),
			ForecastTotal:   round1(total),
			Forecasts:       projected,
			SizeBreakdown:   sizeBreakdown(sizeByProduct[pid], total),
			ColourBreakdown: colourBreakdown(varByProduct[pid], total),
		})
	}

	requirements, shortfalls, summary, err := s.fabricRequirements(ctx, needs)
	if err != nil {
		return nil, err
	}
	forecast.FabricRequirements = requirements
	forecast.PurchaseSuggestions = shortfalls
	forecast.Summary = summary
	forecast.Summary.ProductsForecasted = len(forecast.Products)
	for _, p := range forecast.Products {
		forecast.Summary.TotalForecastUnits += p.ForecastTotal
	}
	forecast.Summary.TotalForecastUnits = round1(forecast.Summary.TotalForecastUnits)

	s.logger.Info("demand forecast built",
		zap.Int("weeks", weeks),
		zap.Int("products", len(forecast.Products)),
		zap.Int("fabric_colours", forecast.Summary.FabricColoursNeeded),
		zap.Int("shortfalls", forecast.Summary.ShortfallCount))
	return forecast, nil
}

// projectProduct picks the projection method by history depth
func (s *ForecastService) projectProduct(ps *productSeries, lastWeek time.Time, weeks int) ([]WeekForecast, string) {
	if len(ps.units) >= minTrendWeeks {
		return projectSeries(ps.units, lastWeek, weeks), MethodTrend
	}
	avg := recentAverage(ps.units, recentWindowWeeks)
	return flatForecast(avg, lastWeek, weeks), MethodRecentAverage
}

// fabricNeed accumulated requirement of one fabric colour
type fabricNeed struct {
	qty      float64
	unitCost float64
}

// accumulateFabricNeeds splits the product's projected units over its
// colourway and size mix, then walks each (variation, size) SKU's resolved
// BOM. Sizes without an own BOM line inherit quantities from the lower tiers
// through the resolver, so they are never undercounted.
func (s *ForecastService) accumulateFabricNeeds(
	ctx context.Context,
	totalUnits float64,
	sizes []repository.SizeUnits,
	variations []repository.VariationUnits,
	needs map[string]*fabricNeed,
) error {
	if totalUnits <= 0 || len(sizes) == 0 || len(variations) == 0 {
		return nil
	}

	var sizeTotal, varTotal int64
	for _, sz := range sizes {
		sizeTotal += sz.Units
	}
	for _, v := range variations {
		varTotal += v.Units
	}
	if sizeTotal == 0 || varTotal == 0 {
		return nil
	}

	for _, v := range variations {
		varUnits := totalUnits * float64(v.Units) / float64(varTotal)
		skus, err := s.productRepo.ListActiveSKUs(ctx, v.VariationID)
		if err != nil {
			return fmt.Errorf("list skus for variation %s: %w", v.VariationID, err)
		}
		bySize := make(map[string]string, len(skus))
		for _, sku := range skus {
			bySize[sku.Size] = sku.ID
		}

		for _, sz := range sizes {
			skuID, ok := bySize[sz.Size]
			if !ok {
				continue
			}
			sizeUnits := varUnits * float64(sz.Units) / float64(sizeTotal)
			resolved, err := s.resolver.ResolveSKU(ctx, skuID)
			if err != nil {
				return fmt.Errorf("resolve sku %s: %w", skuID, err)
			}
			for _, line := range resolved.Lines {
				if line.ComponentType != catalogentity.ComponentTypeFabric || line.ComponentID == "" {
					continue
				}
				need, ok := needs[line.ComponentID]
				if !ok {
					need = &fabricNeed{unitCost: line.UnitCost}
					needs[line.ComponentID] = need
				}
				need.qty += sizeUnits * line.EffectiveQty
			}
		}
	}
	return nil
}

// fabricRequirements groups accumulated needs by fabric and compares each
// colour against on-hand stock
func (s *ForecastService) fabricRequirements(ctx context.Context, needs map[string]*fabricNeed) ([]FabricRequirement, []FabricColourNeed, ForecastSummary, error) {
	var summary ForecastSummary
	if len(needs) == 0 {
		return nil, nil, summary, nil
	}

	details, err := s.repo.ColourDetails(ctx)
	if err != nil {
		return nil, nil, summary, fmt.Errorf("colour details: %w", err)
	}
	stock, err := s.repo.ColourStock(ctx)
	if err != nil {
		return nil, nil, summary, fmt.Errorf("colour stock: %w", err)
	}

	byFabric := make(map[string]*FabricRequirement)
	var shortfalls []FabricColourNeed

	for colourID, need := range needs {
		info := details[colourID]
		if info.FabricName == "" {
			info.FabricName = "unknown"
		}
		onHand := stock[colourID]
		gap := need.qty - onHand

		colourNeed := FabricColourNeed{
			FabricColourID: colourID,
			Fabric:         info.FabricName,
			Colour:         info.Colour,
			Unit:           info.Unit,
			Required:       round1(need.qty),
			InStock:        round1(onHand),
			Gap:            round1(gap),
			CostPerUnit:    need.unitCost,
		}
		if gap > 0 {
			colourNeed.OrderCost = round1(gap * need.unitCost)
			shortfalls = append(shortfalls, colourNeed)
			summary.EstimatedPurchaseCost += colourNeed.OrderCost
		} else {
			summary.CoveredByStock++
		}

		req, ok := byFabric[info.FabricName]
		if !ok {
			req = &FabricRequirement{Fabric: info.FabricName, Unit: info.Unit}
			byFabric[info.FabricName] = req
		}
		req.TotalQty += need.qty
		req.Colours = append(req.Colours, colourNeed)
	}

	requirements := make([]FabricRequirement, 0, len(byFabric))
	for _, req := range byFabric {
		req.TotalQty = round1(req.TotalQty)
		sort.Slice(req.Colours, func(i, j int) bool {
			return req.Colours[i].Required > req.Colours[j].Required
		})
		requirements = append(requirements, *req)
	}
	sort.Slice(requirements, func(i, j int) bool {
		return requirements[i].TotalQty > requirements[j].TotalQty
	})
	sort.Slice(shortfalls, func(i, j int) bool {
		return shortfalls[i].Required > shortfalls[j].Required
	})

	summary.FabricColoursNeeded = len(needs)
	summary.ShortfallCount = len(shortfalls)
	summary.EstimatedPurchaseCost = round1(summary.EstimatedPurchaseCost)
	return requirements, shortfalls, summary, nil
}

// ========== pure projection helpers ==========

// productSeries one product's zero-filled weekly unit history
type productSeries struct {
	name        string
	units       []float64
	recentUnits float64
}

// groupProductSeries turns the flat weekly rows into zero-filled per-product
// series. Weeks with no sales count as zero so a trend fit sees the gaps.
func groupProductSeries(rows []repository.ProductWeekUnits) map[string]*productSeries {
	type raw struct {
		name   string
		byWeek map[time.Time]float64
		first  time.Time
		last   time.Time
		recent float64
	}
	cutoff := time.Now().AddDate(0, 0, -364)

	raws := make(map[string]*raw)
	for _, row := range rows {
		r, ok := raws[row.ProductID]
		if !ok {
			r = &raw{name: row.ProductName, byWeek: make(map[time.Time]float64), first: row.Week, last: row.Week}
			raws[row.ProductID] = r
		}
		r.byWeek[row.Week] += float64(row.Units)
		if row.Week.Before(r.first) {
			r.first = row.Week
		}
		if row.Week.After(r.last) {
			r.last = row.Week
		}
		if !row.Week.Before(cutoff) {
			r.recent += float64(row.Units)
		}
	}

	series := make(map[string]*productSeries, len(raws))
	for pid, r := range raws {
		ps := &productSeries{name: r.name, recentUnits: r.recent}
		for week := r.first; !week.After(r.last); week = week.AddDate(0, 0, 7) {
			ps.units = append(ps.units, r.byWeek[week])
		}
		series[pid] = ps
	}
	return series
}

// rankProducts orders product ids by units sold in the last year, ties broken
// by id for a stable order
func rankProducts(series map[string]*productSeries) []string {
	ids := make([]string, 0, len(series))
	for pid := range series {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := series[ids[i]], series[ids[j]]
		if a.recentUnits != b.recentUnits {
			return a.recentUnits > b.recentUnits
		}
		return ids[i] < ids[j]
	})
	return ids
}

// overallStats summarises the trimmed weekly buckets
func overallStats(weekly []repository.WeekBucket) OverallStats {
	stats := OverallStats{WeeksOfData: len(weekly)}
	for _, w := range weekly {
		stats.TotalOrders += w.Orders
	}

	recent := tailBuckets(weekly, 12)
	prev := tailBuckets(weekly[:len(weekly)-len(recent)], 12)
	stats.RecentWeeklyAvg = round1(avgOrders(recent))
	stats.PrevWeeklyAvg = round1(avgOrders(prev))

	var orders int64
	var revenue float64
	for _, w := range recent {
		orders += w.Orders
		revenue += w.Revenue
	}
	if orders > 0 {
		stats.RecentAOV = round1(revenue / float64(orders))
	}
	return stats
}

func tailBuckets(weekly []repository.WeekBucket, n int) []repository.WeekBucket {
	if len(weekly) > n {
		return weekly[len(weekly)-n:]
	}
	return weekly
}

func avgOrders(weekly []repository.WeekBucket) float64 {
	if len(weekly) == 0 {
		return 0
	}
	var total int64
	for _, w := range weekly {
		total += w.Orders
	}
	return float64(total) / float64(len(weekly))
}

// weekHistory converts the last n buckets into chartable rows
func weekHistory(weekly []repository.WeekBucket, n int) []WeekHistory {
	buckets := tailBuckets(weekly, n)
	history := make([]WeekHistory, 0, len(buckets))
	for _, w := range buckets {
		history = append(history, WeekHistory{
			Week:    w.Week.Format("2006-01-02"),
			Orders:  w.Orders,
			Revenue: w.Revenue,
		})
	}
	return history
}

// projectSeries fits a least-squares trend over the recent window and extends
// it forward, clamped at zero with a ±20% band
func projectSeries(series []float64, lastWeek time.Time, steps int) []WeekForecast {
	window := series
	if len(window) > trendWindowWeeks {
		window = window[len(window)-trendWindowWeeks:]
	}
	slope, intercept := fitTrend(window)

	forecasts := make([]WeekForecast, 0, steps)
	for i := 1; i <= steps; i++ {
		x := float64(len(window) - 1 + i)
		value := intercept + slope*x
		if value < 0 {
			value = 0
		}
		forecasts = append(forecasts, WeekForecast{
			Week:     lastWeek.AddDate(0, 0, 7*i).Format("2006-01-02"),
			Forecast: round1(value),
			Low:      round1(value * 0.8),
			High:     round1(value * 1.2),
		})
	}
	return forecasts
}

// fitTrend returns the least-squares slope and intercept of the series over
// x = 0..n-1. A series shorter than two points gets a flat fit.
func fitTrend(series []float64) (slope, intercept float64) {
	n := float64(len(series))
	if len(series) == 0 {
		return 0, 0
	}
	if len(series) == 1 {
		return 0, series[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// flatForecast projects a constant weekly value with a ±20% band
func flatForecast(value float64, lastWeek time.Time, steps int) []WeekForecast {
	if value < 0 {
		value = 0
	}
	forecasts := make([]WeekForecast, 0, steps)
	for i := 1; i <= steps; i++ {
		forecasts = append(forecasts, WeekForecast{
			Week:     lastWeek.AddDate(0, 0, 7*i).Format("2006-01-02"),
			Forecast: round1(value),
			Low:      round1(value * 0.8),
			High:     round1(value * 1.2),
		})
	}
	return forecasts
}

// scaleForecast multiplies a unit forecast into money terms
func scaleForecast(forecasts []WeekForecast, factor float64) []WeekForecast {
	scaled := make([]WeekForecast, 0, len(forecasts))
	for _, f := range forecasts {
		scaled = append(scaled, WeekForecast{
			Week:     f.Week,
			Forecast: round1(f.Forecast * factor),
			Low:      round1(f.Low * factor),
			High:     round1(f.High * factor),
		})
	}
	return scaled
}

func sumForecast(forecasts []WeekForecast) float64 {
	var total float64
	for _, f := range forecasts {
		total += f.Forecast
	}
	return total
}

// recentAverage averages the last n points of the series
func recentAverage(series []float64, n int) float64 {
	if len(series) == 0 {
		return 0
	}
	if len(series) > n {
		series = series[len(series)-n:]
	}
	var total float64
	for _, v := range series {
		total += v
	}
	return total / float64(len(series))
}

func groupSizeMix(rows []repository.SizeUnits) map[string][]repository.SizeUnits {
	grouped := make(map[string][]repository.SizeUnits)
	for _, row := range rows {
		grouped[row.ProductID] = append(grouped[row.ProductID], row)
	}
	return grouped
}

func groupVariationMix(rows []repository.VariationUnits) map[string][]repository.VariationUnits {
	grouped := make(map[string][]repository.VariationUnits)
	for _, row := range rows {
		grouped[row.ProductID] = append(grouped[row.ProductID], row)
	}
	return grouped
}

// sizeBreakdown splits the projected units over the historical size mix,
// biggest share first
func sizeBreakdown(sizes []repository.SizeUnits, total float64) []SizeShare {
	var sizeTotal int64
	for _, sz := range sizes {
		sizeTotal += sz.Units
	}
	if sizeTotal == 0 {
		return nil
	}
	shares := make([]SizeShare, 0, len(sizes))
	for _, sz := range sizes {
		pct := float64(sz.Units) / float64(sizeTotal)
		shares = append(shares, SizeShare{
			Size:  sz.Size,
			Pct:   round1(pct * 100),
			Units: round1(total * pct),
		})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Units > shares[j].Units })
	return shares
}

// colourBreakdown splits the projected units over the historical colour mix,
// biggest share first
func colourBreakdown(variations []repository.VariationUnits, total float64) []ColourShare {
	var varTotal int64
	for _, v := range variations {
		varTotal += v.Units
	}
	if varTotal == 0 {
		return nil
	}
	shares := make([]ColourShare, 0, len(variations))
	for _, v := range variations {
		pct := float64(v.Units) / float64(varTotal)
		shares = append(shares, ColourShare{
			Colour: v.Colour,
			Pct:    round1(pct * 100),
			Units:  round1(total * pct),
		})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Units > shares[j].Units })
	return shares
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
