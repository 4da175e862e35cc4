package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogentity "github.com/vastralabs/karkhana/internal/catalog/entity"
	catalogrepo "github.com/vastralabs/karkhana/internal/catalog/repository"
	catalogsvc "github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
	"github.com/vastralabs/karkhana/internal/forecast/repository"
	inventity "github.com/vastralabs/karkhana/internal/inventory/entity"
	ordentity "github.com/vastralabs/karkhana/internal/orders/entity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func setupForecastService(t *testing.T) (*ForecastService, *catalogsvc.Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if err := db.AutoMigrate(
		&ordentity.Order{},
		&ordentity.OrderItem{},
		&inventity.MaterialStock{},
	); err != nil {
		t.Fatalf("Failed to migrate forecast tables: %v", err)
	}
	repos := catalogrepo.NewRepositories(db)
	catSvcs := catalogsvc.NewServices(db, repos, nil, zap.NewNop())
	svc := NewForecastService(repository.NewDemandRepository(db), catSvcs.Resolver, repos.Product, nil, zap.NewNop())
	return svc, catSvcs, db
}

// placeOrder creates one delivered order with the given SKU quantities
func placeOrder(t *testing.T, db *gorm.DB, placedAt time.Time, unitPrice float64, skuQty map[string]int) {
	t.Helper()
	order := &ordentity.Order{
		ID:           uuid.New().String()[:32],
		Code:         uuid.New().String()[:32],
		CustomerName: "Meera",
		Status:       ordentity.OrderStatusDelivered,
		PlacedAt:     placedAt,
	}
	for _, qty := range skuQty {
		order.TotalAmount += unitPrice * float64(qty)
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	for skuID, qty := range skuQty {
		item := &ordentity.OrderItem{
			ID:        uuid.New().String()[:32],
			OrderID:   order.ID,
			SKUID:     skuID,
			Quantity:  qty,
			UnitPrice: unitPrice,
		}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("Failed to seed order item: %v", err)
		}
	}
}

func TestFitTrendRisingSeries(t *testing.T) {
	series := make([]float64, 10)
	for i := range series {
		series[i] = float64(i + 1)
	}
	slope, intercept := fitTrend(series)
	if !almostEqual(slope, 1) || !almostEqual(intercept, 1) {
		t.Errorf("Expected slope 1 intercept 1, got %v and %v", slope, intercept)
	}

	forecasts := projectSeries(series, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), 2)
	if len(forecasts) != 2 {
		t.Fatalf("Expected 2 forecasts, got %d", len(forecasts))
	}
	if !almostEqual(forecasts[0].Forecast, 11) {
		t.Errorf("Expected first forecast 11, got %v", forecasts[0].Forecast)
	}
	if forecasts[0].Week != "2026-08-31" {
		t.Errorf("Expected week 2026-08-31, got %s", forecasts[0].Week)
	}
	if !almostEqual(forecasts[0].Low, 8.8) || !almostEqual(forecasts[0].High, 13.2) {
		t.Errorf("Expected band 8.8..13.2, got %v..%v", forecasts[0].Low, forecasts[0].High)
	}
	if !almostEqual(forecasts[1].Forecast, 12) {
		t.Errorf("Expected second forecast 12, got %v", forecasts[1].Forecast)
	}
}

func TestProjectSeriesClampsAtZero(t *testing.T) {
	series := make([]float64, 10)
	for i := range series {
		series[i] = float64(10 - i)
	}
	forecasts := projectSeries(series, time.Now(), 4)
	for _, f := range forecasts {
		if f.Forecast < 0 || f.Low < 0 {
			t.Errorf("Expected non-negative forecast, got %+v", f)
		}
	}
	last := forecasts[len(forecasts)-1]
	if last.Forecast != 0 {
		t.Errorf("Expected dying series to bottom out at 0, got %v", last.Forecast)
	}
}

func TestGroupProductSeriesZeroFills(t *testing.T) {
	week := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	rows := []repository.ProductWeekUnits{
		{Week: week, ProductID: "p1", ProductName: "Kurta", Units: 3},
		{Week: week.AddDate(0, 0, 14), ProductID: "p1", ProductName: "Kurta", Units: 5},
	}
	series := groupProductSeries(rows)

	ps := series["p1"]
	if ps == nil {
		t.Fatal("Expected a series for p1")
	}
	if len(ps.units) != 3 {
		t.Fatalf("Expected 3 weekly points including the gap, got %d", len(ps.units))
	}
	want := []float64{3, 0, 5}
	for i, v := range want {
		if ps.units[i] != v {
			t.Errorf("Point %d: expected %v, got %v", i, v, ps.units[i])
		}
	}
	if ps.recentUnits != 8 {
		t.Errorf("Expected 8 recent units, got %v", ps.recentUnits)
	}
}

func TestDemandForecastRejectsBadWeeks(t *testing.T) {
	svc, _, _ := setupForecastService(t)
	if _, err := svc.GetDemandForecast(context.Background(), 50); !IsBadRequest(err) {
		t.Errorf("Expected bad request for 50 weeks, got %v", err)
	}
	if _, err := svc.GetDemandForecast(context.Background(), -1); !IsBadRequest(err) {
		t.Errorf("Expected bad request for negative weeks, got %v", err)
	}
}

func TestDemandForecastEmptyHistory(t *testing.T) {
	svc, _, _ := setupForecastService(t)
	forecast, err := svc.GetDemandForecast(context.Background(), 0)
	if err != nil {
		t.Fatalf("get demand forecast: %v", err)
	}
	if forecast.ForecastWeeks != 8 {
		t.Errorf("Expected default 8 weeks, got %d", forecast.ForecastWeeks)
	}
	if forecast.Overall.WeeksOfData != 0 || len(forecast.Products) != 0 {
		t.Errorf("Expected empty forecast without orders, got %+v", forecast)
	}
}

func TestDemandForecastEndToEnd(t *testing.T) {
	svc, catSvcs, db := setupForecastService(t)
	ctx := context.Background()

	role := testutil.SeedRole(t, db, catalogentity.RoleCodeMainFabric, catalogentity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "AK-102", "Anarkali Kurta")
	variation := testutil.SeedVariation(t, db, product.ID, "red")
	skuM := testutil.SeedSKU(t, db, variation.ID, "M")
	skuXXL := testutil.SeedSKU(t, db, variation.ID, "XXL")
	_, colour := testutil.SeedFabricWithColour(t, db, "Rayon Slub", 200)

	// style default 1.5m at 5% wastage, XXL cut at 1.8m, M inherits
	if _, err := catSvcs.BOM.SetTemplateLine(ctx, product.ID, &catalogsvc.SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, Unit: "metres", WastagePercent: 5,
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}
	if _, err := catSvcs.FabricMapping.MapFabricColour(ctx, &catalogsvc.MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	}); err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}
	qtyXXL := 1.8
	if _, err := catSvcs.BOM.SetSKULine(ctx, skuXXL.ID, &catalogsvc.SetSKULineRequest{
		RoleID: role.ID, Quantity: &qtyXXL,
	}); err != nil {
		t.Fatalf("set sku line: %v", err)
	}

	stock := &inventity.MaterialStock{
		ID:           uuid.New().String()[:32],
		MaterialKind: inventity.MaterialKindFabricColour,
		MaterialID:   colour.ID,
		OnHand:       10,
		Unit:         "metres",
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}

	// one order per week for 14 weeks, one M and one XXL each
	base := time.Now().AddDate(0, 0, -7*15)
	for i := 0; i < 14; i++ {
		placeOrder(t, db, base.AddDate(0, 0, 7*i), 500, map[string]int{skuM.ID: 1, skuXXL.ID: 1})
	}

	forecast, err := svc.GetDemandForecast(ctx, 8)
	if err != nil {
		t.Fatalf("get demand forecast: %v", err)
	}

	// edge weeks are dropped as partial
	if forecast.Overall.WeeksOfData != 12 {
		t.Errorf("Expected 12 weeks of data, got %d", forecast.Overall.WeeksOfData)
	}
	if forecast.Overall.TotalOrders != 12 {
		t.Errorf("Expected 12 orders, got %d", forecast.Overall.TotalOrders)
	}
	if !almostEqual(forecast.Overall.RecentWeeklyAvg, 1) {
		t.Errorf("Expected recent weekly avg 1, got %v", forecast.Overall.RecentWeeklyAvg)
	}
	if !almostEqual(forecast.Overall.RecentAOV, 1000) {
		t.Errorf("Expected recent AOV 1000, got %v", forecast.Overall.RecentAOV)
	}

	if len(forecast.OrderForecast) != 8 {
		t.Fatalf("Expected 8 forecast weeks, got %d", len(forecast.OrderForecast))
	}
	if !almostEqual(forecast.OrderForecast[0].Forecast, 1) {
		t.Errorf("Expected 1 order/week forecast, got %v", forecast.OrderForecast[0].Forecast)
	}
	if !almostEqual(forecast.RevenueForecast[0].Forecast, 1000) {
		t.Errorf("Expected 1000 revenue/week forecast, got %v", forecast.RevenueForecast[0].Forecast)
	}

	if len(forecast.Products) != 1 {
		t.Fatalf("Expected 1 product forecast, got %d", len(forecast.Products))
	}
	p := forecast.Products[0]
	if p.Name != "Anarkali Kurta" || p.Method != MethodTrend {
		t.Errorf("Expected trend forecast for Anarkali Kurta, got %s via %s", p.Name, p.Method)
	}
	// a flat 2 units/week extends to 16 units over 8 weeks
	if !almostEqual(p.ForecastTotal, 16) {
		t.Errorf("Expected 16 forecast units, got %v", p.ForecastTotal)
	}
	if len(p.SizeBreakdown) != 2 {
		t.Fatalf("Expected 2 size shares, got %d", len(p.SizeBreakdown))
	}
	for _, share := range p.SizeBreakdown {
		if !almostEqual(share.Pct, 50) || !almostEqual(share.Units, 8) {
			t.Errorf("Expected 50%% / 8 units per size, got %+v", share)
		}
	}
	if len(p.ColourBreakdown) != 1 || p.ColourBreakdown[0].Colour != "red" {
		t.Errorf("Expected single red colourway, got %+v", p.ColourBreakdown)
	}

	// 8 M at 1.575m + 8 XXL at 1.89m = 27.72m, vs 10 on hand
	if len(forecast.FabricRequirements) != 1 {
		t.Fatalf("Expected 1 fabric requirement, got %d", len(forecast.FabricRequirements))
	}
	req := forecast.FabricRequirements[0]
	if req.Fabric != "Rayon Slub" {
		t.Errorf("Expected Rayon Slub, got %s", req.Fabric)
	}
	if !almostEqual(req.TotalQty, 27.7) {
		t.Errorf("Expected 27.7 total metres, got %v", req.TotalQty)
	}
	if len(req.Colours) != 1 {
		t.Fatalf("Expected 1 colour need, got %d", len(req.Colours))
	}
	need := req.Colours[0]
	if need.FabricColourID != colour.ID {
		t.Errorf("Expected colour %s, got %s", colour.ID, need.FabricColourID)
	}
	if !almostEqual(need.InStock, 10) || !almostEqual(need.Gap, 17.7) {
		t.Errorf("Expected stock 10 gap 17.7, got %v and %v", need.InStock, need.Gap)
	}
	if !almostEqual(need.CostPerUnit, 200) || !almostEqual(need.OrderCost, 3544) {
		t.Errorf("Expected 200/unit order cost 3544, got %v and %v", need.CostPerUnit, need.OrderCost)
	}

	if len(forecast.PurchaseSuggestions) != 1 {
		t.Fatalf("Expected 1 purchase suggestion, got %d", len(forecast.PurchaseSuggestions))
	}
	if forecast.Summary.ShortfallCount != 1 || forecast.Summary.CoveredByStock != 0 {
		t.Errorf("Expected 1 shortfall and 0 covered, got %+v", forecast.Summary)
	}
	if !almostEqual(forecast.Summary.EstimatedPurchaseCost, 3544) {
		t.Errorf("Expected purchase cost 3544, got %v", forecast.Summary.EstimatedPurchaseCost)
	}
	if !almostEqual(forecast.Summary.TotalForecastUnits, 16) {
		t.Errorf("Expected 16 total units, got %v", forecast.Summary.TotalForecastUnits)
	}
}

func TestDemandForecastSkipsCancelledOrders(t *testing.T) {
	svc, _, db := setupForecastService(t)
	ctx := context.Background()

	testutil.SeedRole(t, db, catalogentity.RoleCodeMainFabric, catalogentity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-301", "Kurta")
	variation := testutil.SeedVariation(t, db, product.ID, "blue")
	sku := testutil.SeedSKU(t, db, variation.ID, "M")

	base := time.Now().AddDate(0, 0, -7*6)
	for i := 0; i < 4; i++ {
		placeOrder(t, db, base.AddDate(0, 0, 7*i), 500, map[string]int{sku.ID: 1})
	}
	cancelled := &ordentity.Order{
		ID:           uuid.New().String()[:32],
		Code:         uuid.New().String()[:32],
		CustomerName: "Meera",
		Status:       ordentity.OrderStatusCancelled,
		TotalAmount:  9999,
		PlacedAt:     base.AddDate(0, 0, 7),
	}
	if err := db.Create(cancelled).Error; err != nil {
		t.Fatalf("Failed to seed cancelled order: %v", err)
	}

	forecast, err := svc.GetDemandForecast(ctx, 4)
	if err != nil {
		t.Fatalf("get demand forecast: %v", err)
	}
	if forecast.Overall.TotalOrders != 2 {
		t.Errorf("Expected 2 orders after trimming, cancelled excluded, got %d", forecast.Overall.TotalOrders)
	}
	if len(forecast.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(forecast.Products))
	}
	// 4 weekly points is under the trend threshold
	if forecast.Products[0].Method != MethodRecentAverage {
		t.Errorf("Expected recent-average method for short history, got %s", forecast.Products[0].Method)
	}
	if !almostEqual(forecast.Products[0].ForecastTotal, 4) {
		t.Errorf("Expected 4 units over 4 weeks, got %v", forecast.Products[0].ForecastTotal)
	}
}
