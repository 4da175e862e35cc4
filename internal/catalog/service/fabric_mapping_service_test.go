package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
)

// newTestServices wires the catalog services against an isolated test schema.
// The recalc worker is not started; tests drive Run directly for determinism.
func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewServices(db, repos, nil, zap.NewNop()), db
}

// seedMappingFixture one product with a red colourway in sizes M and XXL,
// and a 200/metre fabric
func seedMappingFixture(t *testing.T, db *gorm.DB) (role *entity.ComponentRole, product *entity.Product, variation *entity.Variation, skuM, skuXXL *entity.SKU, colour *entity.FabricColour) {
	t.Helper()
	role = testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product = testutil.SeedProduct(t, db, "AK-102", "Anarkali Kurta")
	variation = testutil.SeedVariation(t, db, product.ID, "red")
	skuM = testutil.SeedSKU(t, db, variation.ID, "M")
	skuXXL = testutil.SeedSKU(t, db, variation.ID, "XXL")
	_, colour = testutil.SeedFabricWithColour(t, db, "Rayon Slub", 200)
	return
}

func TestMapFabricColourAndResolve(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, _, _, colour := seedMappingFixture(t, db)

	// style-level default: 1.5 metres at 5% wastage
	_, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID:         role.ID,
		Quantity:       1.5,
		Unit:           "metres",
		WastagePercent: 5,
	})
	if err != nil {
		t.Fatalf("set template line: %v", err)
	}

	result, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	})
	if err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}
	if result.Mapped != 1 {
		t.Errorf("Expected 1 mapped, got %d", result.Mapped)
	}

	resolved, err := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if err != nil {
		t.Fatalf("resolve variation: %v", err)
	}
	if len(resolved.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(resolved.Lines))
	}
	line := resolved.Lines[0]
	if line.ComponentID != colour.ID {
		t.Errorf("Expected colour %s, got %s", colour.ID, line.ComponentID)
	}
	// 200 × 1.5 × 1.05
	if !almostEqual(line.LineCost, 315) {
		t.Errorf("Expected line cost 315, got %v", line.LineCost)
	}
	if resolved.CostSource != CostSourceLive {
		t.Errorf("Expected live cost before recalc, got %s", resolved.CostSource)
	}
	if !almostEqual(resolved.TotalCost, 315) {
		t.Errorf("Expected total 315, got %v", resolved.TotalCost)
	}
}

func TestMapFabricColourKeepsExistingTemplate(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, _, _, colour := seedMappingFixture(t, db)

	if _, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, WastagePercent: 5,
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}

	// mapping bootstraps templates do-nothing style: the tuned row survives
	result, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	})
	if err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}
	if result.TemplatesCreated != 0 {
		t.Errorf("Expected no templates created over an existing row, got %d", result.TemplatesCreated)
	}

	tpls, err := svcs.BOM.GetProductBOM(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product bom: %v", err)
	}
	if len(tpls) != 1 {
		t.Fatalf("Expected 1 template row, got %d", len(tpls))
	}
	if tpls[0].Quantity != 1.5 || tpls[0].WastagePercent != 5 {
		t.Errorf("Expected tuned template 1.5/5 to survive, got %v/%v", tpls[0].Quantity, tpls[0].WastagePercent)
	}
}

func TestMapFabricColourBootstrapsTemplate(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, _, _, colour := seedMappingFixture(t, db)

	result, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	})
	if err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}
	if result.TemplatesCreated != 1 {
		t.Errorf("Expected 1 template created, got %d", result.TemplatesCreated)
	}

	tpls, err := svcs.BOM.GetProductBOM(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product bom: %v", err)
	}
	if len(tpls) != 1 || tpls[0].RoleID != role.ID {
		t.Fatalf("Expected 1 bootstrapped template row, got %d", len(tpls))
	}
	if tpls[0].Quantity != role.DefaultQuantity || tpls[0].WastagePercent != 0 {
		t.Errorf("Expected role defaults %v/0, got %v/%v", role.DefaultQuantity, tpls[0].Quantity, tpls[0].WastagePercent)
	}

	// re-mapping finds the row in place
	result, err = svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	})
	if err != nil {
		t.Fatalf("re-map fabric colour: %v", err)
	}
	if result.TemplatesCreated != 0 {
		t.Errorf("Expected no templates created on re-map, got %d", result.TemplatesCreated)
	}
}

func TestSKUQuantityOverrideAndSpread(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, skuM, skuXXL, colour := seedMappingFixture(t, db)

	if _, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, WastagePercent: 5,
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}
	if _, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	}); err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}

	qtyM, qtyXXL := 1.5, 1.8
	if _, err := svcs.BOM.SetSKULine(ctx, skuM.ID, &SetSKULineRequest{RoleID: role.ID, Quantity: &qtyM}); err != nil {
		t.Fatalf("set sku line M: %v", err)
	}
	if _, err := svcs.BOM.SetSKULine(ctx, skuXXL.ID, &SetSKULineRequest{RoleID: role.ID, Quantity: &qtyXXL}); err != nil {
		t.Fatalf("set sku line XXL: %v", err)
	}

	// the XXL cut: 200 × 1.8 × 1.05
	resolvedXXL, err := svcs.Resolver.ResolveSKU(ctx, skuXXL.ID)
	if err != nil {
		t.Fatalf("resolve sku: %v", err)
	}
	if !almostEqual(resolvedXXL.TotalCost, 378) {
		t.Errorf("Expected XXL total 378, got %v", resolvedXXL.TotalCost)
	}
	if resolvedXXL.Lines[0].Quantity.Source != SourceSKU {
		t.Errorf("Expected sku-tier quantity, got %s", resolvedXXL.Lines[0].Quantity.Source)
	}

	// the variation summarises both sizes
	resolved, err := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if err != nil {
		t.Fatalf("resolve variation: %v", err)
	}
	spread := resolved.Lines[0].SKUSpread
	if spread == nil {
		t.Fatal("Expected a sku spread on the fabric line")
	}
	if !almostEqual(spread.MinQty, 1.5) || !almostEqual(spread.MaxQty, 1.8) {
		t.Errorf("Expected qty spread 1.5..1.8, got %v..%v", spread.MinQty, spread.MaxQty)
	}
	wantAvg := (315.0 + 378.0) / 2.0
	if !almostEqual(spread.AvgCost, wantAvg) {
		t.Errorf("Expected avg cost %v, got %v", wantAvg, spread.AvgCost)
	}
	if !almostEqual(resolved.TotalCost, wantAvg) {
		t.Errorf("Expected variation total %v, got %v", wantAvg, resolved.TotalCost)
	}
}

func TestSpreadCountsInheritingSKUs(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, _, skuXXL, colour := seedMappingFixture(t, db)

	if _, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, WastagePercent: 5,
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}
	if _, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	}); err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}

	// only XXL carries its own quantity; M stays lineless and inherits 1.5
	qtyXXL := 1.8
	if _, err := svcs.BOM.SetSKULine(ctx, skuXXL.ID, &SetSKULineRequest{RoleID: role.ID, Quantity: &qtyXXL}); err != nil {
		t.Fatalf("set sku line XXL: %v", err)
	}

	resolved, err := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if err != nil {
		t.Fatalf("resolve variation: %v", err)
	}
	spread := resolved.Lines[0].SKUSpread
	if spread == nil {
		t.Fatal("Expected a sku spread on the fabric line")
	}
	if spread.SKUCount != 2 {
		t.Errorf("Expected both sizes in the spread, got %d", spread.SKUCount)
	}
	if !almostEqual(spread.MinQty, 1.5) || !almostEqual(spread.MaxQty, 1.8) {
		t.Errorf("Expected qty spread 1.5..1.8, got %v..%v", spread.MinQty, spread.MaxQty)
	}
	wantAvg := (315.0 + 378.0) / 2.0
	if !almostEqual(spread.AvgCost, wantAvg) {
		t.Errorf("Expected avg cost %v, got %v", wantAvg, spread.AvgCost)
	}
	if !almostEqual(resolved.TotalCost, wantAvg) {
		t.Errorf("Expected variation total %v, got %v", wantAvg, resolved.TotalCost)
	}
}

func TestRecalcIdempotentAndClearMapping(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	role, product, variation, _, _, colour := seedMappingFixture(t, db)

	if _, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, WastagePercent: 5,
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}
	if _, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	}); err != nil {
		t.Fatalf("map fabric colour: %v", err)
	}

	svcs.Recalc.Run(ctx, RecalcJob{Kind: RecalcVariation, ID: variation.ID})

	first, err := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if err != nil {
		t.Fatalf("resolve variation: %v", err)
	}
	if first.CostSource != CostSourceCached {
		t.Errorf("Expected cached cost after recalc, got %s", first.CostSource)
	}
	if !almostEqual(first.TotalCost, 315) {
		t.Errorf("Expected cached total 315, got %v", first.TotalCost)
	}

	// a second pass writes the same number
	svcs.Recalc.Run(ctx, RecalcJob{Kind: RecalcVariation, ID: variation.ID})
	second, _ := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if !almostEqual(second.TotalCost, first.TotalCost) {
		t.Errorf("Recalc not idempotent: %v then %v", first.TotalCost, second.TotalCost)
	}

	// clearing removes the component entirely: cost collapses to zero
	if _, err := svcs.FabricMapping.ClearFabricMapping(ctx, &ClearFabricMappingRequest{
		VariationIDs: []string{variation.ID},
	}); err != nil {
		t.Fatalf("clear mapping: %v", err)
	}
	svcs.Recalc.Run(ctx, RecalcJob{Kind: RecalcVariation, ID: variation.ID})

	cleared, err := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if err != nil {
		t.Fatalf("resolve after clear: %v", err)
	}
	if !almostEqual(cleared.TotalCost, 0) {
		t.Errorf("Expected total 0 after clear, got %v", cleared.TotalCost)
	}
	if cleared.Lines[0].ComponentID != "" {
		t.Errorf("Expected no component after clear, got %s", cleared.Lines[0].ComponentID)
	}

	// map → clear → map lands in the same state as a fresh map
	if _, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
	}); err != nil {
		t.Fatalf("re-map fabric colour: %v", err)
	}
	svcs.Recalc.Run(ctx, RecalcJob{Kind: RecalcVariation, ID: variation.ID})
	remapped, _ := svcs.Resolver.ResolveVariation(ctx, variation.ID)
	if !almostEqual(remapped.TotalCost, 315) {
		t.Errorf("Expected total 315 after re-map, got %v", remapped.TotalCost)
	}
}

func TestMapFabricColourRejectsUnknownVariations(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	_, _, variation, _, _, colour := seedMappingFixture(t, db)

	_, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID, "no-such-variation"},
	})
	if !IsBadRequest(err) {
		t.Errorf("Expected bad request for unknown variation, got %v", err)
	}

	// nothing was written for the valid id either
	lines, listErr := svcs.BOM.ListVariationLines(ctx, variation.ID)
	if listErr != nil {
		t.Fatalf("list variation lines: %v", listErr)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no lines after rejected batch, got %d", len(lines))
	}
}

func TestMapFabricColourRejectsNonFabricRole(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()
	_, _, variation, _, _, colour := seedMappingFixture(t, db)
	trimRole := testutil.SeedRole(t, db, "buttons", entity.ComponentTypeTrim)

	_, err := svcs.FabricMapping.MapFabricColour(ctx, &MapFabricColourRequest{
		FabricColourID: colour.ID,
		VariationIDs:   []string{variation.ID},
		RoleID:         trimRole.ID,
	})
	if !IsBadRequest(err) {
		t.Errorf("Expected bad request for trim role, got %v", err)
	}
}
