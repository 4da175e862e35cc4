package service

import (
	"math"
	"testing"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
)

func floatPtr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEffectiveQuantity(t *testing.T) {
	cases := []struct {
		qty, wastage, want float64
	}{
		{1.5, 5, 1.575},
		{1.8, 5, 1.89},
		{2, 0, 2},
		{0, 10, 0},
	}
	for _, tc := range cases {
		got := effectiveQuantity(tc.qty, tc.wastage)
		if !almostEqual(got, tc.want) {
			t.Errorf("effectiveQuantity(%v, %v) = %v, want %v", tc.qty, tc.wastage, got, tc.want)
		}
	}
}

func TestLineCostFromTemplateDefaults(t *testing.T) {
	// 200/unit fabric, 1.5 units, 5% wastage
	got := lineCost(200, 1.5, 5, nil)
	if !almostEqual(got, 315) {
		t.Errorf("Expected line cost 315, got %v", got)
	}
}

func TestLineCostWithSKUQuantity(t *testing.T) {
	// XXL cut consumes 1.8 units of the same fabric
	got := lineCost(200, 1.8, 5, nil)
	if !almostEqual(got, 378) {
		t.Errorf("Expected line cost 378, got %v", got)
	}
}

func TestLineCostOverrideShortCircuits(t *testing.T) {
	// the override replaces the computation entirely, wastage ignored
	got := lineCost(200, 1.8, 5, floatPtr(410))
	if !almostEqual(got, 410) {
		t.Errorf("Expected override cost 410, got %v", got)
	}

	got = lineCost(0, 0, 0, floatPtr(0))
	if !almostEqual(got, 0) {
		t.Errorf("Expected zero override cost, got %v", got)
	}
}

func TestResolveQuantityTierPrecedence(t *testing.T) {
	tpl := &entity.ProductBOMTemplate{Quantity: 1.5, WastagePercent: 5}
	varLine := &entity.VariationBOMLine{Quantity: floatPtr(1.6)}
	skuLine := &entity.SKUBOMLine{Quantity: floatPtr(1.8)}

	got := resolveQuantity(tpl, varLine, skuLine)
	if got.Value != 1.8 || got.Source != SourceSKU {
		t.Errorf("Expected 1.8 from sku, got %v from %s", got.Value, got.Source)
	}

	got = resolveQuantity(tpl, varLine, nil)
	if got.Value != 1.6 || got.Source != SourceVariation {
		t.Errorf("Expected 1.6 from variation, got %v from %s", got.Value, got.Source)
	}

	// a sku line without its own quantity inherits from below
	got = resolveQuantity(tpl, varLine, &entity.SKUBOMLine{})
	if got.Value != 1.6 || got.Source != SourceVariation {
		t.Errorf("Expected inherit 1.6 from variation, got %v from %s", got.Value, got.Source)
	}

	got = resolveQuantity(tpl, nil, nil)
	if got.Value != 1.5 || got.Source != SourceTemplate {
		t.Errorf("Expected 1.5 from template, got %v from %s", got.Value, got.Source)
	}

	got = resolveQuantity(nil, nil, nil)
	if got.Value != 0 || got.Source != SourceDefault {
		t.Errorf("Expected zero default, got %v from %s", got.Value, got.Source)
	}
}

func TestResolveWastageTierPrecedence(t *testing.T) {
	tpl := &entity.ProductBOMTemplate{WastagePercent: 5}

	got := resolveWastage(tpl, nil, &entity.SKUBOMLine{WastagePercent: floatPtr(8)})
	if got.Value != 8 || got.Source != SourceSKU {
		t.Errorf("Expected 8 from sku, got %v from %s", got.Value, got.Source)
	}

	got = resolveWastage(tpl, &entity.VariationBOMLine{WastagePercent: floatPtr(6)}, nil)
	if got.Value != 6 || got.Source != SourceVariation {
		t.Errorf("Expected 6 from variation, got %v from %s", got.Value, got.Source)
	}

	got = resolveWastage(tpl, nil, nil)
	if got.Value != 5 || got.Source != SourceTemplate {
		t.Errorf("Expected 5 from template, got %v from %s", got.Value, got.Source)
	}
}

func TestComponentInfoTierPrecedence(t *testing.T) {
	fabric := &entity.Fabric{ID: "fab1", Name: "Rayon Slub", CostPerUnit: 200}
	red := &entity.FabricColour{ID: "col-red", FabricID: "fab1", Colour: "Red", Fabric: fabric}
	blue := &entity.FabricColour{ID: "col-blue", FabricID: "fab1", Colour: "Blue", CostPerUnit: floatPtr(220), Fabric: fabric}

	varLine := &entity.VariationBOMLine{FabricColour: red}
	skuLine := &entity.SKUBOMLine{FabricColour: blue}

	id, name, cost := componentInfo(nil, varLine, skuLine)
	if id != "col-blue" || cost != 220 {
		t.Errorf("Expected sku colour col-blue at 220, got %s at %v", id, cost)
	}
	if name != "Rayon Slub / Blue" {
		t.Errorf("Expected composite name, got %q", name)
	}

	// colour without own cost falls back to the parent fabric
	id, _, cost = componentInfo(nil, varLine, nil)
	if id != "col-red" || cost != 200 {
		t.Errorf("Expected variation colour col-red at fabric cost 200, got %s at %v", id, cost)
	}

	// trim at template level
	tpl := &entity.ProductBOMTemplate{TrimItem: &entity.TrimItem{ID: "trim1", Name: "Zipper", CostPerUnit: 30}}
	id, name, cost = componentInfo(tpl, nil, nil)
	if id != "trim1" || name != "Zipper" || cost != 30 {
		t.Errorf("Expected template trim, got %s/%s at %v", id, name, cost)
	}

	id, name, cost = componentInfo(nil, nil, nil)
	if id != "" || name != "" || cost != 0 {
		t.Errorf("Expected empty component, got %s/%s at %v", id, name, cost)
	}
}

func TestBuildSKUSpread(t *testing.T) {
	fabric := &entity.Fabric{ID: "fab1", Name: "Rayon", CostPerUnit: 200}
	colour := &entity.FabricColour{ID: "col1", FabricID: "fab1", Colour: "Red", Fabric: fabric}

	tpl := &entity.ProductBOMTemplate{Quantity: 1.5, WastagePercent: 5}
	varLine := &entity.VariationBOMLine{FabricColour: colour}

	skuLines := []*entity.SKUBOMLine{
		{},                           // inherits 1.5 → 315
		{Quantity: floatPtr(1.8)},    // 378
		{OverrideCost: floatPtr(300)}, // flat 300, qty still inherited 1.5
	}

	spread := buildSKUSpread(tpl, varLine, skuLines)

	if spread.SKUCount != 3 {
		t.Errorf("Expected 3 skus, got %d", spread.SKUCount)
	}
	if !almostEqual(spread.MinQty, 1.5) {
		t.Errorf("Expected min qty 1.5, got %v", spread.MinQty)
	}
	if !almostEqual(spread.MaxQty, 1.8) {
		t.Errorf("Expected max qty 1.8, got %v", spread.MaxQty)
	}
	want := (315.0 + 378.0 + 300.0) / 3.0
	if !almostEqual(spread.AvgCost, want) {
		t.Errorf("Expected avg cost %v, got %v", want, spread.AvgCost)
	}
}

func TestBuildSKUSpreadIncludesInheritingSKUs(t *testing.T) {
	fabric := &entity.Fabric{ID: "fab1", Name: "Rayon", CostPerUnit: 200}
	colour := &entity.FabricColour{ID: "col1", FabricID: "fab1", Colour: "Red", Fabric: fabric}

	tpl := &entity.ProductBOMTemplate{Quantity: 1.5, WastagePercent: 5}
	varLine := &entity.VariationBOMLine{FabricColour: colour}

	// only one size carries its own line; the other inherits 1.5 → 315
	skuLines := []*entity.SKUBOMLine{
		nil,
		{Quantity: floatPtr(1.8)},
	}

	spread := buildSKUSpread(tpl, varLine, skuLines)

	if spread.SKUCount != 2 {
		t.Errorf("Expected 2 skus, got %d", spread.SKUCount)
	}
	if !almostEqual(spread.MinQty, 1.5) {
		t.Errorf("Expected min qty 1.5 from the inheriting sku, got %v", spread.MinQty)
	}
	if !almostEqual(spread.MaxQty, 1.8) {
		t.Errorf("Expected max qty 1.8, got %v", spread.MaxQty)
	}
	want := (315.0 + 378.0) / 2.0
	if !almostEqual(spread.AvgCost, want) {
		t.Errorf("Expected avg cost %v, got %v", want, spread.AvgCost)
	}
}

func TestMergeLineTemplateOnly(t *testing.T) {
	role := &entity.ComponentRole{ID: "r1", Code: "main_fabric", Name: "Main Fabric", ComponentType: entity.ComponentTypeFabric, DefaultUnit: "metres"}
	tpl := &entity.ProductBOMTemplate{RoleID: "r1", Quantity: 1.5, WastagePercent: 5, Unit: "metres"}

	line := mergeLine(role, tpl, nil, nil)

	if line.Quantity.Value != 1.5 || line.Quantity.Source != SourceTemplate {
		t.Errorf("Expected template quantity, got %v from %s", line.Quantity.Value, line.Quantity.Source)
	}
	if !almostEqual(line.EffectiveQty, 1.575) {
		t.Errorf("Expected effective qty 1.575, got %v", line.EffectiveQty)
	}
	// no component assigned yet: zero cost, but the line still appears
	if line.LineCost != 0 || line.ComponentID != "" {
		t.Errorf("Expected unassigned zero-cost line, got cost %v component %q", line.LineCost, line.ComponentID)
	}
}

func TestSortTemplatesByRole(t *testing.T) {
	tpls := []entity.ProductBOMTemplate{
		{Role: &entity.ComponentRole{Code: "buttons", SortOrder: 4}},
		{Role: &entity.ComponentRole{Code: "main_fabric", SortOrder: 1}},
		{Role: &entity.ComponentRole{Code: "lining", SortOrder: 2}},
		{Role: &entity.ComponentRole{Code: "aglets", SortOrder: 2}},
	}
	sortTemplatesByRole(tpls)

	wantOrder := []string{"main_fabric", "aglets", "lining", "buttons"}
	for i, want := range wantOrder {
		if tpls[i].Role.Code != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, tpls[i].Role.Code)
		}
	}
}
