package service

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
)

func setLegacyConsumption(t *testing.T, db *gorm.DB, skuID string, qty float64) {
	t.Helper()
	if err := db.Model(&entity.SKU{}).Where("id = ?", skuID).Update("fabric_consumption", qty).Error; err != nil {
		t.Fatalf("Failed to set legacy consumption: %v", err)
	}
}

func fetchSKU(t *testing.T, db *gorm.DB, skuID string) *entity.SKU {
	t.Helper()
	var sku entity.SKU
	if err := db.First(&sku, "id = ?", skuID).Error; err != nil {
		t.Fatalf("Failed to fetch sku: %v", err)
	}
	return &sku
}

func TestBuildGridResolutionOrder(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	role := testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-201", "Kurta")
	variation := testutil.SeedVariation(t, db, product.ID, "red")
	testutil.SeedSKU(t, db, variation.ID, "S")
	skuM := testutil.SeedSKU(t, db, variation.ID, "M")
	skuL := testutil.SeedSKU(t, db, variation.ID, "L")

	if _, err := svcs.BOM.SetTemplateLine(ctx, product.ID, &SetTemplateLineRequest{
		RoleID: role.ID, Quantity: 1.5, Unit: "metres",
	}); err != nil {
		t.Fatalf("set template line: %v", err)
	}

	// M carries only the legacy flat field, L has a per-size line on top of it
	setLegacyConsumption(t, db, skuM.ID, 1.6)
	setLegacyConsumption(t, db, skuL.ID, 1.6)
	qtyL := 1.8
	if _, err := svcs.BOM.SetSKULine(ctx, skuL.ID, &SetSKULineRequest{RoleID: role.ID, Quantity: &qtyL}); err != nil {
		t.Fatalf("set sku line: %v", err)
	}
	grid, err := svcs.Consumption.BuildGrid(ctx)
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}

	wantSizes := []string{"S", "M", "L"}
	if len(grid.Sizes) != len(wantSizes) {
		t.Fatalf("Expected sizes %v, got %v", wantSizes, grid.Sizes)
	}
	for i, want := range wantSizes {
		if grid.Sizes[i] != want {
			t.Errorf("Size %d: expected %s, got %s", i, want, grid.Sizes[i])
		}
	}
	if len(grid.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(grid.Rows))
	}
	cells := grid.Rows[0].Cells

	if cells["S"] == nil || cells["S"].Quantity == nil || *cells["S"].Quantity != 1.5 {
		t.Errorf("Expected S cell 1.5 from template, got %+v", cells["S"])
	}
	if cells["M"] == nil || cells["M"].Quantity == nil || *cells["M"].Quantity != 1.6 {
		t.Errorf("Expected M cell 1.6 from legacy field, got %+v", cells["M"])
	}
	if cells["L"] == nil || cells["L"].Quantity == nil || *cells["L"].Quantity != 1.8 {
		t.Errorf("Expected L cell 1.8 from sku line, got %+v", cells["L"])
	}
}

func TestBuildGridBlanksDisagreeingColourways(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	role := testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-202", "Kurta Set")
	red := testutil.SeedVariation(t, db, product.ID, "red")
	blue := testutil.SeedVariation(t, db, product.ID, "blue")
	redM := testutil.SeedSKU(t, db, red.ID, "M")
	blueM := testutil.SeedSKU(t, db, blue.ID, "M")
	redXXL := testutil.SeedSKU(t, db, red.ID, "XXL")

	q15, q17, q18 := 1.5, 1.7, 1.8
	for sku, qty := range map[string]*float64{redM.ID: &q15, blueM.ID: &q17, redXXL.ID: &q18} {
		if _, err := svcs.BOM.SetSKULine(ctx, sku, &SetSKULineRequest{RoleID: role.ID, Quantity: qty}); err != nil {
			t.Fatalf("set sku line: %v", err)
		}
	}

	grid, err := svcs.Consumption.BuildGrid(ctx)
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	cells := grid.Rows[0].Cells

	if cells["M"] == nil || cells["M"].SKUCount != 2 {
		t.Fatalf("Expected 2 skus behind M cell, got %+v", cells["M"])
	}
	if cells["M"].Quantity != nil {
		t.Errorf("Expected blank M cell on colourway disagreement, got %v", *cells["M"].Quantity)
	}
	if cells["XXL"] == nil || cells["XXL"].Quantity == nil || *cells["XXL"].Quantity != 1.8 {
		t.Errorf("Expected XXL cell 1.8, got %+v", cells["XXL"])
	}
}

func TestApplyGridFansOutAndSkipsGarbage(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-203", "Anarkali")
	red := testutil.SeedVariation(t, db, product.ID, "red")
	blue := testutil.SeedVariation(t, db, product.ID, "blue")
	redM := testutil.SeedSKU(t, db, red.ID, "M")
	blueM := testutil.SeedSKU(t, db, blue.ID, "M")
	testutil.SeedSKU(t, db, red.ID, "XXL")

	result, err := svcs.Consumption.ApplyGrid(ctx, &ApplyGridRequest{Entries: []GridEntry{
		{ProductID: product.ID, Size: " m ", Quantity: "1.8"},
		{ProductID: product.ID, Size: "XXL", Quantity: "2.0"},
		{ProductID: product.ID, Size: "M", Quantity: "abc"},
		{ProductID: product.ID, Size: "", Quantity: "2"},
		{ProductID: "", Size: "M", Quantity: "2"},
		{ProductID: product.ID, Size: "XS", Quantity: "2"},
		{ProductID: product.ID, Size: "M", Quantity: "-1"},
	}})
	if err != nil {
		t.Fatalf("apply grid: %v", err)
	}

	// "m" fans out to both colourways, XXL hits one sku
	if result.SKUsUpdated != 3 {
		t.Errorf("Expected 3 skus updated, got %d", result.SKUsUpdated)
	}
	if result.ProductsUpdated != 1 {
		t.Errorf("Expected 1 product updated, got %d", result.ProductsUpdated)
	}
	if result.SkippedRows != 4 {
		t.Errorf("Expected 4 skipped rows, got %d", result.SkippedRows)
	}

	// the legacy flat field mirrors every write
	for _, id := range []string{redM.ID, blueM.ID} {
		sku := fetchSKU(t, db, id)
		if sku.FabricConsumption == nil || *sku.FabricConsumption != 1.8 {
			t.Errorf("Expected mirrored consumption 1.8 on sku %s, got %v", id, sku.FabricConsumption)
		}
	}

	grid, err := svcs.Consumption.BuildGrid(ctx)
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	cells := grid.Rows[0].Cells
	if cells["M"] == nil || cells["M"].Quantity == nil || *cells["M"].Quantity != 1.8 {
		t.Errorf("Expected M cell 1.8 after apply, got %+v", cells["M"])
	}
}

func TestResetGridRestoresDefaults(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-204", "Sharara")
	variation := testutil.SeedVariation(t, db, product.ID, "green")
	skuM := testutil.SeedSKU(t, db, variation.ID, "M")

	if _, err := svcs.Consumption.ApplyGrid(ctx, &ApplyGridRequest{Entries: []GridEntry{
		{ProductID: product.ID, Size: "M", Quantity: "1.8"},
	}}); err != nil {
		t.Fatalf("apply grid: %v", err)
	}

	result, err := svcs.Consumption.ResetGrid(ctx)
	if err != nil {
		t.Fatalf("reset grid: %v", err)
	}
	if result.SKUsUpdated == 0 {
		t.Error("Expected reset to touch at least one sku")
	}
	if result.LinesDeleted != 1 {
		t.Errorf("Expected 1 line deleted, got %d", result.LinesDeleted)
	}

	lines, err := svcs.BOM.ListSKULines(ctx, skuM.ID)
	if err != nil {
		t.Fatalf("list sku lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no sku lines after reset, got %d", len(lines))
	}

	sku := fetchSKU(t, db, skuM.ID)
	if sku.FabricConsumption == nil || *sku.FabricConsumption != 1.5 {
		t.Errorf("Expected legacy consumption restored to 1.5, got %v", sku.FabricConsumption)
	}

	grid, err := svcs.Consumption.BuildGrid(ctx)
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	cell := grid.Rows[0].Cells["M"]
	if cell == nil || cell.Quantity == nil || *cell.Quantity != 1.5 {
		t.Errorf("Expected M cell 1.5 after reset, got %+v", cell)
	}
}

func TestImportLegacyCSV(t *testing.T) {
	svcs, db := newTestServices(t)
	ctx := context.Background()

	testutil.SeedRole(t, db, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	product := testutil.SeedProduct(t, db, "KU-205", "Lehenga")
	variation := testutil.SeedVariation(t, db, product.ID, "gold")
	skuM := testutil.SeedSKU(t, db, variation.ID, "M")
	testutil.SeedSKU(t, db, variation.ID, "XXL")

	csvData := strings.Join([]string{
		"code,name,M,XXL",
		"ku-205,Lehenga,1.6,1.9",
		"NOPE,Unknown,2.0,2.0",
	}, "\n")

	result, err := svcs.Consumption.ImportLegacyCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if result.SKUsUpdated != 2 {
		t.Errorf("Expected 2 skus updated, got %d", result.SKUsUpdated)
	}
	if result.SkippedRows != 1 {
		t.Errorf("Expected 1 skipped row for the unknown code, got %d", result.SkippedRows)
	}

	sku := fetchSKU(t, db, skuM.ID)
	if sku.FabricConsumption == nil || *sku.FabricConsumption != 1.6 {
		t.Errorf("Expected consumption 1.6 after import, got %v", sku.FabricConsumption)
	}
}
