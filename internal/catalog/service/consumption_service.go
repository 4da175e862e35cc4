package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

// legacyDefaultConsumption metres per piece written back by a grid reset,
// matching what the flat field held before per-size lines existed
const legacyDefaultConsumption = 1.5

// ConsumptionService the product × size fabric-consumption grid. Reads merge
// SKU lines, the legacy flat field and template defaults; writes fan one
// (product, size) cell out to every colourway SKU of that size.
type ConsumptionService struct {
	db          *gorm.DB
	bomRepo     *repository.BOMRepository
	productRepo *repository.ProductRepository
	roleSvc     *RoleService
	recalc      *RecalcService
	logger      *zap.Logger
}

// NewConsumptionService creates a consumption grid service
func NewConsumptionService(
	db *gorm.DB,
	bomRepo *repository.BOMRepository,
	productRepo *repository.ProductRepository,
	roleSvc *RoleService,
	recalc *RecalcService,
	logger *zap.Logger,
) *ConsumptionService {
	return &ConsumptionService{
		db:          db,
		bomRepo:     bomRepo,
		productRepo: productRepo,
		roleSvc:     roleSvc,
		recalc:      recalc,
		logger:      logger,
	}
}

// GridCell one product × size cell. Quantity is nil when the size's SKUs
// disagree or nothing is set anywhere.
type GridCell struct {
	Quantity *float64 `json:"quantity"`
	SKUCount int      `json:"sku_count"`
}

// GridRow one product's row
type GridRow struct {
	ProductID   string               `json:"product_id"`
	ProductCode string               `json:"product_code"`
	ProductName string               `json:"product_name"`
	Cells       map[string]*GridCell `json:"cells"`
}

// Grid the full consumption grid
type Grid struct {
	Sizes []string  `json:"sizes"`
	Rows  []GridRow `json:"rows"`
}

// GridEntry one incoming cell edit. Quantity arrives as text because the
// sheet UIs upstream send whatever the cell held.
type GridEntry struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  string `json:"quantity"`
}

// ApplyGridRequest bulk grid write request
type ApplyGridRequest struct {
	Entries []GridEntry `json:"entries" binding:"required"`
}

// ApplyGridResult counts of a bulk grid write. LinesDeleted is only set by a
// grid reset.
type ApplyGridResult struct {
	ProductsUpdated int `json:"products_updated"`
	SKUsUpdated     int `json:"skus_updated"`
	SkippedRows     int `json:"skipped_rows"`
	LinesDeleted    int `json:"lines_deleted,omitempty"`
}

// BuildGrid assembles the grid over all active products and their active
// SKUs. Per-SKU quantity resolution: main-fabric SKU line → legacy flat
// field → product template default.
func (s *ConsumptionService) BuildGrid(ctx context.Context) (*Grid, error) {
	role, err := s.roleSvc.MainFabricRole(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	sizeSet := make(map[string]bool)
	var rows []GridRow
	for _, product := range products {
		skus, err := s.productRepo.ListActiveSKUsByProduct(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("list skus for %s: %w", product.ID, err)
		}
		if len(skus) == 0 {
			continue
		}

		lines, err := s.bomRepo.ListSKULinesByRoleForProduct(ctx, product.ID, role.ID)
		if err != nil {
			return nil, fmt.Errorf("list sku lines for %s: %w", product.ID, err)
		}
		lineBySKU := make(map[string]*entity.SKUBOMLine, len(lines))
		for i := range lines {
			lineBySKU[lines[i].SKUID] = &lines[i]
		}

		var templateDefault *float64
		if tpl, err := s.bomRepo.FindTemplate(ctx, product.ID, role.ID); err == nil {
			templateDefault = &tpl.Quantity
		}

		cells := make(map[string]*GridCell)
		for i := range skus {
			sku := &skus[i]
			sizeSet[sku.Size] = true

			qty := resolveConsumption(lineBySKU[sku.ID], sku, templateDefault)

			cell := cells[sku.Size]
			if cell == nil {
				cells[sku.Size] = &GridCell{Quantity: qty, SKUCount: 1}
				continue
			}
			cell.SKUCount++
			// blank the cell when colourways disagree
			if cell.Quantity == nil || qty == nil || *cell.Quantity != *qty {
				cell.Quantity = nil
			}
		}

		rows = append(rows, GridRow{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Cells:       cells,
		})
	}

	sizes := make([]string, 0, len(sizeSet))
	for size := range sizeSet {
		sizes = append(sizes, size)
	}
	sortSizes(sizes)

	return &Grid{Sizes: sizes, Rows: rows}, nil
}

// resolveConsumption picks the metres-per-piece for one SKU
func resolveConsumption(line *entity.SKUBOMLine, sku *entity.SKU, templateDefault *float64) *float64 {
	if line != nil && line.Quantity != nil {
		return line.Quantity
	}
	if sku.FabricConsumption != nil {
		return sku.FabricConsumption
	}
	return templateDefault
}

// ApplyGrid writes bulk (product, size, quantity) edits. Garbled rows are
// skipped and counted, never fatal: merchandisers paste whole sheets and a
// stray header or typo must not abort the batch. The whole write runs in one
// transaction.
func (s *ConsumptionService) ApplyGrid(ctx context.Context, req *ApplyGridRequest) (*ApplyGridResult, error) {
	role, err := s.roleSvc.MainFabricRole(ctx)
	if err != nil {
		return nil, err
	}

	result := &ApplyGridResult{}
	touchedProducts := make(map[string]bool)
	touchedVariations := make(map[string]bool)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txBOM := repository.NewBOMRepository(tx)
		txProduct := repository.NewProductRepository(tx)

		for _, entry := range req.Entries {
			qty, err := strconv.ParseFloat(strings.TrimSpace(entry.Quantity), 64)
			if err != nil || qty < 0 {
				result.SkippedRows++
				continue
			}
			size := strings.ToUpper(strings.TrimSpace(entry.Size))
			if entry.ProductID == "" || size == "" {
				result.SkippedRows++
				continue
			}

			skus, err := txProduct.ListActiveSKUsByProduct(ctx, entry.ProductID)
			if err != nil || len(skus) == 0 {
				result.SkippedRows++
				continue
			}

			matched := 0
			for i := range skus {
				sku := &skus[i]
				if !strings.EqualFold(sku.Size, size) {
					continue
				}
				q := qty
				line := &entity.SKUBOMLine{
					ID:       uuid.New().String()[:32],
					SKUID:    sku.ID,
					RoleID:   role.ID,
					Quantity: &q,
				}
				if err := txBOM.AssignSKUQuantity(ctx, line); err != nil {
					return fmt.Errorf("assign quantity to sku %s: %w", sku.ID, err)
				}
				if err := txProduct.SetSKUFabricConsumption(ctx, sku.ID, &q); err != nil {
					return fmt.Errorf("mirror legacy consumption for sku %s: %w", sku.ID, err)
				}
				matched++
				touchedVariations[sku.VariationID] = true
			}
			if matched == 0 {
				result.SkippedRows++
				continue
			}
			result.SKUsUpdated += matched
			touchedProducts[entry.ProductID] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.ProductsUpdated = len(touchedProducts)
	for id := range touchedVariations {
		s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcVariation, ID: id})
	}
	return result, nil
}

// ResetGrid deletes every main-fabric SKU line and restores the legacy flat
// field to its default
func (s *ConsumptionService) ResetGrid(ctx context.Context) (*ApplyGridResult, error) {
	role, err := s.roleSvc.MainFabricRole(ctx)
	if err != nil {
		return nil, err
	}

	result := &ApplyGridResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txBOM := repository.NewBOMRepository(tx)
		txProduct := repository.NewProductRepository(tx)

		deleted, err := txBOM.DeleteAllSKULinesByRole(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("delete sku lines: %w", err)
		}
		restored, err := txProduct.ResetAllFabricConsumption(ctx, legacyDefaultConsumption)
		if err != nil {
			return fmt.Errorf("reset legacy consumption: %w", err)
		}
		result.SKUsUpdated = int(restored)
		result.LinesDeleted = int(deleted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.ListActive(ctx)
	if err == nil {
		result.ProductsUpdated = len(products)
		for _, p := range products {
			s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcProduct, ID: p.ID})
		}
	}
	return result, nil
}

// ========== spreadsheet import/export ==========

// ExportExcel renders the grid as a styled workbook, one product per row and
// one size per column
func (s *ConsumptionService) ExportExcel(ctx context.Context) (*excelize.File, error) {
	grid, err := s.BuildGrid(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Consumption"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	headers := append([]string{"Product Code", "Product Name"}, grid.Sizes...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "A", "B", 22)

	for rowIdx, row := range grid.Rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx+2), row.ProductCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx+2), row.ProductName)
		for colIdx, size := range grid.Sizes {
			cellName, _ := excelize.CoordinatesToCellName(colIdx+3, rowIdx+2)
			if cell := row.Cells[size]; cell != nil && cell.Quantity != nil {
				f.SetCellValue(sheet, cellName, *cell.Quantity)
			}
		}
	}

	return f, nil
}

// ImportExcel reads a workbook in the export layout and applies it as a bulk
// grid write. The first column must carry product codes.
func (s *ConsumptionService) ImportExcel(ctx context.Context, reader io.Reader) (*ApplyGridResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", ErrBadRequest)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return s.applyTabular(ctx, cells)
}

// ImportLegacyCSV reads the old cutting-master CSV export. Those files come
// out of a Windows tool, so bytes are decoded as Windows-1252 before
// parsing. Row tolerance matches ApplyGrid: skip and count, never abort.
func (s *ConsumptionService) ImportLegacyCSV(ctx context.Context, reader io.Reader) (*ApplyGridResult, error) {
	decoded := transform.NewReader(reader, charmap.Windows1252.NewDecoder())
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed line, let applyTabular count the damage via headers
			continue
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: %w", ErrBadRequest)
	}
	return s.applyTabular(ctx, rows)
}

// applyTabular converts header+rows (code, name, sizes...) into grid entries
func (s *ConsumptionService) applyTabular(ctx context.Context, rows [][]string) (*ApplyGridResult, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows: %w", ErrBadRequest)
	}
	header := rows[0]
	if len(header) < 3 {
		return nil, fmt.Errorf("missing size columns: %w", ErrBadRequest)
	}
	sizes := header[2:]

	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	idByCode := make(map[string]string, len(products))
	for _, p := range products {
		idByCode[strings.ToUpper(p.Code)] = p.ID
	}

	req := &ApplyGridRequest{}
	skippedRows := 0
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		productID := idByCode[strings.ToUpper(strings.TrimSpace(row[0]))]
		if productID == "" {
			skippedRows++
			continue
		}
		for i, size := range sizes {
			col := i + 2
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			req.Entries = append(req.Entries, GridEntry{
				ProductID: productID,
				Size:      size,
				Quantity:  row[col],
			})
		}
	}

	result, err := s.ApplyGrid(ctx, req)
	if err != nil {
		return nil, err
	}
	result.SkippedRows += skippedRows
	return result, nil
}
