package repository

import (
	"context"
	"time"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BOMRepository three-tier BOM line access
type BOMRepository struct {
	db *gorm.DB
}

// NewBOMRepository creates a BOM repository
func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// DB exposes the underlying handle for multi-repo transactions
func (r *BOMRepository) DB() *gorm.DB {
	return r.db
}

// ========== Product BOM templates ==========

// UpsertTemplate inserts or fully updates the (product, role) template row
func (r *BOMRepository) UpsertTemplate(ctx context.Context, tpl *entity.ProductBOMTemplate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "unit", "wastage_percent", "trim_item_id", "service_item_id", "notes", "updated_at",
		}),
	}).Create(tpl).Error
}

// EnsureTemplate inserts the (product, role) template row only when missing.
// Existing rows keep their tuned quantities.
func (r *BOMRepository) EnsureTemplate(ctx context.Context, tpl *entity.ProductBOMTemplate) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "role_id"}},
		DoNothing: true,
	}).Create(tpl)
	return tx.RowsAffected > 0, tx.Error
}

func (r *BOMRepository) FindTemplate(ctx context.Context, productID, roleID string) (*entity.ProductBOMTemplate, error) {
	var tpl entity.ProductBOMTemplate
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND role_id = ?", productID, roleID).
		First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// ListTemplates returns a product's template rows with roles and components preloaded
func (r *BOMRepository) ListTemplates(ctx context.Context, productID string) ([]entity.ProductBOMTemplate, error) {
	var tpls []entity.ProductBOMTemplate
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("TrimItem").
		Preload("ServiceItem").
		Where("product_id = ?", productID).
		Find(&tpls).Error; err != nil {
		return nil, err
	}
	return tpls, nil
}

func (r *BOMRepository) DeleteTemplate(ctx context.Context, productID, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND role_id = ?", productID, roleID).
		Delete(&entity.ProductBOMTemplate{})
	return res.RowsAffected, res.Error
}

// ========== Variation BOM lines ==========

// UpsertVariationLine inserts or fully updates the (variation, role) line
func (r *BOMRepository) UpsertVariationLine(ctx context.Context, line *entity.VariationBOMLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "variation_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "wastage_percent", "fabric_colour_id", "trim_item_id", "service_item_id", "notes", "updated_at",
		}),
	}).Create(line).Error
}

// AssignFabricColour upserts the (variation, role) line touching ONLY the
// fabric colour. Existing quantity and wastage overrides survive remapping.
func (r *BOMRepository) AssignFabricColour(ctx context.Context, line *entity.VariationBOMLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "variation_id"}, {Name: "role_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"fabric_colour_id": line.FabricColourID,
			"updated_at":       time.Now(),
		}),
	}).Create(line).Error
}

func (r *BOMRepository) FindVariationLine(ctx context.Context, variationID, roleID string) (*entity.VariationBOMLine, error) {
	var line entity.VariationBOMLine
	if err := r.db.WithContext(ctx).
		Where("variation_id = ? AND role_id = ?", variationID, roleID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// ListVariationLines returns a variation's lines with components preloaded
// (fabric colours carry their parent fabric for cost fallback)
func (r *BOMRepository) ListVariationLines(ctx context.Context, variationID string) ([]entity.VariationBOMLine, error) {
	var lines []entity.VariationBOMLine
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("FabricColour.Fabric").
		Preload("TrimItem").
		Preload("ServiceItem").
		Where("variation_id = ?", variationID).
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *BOMRepository) DeleteVariationLine(ctx context.Context, variationID, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("variation_id = ? AND role_id = ?", variationID, roleID).
		Delete(&entity.VariationBOMLine{})
	return res.RowsAffected, res.Error
}

// DeleteVariationLinesByRole removes the role's line from each variation.
// Used by fabric mapping clear: the row goes away, not just the reference.
func (r *BOMRepository) DeleteVariationLinesByRole(ctx context.Context, variationIDs []string, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("variation_id IN ? AND role_id = ?", variationIDs, roleID).
		Delete(&entity.VariationBOMLine{})
	return res.RowsAffected, res.Error
}

// ========== SKU BOM lines ==========

// UpsertSKULine inserts or fully updates the (sku, role) line
func (r *BOMRepository) UpsertSKULine(ctx context.Context, line *entity.SKUBOMLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "wastage_percent", "override_cost", "fabric_colour_id", "trim_item_id", "service_item_id", "notes", "updated_at",
		}),
	}).Create(line).Error
}

// AssignSKUQuantity upserts the (sku, role) line touching ONLY the quantity.
// Override costs and component picks on existing lines survive grid edits.
func (r *BOMRepository) AssignSKUQuantity(ctx context.Context, line *entity.SKUBOMLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku_id"}, {Name: "role_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   line.Quantity,
			"updated_at": time.Now(),
		}),
	}).Create(line).Error
}

func (r *BOMRepository) FindSKULine(ctx context.Context, skuID, roleID string) (*entity.SKUBOMLine, error) {
	var line entity.SKUBOMLine
	if err := r.db.WithContext(ctx).
		Where("sku_id = ? AND role_id = ?", skuID, roleID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *BOMRepository) ListSKULines(ctx context.Context, skuID string) ([]entity.SKUBOMLine, error) {
	var lines []entity.SKUBOMLine
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("FabricColour.Fabric").
		Preload("TrimItem").
		Preload("ServiceItem").
		Where("sku_id = ?", skuID).
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ListSKULinesForVariation returns every SKU line under a variation's active
// SKUs, grouped by the caller
func (r *BOMRepository) ListSKULinesForVariation(ctx context.Context, variationID string) ([]entity.SKUBOMLine, error) {
	var lines []entity.SKUBOMLine
	if err := r.db.WithContext(ctx).
		Joins("JOIN skus ON skus.id = sku_bom_lines.sku_id").
		Where("skus.variation_id = ? AND skus.status = ?", variationID, entity.StatusActive).
		Preload("FabricColour.Fabric").
		Preload("TrimItem").
		Preload("ServiceItem").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ListSKULinesByRoleForProduct returns one role's SKU lines across every
// active SKU of a product
func (r *BOMRepository) ListSKULinesByRoleForProduct(ctx context.Context, productID, roleID string) ([]entity.SKUBOMLine, error) {
	var lines []entity.SKUBOMLine
	if err := r.db.WithContext(ctx).
		Joins("JOIN skus ON skus.id = sku_bom_lines.sku_id").
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Where("variations.product_id = ? AND sku_bom_lines.role_id = ? AND skus.status = ?",
			productID, roleID, entity.StatusActive).
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// DeleteAllSKULinesByRole removes every SKU line carrying the role. Used by
// the consumption grid reset.
func (r *BOMRepository) DeleteAllSKULinesByRole(ctx context.Context, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Delete(&entity.SKUBOMLine{})
	return res.RowsAffected, res.Error
}

func (r *BOMRepository) DeleteSKULine(ctx context.Context, skuID, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sku_id = ? AND role_id = ?", skuID, roleID).
		Delete(&entity.SKUBOMLine{})
	return res.RowsAffected, res.Error
}

// DeleteSKULinesByRole removes the role's line from each SKU
func (r *BOMRepository) DeleteSKULinesByRole(ctx context.Context, skuIDs []string, roleID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sku_id IN ? AND role_id = ?", skuIDs, roleID).
		Delete(&entity.SKUBOMLine{})
	return res.RowsAffected, res.Error
}
