package repository

import (
	"context"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"gorm.io/gorm"
)

// ProductRepository product / variation / SKU access
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products filtered by status with pagination
func (r *ProductRepository) List(ctx context.Context, page, pageSize int, status string) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Product{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("code ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListActive returns all active products ordered by code
func (r *ProductRepository) ListActive(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if err := r.db.WithContext(ctx).
		Where("status = ?", entity.StatusActive).
		Order("code ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) CreateVariation(ctx context.Context, variation *entity.Variation) error {
	return r.db.WithContext(ctx).Create(variation).Error
}

func (r *ProductRepository) UpdateVariation(ctx context.Context, variation *entity.Variation) error {
	return r.db.WithContext(ctx).Save(variation).Error
}

func (r *ProductRepository) FindVariationByID(ctx context.Context, id string) (*entity.Variation, error) {
	var variation entity.Variation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variation).Error; err != nil {
		return nil, err
	}
	return &variation, nil
}

// FindVariationsByIDs returns the variations for the given ids
func (r *ProductRepository) FindVariationsByIDs(ctx context.Context, ids []string) ([]entity.Variation, error) {
	var variations []entity.Variation
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

func (r *ProductRepository) ListVariations(ctx context.Context, productID string) ([]entity.Variation, error) {
	var variations []entity.Variation
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("colour ASC").
		Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

// SetVariationBOMCost persists the cached variation cost
func (r *ProductRepository) SetVariationBOMCost(ctx context.Context, id string, cost *float64) error {
	return r.db.WithContext(ctx).Model(&entity.Variation{}).
		Where("id = ?", id).
		Update("bom_cost", cost).Error
}

func (r *ProductRepository) CreateSKU(ctx context.Context, sku *entity.SKU) error {
	return r.db.WithContext(ctx).Create(sku).Error
}

func (r *ProductRepository) UpdateSKU(ctx context.Context, sku *entity.SKU) error {
	return r.db.WithContext(ctx).Save(sku).Error
}

func (r *ProductRepository) FindSKUByID(ctx context.Context, id string) (*entity.SKU, error) {
	var sku entity.SKU
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sku).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

// ListActiveSKUs returns a variation's active SKUs
func (r *ProductRepository) ListActiveSKUs(ctx context.Context, variationID string) ([]entity.SKU, error) {
	var skus []entity.SKU
	if err := r.db.WithContext(ctx).
		Where("variation_id = ? AND status = ?", variationID, entity.StatusActive).
		Order("size ASC").
		Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

func (r *ProductRepository) ListSKUs(ctx context.Context, variationID string) ([]entity.SKU, error) {
	var skus []entity.SKU
	if err := r.db.WithContext(ctx).
		Where("variation_id = ?", variationID).
		Order("size ASC").
		Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// ListActiveSKUsByProduct returns active SKUs across all variations of a
// product, with the owning variation preloaded.
func (r *ProductRepository) ListActiveSKUsByProduct(ctx context.Context, productID string) ([]entity.SKU, error) {
	var skus []entity.SKU
	if err := r.db.WithContext(ctx).
		Joins("JOIN variations ON variations.id = skus.variation_id").
		Where("variations.product_id = ? AND skus.status = ?", productID, entity.StatusActive).
		Preload("Variation").
		Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// SetSKUBOMCost persists the cached SKU cost
func (r *ProductRepository) SetSKUBOMCost(ctx context.Context, id string, cost *float64) error {
	return r.db.WithContext(ctx).Model(&entity.SKU{}).
		Where("id = ?", id).
		Update("bom_cost", cost).Error
}

// ResetAllFabricConsumption restores the legacy flat field on every SKU
func (r *ProductRepository) ResetAllFabricConsumption(ctx context.Context, metres float64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.SKU{}).
		Where("1 = 1").
		Update("fabric_consumption", metres)
	return res.RowsAffected, res.Error
}

// SetSKUFabricConsumption mirrors the legacy flat consumption field
func (r *ProductRepository) SetSKUFabricConsumption(ctx context.Context, id string, metres *float64) error {
	return r.db.WithContext(ctx).Model(&entity.SKU{}).
		Where("id = ?", id).
		Update("fabric_consumption", metres).Error
}
