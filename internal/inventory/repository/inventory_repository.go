package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vastralabs/karkhana/internal/inventory/entity"
)

// InventoryRepository supplier, stock and movement persistence
type InventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates an inventory repository
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// DB returns the underlying connection for transaction scoping
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}

// CreateSupplier inserts a supplier
func (r *InventoryRepository) CreateSupplier(ctx context.Context, supplier *entity.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// UpdateSupplier saves a supplier
func (r *InventoryRepository) UpdateSupplier(ctx context.Context, supplier *entity.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// FindSupplierByID loads one supplier
func (r *InventoryRepository) FindSupplierByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var supplier entity.Supplier
	err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers returns all suppliers ordered by name
func (r *InventoryRepository) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := r.db.WithContext(ctx).Order("name").Find(&suppliers).Error
	return suppliers, err
}

// CreateStock inserts a stock row
func (r *InventoryRepository) CreateStock(ctx context.Context, stock *entity.MaterialStock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

// FindStockByID loads one stock row with its supplier
func (r *InventoryRepository) FindStockByID(ctx context.Context, id string) (*entity.MaterialStock, error) {
	var stock entity.MaterialStock
	err := r.db.WithContext(ctx).Preload("Supplier").First(&stock, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindStockByMaterial loads the stock row of one material
func (r *InventoryRepository) FindStockByMaterial(ctx context.Context, kind, materialID string) (*entity.MaterialStock, error) {
	var stock entity.MaterialStock
	err := r.db.WithContext(ctx).
		First(&stock, "material_kind = ? AND material_id = ?", kind, materialID).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// ListStocks returns stock rows filtered by material kind with pagination
func (r *InventoryRepository) ListStocks(ctx context.Context, kind string, offset, limit int) ([]entity.MaterialStock, int64, error) {
	var stocks []entity.MaterialStock
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialStock{})
	if kind != "" {
		query = query.Where("material_kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Supplier").Order("created_at DESC").Offset(offset).Limit(limit).Find(&stocks).Error
	if err != nil {
		return nil, 0, err
	}
	return stocks, total, nil
}

// ListLowStocks returns stock rows at or below their reorder level
func (r *InventoryRepository) ListLowStocks(ctx context.Context) ([]entity.MaterialStock, error) {
	var stocks []entity.MaterialStock
	err := r.db.WithContext(ctx).
		Where("reorder_level > 0 AND on_hand <= reorder_level").
		Order("on_hand").
		Find(&stocks).Error
	return stocks, err
}

// AdjustOnHand applies a signed delta to one stock row
func (r *InventoryRepository) AdjustOnHand(ctx context.Context, id string, delta float64) error {
	return r.db.WithContext(ctx).Model(&entity.MaterialStock{}).
		Where("id = ?", id).
		Update("on_hand", gorm.Expr("on_hand + ?", delta)).Error
}

// SetOnHand overwrites the on-hand quantity of one stock row
func (r *InventoryRepository) SetOnHand(ctx context.Context, id string, quantity float64) error {
	return r.db.WithContext(ctx).Model(&entity.MaterialStock{}).
		Where("id = ?", id).
		Update("on_hand", quantity).Error
}

// CreateMovement inserts a movement record
func (r *InventoryRepository) CreateMovement(ctx context.Context, movement *entity.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListMovements returns movements of one stock row, newest first
func (r *InventoryRepository) ListMovements(ctx context.Context, stockID string, offset, limit int) ([]entity.StockMovement, int64, error) {
	var movements []entity.StockMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.StockMovement{}).Where("stock_id = ?", stockID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// CreateDocument inserts a material document record
func (r *InventoryRepository) CreateDocument(ctx context.Context, doc *entity.MaterialDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindDocumentByID loads one material document
func (r *InventoryRepository) FindDocumentByID(ctx context.Context, id string) (*entity.MaterialDocument, error) {
	var doc entity.MaterialDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocumentsByMaterial returns documents of one material, newest first
func (r *InventoryRepository) ListDocumentsByMaterial(ctx context.Context, kind, materialID string) ([]entity.MaterialDocument, error) {
	var docs []entity.MaterialDocument
	err := r.db.WithContext(ctx).
		Where("material_kind = ? AND material_id = ?", kind, materialID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}
