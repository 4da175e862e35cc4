package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vastralabs/karkhana/internal/orders/entity"
)

// OrderRepository order, order item and return persistence
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// DB returns the underlying connection for transaction scoping
func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}

// CreateOrder inserts an order header
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateOrderItems inserts order lines in one batch
func (r *OrderRepository) CreateOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindOrderByID loads an order with its items
func (r *OrderRepository) FindOrderByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderByCode loads an order header by its code
func (r *OrderRepository) FindOrderByCode(ctx context.Context, code string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).First(&order, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders filtered by status with pagination
func (r *OrderRepository) ListOrders(ctx context.Context, status string, offset, limit int) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("placed_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus sets the status of one order
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CountOrderItemQuantity sums the ordered quantity of one SKU on one order
func (r *OrderRepository) CountOrderItemQuantity(ctx context.Context, orderID, skuID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&entity.OrderItem{}).
		Where("order_id = ? AND sku_id = ?", orderID, skuID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// CreateReturn inserts a return request
func (r *OrderRepository) CreateReturn(ctx context.Context, ret *entity.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

// FindReturnByID loads one return
func (r *OrderRepository) FindReturnByID(ctx context.Context, id string) (*entity.Return, error) {
	var ret entity.Return
	err := r.db.WithContext(ctx).First(&ret, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// ListReturns returns return requests filtered by status with pagination
func (r *OrderRepository) ListReturns(ctx context.Context, status string, offset, limit int) ([]entity.Return, int64, error) {
	var returns []entity.Return
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Return{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Order").Order("created_at DESC").Offset(offset).Limit(limit).Find(&returns).Error
	if err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// SumReturnedQuantity sums accepted returns of one SKU on one order
func (r *OrderRepository) SumReturnedQuantity(ctx context.Context, orderID, skuID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&entity.Return{}).
		Where("order_id = ? AND sku_id = ? AND status <> ?", orderID, skuID, entity.ReturnStatusRejected).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// UpdateReturnStatus sets the status of one return
func (r *OrderRepository) UpdateReturnStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Return{}).
		Where("id = ?", id).
		Update("status", status).Error
}
