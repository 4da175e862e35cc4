package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	inventity "github.com/vastralabs/karkhana/internal/inventory/entity"
	ordentity "github.com/vastralabs/karkhana/internal/orders/entity"
)

// DemandRepository read-only sales and stock aggregates feeding the demand
// forecast. It joins across the order, catalog and inventory tables, so it
// scans into its own row structs instead of domain entities.
type DemandRepository struct {
	db *gorm.DB
}

// NewDemandRepository creates a demand repository
func NewDemandRepository(db *gorm.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// WeekBucket one calendar week of order activity
type WeekBucket struct {
	Week    time.Time `json:"week"`
	Orders  int64     `json:"orders"`
	Revenue float64   `json:"revenue"`
}

// ProductWeekUnits units sold of one product in one calendar week
type ProductWeekUnits struct {
	Week        time.Time `json:"week"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Units       int64     `json:"units"`
}

// SizeUnits units sold of one product in one size
type SizeUnits struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Units     int64  `json:"units"`
}

// VariationUnits units sold of one colourway of a product
type VariationUnits struct {
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id"`
	Colour      string `json:"colour"`
	Units       int64  `json:"units"`
}

// ColourInfo display and costing details of one fabric colour
type ColourInfo struct {
	ID          string  `json:"id"`
	Colour      string  `json:"colour"`
	FabricName  string  `json:"fabric_name"`
	Unit        string  `json:"unit"`
	CostPerUnit float64 `json:"cost_per_unit"`
}

// WeeklyOrders aggregates non-cancelled orders into calendar-week buckets in
// ascending week order
func (r *DemandRepository) WeeklyOrders(ctx context.Context) ([]WeekBucket, error) {
	var rows []WeekBucket
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("date_trunc('week', placed_at) AS week, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status <> ?", ordentity.OrderStatusCancelled).
		Group("week").
		Order("week").
		Scan(&rows).Error
	return rows, err
}

// WeeklyProductUnits aggregates units sold per product per calendar week
func (r *DemandRepository) WeeklyProductUnits(ctx context.Context) ([]ProductWeekUnits, error) {
	var rows []ProductWeekUnits
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("date_trunc('week', o.placed_at) AS week, p.id AS product_id, p.name AS product_name, SUM(oi.quantity) AS units").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN skus s ON s.id = oi.sku_id").
		Joins("JOIN variations v ON v.id = s.variation_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("o.status <> ?", ordentity.OrderStatusCancelled).
		Group("week, p.id, p.name").
		Order("week").
		Scan(&rows).Error
	return rows, err
}

// SizeMix aggregates units sold per product per size since the given date
func (r *DemandRepository) SizeMix(ctx context.Context, since time.Time) ([]SizeUnits, error) {
	var rows []SizeUnits
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("p.id AS product_id, s.size, SUM(oi.quantity) AS units").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN skus s ON s.id = oi.sku_id").
		Joins("JOIN variations v ON v.id = s.variation_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("o.status <> ? AND o.placed_at >= ?", ordentity.OrderStatusCancelled, since).
		Group("p.id, s.size").
		Scan(&rows).Error
	return rows, err
}

// VariationMix aggregates units sold per product per colourway since the
// given date
func (r *DemandRepository) VariationMix(ctx context.Context, since time.Time) ([]VariationUnits, error) {
	var rows []VariationUnits
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("p.id AS product_id, v.id AS variation_id, v.colour, SUM(oi.quantity) AS units").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN skus s ON s.id = oi.sku_id").
		Joins("JOIN variations v ON v.id = s.variation_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("o.status <> ? AND o.placed_at >= ?", ordentity.OrderStatusCancelled, since).
		Group("p.id, v.id, v.colour").
		Scan(&rows).Error
	return rows, err
}

// ColourStock returns on-hand quantity per fabric colour id
func (r *DemandRepository) ColourStock(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		MaterialID string
		OnHand     float64
	}
	err := r.db.WithContext(ctx).
		Table("material_stocks").
		Select("material_id, on_hand").
		Where("material_kind = ?", inventity.MaterialKindFabricColour).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stock := make(map[string]float64, len(rows))
	for _, row := range rows {
		stock[row.MaterialID] = row.OnHand
	}
	return stock, nil
}

// ColourDetails returns display and costing info per fabric colour id. A
// colour without its own cost inherits the parent fabric's.
func (r *DemandRepository) ColourDetails(ctx context.Context) (map[string]ColourInfo, error) {
	var rows []ColourInfo
	err := r.db.WithContext(ctx).
		Table("fabric_colours AS fc").
		Select("fc.id, fc.colour, f.name AS fabric_name, f.unit, COALESCE(fc.cost_per_unit, f.cost_per_unit) AS cost_per_unit").
		Joins("JOIN fabrics f ON f.id = fc.fabric_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	details := make(map[string]ColourInfo, len(rows))
	for _, row := range rows {
		details[row.ID] = row
	}
	return details, nil
}
