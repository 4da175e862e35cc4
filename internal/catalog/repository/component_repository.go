package repository

import (
	"context"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"gorm.io/gorm"
)

// ComponentRepository fabric / trim / service item access
type ComponentRepository struct {
	db *gorm.DB
}

// NewComponentRepository creates a component repository
func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

func (r *ComponentRepository) CreateFabric(ctx context.Context, fabric *entity.Fabric) error {
	return r.db.WithContext(ctx).Create(fabric).Error
}

func (r *ComponentRepository) UpdateFabric(ctx context.Context, fabric *entity.Fabric) error {
	return r.db.WithContext(ctx).Save(fabric).Error
}

func (r *ComponentRepository) FindFabricByID(ctx context.Context, id string) (*entity.Fabric, error) {
	var fabric entity.Fabric
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&fabric).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

func (r *ComponentRepository) ListFabrics(ctx context.Context, page, pageSize int) ([]entity.Fabric, int64, error) {
	var fabrics []entity.Fabric
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Fabric{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Colours").Order("code ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&fabrics).Error; err != nil {
		return nil, 0, err
	}
	return fabrics, total, nil
}

func (r *ComponentRepository) CreateFabricColour(ctx context.Context, colour *entity.FabricColour) error {
	return r.db.WithContext(ctx).Create(colour).Error
}

func (r *ComponentRepository) UpdateFabricColour(ctx context.Context, colour *entity.FabricColour) error {
	return r.db.WithContext(ctx).Save(colour).Error
}

// FindFabricColourByID loads a colour with its parent fabric for cost fallback
func (r *ComponentRepository) FindFabricColourByID(ctx context.Context, id string) (*entity.FabricColour, error) {
	var colour entity.FabricColour
	if err := r.db.WithContext(ctx).Preload("Fabric").
		Where("id = ?", id).First(&colour).Error; err != nil {
		return nil, err
	}
	return &colour, nil
}

func (r *ComponentRepository) ListFabricColours(ctx context.Context, fabricID string) ([]entity.FabricColour, error) {
	var colours []entity.FabricColour
	if err := r.db.WithContext(ctx).
		Where("fabric_id = ?", fabricID).
		Order("colour ASC").
		Find(&colours).Error; err != nil {
		return nil, err
	}
	return colours, nil
}

func (r *ComponentRepository) CreateTrimItem(ctx context.Context, item *entity.TrimItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ComponentRepository) UpdateTrimItem(ctx context.Context, item *entity.TrimItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *ComponentRepository) FindTrimItemByID(ctx context.Context, id string) (*entity.TrimItem, error) {
	var item entity.TrimItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ComponentRepository) ListTrimItems(ctx context.Context) ([]entity.TrimItem, error) {
	var items []entity.TrimItem
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ComponentRepository) CreateServiceItem(ctx context.Context, item *entity.ServiceItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ComponentRepository) UpdateServiceItem(ctx context.Context, item *entity.ServiceItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *ComponentRepository) FindServiceItemByID(ctx context.Context, id string) (*entity.ServiceItem, error) {
	var item entity.ServiceItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ComponentRepository) ListServiceItems(ctx context.Context) ([]entity.ServiceItem, error) {
	var items []entity.ServiceItem
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
