package repository

import (
	"context"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"gorm.io/gorm"
)

// RoleRepository component role registry access
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a role repository
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *entity.ComponentRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *RoleRepository) Update(ctx context.Context, role *entity.ComponentRole) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.ComponentRole{}, "id = ?", id).Error
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*entity.ComponentRole, error) {
	var role entity.ComponentRole
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) FindByCode(ctx context.Context, code, componentType string) (*entity.ComponentRole, error) {
	var role entity.ComponentRole
	if err := r.db.WithContext(ctx).
		Where("code = ? AND component_type = ?", code, componentType).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all roles ordered by sort order, optionally filtered by type
func (r *RoleRepository) List(ctx context.Context, componentType string) ([]entity.ComponentRole, error) {
	var roles []entity.ComponentRole
	q := r.db.WithContext(ctx).Order("sort_order ASC, code ASC")
	if componentType != "" {
		q = q.Where("component_type = ?", componentType)
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// FindByIDs returns the roles for the given ids keyed by id
func (r *RoleRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.ComponentRole, error) {
	var roles []entity.ComponentRole
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	out := make(map[string]entity.ComponentRole, len(roles))
	for _, role := range roles {
		out[role.ID] = role
	}
	return out, nil
}
