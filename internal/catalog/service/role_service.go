package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
)

const mainFabricRoleCacheKey = "catalog:role:main_fabric"

// RoleService component role registry
type RoleService struct {
	repo   *repository.RoleRepository
	recalc *RecalcService
	rdb    *redis.Client
}

// NewRoleService creates a role service
func NewRoleService(repo *repository.RoleRepository, recalc *RecalcService, rdb *redis.Client) *RoleService {
	return &RoleService{repo: repo, recalc: recalc, rdb: rdb}
}

// CreateRoleRequest create role request
type CreateRoleRequest struct {
	Code            string  `json:"code" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	ComponentType   string  `json:"component_type" binding:"required"`
	Required        bool    `json:"required"`
	AllowMultiple   bool    `json:"allow_multiple"`
	DefaultQuantity float64 `json:"default_quantity"`
	DefaultUnit     string  `json:"default_unit"`
	SortOrder       int     `json:"sort_order"`
}

// UpdateRoleRequest update role request
type UpdateRoleRequest struct {
	Name            *string  `json:"name"`
	Required        *bool    `json:"required"`
	AllowMultiple   *bool    `json:"allow_multiple"`
	DefaultQuantity *float64 `json:"default_quantity"`
	DefaultUnit     *string  `json:"default_unit"`
	SortOrder       *int     `json:"sort_order"`
}

// List returns registry roles, optionally filtered by component type
func (s *RoleService) List(ctx context.Context, componentType string) ([]entity.ComponentRole, error) {
	if componentType != "" && !validComponentType(componentType) {
		return nil, fmt.Errorf("component type %q: %w", componentType, ErrBadRequest)
	}
	return s.repo.List(ctx, componentType)
}

// Get returns one role
func (s *RoleService) Get(ctx context.Context, id string) (*entity.ComponentRole, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a new role
func (s *RoleService) Create(ctx context.Context, req *CreateRoleRequest) (*entity.ComponentRole, error) {
	if !validComponentType(req.ComponentType) {
		return nil, fmt.Errorf("component type %q: %w", req.ComponentType, ErrBadRequest)
	}
	if req.DefaultQuantity < 0 {
		return nil, fmt.Errorf("default quantity must not be negative: %w", ErrBadRequest)
	}
	if _, err := s.repo.FindByCode(ctx, req.Code, req.ComponentType); err == nil {
		return nil, fmt.Errorf("role %s/%s already exists: %w", req.Code, req.ComponentType, ErrConflict)
	}

	qty := req.DefaultQuantity
	if qty == 0 {
		qty = 1
	}
	unit := req.DefaultUnit
	if unit == "" {
		unit = "pcs"
	}

	role := &entity.ComponentRole{
		ID:              uuid.New().String()[:32],
		Code:            req.Code,
		Name:            req.Name,
		ComponentType:   req.ComponentType,
		Required:        req.Required,
		AllowMultiple:   req.AllowMultiple,
		DefaultQuantity: qty,
		DefaultUnit:     unit,
		SortOrder:       req.SortOrder,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	s.invalidateCache(ctx)
	return role, nil
}

// Update mutates a role's defaults. Code and component type are immutable
// once BOM rows may reference the role.
func (s *RoleService) Update(ctx context.Context, id string, req *UpdateRoleRequest) (*entity.ComponentRole, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Required != nil {
		role.Required = *req.Required
	}
	if req.AllowMultiple != nil {
		role.AllowMultiple = *req.AllowMultiple
	}
	if req.DefaultQuantity != nil {
		if *req.DefaultQuantity < 0 {
			return nil, fmt.Errorf("default quantity must not be negative: %w", ErrBadRequest)
		}
		role.DefaultQuantity = *req.DefaultQuantity
	}
	if req.DefaultUnit != nil {
		role.DefaultUnit = *req.DefaultUnit
	}
	if req.SortOrder != nil {
		role.SortOrder = *req.SortOrder
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	s.invalidateCache(ctx)
	return role, nil
}

// MainFabricRole resolves the registry's main_fabric FABRIC role, with a
// short redis cache since fabric mapping hits this on every bulk call
func (s *RoleService) MainFabricRole(ctx context.Context) (*entity.ComponentRole, error) {
	if s.rdb != nil {
		if id, err := s.rdb.Get(ctx, mainFabricRoleCacheKey).Result(); err == nil && id != "" {
			if role, err := s.repo.FindByID(ctx, id); err == nil {
				return role, nil
			}
		}
	}

	role, err := s.repo.FindByCode(ctx, entity.RoleCodeMainFabric, entity.ComponentTypeFabric)
	if err != nil {
		return nil, fmt.Errorf("main fabric role: %w", err)
	}

	if s.rdb != nil {
		s.rdb.Set(ctx, mainFabricRoleCacheKey, role.ID, 10*time.Minute)
	}
	return role, nil
}

func (s *RoleService) invalidateCache(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, mainFabricRoleCacheKey)
	}
}

func validComponentType(t string) bool {
	switch t {
	case entity.ComponentTypeFabric, entity.ComponentTypeTrim, entity.ComponentTypeService:
		return true
	}
	return false
}
