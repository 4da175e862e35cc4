package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
)

// ComponentService fabric / trim / service item maintenance
type ComponentService struct {
	repo *repository.ComponentRepository
}

// NewComponentService creates a component service
func NewComponentService(repo *repository.ComponentRepository) *ComponentService {
	return &ComponentService{repo: repo}
}

// CreateFabricRequest create fabric request
type CreateFabricRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Composition string  `json:"composition"`
	GSM         int     `json:"gsm"`
	Unit        string  `json:"unit"`
	CostPerUnit float64 `json:"cost_per_unit"`
	SupplierID  string  `json:"supplier_id"`
}

// CreateFabricColourRequest create fabric colour request
type CreateFabricColourRequest struct {
	Colour      string   `json:"colour" binding:"required"`
	ColourCode  string   `json:"colour_code"`
	CostPerUnit *float64 `json:"cost_per_unit"`
}

// CreateTrimItemRequest create trim item request
type CreateTrimItemRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Unit        string  `json:"unit"`
	CostPerUnit float64 `json:"cost_per_unit"`
	SupplierID  string  `json:"supplier_id"`
}

// CreateServiceItemRequest create service item request
type CreateServiceItemRequest struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	CostPerJob float64 `json:"cost_per_job"`
	VendorID   string  `json:"vendor_id"`
}

// UpdateCostRequest cost mutation shared across component kinds
type UpdateCostRequest struct {
	CostPerUnit *float64 `json:"cost_per_unit"`
}

// ListFabrics returns fabrics with colours preloaded
func (s *ComponentService) ListFabrics(ctx context.Context, page, pageSize int) ([]entity.Fabric, int64, error) {
	return s.repo.ListFabrics(ctx, page, pageSize)
}

// GetFabric returns one fabric
func (s *ComponentService) GetFabric(ctx context.Context, id string) (*entity.Fabric, error) {
	return s.repo.FindFabricByID(ctx, id)
}

// CreateFabric creates a fabric
func (s *ComponentService) CreateFabric(ctx context.Context, req *CreateFabricRequest) (*entity.Fabric, error) {
	if req.CostPerUnit < 0 {
		return nil, fmt.Errorf("cost must not be negative: %w", ErrBadRequest)
	}
	unit := req.Unit
	if unit == "" {
		unit = "m"
	}
	fabric := &entity.Fabric{
		ID:          uuid.New().String()[:32],
		Code:        req.Code,
		Name:        req.Name,
		Composition: req.Composition,
		GSM:         req.GSM,
		Unit:        unit,
		CostPerUnit: req.CostPerUnit,
		SupplierID:  req.SupplierID,
		Status:      entity.StatusActive,
	}
	if err := s.repo.CreateFabric(ctx, fabric); err != nil {
		return nil, fmt.Errorf("create fabric: %w", err)
	}
	return fabric, nil
}

// CreateFabricColour adds a colour under a fabric
func (s *ComponentService) CreateFabricColour(ctx context.Context, fabricID string, req *CreateFabricColourRequest) (*entity.FabricColour, error) {
	if req.CostPerUnit != nil && *req.CostPerUnit < 0 {
		return nil, fmt.Errorf("cost must not be negative: %w", ErrBadRequest)
	}
	fabric, err := s.repo.FindFabricByID(ctx, fabricID)
	if err != nil {
		return nil, fmt.Errorf("find fabric: %w", err)
	}

	colour := &entity.FabricColour{
		ID:          uuid.New().String()[:32],
		FabricID:    fabric.ID,
		Colour:      req.Colour,
		ColourCode:  req.ColourCode,
		CostPerUnit: req.CostPerUnit,
		Status:      entity.StatusActive,
	}
	if err := s.repo.CreateFabricColour(ctx, colour); err != nil {
		return nil, fmt.Errorf("create fabric colour: %w", err)
	}
	return colour, nil
}

// ListFabricColours returns a fabric's colours
func (s *ComponentService) ListFabricColours(ctx context.Context, fabricID string) ([]entity.FabricColour, error) {
	if _, err := s.repo.FindFabricByID(ctx, fabricID); err != nil {
		return nil, fmt.Errorf("find fabric: %w", err)
	}
	return s.repo.ListFabricColours(ctx, fabricID)
}

// SetFabricColourSwatch stores the uploaded swatch object path
func (s *ComponentService) SetFabricColourSwatch(ctx context.Context, colourID, objectPath string) (*entity.FabricColour, error) {
	colour, err := s.repo.FindFabricColourByID(ctx, colourID)
	if err != nil {
		return nil, err
	}
	colour.SwatchPath = objectPath
	if err := s.repo.UpdateFabricColour(ctx, colour); err != nil {
		return nil, fmt.Errorf("update fabric colour: %w", err)
	}
	return colour, nil
}

// ListTrimItems returns all trim items
func (s *ComponentService) ListTrimItems(ctx context.Context) ([]entity.TrimItem, error) {
	return s.repo.ListTrimItems(ctx)
}

// CreateTrimItem creates a trim item
func (s *ComponentService) CreateTrimItem(ctx context.Context, req *CreateTrimItemRequest) (*entity.TrimItem, error) {
	if req.CostPerUnit < 0 {
		return nil, fmt.Errorf("cost must not be negative: %w", ErrBadRequest)
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := &entity.TrimItem{
		ID:          uuid.New().String()[:32],
		Code:        req.Code,
		Name:        req.Name,
		Unit:        unit,
		CostPerUnit: req.CostPerUnit,
		SupplierID:  req.SupplierID,
		Status:      entity.StatusActive,
	}
	if err := s.repo.CreateTrimItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create trim item: %w", err)
	}
	return item, nil
}

// ListServiceItems returns all service items
func (s *ComponentService) ListServiceItems(ctx context.Context) ([]entity.ServiceItem, error) {
	return s.repo.ListServiceItems(ctx)
}

// CreateServiceItem creates a service item
func (s *ComponentService) CreateServiceItem(ctx context.Context, req *CreateServiceItemRequest) (*entity.ServiceItem, error) {
	if req.CostPerJob < 0 {
		return nil, fmt.Errorf("cost must not be negative: %w", ErrBadRequest)
	}
	item := &entity.ServiceItem{
		ID:         uuid.New().String()[:32],
		Code:       req.Code,
		Name:       req.Name,
		CostPerJob: req.CostPerJob,
		VendorID:   req.VendorID,
		Status:     entity.StatusActive,
	}
	if err := s.repo.CreateServiceItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create service item: %w", err)
	}
	return item, nil
}
