package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
)

// BOMService three-tier BOM line maintenance. Every mutation triggers the
// recalc cascade scoped to the tier that was touched.
type BOMService struct {
	bomRepo       *repository.BOMRepository
	productRepo   *repository.ProductRepository
	roleRepo      *repository.RoleRepository
	componentRepo *repository.ComponentRepository
	recalc        *RecalcService
}

// NewBOMService creates a BOM service
func NewBOMService(
	bomRepo *repository.BOMRepository,
	productRepo *repository.ProductRepository,
	roleRepo *repository.RoleRepository,
	componentRepo *repository.ComponentRepository,
	recalc *RecalcService,
) *BOMService {
	return &BOMService{
		bomRepo:       bomRepo,
		productRepo:   productRepo,
		roleRepo:      roleRepo,
		componentRepo: componentRepo,
		recalc:        recalc,
	}
}

// SetTemplateLineRequest product-tier line upsert request
type SetTemplateLineRequest struct {
	RoleID         string   `json:"role_id" binding:"required"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	WastagePercent float64  `json:"wastage_percent"`
	TrimItemID     *string  `json:"trim_item_id"`
	ServiceItemID  *string  `json:"service_item_id"`
	Notes          string   `json:"notes"`
}

// SetVariationLineRequest variation-tier line upsert request
type SetVariationLineRequest struct {
	RoleID         string   `json:"role_id" binding:"required"`
	Quantity       *float64 `json:"quantity"`
	WastagePercent *float64 `json:"wastage_percent"`
	FabricColourID *string  `json:"fabric_colour_id"`
	TrimItemID     *string  `json:"trim_item_id"`
	ServiceItemID  *string  `json:"service_item_id"`
	Notes          string   `json:"notes"`
}

// SetSKULineRequest SKU-tier line upsert request
type SetSKULineRequest struct {
	RoleID         string   `json:"role_id" binding:"required"`
	Quantity       *float64 `json:"quantity"`
	WastagePercent *float64 `json:"wastage_percent"`
	OverrideCost   *float64 `json:"override_cost"`
	FabricColourID *string  `json:"fabric_colour_id"`
	TrimItemID     *string  `json:"trim_item_id"`
	ServiceItemID  *string  `json:"service_item_id"`
	Notes          string   `json:"notes"`
}

// ========== product templates ==========

// GetProductBOM returns a product's template rows
func (s *BOMService) GetProductBOM(ctx context.Context, productID string) ([]entity.ProductBOMTemplate, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return s.bomRepo.ListTemplates(ctx, productID)
}

// SetTemplateLine upserts the (product, role) template row and recalculates
// the whole product
func (s *BOMService) SetTemplateLine(ctx context.Context, productID string, req *SetTemplateLineRequest) (*entity.ProductBOMTemplate, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrBadRequest)
	}
	if req.WastagePercent < 0 {
		return nil, fmt.Errorf("wastage must not be negative: %w", ErrBadRequest)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	if err := s.checkComponentRefs(ctx, role, nil, req.TrimItemID, req.ServiceItemID); err != nil {
		return nil, err
	}

	qty := req.Quantity
	if qty == 0 {
		qty = role.DefaultQuantity
	}
	unit := req.Unit
	if unit == "" {
		unit = role.DefaultUnit
	}

	tpl := &entity.ProductBOMTemplate{
		ID:             uuid.New().String()[:32],
		ProductID:      productID,
		RoleID:         req.RoleID,
		Quantity:       qty,
		Unit:           unit,
		WastagePercent: req.WastagePercent,
		TrimItemID:     req.TrimItemID,
		ServiceItemID:  req.ServiceItemID,
		Notes:          req.Notes,
	}
	if err := s.bomRepo.UpsertTemplate(ctx, tpl); err != nil {
		return nil, fmt.Errorf("upsert template line: %w", err)
	}

	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcProduct, ID: productID})

	return s.bomRepo.FindTemplate(ctx, productID, req.RoleID)
}

// DeleteTemplateLine removes the (product, role) template row
func (s *BOMService) DeleteTemplateLine(ctx context.Context, productID, roleID string) error {
	affected, err := s.bomRepo.DeleteTemplate(ctx, productID, roleID)
	if err != nil {
		return fmt.Errorf("delete template line: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("template line for role %s: %w", roleID, ErrNotFound)
	}
	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcProduct, ID: productID})
	return nil
}

// ========== variation lines ==========

// ListVariationLines returns a variation's own line rows
func (s *BOMService) ListVariationLines(ctx context.Context, variationID string) ([]entity.VariationBOMLine, error) {
	if _, err := s.productRepo.FindVariationByID(ctx, variationID); err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}
	return s.bomRepo.ListVariationLines(ctx, variationID)
}

// SetVariationLine upserts the (variation, role) line and recalculates the
// variation and its SKUs
func (s *BOMService) SetVariationLine(ctx context.Context, variationID string, req *SetVariationLineRequest) (*entity.VariationBOMLine, error) {
	if err := checkOptionalNonNegative(req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if err := checkOptionalNonNegative(req.WastagePercent, "wastage"); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindVariationByID(ctx, variationID); err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}
	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	if role.ComponentType == entity.ComponentTypeFabric && req.FabricColourID == nil {
		return nil, fmt.Errorf("fabric role %s needs a fabric colour: %w", role.Code, ErrBadRequest)
	}
	if err := s.checkComponentRefs(ctx, role, req.FabricColourID, req.TrimItemID, req.ServiceItemID); err != nil {
		return nil, err
	}

	line := &entity.VariationBOMLine{
		ID:             uuid.New().String()[:32],
		VariationID:    variationID,
		RoleID:         req.RoleID,
		Quantity:       req.Quantity,
		WastagePercent: req.WastagePercent,
		FabricColourID: req.FabricColourID,
		TrimItemID:     req.TrimItemID,
		ServiceItemID:  req.ServiceItemID,
		Notes:          req.Notes,
	}
	if err := s.bomRepo.UpsertVariationLine(ctx, line); err != nil {
		return nil, fmt.Errorf("upsert variation line: %w", err)
	}

	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcVariation, ID: variationID})

	return s.bomRepo.FindVariationLine(ctx, variationID, req.RoleID)
}

// DeleteVariationLine removes the (variation, role) line. The component is
// gone afterwards: resolution falls back to the template, never to a nulled
// reference.
func (s *BOMService) DeleteVariationLine(ctx context.Context, variationID, roleID string) error {
	affected, err := s.bomRepo.DeleteVariationLine(ctx, variationID, roleID)
	if err != nil {
		return fmt.Errorf("delete variation line: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("variation line for role %s: %w", roleID, ErrNotFound)
	}
	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcVariation, ID: variationID})
	return nil
}

// ========== SKU lines ==========

// ListSKULines returns a SKU's own line rows
func (s *BOMService) ListSKULines(ctx context.Context, skuID string) ([]entity.SKUBOMLine, error) {
	if _, err := s.productRepo.FindSKUByID(ctx, skuID); err != nil {
		return nil, fmt.Errorf("find sku: %w", err)
	}
	return s.bomRepo.ListSKULines(ctx, skuID)
}

// SetSKULine upserts the (sku, role) line and recalculates the SKU and its
// owning variation
func (s *BOMService) SetSKULine(ctx context.Context, skuID string, req *SetSKULineRequest) (*entity.SKUBOMLine, error) {
	if err := checkOptionalNonNegative(req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if err := checkOptionalNonNegative(req.WastagePercent, "wastage"); err != nil {
		return nil, err
	}
	if err := checkOptionalNonNegative(req.OverrideCost, "override cost"); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindSKUByID(ctx, skuID); err != nil {
		return nil, fmt.Errorf("find sku: %w", err)
	}
	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	if err := s.checkComponentRefs(ctx, role, req.FabricColourID, req.TrimItemID, req.ServiceItemID); err != nil {
		return nil, err
	}

	line := &entity.SKUBOMLine{
		ID:             uuid.New().String()[:32],
		SKUID:          skuID,
		RoleID:         req.RoleID,
		Quantity:       req.Quantity,
		WastagePercent: req.WastagePercent,
		OverrideCost:   req.OverrideCost,
		FabricColourID: req.FabricColourID,
		TrimItemID:     req.TrimItemID,
		ServiceItemID:  req.ServiceItemID,
		Notes:          req.Notes,
	}
	if err := s.bomRepo.UpsertSKULine(ctx, line); err != nil {
		return nil, fmt.Errorf("upsert sku line: %w", err)
	}

	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcSKU, ID: skuID})

	return s.bomRepo.FindSKULine(ctx, skuID, req.RoleID)
}

// DeleteSKULine removes the (sku, role) line
func (s *BOMService) DeleteSKULine(ctx context.Context, skuID, roleID string) error {
	affected, err := s.bomRepo.DeleteSKULine(ctx, skuID, roleID)
	if err != nil {
		return fmt.Errorf("delete sku line: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sku line for role %s: %w", roleID, ErrNotFound)
	}
	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcSKU, ID: skuID})
	return nil
}

// checkComponentRefs verifies that at most one component is referenced, that
// it exists, and that it matches the role's component type
func (s *BOMService) checkComponentRefs(ctx context.Context, role *entity.ComponentRole, fabricColourID, trimItemID, serviceItemID *string) error {
	refs := 0
	if fabricColourID != nil {
		refs++
	}
	if trimItemID != nil {
		refs++
	}
	if serviceItemID != nil {
		refs++
	}
	if refs > 1 {
		return fmt.Errorf("line may reference only one component: %w", ErrBadRequest)
	}

	switch {
	case fabricColourID != nil:
		if role.ComponentType != entity.ComponentTypeFabric {
			return fmt.Errorf("role %s does not take a fabric colour: %w", role.Code, ErrBadRequest)
		}
		if _, err := s.componentRepo.FindFabricColourByID(ctx, *fabricColourID); err != nil {
			return fmt.Errorf("fabric colour %s: %w", *fabricColourID, ErrBadRequest)
		}
	case trimItemID != nil:
		if role.ComponentType != entity.ComponentTypeTrim {
			return fmt.Errorf("role %s does not take a trim item: %w", role.Code, ErrBadRequest)
		}
		if _, err := s.componentRepo.FindTrimItemByID(ctx, *trimItemID); err != nil {
			return fmt.Errorf("trim item %s: %w", *trimItemID, ErrBadRequest)
		}
	case serviceItemID != nil:
		if role.ComponentType != entity.ComponentTypeService {
			return fmt.Errorf("role %s does not take a service item: %w", role.Code, ErrBadRequest)
		}
		if _, err := s.componentRepo.FindServiceItemByID(ctx, *serviceItemID); err != nil {
			return fmt.Errorf("service item %s: %w", *serviceItemID, ErrBadRequest)
		}
	}
	return nil
}

func checkOptionalNonNegative(v *float64, field string) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative: %w", field, ErrBadRequest)
	}
	return nil
}
