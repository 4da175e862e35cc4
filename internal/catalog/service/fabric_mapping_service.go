package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"gorm.io/gorm"
)

// FabricMappingService bulk assignment of one fabric colour across many
// colourway variations. This is the merchandiser's "this dye lot goes on
// these colourways" operation.
type FabricMappingService struct {
	db            *gorm.DB
	productRepo   *repository.ProductRepository
	componentRepo *repository.ComponentRepository
	roleSvc       *RoleService
	recalc        *RecalcService
}

// NewFabricMappingService creates a fabric mapping service
func NewFabricMappingService(
	db *gorm.DB,
	productRepo *repository.ProductRepository,
	componentRepo *repository.ComponentRepository,
	roleSvc *RoleService,
	recalc *RecalcService,
) *FabricMappingService {
	return &FabricMappingService{
		db:            db,
		productRepo:   productRepo,
		componentRepo: componentRepo,
		roleSvc:       roleSvc,
		recalc:        recalc,
	}
}

// MapFabricColourRequest bulk colour→variations mapping request
type MapFabricColourRequest struct {
	FabricColourID string   `json:"fabric_colour_id" binding:"required"`
	VariationIDs   []string `json:"variation_ids" binding:"required"`
	RoleID         string   `json:"role_id"`
}

// ClearFabricMappingRequest bulk mapping removal request
type ClearFabricMappingRequest struct {
	VariationIDs []string `json:"variation_ids" binding:"required"`
	RoleID       string   `json:"role_id"`
}

// MappingResult affected-row summary of a bulk mapping call
type MappingResult struct {
	Mapped           int `json:"mapped"`
	TemplatesCreated int `json:"templates_created"`
}

// MapFabricColour assigns one fabric colour to the given variations under a
// FABRIC role (main_fabric when unspecified). Each touched product gets a
// template row bootstrapped from the role's defaults when it has none yet;
// existing template rows are left alone. Only the colour reference is written
// on existing variation lines, so tuned quantities survive remapping.
func (s *FabricMappingService) MapFabricColour(ctx context.Context, req *MapFabricColourRequest) (*MappingResult, error) {
	if len(req.VariationIDs) == 0 {
		return nil, fmt.Errorf("variation_ids is empty: %w", ErrBadRequest)
	}

	colour, err := s.componentRepo.FindFabricColourByID(ctx, req.FabricColourID)
	if err != nil {
		return nil, fmt.Errorf("find fabric colour: %w", err)
	}

	role, err := s.resolveRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	variations, err := s.checkVariations(ctx, req.VariationIDs)
	if err != nil {
		return nil, err
	}

	result := &MappingResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txBOM := repository.NewBOMRepository(tx)

		seen := make(map[string]bool)
		for _, v := range variations {
			if seen[v.ProductID] {
				continue
			}
			seen[v.ProductID] = true
			tpl := &entity.ProductBOMTemplate{
				ID:             uuid.New().String()[:32],
				ProductID:      v.ProductID,
				RoleID:         role.ID,
				Quantity:       role.DefaultQuantity,
				Unit:           role.DefaultUnit,
				WastagePercent: 0,
			}
			created, err := txBOM.EnsureTemplate(ctx, tpl)
			if err != nil {
				return fmt.Errorf("ensure template for product %s: %w", v.ProductID, err)
			}
			if created {
				result.TemplatesCreated++
			}
		}

		for _, v := range variations {
			line := &entity.VariationBOMLine{
				ID:             uuid.New().String()[:32],
				VariationID:    v.ID,
				RoleID:         role.ID,
				FabricColourID: &colour.ID,
			}
			if err := txBOM.AssignFabricColour(ctx, line); err != nil {
				return fmt.Errorf("assign colour to variation %s: %w", v.ID, err)
			}
		}
		result.Mapped = len(variations)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, v := range variations {
		s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcVariation, ID: v.ID})
	}
	return result, nil
}

// ClearFabricMapping deletes the role's line from each variation. The rows
// disappear: a later resolve sees no component at all for the role.
func (s *FabricMappingService) ClearFabricMapping(ctx context.Context, req *ClearFabricMappingRequest) (*MappingResult, error) {
	if len(req.VariationIDs) == 0 {
		return nil, fmt.Errorf("variation_ids is empty: %w", ErrBadRequest)
	}

	role, err := s.resolveRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	variations, err := s.checkVariations(ctx, req.VariationIDs)
	if err != nil {
		return nil, err
	}

	var affected int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txBOM := repository.NewBOMRepository(tx)
		n, err := txBOM.DeleteVariationLinesByRole(ctx, req.VariationIDs, role.ID)
		if err != nil {
			return fmt.Errorf("delete variation lines: %w", err)
		}
		affected = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, v := range variations {
		s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcVariation, ID: v.ID})
	}
	return &MappingResult{Mapped: int(affected)}, nil
}

// resolveRole returns the requested FABRIC role, or main_fabric by default
func (s *FabricMappingService) resolveRole(ctx context.Context, roleID string) (*entity.ComponentRole, error) {
	if roleID == "" {
		role, err := s.roleSvc.MainFabricRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("main_fabric role is not registered: %w", ErrBadRequest)
		}
		return role, nil
	}
	role, err := s.roleSvc.Get(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", roleID, ErrBadRequest)
	}
	if role.ComponentType != entity.ComponentTypeFabric {
		return nil, fmt.Errorf("role %s is not a fabric role: %w", role.Code, ErrBadRequest)
	}
	return role, nil
}

// checkVariations loads all requested variations and rejects the whole call
// when any id is unknown
func (s *FabricMappingService) checkVariations(ctx context.Context, ids []string) ([]entity.Variation, error) {
	variations, err := s.productRepo.FindVariationsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find variations: %w", err)
	}
	if len(variations) != len(ids) {
		found := make(map[string]bool, len(variations))
		for _, v := range variations {
			found[v.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("unknown variations %s: %w", strings.Join(missing, ","), ErrBadRequest)
	}
	return variations, nil
}
