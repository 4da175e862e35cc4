package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
)

// ProductService product / variation / SKU maintenance
type ProductService struct {
	repo   *repository.ProductRepository
	recalc *RecalcService
}

// NewProductService creates a product service
func NewProductService(repo *repository.ProductRepository, recalc *RecalcService) *ProductService {
	return &ProductService{repo: repo, recalc: recalc}
}

// CreateProductRequest create product request
type CreateProductRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// UpdateProductRequest update product request
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// CreateVariationRequest create variation request
type CreateVariationRequest struct {
	Colour string `json:"colour" binding:"required"`
	Code   string `json:"code"`
}

// CreateSKURequest create SKU request
type CreateSKURequest struct {
	Code string  `json:"code"`
	Size string  `json:"size" binding:"required"`
	MRP  float64 `json:"mrp"`
}

// List returns products with pagination
func (s *ProductService) List(ctx context.Context, page, pageSize int, status string) ([]entity.Product, int64, error) {
	return s.repo.List(ctx, page, pageSize, status)
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create creates a product
func (s *ProductService) Create(ctx context.Context, userID string, req *CreateProductRequest) (*entity.Product, error) {
	product := &entity.Product{
		ID:          uuid.New().String()[:32],
		Code:        req.Code,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Status:      entity.StatusActive,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update mutates a product
func (s *ProductService) Update(ctx context.Context, id string, req *UpdateProductRequest) (*entity.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Status != nil {
		if *req.Status != entity.StatusActive && *req.Status != entity.StatusArchived {
			return nil, fmt.Errorf("status %q: %w", *req.Status, ErrBadRequest)
		}
		product.Status = *req.Status
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// ListVariations returns a product's colourways
func (s *ProductService) ListVariations(ctx context.Context, productID string) ([]entity.Variation, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return s.repo.ListVariations(ctx, productID)
}

// CreateVariation adds a colourway to a product
func (s *ProductService) CreateVariation(ctx context.Context, productID string, req *CreateVariationRequest) (*entity.Variation, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	variation := &entity.Variation{
		ID:        uuid.New().String()[:32],
		ProductID: product.ID,
		Colour:    req.Colour,
		Code:      req.Code,
		Status:    entity.StatusActive,
	}
	if err := s.repo.CreateVariation(ctx, variation); err != nil {
		return nil, fmt.Errorf("create variation: %w", err)
	}
	return variation, nil
}

// GetVariation returns one variation
func (s *ProductService) GetVariation(ctx context.Context, id string) (*entity.Variation, error) {
	return s.repo.FindVariationByID(ctx, id)
}

// ListSKUs returns a variation's sizes
func (s *ProductService) ListSKUs(ctx context.Context, variationID string) ([]entity.SKU, error) {
	if _, err := s.repo.FindVariationByID(ctx, variationID); err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}
	return s.repo.ListSKUs(ctx, variationID)
}

// CreateSKU adds a size to a variation. New SKUs inherit costs lazily: the
// recalc pass fills the cache.
func (s *ProductService) CreateSKU(ctx context.Context, variationID string, req *CreateSKURequest) (*entity.SKU, error) {
	variation, err := s.repo.FindVariationByID(ctx, variationID)
	if err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}

	code := req.Code
	if code == "" {
		code = fmt.Sprintf("%s-%s", variation.Code, req.Size)
	}

	sku := &entity.SKU{
		ID:          uuid.New().String()[:32],
		VariationID: variation.ID,
		Code:        code,
		Size:        req.Size,
		Status:      entity.StatusActive,
		MRP:         req.MRP,
	}
	if err := s.repo.CreateSKU(ctx, sku); err != nil {
		return nil, fmt.Errorf("create sku: %w", err)
	}

	s.recalc.Enqueue(ctx, RecalcJob{Kind: RecalcSKU, ID: sku.ID})
	return sku, nil
}

// GetSKU returns one SKU
func (s *ProductService) GetSKU(ctx context.Context, id string) (*entity.SKU, error) {
	return s.repo.FindSKUByID(ctx, id)
}
