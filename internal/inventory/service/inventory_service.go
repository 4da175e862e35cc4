package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogrepo "github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/vastralabs/karkhana/internal/inventory/entity"
	"github.com/vastralabs/karkhana/internal/inventory/repository"
)

// InventoryService supplier directory and material stock tracking
type InventoryService struct {
	db         *gorm.DB
	repo       *repository.InventoryRepository
	components *catalogrepo.ComponentRepository
	logger     *zap.Logger
}

// NewInventoryService creates an inventory service
func NewInventoryService(db *gorm.DB, repo *repository.InventoryRepository, components *catalogrepo.ComponentRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{db: db, repo: repo, components: components, logger: logger}
}

// CreateSupplierRequest supplier payload
type CreateSupplierRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

// UpdateSupplierRequest partial supplier update
type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
}

// CreateStockRequest stock row payload
type CreateStockRequest struct {
	MaterialKind string  `json:"material_kind" binding:"required"`
	MaterialID   string  `json:"material_id" binding:"required"`
	SupplierID   *string `json:"supplier_id"`
	OnHand       float64 `json:"on_hand"`
	Unit         string  `json:"unit"`
	ReorderLevel float64 `json:"reorder_level"`
}

// RecordMovementRequest one in/out/adjust against a stock row
type RecordMovementRequest struct {
	Kind      string  `json:"kind" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// CreateSupplier stores a new supplier
func (s *InventoryService) CreateSupplier(ctx context.Context, req *CreateSupplierRequest) (*entity.Supplier, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = "SUP-" + strings.ToUpper(uuid.New().String()[:6])
	}
	supplier := &entity.Supplier{
		ID:            uuid.New().String()[:32],
		Code:          code,
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return supplier, nil
}

// UpdateSupplier applies a partial update to a supplier
func (s *InventoryService) UpdateSupplier(ctx context.Context, id string, req *UpdateSupplierRequest) (*entity.Supplier, error) {
	supplier, err := s.repo.FindSupplierByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrBadRequest)
		}
		supplier.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}
	if err := s.repo.UpdateSupplier(ctx, supplier); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return supplier, nil
}

// ListSuppliers returns all suppliers
func (s *InventoryService) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// CreateStock opens a stock row for one material
func (s *InventoryService) CreateStock(ctx context.Context, req *CreateStockRequest) (*entity.MaterialStock, error) {
	if err := s.checkMaterial(ctx, req.MaterialKind, req.MaterialID); err != nil {
		return nil, err
	}
	if req.OnHand < 0 {
		return nil, fmt.Errorf("%w: on-hand quantity cannot be negative", ErrBadRequest)
	}
	if req.SupplierID != nil {
		if _, err := s.repo.FindSupplierByID(ctx, *req.SupplierID); err != nil {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, *req.SupplierID)
		}
	}
	if existing, err := s.repo.FindStockByMaterial(ctx, req.MaterialKind, req.MaterialID); err == nil {
		return nil, fmt.Errorf("%w: material already tracked as stock %s", ErrConflict, existing.ID)
	}

	unit := req.Unit
	if unit == "" {
		unit = "metres"
	}
	stock := &entity.MaterialStock{
		ID:           uuid.New().String()[:32],
		MaterialKind: req.MaterialKind,
		MaterialID:   req.MaterialID,
		SupplierID:   req.SupplierID,
		OnHand:       req.OnHand,
		Unit:         unit,
		ReorderLevel: req.ReorderLevel,
	}
	if err := s.repo.CreateStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("create stock: %w", err)
	}
	return stock, nil
}

// GetStock loads one stock row
func (s *InventoryService) GetStock(ctx context.Context, id string) (*entity.MaterialStock, error) {
	stock, err := s.repo.FindStockByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: stock %s", ErrNotFound, id)
	}
	return stock, nil
}

// ListStocks returns stock rows filtered by material kind
func (s *InventoryService) ListStocks(ctx context.Context, page, pageSize int, kind string) ([]entity.MaterialStock, int64, error) {
	if kind != "" && kind != entity.MaterialKindFabricColour && kind != entity.MaterialKindTrim {
		return nil, 0, fmt.Errorf("%w: unknown material kind %q", ErrBadRequest, kind)
	}
	offset := (page - 1) * pageSize
	return s.repo.ListStocks(ctx, kind, offset, pageSize)
}

// ListLowStocks returns stock rows at or below their reorder level
func (s *InventoryService) ListLowStocks(ctx context.Context) ([]entity.MaterialStock, error) {
	return s.repo.ListLowStocks(ctx)
}

// RecordMovement writes the movement and updates on-hand in one transaction.
// "in" and "out" carry a positive quantity; "adjust" overwrites on-hand.
func (s *InventoryService) RecordMovement(ctx context.Context, userID, stockID string, req *RecordMovementRequest) (*entity.StockMovement, error) {
	stock, err := s.repo.FindStockByID(ctx, stockID)
	if err != nil {
		return nil, fmt.Errorf("%w: stock %s", ErrNotFound, stockID)
	}

	switch req.Kind {
	case entity.MovementIn, entity.MovementOut:
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrBadRequest)
		}
	case entity.MovementAdjust:
		if req.Quantity < 0 {
			return nil, fmt.Errorf("%w: adjusted quantity cannot be negative", ErrBadRequest)
		}
	default:
		return nil, fmt.Errorf("%w: unknown movement kind %q", ErrBadRequest, req.Kind)
	}
	if req.Kind == entity.MovementOut && req.Quantity > stock.OnHand {
		return nil, fmt.Errorf("%w: cannot issue %.4f, only %.4f on hand", ErrConflict, req.Quantity, stock.OnHand)
	}

	movement := &entity.StockMovement{
		ID:        uuid.New().String()[:32],
		StockID:   stockID,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: userID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewInventoryRepository(tx)
		if err := txRepo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		switch req.Kind {
		case entity.MovementIn:
			return txRepo.AdjustOnHand(ctx, stockID, req.Quantity)
		case entity.MovementOut:
			return txRepo.AdjustOnHand(ctx, stockID, -req.Quantity)
		default:
			return txRepo.SetOnHand(ctx, stockID, req.Quantity)
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock movement recorded",
		zap.String("stock_id", stockID),
		zap.String("kind", req.Kind),
		zap.Float64("quantity", req.Quantity))
	return movement, nil
}

// ListMovements returns the movement history of one stock row
func (s *InventoryService) ListMovements(ctx context.Context, stockID string, page, pageSize int) ([]entity.StockMovement, int64, error) {
	if _, err := s.repo.FindStockByID(ctx, stockID); err != nil {
		return nil, 0, fmt.Errorf("%w: stock %s", ErrNotFound, stockID)
	}
	offset := (page - 1) * pageSize
	return s.repo.ListMovements(ctx, stockID, offset, pageSize)
}

func (s *InventoryService) checkMaterial(ctx context.Context, kind, materialID string) error {
	switch kind {
	case entity.MaterialKindFabricColour:
		if _, err := s.components.FindFabricColourByID(ctx, materialID); err != nil {
			return fmt.Errorf("%w: fabric colour %s", ErrNotFound, materialID)
		}
	case entity.MaterialKindTrim:
		if _, err := s.components.FindTrimItemByID(ctx, materialID); err != nil {
			return fmt.Errorf("%w: trim item %s", ErrNotFound, materialID)
		}
	default:
		return fmt.Errorf("%w: unknown material kind %q", ErrBadRequest, kind)
	}
	return nil
}
