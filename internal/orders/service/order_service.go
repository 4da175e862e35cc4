package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogrepo "github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/vastralabs/karkhana/internal/orders/entity"
	"github.com/vastralabs/karkhana/internal/orders/repository"
)

// orderTransitions allowed order status moves
var orderTransitions = map[string][]string{
	entity.OrderStatusPending:   {entity.OrderStatusConfirmed, entity.OrderStatusCancelled},
	entity.OrderStatusConfirmed: {entity.OrderStatusShipped, entity.OrderStatusCancelled},
	entity.OrderStatusShipped:   {entity.OrderStatusDelivered},
}

// returnTransitions allowed return status moves
var returnTransitions = map[string][]string{
	entity.ReturnStatusRequested: {entity.ReturnStatusReceived, entity.ReturnStatusRejected},
	entity.ReturnStatusReceived:  {entity.ReturnStatusRefunded},
}

// OrderService order and return intake
type OrderService struct {
	db       *gorm.DB
	repo     *repository.OrderRepository
	products *catalogrepo.ProductRepository
	logger   *zap.Logger
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB, repo *repository.OrderRepository, products *catalogrepo.ProductRepository, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, repo: repo, products: products, logger: logger}
}

// CreateOrderItemRequest one line of an incoming order
type CreateOrderItemRequest struct {
	SKUID     string  `json:"sku_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateOrderRequest incoming order payload
type CreateOrderRequest struct {
	CustomerName  string                   `json:"customer_name" binding:"required"`
	CustomerPhone string                   `json:"customer_phone"`
	CustomerEmail string                   `json:"customer_email"`
	Channel       string                   `json:"channel"`
	Notes         string                   `json:"notes"`
	PlacedAt      *time.Time               `json:"placed_at"`
	Items         []CreateOrderItemRequest `json:"items" binding:"required"`
}

// CreateReturnRequest return intake payload
type CreateReturnRequest struct {
	OrderID  string `json:"order_id" binding:"required"`
	SKUID    string `json:"sku_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
}

// Create stores the order header and all its lines in one transaction
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*entity.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrBadRequest)
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrBadRequest, i)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %d unit price cannot be negative", ErrBadRequest, i)
		}
		if _, err := s.products.FindSKUByID(ctx, item.SKUID); err != nil {
			return nil, fmt.Errorf("%w: sku %s", ErrNotFound, item.SKUID)
		}
	}

	placedAt := time.Now()
	if req.PlacedAt != nil {
		placedAt = *req.PlacedAt
	}
	channel := req.Channel
	if channel == "" {
		channel = "website"
	}

	order := &entity.Order{
		ID:            uuid.New().String()[:32],
		Code:          nextOrderCode(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Channel:       channel,
		Status:        entity.OrderStatusPending,
		Notes:         req.Notes,
		PlacedAt:      placedAt,
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		items = append(items, entity.OrderItem{
			ID:        uuid.New().String()[:32],
			OrderID:   order.ID,
			SKUID:     item.SKUID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		total += float64(item.Quantity) * item.UnitPrice
	}
	order.TotalAmount = total

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewOrderRepository(tx)
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := txRepo.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("code", order.Code),
		zap.Int("items", len(items)))
	return order, nil
}

// Get loads one order with its items
func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return order, nil
}

// List returns orders filtered by status with pagination
func (s *OrderService) List(ctx context.Context, page, pageSize int, status string) ([]entity.Order, int64, error) {
	if status != "" && !validOrderStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	offset := (page - 1) * pageSize
	return s.repo.ListOrders(ctx, status, offset, pageSize)
}

// UpdateStatus moves an order through its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*entity.Order, error) {
	if !validOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	if !transitionAllowed(orderTransitions, order.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, order.Status, status)
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	s.logger.Info("order status changed",
		zap.String("order_id", id),
		zap.String("status", status))
	return order, nil
}

// CreateReturn records a return request against a delivered order line
func (s *OrderService) CreateReturn(ctx context.Context, req *CreateReturnRequest) (*entity.Return, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrBadRequest)
	}
	order, err := s.repo.FindOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
	}
	if order.Status != entity.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: only delivered orders accept returns", ErrConflict)
	}

	ordered, err := s.repo.CountOrderItemQuantity(ctx, req.OrderID, req.SKUID)
	if err != nil {
		return nil, fmt.Errorf("count ordered quantity: %w", err)
	}
	if ordered == 0 {
		return nil, fmt.Errorf("%w: sku %s is not on order %s", ErrBadRequest, req.SKUID, req.OrderID)
	}
	returned, err := s.repo.SumReturnedQuantity(ctx, req.OrderID, req.SKUID)
	if err != nil {
		return nil, fmt.Errorf("sum returned quantity: %w", err)
	}
	if returned+req.Quantity > ordered {
		return nil, fmt.Errorf("%w: return quantity exceeds ordered quantity", ErrBadRequest)
	}

	ret := &entity.Return{
		ID:       uuid.New().String()[:32],
		OrderID:  req.OrderID,
		SKUID:    req.SKUID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
		Status:   entity.ReturnStatusRequested,
	}
	if err := s.repo.CreateReturn(ctx, ret); err != nil {
		return nil, fmt.Errorf("create return: %w", err)
	}
	s.logger.Info("return requested",
		zap.String("return_id", ret.ID),
		zap.String("order_id", req.OrderID),
		zap.String("sku_id", req.SKUID),
		zap.Int("quantity", req.Quantity))
	return ret, nil
}

// ListReturns returns return requests filtered by status with pagination
func (s *OrderService) ListReturns(ctx context.Context, page, pageSize int, status string) ([]entity.Return, int64, error) {
	if status != "" && !validReturnStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	offset := (page - 1) * pageSize
	return s.repo.ListReturns(ctx, status, offset, pageSize)
}

// UpdateReturnStatus moves a return through its lifecycle
func (s *OrderService) UpdateReturnStatus(ctx context.Context, id, status string) (*entity.Return, error) {
	if !validReturnStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	ret, err := s.repo.FindReturnByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: return %s", ErrNotFound, id)
	}
	if !transitionAllowed(returnTransitions, ret.Status, status) {
		return nil, fmt.Errorf("%w: cannot move return from %s to %s", ErrConflict, ret.Status, status)
	}
	if err := s.repo.UpdateReturnStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update return status: %w", err)
	}
	ret.Status = status
	return ret, nil
}

func transitionAllowed(transitions map[string][]string, from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validOrderStatus(status string) bool {
	switch status {
	case entity.OrderStatusPending, entity.OrderStatusConfirmed, entity.OrderStatusShipped,
		entity.OrderStatusDelivered, entity.OrderStatusCancelled:
		return true
	}
	return false
}

func validReturnStatus(status string) bool {
	switch status {
	case entity.ReturnStatusRequested, entity.ReturnStatusReceived,
		entity.ReturnStatusRefunded, entity.ReturnStatusRejected:
		return true
	}
	return false
}

func nextOrderCode() string {
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), strings.ToUpper(uuid.New().String()[:6]))
}
