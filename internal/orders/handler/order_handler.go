package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/orders/service"
)

// OrderHandler order and return endpoints
type OrderHandler struct {
	svc *service.OrderService
}

// NewOrderHandler creates an order handler
func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List GET /api/v1/orders?status=pending
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	orders, total, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("status"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: orders,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// Create POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	order, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, order)
}

// UpdateStatus PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// ListReturns GET /api/v1/returns?status=requested
func (h *OrderHandler) ListReturns(c *gin.Context) {
	page, pageSize := GetPagination(c)
	returns, total, err := h.svc.ListReturns(c.Request.Context(), page, pageSize, c.Query("status"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: returns,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// CreateReturn POST /api/v1/returns
func (h *OrderHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ret, err := h.svc.CreateReturn(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, ret)
}

// UpdateReturnStatus PUT /api/v1/returns/:id/status
func (h *OrderHandler) UpdateReturnStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ret, err := h.svc.UpdateReturnStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ret)
}
