package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/inventory/service"
)

// InventoryHandler supplier and stock endpoints
type InventoryHandler struct {
	svc *service.InventoryService
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ListSuppliers GET /api/v1/suppliers
func (h *InventoryHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.svc.ListSuppliers(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": suppliers})
}

// CreateSupplier POST /api/v1/suppliers
func (h *InventoryHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	supplier, err := h.svc.CreateSupplier(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, supplier)
}

// UpdateSupplier PUT /api/v1/suppliers/:id
func (h *InventoryHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	supplier, err := h.svc.UpdateSupplier(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, supplier)
}

// ListStocks GET /api/v1/stocks?material_kind=fabric_colour
func (h *InventoryHandler) ListStocks(c *gin.Context) {
	page, pageSize := GetPagination(c)
	stocks, total, err := h.svc.ListStocks(c.Request.Context(), page, pageSize, c.Query("material_kind"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: stocks,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// ListLowStocks GET /api/v1/stocks/low
func (h *InventoryHandler) ListLowStocks(c *gin.Context) {
	stocks, err := h.svc.ListLowStocks(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": stocks})
}

// GetStock GET /api/v1/stocks/:id
func (h *InventoryHandler) GetStock(c *gin.Context) {
	stock, err := h.svc.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, stock)
}

// CreateStock POST /api/v1/stocks
func (h *InventoryHandler) CreateStock(c *gin.Context) {
	var req service.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	stock, err := h.svc.CreateStock(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, stock)
}

// RecordMovement POST /api/v1/stocks/:id/movements
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req service.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	movement, err := h.svc.RecordMovement(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, movement)
}

// ListMovements GET /api/v1/stocks/:id/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	movements, total, err := h.svc.ListMovements(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: movements,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}
