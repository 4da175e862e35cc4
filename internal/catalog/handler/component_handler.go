package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// ComponentHandler fabric / trim / service item endpoints
type ComponentHandler struct {
	svc *service.ComponentService
}

// NewComponentHandler creates a component handler
func NewComponentHandler(svc *service.ComponentService) *ComponentHandler {
	return &ComponentHandler{svc: svc}
}

// ListFabrics GET /api/v1/fabrics
func (h *ComponentHandler) ListFabrics(c *gin.Context) {
	page, pageSize := GetPagination(c)
	fabrics, total, err := h.svc.ListFabrics(c.Request.Context(), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: fabrics,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// GetFabric GET /api/v1/fabrics/:id
func (h *ComponentHandler) GetFabric(c *gin.Context) {
	fabric, err := h.svc.GetFabric(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, fabric)
}

// CreateFabric POST /api/v1/fabrics
func (h *ComponentHandler) CreateFabric(c *gin.Context) {
	var req service.CreateFabricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	fabric, err := h.svc.CreateFabric(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, fabric)
}

// ListFabricColours GET /api/v1/fabrics/:id/colours
func (h *ComponentHandler) ListFabricColours(c *gin.Context) {
	colours, err := h.svc.ListFabricColours(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": colours})
}

// CreateFabricColour POST /api/v1/fabrics/:id/colours
func (h *ComponentHandler) CreateFabricColour(c *gin.Context) {
	var req service.CreateFabricColourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	colour, err := h.svc.CreateFabricColour(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, colour)
}

// ListTrimItems GET /api/v1/trim-items
func (h *ComponentHandler) ListTrimItems(c *gin.Context) {
	items, err := h.svc.ListTrimItems(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateTrimItem POST /api/v1/trim-items
func (h *ComponentHandler) CreateTrimItem(c *gin.Context) {
	var req service.CreateTrimItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	item, err := h.svc.CreateTrimItem(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, item)
}

// ListServiceItems GET /api/v1/service-items
func (h *ComponentHandler) ListServiceItems(c *gin.Context) {
	items, err := h.svc.ListServiceItems(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateServiceItem POST /api/v1/service-items
func (h *ComponentHandler) CreateServiceItem(c *gin.Context) {
	var req service.CreateServiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	item, err := h.svc.CreateServiceItem(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, item)
}
