package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// RoleHandler component role registry endpoints
type RoleHandler struct {
	svc *service.RoleService
}

// NewRoleHandler creates a role handler
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// List GET /api/v1/component-roles?component_type=FABRIC
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.List(c.Request.Context(), c.Query("component_type"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": roles})
}

// Get GET /api/v1/component-roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, role)
}

// Create POST /api/v1/component-roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, role)
}

// Update PUT /api/v1/component-roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, role)
}
