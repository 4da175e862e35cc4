package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// Handlers catalog handler collection
type Handlers struct {
	Role        *RoleHandler
	Product     *ProductHandler
	Component   *ComponentHandler
	BOM         *BOMHandler
	Consumption *ConsumptionHandler
}

// NewHandlers creates the catalog handler collection
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Role:        NewRoleHandler(svc.Role),
		Product:     NewProductHandler(svc.Product),
		Component:   NewComponentHandler(svc.Component),
		BOM:         NewBOMHandler(svc.BOM, svc.Resolver, svc.FabricMapping),
		Consumption: NewConsumptionHandler(svc.Consumption),
	}
}

// Response uniform response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse list response envelope
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination pagination block
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error generic error response; code/100 doubles as the HTTP status
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 40000 response
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 40100 response
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 40300 response
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 40400 response
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 40900 response
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 50000 response
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps a service error onto the envelope via the sentinel checks
func ServiceError(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		NotFound(c, err.Error())
	case service.IsBadRequest(err):
		BadRequest(c, err.Error())
	case service.IsConflict(err):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID returns the authenticated user id from context
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination returns page/page_size query params with bounds
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
