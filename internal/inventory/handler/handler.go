package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/inventory/service"
)

// Handlers inventory handler collection
type Handlers struct {
	Inventory *InventoryHandler
	Document  *DocumentHandler
}

// NewHandlers creates the inventory handler collection
func NewHandlers(invSvc *service.InventoryService, docSvc *service.DocumentService) *Handlers {
	return &Handlers{
		Inventory: NewInventoryHandler(invSvc),
		Document:  NewDocumentHandler(docSvc),
	}
}

// Response helpers kept consistent with the catalog handlers

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

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

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

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
