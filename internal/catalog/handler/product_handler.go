package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// ProductHandler product / variation / SKU endpoints
type ProductHandler struct {
	svc *service.ProductService
}

// NewProductHandler creates a product handler
func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List GET /api/v1/products?status=active
func (h *ProductHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	products, total, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("status"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: products,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, product)
}

// Create POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	product, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, product)
}

// Update PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	product, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, product)
}

// ListVariations GET /api/v1/products/:id/variations
func (h *ProductHandler) ListVariations(c *gin.Context) {
	variations, err := h.svc.ListVariations(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": variations})
}

// CreateVariation POST /api/v1/products/:id/variations
func (h *ProductHandler) CreateVariation(c *gin.Context) {
	var req service.CreateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	variation, err := h.svc.CreateVariation(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, variation)
}

// GetVariation GET /api/v1/variations/:id
func (h *ProductHandler) GetVariation(c *gin.Context) {
	variation, err := h.svc.GetVariation(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, variation)
}

// ListSKUs GET /api/v1/variations/:id/skus
func (h *ProductHandler) ListSKUs(c *gin.Context) {
	skus, err := h.svc.ListSKUs(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": skus})
}

// CreateSKU POST /api/v1/variations/:id/skus
func (h *ProductHandler) CreateSKU(c *gin.Context) {
	var req service.CreateSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sku, err := h.svc.CreateSKU(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, sku)
}

// GetSKU GET /api/v1/skus/:id
func (h *ProductHandler) GetSKU(c *gin.Context) {
	sku, err := h.svc.GetSKU(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sku)
}
