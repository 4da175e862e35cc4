package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// BOMHandler three-tier BOM endpoints: template/line CRUD, resolution and
// bulk fabric mapping
type BOMHandler struct {
	svc      *service.BOMService
	resolver *service.BOMResolver
	mapping  *service.FabricMappingService
}

// NewBOMHandler creates a BOM handler
func NewBOMHandler(svc *service.BOMService, resolver *service.BOMResolver, mapping *service.FabricMappingService) *BOMHandler {
	return &BOMHandler{svc: svc, resolver: resolver, mapping: mapping}
}

// GetProductBOM GET /api/v1/products/:id/bom
func (h *BOMHandler) GetProductBOM(c *gin.Context) {
	tpls, err := h.svc.GetProductBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": tpls})
}

// SetTemplateLine PUT /api/v1/products/:id/bom/lines
func (h *BOMHandler) SetTemplateLine(c *gin.Context) {
	var req service.SetTemplateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tpl, err := h.svc.SetTemplateLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, tpl)
}

// DeleteTemplateLine DELETE /api/v1/products/:id/bom/lines/:roleId
func (h *BOMHandler) DeleteTemplateLine(c *gin.Context) {
	if err := h.svc.DeleteTemplateLine(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ListVariationLines GET /api/v1/variations/:id/bom/lines
func (h *BOMHandler) ListVariationLines(c *gin.Context) {
	lines, err := h.svc.ListVariationLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": lines})
}

// SetVariationLine PUT /api/v1/variations/:id/bom/lines
func (h *BOMHandler) SetVariationLine(c *gin.Context) {
	var req service.SetVariationLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	line, err := h.svc.SetVariationLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, line)
}

// DeleteVariationLine DELETE /api/v1/variations/:id/bom/lines/:roleId
func (h *BOMHandler) DeleteVariationLine(c *gin.Context) {
	if err := h.svc.DeleteVariationLine(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ListSKULines GET /api/v1/skus/:id/bom/lines
func (h *BOMHandler) ListSKULines(c *gin.Context) {
	lines, err := h.svc.ListSKULines(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": lines})
}

// SetSKULine PUT /api/v1/skus/:id/bom/lines
func (h *BOMHandler) SetSKULine(c *gin.Context) {
	var req service.SetSKULineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	line, err := h.svc.SetSKULine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, line)
}

// DeleteSKULine DELETE /api/v1/skus/:id/bom/lines/:roleId
func (h *BOMHandler) DeleteSKULine(c *gin.Context) {
	if err := h.svc.DeleteSKULine(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ResolveVariation GET /api/v1/variations/:id/bom/resolved
func (h *BOMHandler) ResolveVariation(c *gin.Context) {
	resolved, err := h.resolver.ResolveVariation(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, resolved)
}

// ResolveSKU GET /api/v1/skus/:id/bom/resolved
func (h *BOMHandler) ResolveSKU(c *gin.Context) {
	resolved, err := h.resolver.ResolveSKU(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, resolved)
}

// MapFabricColour POST /api/v1/fabric-mappings
func (h *BOMHandler) MapFabricColour(c *gin.Context) {
	var req service.MapFabricColourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.mapping.MapFabricColour(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// ClearFabricMapping POST /api/v1/fabric-mappings/clear
func (h *BOMHandler) ClearFabricMapping(c *gin.Context) {
	var req service.ClearFabricMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.mapping.ClearFabricMapping(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
