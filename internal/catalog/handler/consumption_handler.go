package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/catalog/service"
)

// ConsumptionHandler fabric consumption grid endpoints
type ConsumptionHandler struct {
	svc *service.ConsumptionService
}

// NewConsumptionHandler creates a consumption handler
func NewConsumptionHandler(svc *service.ConsumptionService) *ConsumptionHandler {
	return &ConsumptionHandler{svc: svc}
}

// GetGrid GET /api/v1/consumption/grid
func (h *ConsumptionHandler) GetGrid(c *gin.Context) {
	grid, err := h.svc.BuildGrid(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, grid)
}

// ApplyGrid POST /api/v1/consumption/grid
func (h *ConsumptionHandler) ApplyGrid(c *gin.Context) {
	var req service.ApplyGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.svc.ApplyGrid(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// ResetGrid POST /api/v1/consumption/grid/reset
func (h *ConsumptionHandler) ResetGrid(c *gin.Context) {
	result, err := h.svc.ResetGrid(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// ExportExcel GET /api/v1/consumption/grid/export
func (h *ConsumptionHandler) ExportExcel(c *gin.Context) {
	f, err := h.svc.ExportExcel(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("consumption_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write workbook: "+err.Error())
		return
	}
}

// ImportExcel POST /api/v1/consumption/grid/import
func (h *ConsumptionHandler) ImportExcel(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required: "+err.Error())
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	result, err := h.svc.ImportExcel(c.Request.Context(), src)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// ImportLegacyCSV POST /api/v1/consumption/grid/import-csv
func (h *ConsumptionHandler) ImportLegacyCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required: "+err.Error())
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	result, err := h.svc.ImportLegacyCSV(c.Request.Context(), src)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
