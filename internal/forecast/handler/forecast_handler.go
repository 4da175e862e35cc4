package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/forecast/service"
)

// ForecastHandler demand forecast endpoints
type ForecastHandler struct {
	svc *service.ForecastService
}

// NewForecastHandler creates a forecast handler
func NewForecastHandler(svc *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{svc: svc}
}

// GetDemand GET /api/v1/forecast/demand?weeks=8
func (h *ForecastHandler) GetDemand(c *gin.Context) {
	weeks := 0
	if raw := c.Query("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(c, "invalid weeks: "+raw)
			return
		}
		weeks = parsed
	}

	forecast, err := h.svc.GetDemandForecast(c.Request.Context(), weeks)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, forecast)
}
