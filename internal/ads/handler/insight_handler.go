package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/ads/service"
)

// InsightHandler ad insight sync and dashboard endpoints
type InsightHandler struct {
	svc *service.InsightService
}

// NewInsightHandler creates an insight handler
func NewInsightHandler(svc *service.InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

// Sync POST /api/v1/ads/sync?since=2026-08-01&until=2026-08-07
func (h *InsightHandler) Sync(c *gin.Context) {
	since, until, ok := dateRange(c)
	if !ok {
		return
	}
	result, err := h.svc.SyncInsights(c.Request.Context(), since, until)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// Dashboard GET /api/v1/ads/dashboard?since=2026-08-01&until=2026-08-07
func (h *InsightHandler) Dashboard(c *gin.Context) {
	since, until, ok := dateRange(c)
	if !ok {
		return
	}
	dashboard, err := h.svc.GetDashboard(c.Request.Context(), since, until)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, dashboard)
}

// List GET /api/v1/ads/insights?since=2026-08-01&until=2026-08-07
func (h *InsightHandler) List(c *gin.Context) {
	since, until, ok := dateRange(c)
	if !ok {
		return
	}
	insights, err := h.svc.ListInsights(c.Request.Context(), since, until)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": insights})
}

// dateRange parses since/until query params, defaulting to the last 7 days
func dateRange(c *gin.Context) (since, until time.Time, ok bool) {
	now := time.Now()
	since = now.AddDate(0, 0, -7)
	until = now

	var err error
	if raw := c.Query("since"); raw != "" {
		if since, err = time.Parse("2006-01-02", raw); err != nil {
			BadRequest(c, "invalid since date: "+raw)
			return since, until, false
		}
	}
	if raw := c.Query("until"); raw != "" {
		if until, err = time.Parse("2006-01-02", raw); err != nil {
			BadRequest(c, "invalid until date: "+raw)
			return since, until, false
		}
	}
	return since, until, true
}
