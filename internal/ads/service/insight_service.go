package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vastralabs/karkhana/internal/ads/entity"
	"github.com/vastralabs/karkhana/internal/ads/meta"
	"github.com/vastralabs/karkhana/internal/ads/repository"
)

const (
	dashboardCacheKeyFmt = "ads:dashboard:%s:%s"
	dashboardCacheTTL    = 5 * time.Minute
)

// InsightClient pulls daily campaign insights from the ad platform
type InsightClient interface {
	DailyInsights(ctx context.Context, since, until time.Time) ([]meta.CampaignInsight, error)
}

// InsightService ad insight sync and dashboard aggregation
type InsightService struct {
	repo   *repository.InsightRepository
	client InsightClient
	rdb    *redis.Client
	logger *zap.Logger
}

// NewInsightService creates an insight service
func NewInsightService(repo *repository.InsightRepository, client InsightClient, rdb *redis.Client, logger *zap.Logger) *InsightService {
	return &InsightService{repo: repo, client: client, rdb: rdb, logger: logger}
}

// SyncResult outcome of one insights pull
type SyncResult struct {
	Rows  int       `json:"rows"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Dashboard aggregated view over one date range
type Dashboard struct {
	Since     string                      `json:"since"`
	Until     string                      `json:"until"`
	Totals    *repository.Totals          `json:"totals"`
	Campaigns []repository.CampaignTotals `json:"campaigns"`
	Daily     []repository.DailyTotals    `json:"daily"`
}

// SyncInsights pulls the range from the ad platform and upserts every row.
// Re-running the same range refreshes rows in place.
func (s *InsightService) SyncInsights(ctx context.Context, since, until time.Time) (*SyncResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: ads client not configured", ErrBadRequest)
	}
	if until.Before(since) {
		return nil, fmt.Errorf("%w: until precedes since", ErrBadRequest)
	}

	insights, err := s.client.DailyInsights(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("pull insights: %w", err)
	}

	for _, insight := range insights {
		row := &entity.AdInsight{
			ID:           uuid.New().String()[:32],
			Date:         insight.Date,
			CampaignID:   insight.CampaignID,
			CampaignName: insight.CampaignName,
			Spend:        insight.Spend,
			Impressions:  insight.Impressions,
			Clicks:       insight.Clicks,
			Purchases:    insight.Purchases,
			Revenue:      insight.Revenue,
		}
		if err := s.repo.Upsert(ctx, row); err != nil {
			return nil, fmt.Errorf("upsert insight %s/%s: %w", insight.CampaignID, insight.Date.Format("2006-01-02"), err)
		}
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("ad insights synced",
		zap.Int("rows", len(insights)),
		zap.String("since", since.Format("2006-01-02")),
		zap.String("until", until.Format("2006-01-02")))
	return &SyncResult{Rows: len(insights), Since: since, Until: until}, nil
}

// GetDashboard aggregates the range, serving from redis when fresh
func (s *InsightService) GetDashboard(ctx context.Context, since, until time.Time) (*Dashboard, error) {
	if until.Before(since) {
		return nil, fmt.Errorf("%w: until precedes since", ErrBadRequest)
	}

	cacheKey := fmt.Sprintf(dashboardCacheKeyFmt, since.Format("2006-01-02"), until.Format("2006-01-02"))
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var dashboard Dashboard
			if err := json.Unmarshal([]byte(cached), &dashboard); err == nil {
				return &dashboard, nil
			}
		}
	}

	totals, err := s.repo.SumTotals(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("sum totals: %w", err)
	}
	campaigns, err := s.repo.SumByCampaign(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("sum by campaign: %w", err)
	}
	daily, err := s.repo.SumByDay(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}

	dashboard := &Dashboard{
		Since:     since.Format("2006-01-02"),
		Until:     until.Format("2006-01-02"),
		Totals:    totals,
		Campaigns: campaigns,
		Daily:     daily,
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(dashboard); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("cache dashboard", zap.Error(err))
			}
		}
	}
	return dashboard, nil
}

// ListInsights returns raw rows for a date range
func (s *InsightService) ListInsights(ctx context.Context, since, until time.Time) ([]entity.AdInsight, error) {
	if until.Before(since) {
		return nil, fmt.Errorf("%w: until precedes since", ErrBadRequest)
	}
	return s.repo.List(ctx, since, until)
}

// invalidateDashboards drops cached dashboards after a sync. Keys carry the
// range so a scan is needed; failures only shorten cache freshness.
func (s *InsightService) invalidateDashboards(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	iter := s.rdb.Scan(ctx, 0, "ads:dashboard:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("invalidate dashboard cache", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("scan dashboard cache", zap.Error(err))
	}
}
