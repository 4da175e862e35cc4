package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vastralabs/karkhana/internal/ads/entity"
)

// InsightRepository ad insight persistence and aggregation
type InsightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates an insight repository
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// Totals aggregate metrics over a date range
type Totals struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Purchases   int64   `json:"purchases"`
	Revenue     float64 `json:"revenue"`
}

// CampaignTotals aggregate metrics of one campaign
type CampaignTotals struct {
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Spend        float64 `json:"spend"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Purchases    int64   `json:"purchases"`
	Revenue      float64 `json:"revenue"`
}

// DailyTotals aggregate metrics of one day
type DailyTotals struct {
	Date        time.Time `json:"date"`
	Spend       float64   `json:"spend"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Purchases   int64     `json:"purchases"`
	Revenue     float64   `json:"revenue"`
}

// Upsert inserts or refreshes one insight row keyed by (date, campaign)
func (r *InsightRepository) Upsert(ctx context.Context, insight *entity.AdInsight) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"campaign_name", "spend", "impressions", "clicks", "purchases", "revenue", "updated_at",
		}),
	}).Create(insight).Error
}

// List returns raw insight rows for a date range, newest first
func (r *InsightRepository) List(ctx context.Context, since, until time.Time) ([]entity.AdInsight, error) {
	var insights []entity.AdInsight
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", since, until).
		Order("date DESC, campaign_name").
		Find(&insights).Error
	return insights, err
}

// SumTotals aggregates all campaigns over a date range
func (r *InsightRepository) SumTotals(ctx context.Context, since, until time.Time) (*Totals, error) {
	var totals Totals
	err := r.db.WithContext(ctx).Model(&entity.AdInsight{}).
		Where("date BETWEEN ? AND ?", since, until).
		Select("COALESCE(SUM(spend), 0) AS spend, COALESCE(SUM(impressions), 0) AS impressions, COALESCE(SUM(clicks), 0) AS clicks, COALESCE(SUM(purchases), 0) AS purchases, COALESCE(SUM(revenue), 0) AS revenue").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// SumByCampaign aggregates per campaign over a date range, highest spend first
func (r *InsightRepository) SumByCampaign(ctx context.Context, since, until time.Time) ([]CampaignTotals, error) {
	var rows []CampaignTotals
	err := r.db.WithContext(ctx).Model(&entity.AdInsight{}).
		Where("date BETWEEN ? AND ?", since, until).
		Select("campaign_id, MAX(campaign_name) AS campaign_name, SUM(spend) AS spend, SUM(impressions) AS impressions, SUM(clicks) AS clicks, SUM(purchases) AS purchases, SUM(revenue) AS revenue").
		Group("campaign_id").
		Order("spend DESC").
		Scan(&rows).Error
	return rows, err
}

// SumByDay aggregates per day over a date range in ascending date order
func (r *InsightRepository) SumByDay(ctx context.Context, since, until time.Time) ([]DailyTotals, error) {
	var rows []DailyTotals
	err := r.db.WithContext(ctx).Model(&entity.AdInsight{}).
		Where("date BETWEEN ? AND ?", since, until).
		Select("date, SUM(spend) AS spend, SUM(impressions) AS impressions, SUM(clicks) AS clicks, SUM(purchases) AS purchases, SUM(revenue) AS revenue").
		Group("date").
		Order("date").
		Scan(&rows).Error
	return rows, err
}
