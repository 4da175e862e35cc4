package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vastralabs/karkhana/internal/ads/entity"
	"github.com/vastralabs/karkhana/internal/ads/meta"
	"github.com/vastralabs/karkhana/internal/ads/repository"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
)

type fakeInsightClient struct {
	insights []meta.CampaignInsight
	calls    int
}

func (f *fakeInsightClient) DailyInsights(ctx context.Context, since, until time.Time) ([]meta.CampaignInsight, error) {
	f.calls++
	return f.insights, nil
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func setupInsightService(t *testing.T, client InsightClient) *InsightService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if err := db.AutoMigrate(&entity.AdInsight{}); err != nil {
		t.Fatalf("Failed to migrate insight table: %v", err)
	}
	return NewInsightService(repository.NewInsightRepository(db), client, nil, zap.NewNop())
}

func TestSyncInsightsUpsertsInPlace(t *testing.T) {
	client := &fakeInsightClient{insights: []meta.CampaignInsight{
		{Date: day(1), CampaignID: "c1", CampaignName: "Always On", Spend: 500, Impressions: 15000, Clicks: 320, Purchases: 12, Revenue: 17988},
		{Date: day(1), CampaignID: "c2", CampaignName: "Festive Sale", Spend: 1200, Impressions: 40000, Clicks: 900, Purchases: 30, Revenue: 45000},
	}}
	svc := setupInsightService(t, client)
	ctx := context.Background()

	result, err := svc.SyncInsights(ctx, day(1), day(1))
	if err != nil {
		t.Fatalf("sync insights: %v", err)
	}
	if result.Rows != 2 {
		t.Errorf("Expected 2 rows, got %d", result.Rows)
	}

	// a refreshed pull overwrites, never duplicates
	client.insights[0].Spend = 550
	if _, err := svc.SyncInsights(ctx, day(1), day(1)); err != nil {
		t.Fatalf("re-sync insights: %v", err)
	}

	rows, err := svc.ListInsights(ctx, day(1), day(1))
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows after re-sync, got %d", len(rows))
	}
	for _, row := range rows {
		if row.CampaignID == "c1" && row.Spend != 550 {
			t.Errorf("Expected refreshed spend 550 for c1, got %v", row.Spend)
		}
	}
}

func TestSyncInsightsWithoutClient(t *testing.T) {
	svc := setupInsightService(t, nil)
	if _, err := svc.SyncInsights(context.Background(), day(1), day(2)); !IsBadRequest(err) {
		t.Errorf("Expected bad request without a configured client, got %v", err)
	}
}

func TestGetDashboardAggregates(t *testing.T) {
	client := &fakeInsightClient{insights: []meta.CampaignInsight{
		{Date: day(1), CampaignID: "c1", CampaignName: "Always On", Spend: 500, Impressions: 10000, Clicks: 300, Purchases: 10, Revenue: 15000},
		{Date: day(2), CampaignID: "c1", CampaignName: "Always On", Spend: 600, Impressions: 12000, Clicks: 350, Purchases: 12, Revenue: 18000},
		{Date: day(2), CampaignID: "c2", CampaignName: "Festive Sale", Spend: 1200, Impressions: 40000, Clicks: 900, Purchases: 30, Revenue: 45000},
	}}
	svc := setupInsightService(t, client)
	ctx := context.Background()

	if _, err := svc.SyncInsights(ctx, day(1), day(2)); err != nil {
		t.Fatalf("sync insights: %v", err)
	}

	dashboard, err := svc.GetDashboard(ctx, day(1), day(2))
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if dashboard.Totals.Spend != 2300 {
		t.Errorf("Expected total spend 2300, got %v", dashboard.Totals.Spend)
	}
	if dashboard.Totals.Revenue != 78000 {
		t.Errorf("Expected total revenue 78000, got %v", dashboard.Totals.Revenue)
	}
	if len(dashboard.Campaigns) != 2 {
		t.Fatalf("Expected 2 campaigns, got %d", len(dashboard.Campaigns))
	}
	// campaigns ordered by spend, biggest first
	if dashboard.Campaigns[0].CampaignID != "c2" {
		t.Errorf("Expected c2 first by spend, got %s", dashboard.Campaigns[0].CampaignID)
	}
	if len(dashboard.Daily) != 2 {
		t.Errorf("Expected 2 daily buckets, got %d", len(dashboard.Daily))
	}

	if _, err := svc.GetDashboard(ctx, day(2), day(1)); !IsBadRequest(err) {
		t.Errorf("Expected bad request for inverted range, got %v", err)
	}
}
