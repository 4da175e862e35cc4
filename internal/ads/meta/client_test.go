package meta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDailyInsightsFollowsPaging(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{
				"data": [{
					"date_start": "2026-08-02",
					"campaign_id": "c2",
					"campaign_name": "Festive Sale",
					"spend": "1200.50",
					"impressions": "40000",
					"clicks": "900"
				}],
				"paging": {}
			}`)
			return
		}
		if got := r.URL.Query().Get("level"); got != "campaign" {
			t.Errorf("Expected level=campaign, got %q", got)
		}
		if got := r.URL.Query().Get("time_increment"); got != "1" {
			t.Errorf("Expected time_increment=1, got %q", got)
		}
		fmt.Fprintf(w, `{
			"data": [{
				"date_start": "2026-08-01",
				"campaign_id": "c1",
				"campaign_name": "Always On",
				"spend": "500.25",
				"impressions": "15000",
				"clicks": "320",
				"actions": [
					{"action_type": "link_click", "value": "310"},
					{"action_type": "purchase", "value": "12"}
				],
				"action_values": [
					{"action_type": "purchase", "value": "17988.00"}
				]
			}],
			"paging": {"next": "%s?page=2"}
		}`, server.URL)
	}))
	defer server.Close()

	client := NewClient("token", "123", "", server.URL)
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	insights, err := client.DailyInsights(context.Background(), since, until)
	if err != nil {
		t.Fatalf("daily insights: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("Expected 2 insights across pages, got %d", len(insights))
	}

	first := insights[0]
	if first.CampaignID != "c1" || first.CampaignName != "Always On" {
		t.Errorf("Expected campaign c1 Always On, got %s %s", first.CampaignID, first.CampaignName)
	}
	if first.Spend != 500.25 || first.Impressions != 15000 || first.Clicks != 320 {
		t.Errorf("Unexpected metrics: %+v", first)
	}
	if first.Purchases != 12 {
		t.Errorf("Expected 12 purchases, got %d", first.Purchases)
	}
	if first.Revenue != 17988 {
		t.Errorf("Expected revenue 17988, got %v", first.Revenue)
	}
	if !first.Date.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected date 2026-08-01, got %s", first.Date)
	}

	second := insights[1]
	if second.CampaignID != "c2" || second.Spend != 1200.50 {
		t.Errorf("Unexpected second page row: %+v", second)
	}
	if second.Purchases != 0 || second.Revenue != 0 {
		t.Errorf("Expected zero purchase metrics without actions, got %+v", second)
	}
}

func TestDailyInsightsSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190}}`)
	}))
	defer server.Close()

	client := NewClient("expired", "123", "", server.URL)
	_, err := client.DailyInsights(context.Background(), time.Now().AddDate(0, 0, -1), time.Now())
	if err == nil {
		t.Fatal("Expected an error from the api error payload")
	}
	apiErr, ok := err.(*apiError)
	if !ok {
		t.Fatalf("Expected *apiError, got %T: %v", err, err)
	}
	if apiErr.Code != 190 || apiErr.Type != "OAuthException" {
		t.Errorf("Unexpected api error: %+v", apiErr)
	}
}

func TestParseRowRejectsBadDate(t *testing.T) {
	_, err := parseRow(insightRow{DateStart: "01-08-2026", CampaignID: "c1"})
	if err == nil {
		t.Fatal("Expected an error for a malformed date_start")
	}
}
