package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com"

// Client Meta Marketing API client. Read-only insights access against one
// ad account using a long-lived access token.
type Client struct {
	accessToken string
	adAccountID string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a Meta Marketing API client
func NewClient(accessToken, adAccountID, apiVersion, baseURL string) *Client {
	if apiVersion == "" {
		apiVersion = "v21.0"
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		accessToken: accessToken,
		adAccountID: adAccountID,
		apiVersion:  apiVersion,
		baseURL:     baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CampaignInsight one row of the insights report
type CampaignInsight struct {
	Date         time.Time
	CampaignID   string
	CampaignName string
	Spend        float64
	Impressions  int64
	Clicks       int64
	Purchases    int64
	Revenue      float64
}

// insightRow raw insights row; numeric fields arrive as strings
type insightRow struct {
	DateStart    string `json:"date_start"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Spend        string `json:"spend"`
	Impressions  string `json:"impressions"`
	Clicks       string `json:"clicks"`
	Actions      []struct {
		ActionType string `json:"action_type"`
		Value      string `json:"value"`
	} `json:"actions"`
	ActionValues []struct {
		ActionType string `json:"action_type"`
		Value      string `json:"value"`
	} `json:"action_values"`
}

type insightsResponse struct {
	Data   []insightRow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("meta api error[%d] %s: %s", e.Code, e.Type, e.Message)
}

// DailyInsights pulls per-campaign daily insights for a date range,
// following pagination until exhausted.
func (c *Client) DailyInsights(ctx context.Context, since, until time.Time) ([]CampaignInsight, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("level", "campaign")
	params.Set("time_increment", "1")
	params.Set("fields", "date_start,campaign_id,campaign_name,spend,impressions,clicks,actions,action_values")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`, since.Format("2006-01-02"), until.Format("2006-01-02")))
	params.Set("limit", "500")

	endpoint := fmt.Sprintf("%s/%s/act_%s/insights?%s", c.baseURL, c.apiVersion, c.adAccountID, params.Encode())

	var out []CampaignInsight
	for endpoint != "" {
		page, err := c.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		for _, row := range page.Data {
			insight, err := parseRow(row)
			if err != nil {
				return nil, fmt.Errorf("parse insight row: %w", err)
			}
			out = append(out, insight)
		}
		endpoint = page.Paging.Next
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) (*insightsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create insights request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request insights: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read insights response: %w", err)
	}

	var result insightsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode insights response: %w", err)
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &result, nil
}

func parseRow(row insightRow) (CampaignInsight, error) {
	date, err := time.Parse("2006-01-02", row.DateStart)
	if err != nil {
		return CampaignInsight{}, fmt.Errorf("bad date_start %q: %w", row.DateStart, err)
	}

	insight := CampaignInsight{
		Date:         date,
		CampaignID:   row.CampaignID,
		CampaignName: row.CampaignName,
		Spend:        parseFloat(row.Spend),
		Impressions:  parseInt(row.Impressions),
		Clicks:       parseInt(row.Clicks),
	}
	for _, action := range row.Actions {
		if action.ActionType == "purchase" {
			insight.Purchases = parseInt(action.Value)
		}
	}
	for _, action := range row.ActionValues {
		if action.ActionType == "purchase" {
			insight.Revenue = parseFloat(action.Value)
		}
	}
	return insight, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
