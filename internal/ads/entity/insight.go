package entity

import "time"

// AdInsight one day of delivery metrics for one campaign
type AdInsight struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Date         time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:uniq_insight_day_campaign"`
	CampaignID   string    `json:"campaign_id" gorm:"size:64;not null;uniqueIndex:uniq_insight_day_campaign"`
	CampaignName string    `json:"campaign_name" gorm:"size:256"`
	Spend        float64   `json:"spend" gorm:"type:numeric(15,2);default:0"`
	Impressions  int64     `json:"impressions" gorm:"default:0"`
	Clicks       int64     `json:"clicks" gorm:"default:0"`
	Purchases    int64     `json:"purchases" gorm:"default:0"`
	Revenue      float64   `json:"revenue" gorm:"type:numeric(15,2);default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AdInsight) TableName() string {
	return "ad_insights"
}
