package domain

import "time"

// ProductTrendingRecord holds the per-product counters and scores.
// BaseScore is a manually seeded trending contribution that survives rebuilds.
type ProductTrendingRecord struct {
	ProductID       string     `json:"productId"`
	Brand           string     `json:"brand"`
	Name            string     `json:"name"`
	TotalViews      int64      `json:"totalViews"`
	TotalClicks     int64      `json:"totalClicks"`
	TotalSearches   int64      `json:"totalSearches"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
	TrendingScore   float64    `json:"trendingScore"`
	AdminScore      int        `json:"adminScore"`
	BaseScore       float64    `json:"baseScore"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// RankedProduct is derived; never stored.
type RankedProduct struct {
	ProductTrendingRecord
	TotalScore float64 `json:"totalScore"`
	Rank       int     `json:"rank"`
}

type RankedView struct {
	Trending      []RankedProduct `json:"trending"`
	TotalProducts int             `json:"totalProducts"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}
