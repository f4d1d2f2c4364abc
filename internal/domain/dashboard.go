package domain

import "time"

type SearchTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// DashboardStats is assembled from independent queries. A failed query leaves
// its field zeroed and adds the field name to Degraded.
type DashboardStats struct {
	TotalInteractions int64             `json:"totalInteractions"`
	InteractionsToday int64             `json:"interactionsToday"`
	UniqueSessions24h int64             `json:"uniqueSessions24h"`
	TrackedProducts   int64             `json:"trackedProducts"`
	ActiveBadges      int64             `json:"activeBadges"`
	TopSearchTerms    []SearchTermCount `json:"topSearchTerms"`
	Degraded          []string          `json:"degraded,omitempty"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}
