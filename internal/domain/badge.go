package domain

import "time"

// FireBadge pins a product to a homepage slot for a limited time.
// At most one active badge exists per position.
type FireBadge struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	Position      int       `json:"position"`
	DurationHours int       `json:"durationHours"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	IsActive      bool      `json:"isActive"`
	CreatedBy     string    `json:"createdBy,omitempty"`
}

// LiveAt treats an expired badge as inactive even before the sweeper flips the flag.
func (b FireBadge) LiveAt(now time.Time) bool {
	return b.IsActive && now.Before(b.EndTime)
}
