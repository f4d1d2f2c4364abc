package domain

import "time"

type InteractionType string

const (
	InteractionPageView     InteractionType = "page_view"
	InteractionCategoryView InteractionType = "category_view"
	InteractionProductView  InteractionType = "product_view"
	InteractionResultClick  InteractionType = "result_click"
	InteractionSearch       InteractionType = "search"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionPageView, InteractionCategoryView, InteractionProductView,
		InteractionResultClick, InteractionSearch:
		return true
	default:
		return false
	}
}

// Counter names the ProductTrendingRecord counter an interaction feeds.
type Counter string

const (
	CounterNone     Counter = ""
	CounterViews    Counter = "views"
	CounterClicks   Counter = "clicks"
	CounterSearches Counter = "searches"
)

// Counter maps an interaction type to the counter it increments.
// Page and category views are logged but never counted.
func (t InteractionType) Counter() Counter {
	switch t {
	case InteractionProductView:
		return CounterViews
	case InteractionResultClick:
		return CounterClicks
	case InteractionSearch:
		return CounterSearches
	default:
		return CounterNone
	}
}

// Interaction is one immutable row of the append-only interaction log.
type Interaction struct {
	ID         string          `json:"id"`
	Type       InteractionType `json:"type"`
	ProductID  *string         `json:"productId,omitempty"`
	Brand      *string         `json:"brand,omitempty"`
	SearchTerm *string         `json:"searchTerm,omitempty"`
	SessionID  string          `json:"sessionId"`
	Timestamp  time.Time       `json:"timestamp"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// Counted reports whether the interaction moves a product counter.
func (i Interaction) Counted() bool {
	return i.Type.Counter() != CounterNone && i.ProductID != nil && *i.ProductID != ""
}
