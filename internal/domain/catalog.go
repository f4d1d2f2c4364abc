package domain

// CatalogItem is one normalized row of the spreadsheet export.
type CatalogItem struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	MinOrderQty int     `json:"minOrderQty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	InStock     bool    `json:"inStock"`
}
