package catalogsrc

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const DefaultMaxBytes = 10 << 20

// SheetSource reads the catalog from a spreadsheet CSV export.
type SheetSource struct {
	url          string
	client       *http.Client
	imageDomains []string
	maxBytes     int64
}

// NewSheetSource builds a source; exports larger than maxBytes are rejected
// whole rather than parsed partially.
func NewSheetSource(csvURL string, timeout time.Duration, imageDomains []string, maxBytes int64) *SheetSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &SheetSource{
		url:          csvURL,
		client:       &http.Client{Timeout: timeout},
		imageDomains: imageDomains,
		maxBytes:     maxBytes,
	}
}

func (s *SheetSource) FetchCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	if s.url == "" {
		return nil, errors.New("catalog csv url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog csv: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("catalog csv: %d bytes exceeds limit of %d", resp.ContentLength, s.maxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("catalog csv: read body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("catalog csv: body exceeds limit of %d bytes", s.maxBytes)
	}
	return Parse(bytes.NewReader(body), s.imageDomains)
}

// column aliases, matched after header normalisation
var aliases = map[string]string{
	"sku":           "sku",
	"id":            "sku",
	"code":          "sku",
	"name":          "name",
	"product":       "name",
	"product_name":  "name",
	"brand":         "brand",
	"category":      "category",
	"price":         "price",
	"unit_price":    "price",
	"unit":          "unit",
	"moq":           "moq",
	"min_order":     "moq",
	"min_order_qty": "moq",
	"image":         "image",
	"image_url":     "image",
	"stock":         "stock",
	"in_stock":      "stock",
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// Parse maps CSV rows to catalog items. Rows missing a sku or name are skipped.
func Parse(r io.Reader, imageDomains []string) ([]domain.CatalogItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.CatalogItem{}, nil
		}
		return nil, fmt.Errorf("catalog csv header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		if field, ok := aliases[normalizeHeader(h)]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	if _, ok := idx["sku"]; !ok {
		return nil, errors.New("catalog csv: no sku column")
	}
	if _, ok := idx["name"]; !ok {
		return nil, errors.New("catalog csv: no name column")
	}

	col := func(rec []string, field string) string {
		i, ok := idx[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	items := []domain.CatalogItem{}
	skipped := 0
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("catalog csv line %d: %w", line, err)
		}

		it := domain.CatalogItem{
			SKU:      col(rec, "sku"),
			Name:     col(rec, "name"),
			Brand:    col(rec, "brand"),
			Category: col(rec, "category"),
			Unit:     col(rec, "unit"),
		}
		if it.SKU == "" || it.Name == "" {
			skipped++
			continue
		}
		if p, ok := ParsePrice(col(rec, "price")); ok {
			it.Price = p
		}
		it.MinOrderQty = parseMOQ(col(rec, "moq"))
		it.InStock = parseStock(col(rec, "stock"))
		it.ImageURL = allowedImage(col(rec, "image"), imageDomains)
		items = append(items, it)
	}

	if skipped > 0 {
		zlog.Debug().Int("skipped", skipped).Msg("catalog rows without sku or name skipped")
	}
	return items, nil
}

// ParsePrice accepts "1234.5", "$1,234.50", "1.234,50" and "12,5".
// With both separators present the right-most one is the decimal point; a lone
// comma is decimal only when followed by one or two digits.
func ParsePrice(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	dec := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec = max(lastDot, lastComma)
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 {
			dec = lastDot
		}
	case lastComma >= 0:
		if frac := len(s) - lastComma - 1; strings.Count(s, ",") == 1 && frac >= 1 && frac <= 2 {
			dec = lastComma
		}
	}

	var intPart, fracPart string
	if dec >= 0 {
		intPart, fracPart = s[:dec], s[dec+1:]
	} else {
		intPart = s
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" || intPart == "-" {
		intPart += "0"
	}
	num := intPart
	if fracPart != "" {
		num += "." + fracPart
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func parseMOQ(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseStock treats a blank cell as in stock.
func parseStock(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "yes", "y", "true", "1", "in stock", "available", "si", "sí":
		return true
	case "no", "n", "false", "0", "out of stock", "sold out":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n > 0
	}
	return true
}

// allowedImage blanks URLs that are not http(s) or whose host is outside the
// allowlist. An empty allowlist accepts any host.
func allowedImage(raw string, domains []string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return ""
	}
	if len(domains) == 0 {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return raw
		}
	}
	return ""
}
