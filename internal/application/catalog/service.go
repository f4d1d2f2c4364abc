package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const cacheKey = "catalog:items:v1"

// Source fetches the full catalog from the spreadsheet export.
type Source interface {
	FetchCatalog(ctx context.Context) ([]domain.CatalogItem, error)
}

// Cache is satisfied by the redis client and the in-memory cache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	src   Source
	cache Cache
	ttl   time.Duration
}

func NewService(src Source, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{src: src, cache: cache, ttl: ttl}
}

type Filter struct {
	Brand    string
	Category string
	Query    string
}

// List returns catalog items matching every non-empty filter field.
// Matching is case-insensitive; Query searches name, brand and sku.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.CatalogItem, error) {
	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}

	brand := strings.ToLower(strings.TrimSpace(f.Brand))
	category := strings.ToLower(strings.TrimSpace(f.Category))
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		if brand != "" && strings.ToLower(it.Brand) != brand {
			continue
		}
		if category != "" && strings.ToLower(it.Category) != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Brand), q) &&
			!strings.Contains(strings.ToLower(it.SKU), q) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, sku string) (domain.CatalogItem, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return domain.CatalogItem{}, domain.ErrMissingField("sku")
	}
	items, err := s.items(ctx)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	for _, it := range items {
		if strings.EqualFold(it.SKU, sku) {
			return it, nil
		}
	}
	return domain.CatalogItem{}, domain.ErrCatalogItemNotFound(sku)
}

// Brands lists distinct brands, sorted.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.Brand != "" && !seen[it.Brand] {
			seen[it.Brand] = true
			out = append(out, it.Brand)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Refresh drops the cached copy and refetches it.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			zlog.Warn().Err(err).Msg("catalog cache delete failed")
		}
	}
	items, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) items(ctx context.Context) ([]domain.CatalogItem, error) {
	if s.cache != nil {
		var cached []domain.CatalogItem
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			zlog.Warn().Err(err).Msg("catalog cache get failed")
		} else if found {
			return cached, nil
		}
	}
	return s.fetch(ctx)
}

func (s *Service) fetch(ctx context.Context) ([]domain.CatalogItem, error) {
	items, err := s.src.FetchCatalog(ctx)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.ErrCatalogUnavailable(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, items, s.ttl); err != nil {
			zlog.Warn().Err(err).Msg("catalog cache set failed")
		}
	}
	return items, nil
}
