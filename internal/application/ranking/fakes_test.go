package ranking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// memRepo mimics the postgres repository: increments are applied under a
// lock and the interaction log is kept so RebuildFromLog can replay it.
type memRepo struct {
	mu      sync.Mutex
	rows    map[string]domain.ProductTrendingRecord
	log     []domain.Interaction
	listErr error
	incErr  error
	lists   int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]domain.ProductTrendingRecord{}}
}

func (r *memRepo) IncrementCounter(_ context.Context, inc CounterIncrement) (domain.ProductTrendingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.increment(inc)
}

// record appends it to the log and runs fn against the same locked view,
// the way the postgres recording tx commits both writes together.
func (r *memRepo) record(it domain.Interaction, fn func(store CounterStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(lockedRepo{r}); err != nil {
		return err
	}
	r.log = append(r.log, it)
	return nil
}

type lockedRepo struct{ r *memRepo }

func (l lockedRepo) IncrementCounter(_ context.Context, inc CounterIncrement) (domain.ProductTrendingRecord, error) {
	return l.r.increment(inc)
}

func (r *memRepo) increment(inc CounterIncrement) (domain.ProductTrendingRecord, error) {
	if r.incErr != nil {
		return domain.ProductTrendingRecord{}, r.incErr
	}

	rec, ok := r.rows[inc.ProductID]
	if !ok {
		rec = domain.ProductTrendingRecord{ProductID: inc.ProductID, Brand: inc.Brand, CreatedAt: inc.At}
	}
	switch inc.Counter {
	case domain.CounterViews:
		rec.TotalViews++
	case domain.CounterClicks:
		rec.TotalClicks++
	case domain.CounterSearches:
		rec.TotalSearches++
	}
	if rec.LastInteraction == nil || inc.At.After(*rec.LastInteraction) {
		at := inc.At
		rec.LastInteraction = &at
	}
	rec.TrendingScore = rec.BaseScore + inc.Weights.Linear(rec.TotalViews, rec.TotalClicks, rec.TotalSearches)
	rec.UpdatedAt = inc.At
	r.rows[inc.ProductID] = rec
	return rec, nil
}

func (r *memRepo) RebuildFromLog(_ context.Context, w Weights) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.rows {
		rec.TotalViews, rec.TotalClicks, rec.TotalSearches = 0, 0, 0
		rec.LastInteraction = nil
		r.rows[id] = rec
	}
	touched := map[string]bool{}
	for _, it := range r.log {
		if !it.Counted() {
			continue
		}
		id := *it.ProductID
		rec, ok := r.rows[id]
		if !ok {
			rec = domain.ProductTrendingRecord{ProductID: id, CreatedAt: it.Timestamp}
		}
		switch it.Type.Counter() {
		case domain.CounterViews:
			rec.TotalViews++
		case domain.CounterClicks:
			rec.TotalClicks++
		case domain.CounterSearches:
			rec.TotalSearches++
		}
		if rec.LastInteraction == nil || it.Timestamp.After(*rec.LastInteraction) {
			at := it.Timestamp
			rec.LastInteraction = &at
		}
		r.rows[id] = rec
		touched[id] = true
	}
	for id, rec := range r.rows {
		rec.TrendingScore = rec.BaseScore + w.Linear(rec.TotalViews, rec.TotalClicks, rec.TotalSearches)
		r.rows[id] = rec
	}
	return int64(len(touched)), nil
}

func (r *memRepo) SetAdminScore(_ context.Context, productID string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[productID]
	if !ok {
		return domain.ErrProductNotFound(productID)
	}
	rec.AdminScore = score
	r.rows[productID] = rec
	return nil
}

func (r *memRepo) Insert(_ context.Context, rec domain.ProductTrendingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[rec.ProductID]; ok {
		return domain.ErrProductExists(rec.ProductID)
	}
	r.rows[rec.ProductID] = rec
	return nil
}

func (r *memRepo) ListAll(context.Context) ([]domain.ProductTrendingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.ProductTrendingRecord, 0, len(r.rows))
	for _, rec := range r.rows {
		out = append(out, rec)
	}
	// emulate an arbitrary storage order
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID > out[j].ProductID })
	return out, nil
}

func (r *memRepo) get(id string) domain.ProductTrendingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

type recordingPub struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPub) PublishEvent(_ context.Context, routingKey, _ string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func ptr(s string) *string { return &s }

func interaction(typ domain.InteractionType, productID string, at time.Time) domain.Interaction {
	it := domain.Interaction{Type: typ, SessionID: "s1", Timestamp: at}
	if productID != "" {
		it.ProductID = ptr(productID)
	}
	return it
}
