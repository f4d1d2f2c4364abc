package badges

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// memRepo enforces one live badge per position the way the partial unique
// index does.
type memRepo struct {
	mu     sync.Mutex
	badges []domain.FireBadge
}

func (r *memRepo) Occupy(_ context.Context, b domain.FireBadge) (domain.FireBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.badges {
		if r.badges[i].Position == b.Position && r.badges[i].IsActive {
			r.badges[i].IsActive = false
		}
	}
	r.badges = append(r.badges, b)
	return b, nil
}

func (r *memRepo) ListActive(_ context.Context, now time.Time) ([]domain.FireBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FireBadge
	for _, b := range r.badges {
		if b.LiveAt(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) ListAll(context.Context) ([]domain.FireBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FireBadge(nil), r.badges...), nil
}

func (r *memRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.badges {
		if r.badges[i].ID == id && r.badges[i].IsActive {
			r.badges[i].IsActive = false
			return nil
		}
	}
	return domain.ErrBadgeNotFound()
}

func (r *memRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.badges {
		if r.badges[i].IsActive && !now.Before(r.badges[i].EndTime) {
			r.badges[i].IsActive = false
			n++
		}
	}
	return n, nil
}

var t0 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestAssign_ReplacesOccupant(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, &fakeClock{t: t0}, Config{MaxPosition: 4})
	ctx := context.Background()

	first, err := svc.Assign(ctx, AssignCmd{ProductID: "p1", Position: 1, DurationHours: 24})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), first.EndTime)

	_, err = svc.Assign(ctx, AssignCmd{ProductID: "p2", Position: 1, DurationHours: 2})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].ProductID)
}

func TestAssign_Validation(t *testing.T) {
	svc := NewService(&memRepo{}, nil, &fakeClock{t: t0}, Config{MaxPosition: 4, MaxDurationHours: 48})
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignCmd{Position: 1, DurationHours: 1})
	assert.True(t, domain.Is(err, "missing_field"))

	_, err = svc.Assign(ctx, AssignCmd{ProductID: "p", Position: 5, DurationHours: 1})
	assert.True(t, domain.Is(err, "invalid_field"))

	_, err = svc.Assign(ctx, AssignCmd{ProductID: "p", Position: 1, DurationHours: 49})
	assert.True(t, domain.Is(err, "invalid_field"))
}

func TestListActive_HidesExpired(t *testing.T) {
	repo := &memRepo{}
	clock := &fakeClock{t: t0}
	svc := NewService(repo, nil, clock, Config{})
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignCmd{ProductID: "p1", Position: 2, DurationHours: 1})
	require.NoError(t, err)

	clock.t = t0.Add(2 * time.Hour)
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.Sweep(ctx))
	all, _ := repo.ListAll(ctx)
	assert.False(t, all[0].IsActive)
}

func TestRemove(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, &fakeClock{t: t0}, Config{})
	ctx := context.Background()

	b, err := svc.Assign(ctx, AssignCmd{ProductID: "p1", Position: 3, DurationHours: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, b.ID, "admin"))
	assert.True(t, domain.Is(svc.Remove(ctx, b.ID, "admin"), "badge_not_found"))
	assert.True(t, domain.Is(svc.Remove(ctx, "", "admin"), "missing_field"))
}
