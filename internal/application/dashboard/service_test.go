package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type fakeRepo struct {
	sessionErr error
	termsErr   error
	badgesErr  error

	// closed once the sessions query has failed
	sessionsFailed chan struct{}
}

func (f *fakeRepo) CountInteractions(_ context.Context, since time.Time) (int64, error) {
	if since.IsZero() {
		return 100, nil
	}
	return 7, nil
}

func (f *fakeRepo) CountUniqueSessions(context.Context, time.Time) (int64, error) {
	if f.sessionErr != nil {
		if f.sessionsFailed != nil {
			close(f.sessionsFailed)
		}
		return 99, f.sessionErr
	}
	return 4, nil
}

func (f *fakeRepo) CountTrackedProducts(ctx context.Context) (int64, error) {
	if f.sessionsFailed != nil {
		<-f.sessionsFailed
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return 12, nil
}

func (f *fakeRepo) CountActiveBadges(context.Context, time.Time) (int64, error) {
	return 3, f.badgesErr
}

func (f *fakeRepo) TopSearchTerms(context.Context, time.Time, int) ([]domain.SearchTermCount, error) {
	if f.termsErr != nil {
		return nil, f.termsErr
	}
	return []domain.SearchTermCount{{Term: "bolts", Count: 5}}, nil
}

var now = time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

func TestStats_AllHealthy(t *testing.T) {
	svc := NewService(&fakeRepo{}, fakeClock{now})

	st := svc.Stats(context.Background())
	assert.Equal(t, int64(100), st.TotalInteractions)
	assert.Equal(t, int64(7), st.InteractionsToday)
	assert.Equal(t, int64(4), st.UniqueSessions24h)
	assert.Equal(t, int64(12), st.TrackedProducts)
	assert.Equal(t, int64(3), st.ActiveBadges)
	assert.Equal(t, []domain.SearchTermCount{{Term: "bolts", Count: 5}}, st.TopSearchTerms)
	assert.Empty(t, st.Degraded)
	assert.Equal(t, now, st.GeneratedAt)
}

func TestStats_PartialFailureZeroesField(t *testing.T) {
	boom := errors.New("statement timeout")
	svc := NewService(&fakeRepo{sessionErr: boom, termsErr: boom, badgesErr: boom}, fakeClock{now})

	st := svc.Stats(context.Background())
	assert.Zero(t, st.UniqueSessions24h)
	assert.Zero(t, st.ActiveBadges)
	assert.NotNil(t, st.TopSearchTerms)
	assert.Empty(t, st.TopSearchTerms)
	assert.Equal(t, int64(100), st.TotalInteractions)
	assert.Equal(t, []string{"activeBadges", "topSearchTerms", "uniqueSessions24h"}, st.Degraded)
}

func TestStats_FailureDoesNotCancelSiblingQueries(t *testing.T) {
	repo := &fakeRepo{sessionErr: errors.New("conn reset"), sessionsFailed: make(chan struct{})}
	svc := NewService(repo, fakeClock{now})

	st := svc.Stats(context.Background())
	assert.Equal(t, int64(12), st.TrackedProducts)
	assert.Equal(t, []string{"uniqueSessions24h"}, st.Degraded)
}
