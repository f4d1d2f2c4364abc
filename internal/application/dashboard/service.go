package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type StatsRepo interface {
	CountInteractions(ctx context.Context, since time.Time) (int64, error)
	CountUniqueSessions(ctx context.Context, since time.Time) (int64, error)
	CountTrackedProducts(ctx context.Context) (int64, error)
	CountActiveBadges(ctx context.Context, now time.Time) (int64, error)
	TopSearchTerms(ctx context.Context, since time.Time, limit int) ([]domain.SearchTermCount, error)
}

type Service struct {
	repo     StatsRepo
	clock    domain.Clock
	topTerms int
}

func NewService(repo StatsRepo, clock domain.Clock) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Service{repo: repo, clock: clock, topTerms: 10}
}

// Stats runs every query concurrently. A failing query never fails the whole
// call or cancels its siblings: its field stays zero and its name is listed in
// Degraded.
func (s *Service) Stats(ctx context.Context) domain.DashboardStats {
	now := s.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		out domain.DashboardStats
		mu  sync.Mutex
	)
	out.GeneratedAt = now

	degrade := func(name string, err error) {
		zlog.Warn().Err(err).Str("stat", name).Msg("dashboard query failed")
		mu.Lock()
		out.Degraded = append(out.Degraded, name)
		mu.Unlock()
	}

	var g errgroup.Group
	run := func(name string, fn func() error) {
		g.Go(func() error {
			err := fn()
			if err != nil {
				degrade(name, err)
			}
			return err
		})
	}

	run("totalInteractions", func() error {
		n, err := s.repo.CountInteractions(ctx, time.Time{})
		if err != nil {
			return err
		}
		out.TotalInteractions = n
		return nil
	})
	run("interactionsToday", func() error {
		n, err := s.repo.CountInteractions(ctx, dayStart)
		if err != nil {
			return err
		}
		out.InteractionsToday = n
		return nil
	})
	run("uniqueSessions24h", func() error {
		n, err := s.repo.CountUniqueSessions(ctx, now.Add(-24*time.Hour))
		if err != nil {
			return err
		}
		out.UniqueSessions24h = n
		return nil
	})
	run("trackedProducts", func() error {
		n, err := s.repo.CountTrackedProducts(ctx)
		if err != nil {
			return err
		}
		out.TrackedProducts = n
		return nil
	})
	run("activeBadges", func() error {
		n, err := s.repo.CountActiveBadges(ctx, now)
		if err != nil {
			return err
		}
		out.ActiveBadges = n
		return nil
	})
	run("topSearchTerms", func() error {
		terms, err := s.repo.TopSearchTerms(ctx, now.Add(-7*24*time.Hour), s.topTerms)
		if err != nil {
			return err
		}
		out.TopSearchTerms = terms
		return nil
	})
	if err := g.Wait(); err != nil {
		zlog.Debug().Err(err).Strs("degraded", out.Degraded).Msg("dashboard served partial stats")
	}

	if out.TopSearchTerms == nil {
		out.TopSearchTerms = []domain.SearchTermCount{}
	}
	sort.Strings(out.Degraded)
	return out
}
