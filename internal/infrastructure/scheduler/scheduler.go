package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	zlog "github.com/rs/zerolog/log"
)

// Job is a unit of scheduled work. Each run gets its own timeout context.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs. Re-adding a name replaces its entry.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entries  map[string]cron.EntryID
	timeout  time.Duration
	location *time.Location
}

func New(timezone string, timeout time.Duration) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		entries:  map[string]cron.EntryID{},
		timeout:  timeout,
		location: loc,
	}, nil
}

// Schedule adds or replaces the job called name. An empty spec removes it.
func (s *Scheduler) Schedule(name, spec string, job Job) error {
	if name == "" {
		return errors.New("job name must not be empty")
	}
	if job == nil {
		return errors.New("job must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	if spec == "" {
		zlog.Info().Str("job", name).Msg("scheduled job disabled")
		return nil
	}

	id, err := s.cron.AddFunc(spec, s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("add cron %s: %w", name, err)
	}
	s.entries[name] = id
	zlog.Info().Str("job", name).Str("spec", spec).Msg("job scheduled")
	return nil
}

func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Next reports the next run of name, or false when it is not scheduled.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				zlog.Error().Str("job", name).Interface("panic", p).Msg("scheduled job panicked")
			}
		}()

		if err := job(ctx); err != nil {
			zlog.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job failed")
			return
		}
		zlog.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job done")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Location() *time.Location {
	return s.location
}
