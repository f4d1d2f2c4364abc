package settings

import (
	"context"
	"errors"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type Store interface {
	Load(ctx context.Context) (domain.OpsSettings, error)
	Save(ctx context.Context, s domain.OpsSettings) error
}

// Patch holds the fields an update may change; nil leaves a field as is.
type Patch struct {
	RetentionDays   *int
	BackupFrequency *domain.BackupFrequency
}

type Service struct {
	store Store

	mu        sync.Mutex
	listeners []func(domain.OpsSettings)
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// OnChange registers fn to run after every successful update.
func (s *Service) OnChange(fn func(domain.OpsSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) Get(ctx context.Context) (domain.OpsSettings, error) {
	cur, err := s.store.Load(ctx)
	if err != nil {
		return domain.OpsSettings{}, unavailable(err)
	}
	return cur, nil
}

func (s *Service) Update(ctx context.Context, p Patch, actor string) (domain.OpsSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.store.Load(ctx)
	if err != nil {
		return domain.OpsSettings{}, unavailable(err)
	}
	next := cur
	if p.RetentionDays != nil {
		next.RetentionDays = *p.RetentionDays
	}
	if p.BackupFrequency != nil {
		next.BackupFrequency = *p.BackupFrequency
	}
	if err := next.Validate(); err != nil {
		return domain.OpsSettings{}, err
	}
	if next == cur {
		return cur, nil
	}

	if err := s.store.Save(ctx, next); err != nil {
		return domain.OpsSettings{}, unavailable(err)
	}

	zlog.Info().
		Bool("audit", true).
		Str("action", "settings.update").
		Str("actor", actor).
		Int("retention_days", next.RetentionDays).
		Str("backup_frequency", string(next.BackupFrequency)).
		Msg("audit")

	for _, fn := range s.listeners {
		fn(next)
	}
	return next, nil
}

func unavailable(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrSettingsUnavailable(err)
}
