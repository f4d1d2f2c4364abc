package badges

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type Repo interface {
	// Occupy deactivates the live badge at b.Position and inserts b in one transaction.
	Occupy(ctx context.Context, b domain.FireBadge) (domain.FireBadge, error)
	ListActive(ctx context.Context, now time.Time) ([]domain.FireBadge, error)
	ListAll(ctx context.Context) ([]domain.FireBadge, error)
	Deactivate(ctx context.Context, id string) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	MaxPosition      int
	MaxDurationHours int
}

type Service struct {
	repo  Repo
	pub   eventing.Publisher
	clock domain.Clock
	cfg   Config
}

func NewService(repo Repo, pub eventing.Publisher, clock domain.Clock, cfg Config) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if cfg.MaxPosition <= 0 {
		cfg.MaxPosition = 12
	}
	if cfg.MaxDurationHours <= 0 {
		cfg.MaxDurationHours = 24 * 30
	}
	return &Service{repo: repo, pub: pub, clock: clock, cfg: cfg}
}

type AssignCmd struct {
	ProductID     string
	Position      int
	DurationHours int
	Actor         string
}

// Assign puts a product on a badge position, replacing whichever badge held it.
func (s *Service) Assign(ctx context.Context, cmd AssignCmd) (domain.FireBadge, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.FireBadge{}, domain.ErrMissingField("productId")
	}
	if cmd.Position < 1 || cmd.Position > s.cfg.MaxPosition {
		return domain.FireBadge{}, domain.ErrInvalidField("position", "out of range")
	}
	if cmd.DurationHours < 1 || cmd.DurationHours > s.cfg.MaxDurationHours {
		return domain.FireBadge{}, domain.ErrInvalidField("durationHours", "out of range")
	}

	now := s.clock.Now()
	b := domain.FireBadge{
		ID:            uuid.NewString(),
		ProductID:     productID,
		Position:      cmd.Position,
		DurationHours: cmd.DurationHours,
		StartTime:     now,
		EndTime:       now.Add(time.Duration(cmd.DurationHours) * time.Hour),
		IsActive:      true,
		CreatedBy:     cmd.Actor,
	}

	stored, err := s.repo.Occupy(ctx, b)
	if err != nil {
		return domain.FireBadge{}, err
	}

	zlog.Info().
		Bool("audit", true).
		Str("action", "badge.assign").
		Str("actor", cmd.Actor).
		Str("product_id", productID).
		Int("position", cmd.Position).
		Msg("audit")

	eventing.Emit(ctx, s.pub, domain.EventBadgeAssigned, stored, now)
	return stored, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.FireBadge, error) {
	return s.repo.ListActive(ctx, s.clock.Now())
}

func (s *Service) Remove(ctx context.Context, id, actor string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrMissingField("id")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	zlog.Info().
		Bool("audit", true).
		Str("action", "badge.remove").
		Str("actor", actor).
		Str("badge_id", id).
		Msg("audit")
	return nil
}

// Sweep flips expired badges to inactive; run from the scheduler.
func (s *Service) Sweep(ctx context.Context) error {
	n, err := s.repo.ExpireStale(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		zlog.Info().Int64("expired", n).Msg("fire badges expired")
	}
	return nil
}
