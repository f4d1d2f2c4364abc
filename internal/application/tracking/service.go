package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// RecordTx is one recording transaction: the log append and the counter
// increment it implies.
type RecordTx interface {
	// Append stores one interaction. Nil optional fields are left out of the insert.
	Append(ctx context.Context, it domain.Interaction) (domain.Interaction, error)
	ranking.CounterStore
}

type InteractionRepo interface {
	WithTx(ctx context.Context, fn func(tx RecordTx) error) error
}

// CounterApplier folds a stored interaction into the product counters through
// store, and invalidates the ranked snapshot once the write is committed.
type CounterApplier interface {
	ApplyTo(ctx context.Context, store ranking.CounterStore, it domain.Interaction) (*domain.ProductTrendingRecord, error)
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo  InteractionRepo
	agg   CounterApplier
	pub   eventing.Publisher
	clock domain.Clock
}

func NewService(repo InteractionRepo, agg CounterApplier, pub eventing.Publisher, clock domain.Clock) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Service{repo: repo, agg: agg, pub: pub, clock: clock}
}

type RecordCmd struct {
	Type       string
	SessionID  string
	ProductID  *string
	Brand      *string
	SearchTerm *string
	Metadata   map[string]any
	Timestamp  *time.Time
}

// maxClockSkew bounds how far in the future a client timestamp may be.
const maxClockSkew = 5 * time.Minute

// Record validates and appends one interaction and updates the product
// counters it maps to in the same transaction, so a failed counter update
// leaves no log row behind. Nothing is retried; the caller owns retries.
func (s *Service) Record(ctx context.Context, cmd RecordCmd) (domain.Interaction, error) {
	typ := domain.InteractionType(strings.TrimSpace(cmd.Type))
	if typ == "" {
		return domain.Interaction{}, domain.ErrMissingField("type")
	}
	if !typ.Valid() {
		return domain.Interaction{}, domain.ErrInvalidField("type", "unsupported interaction type")
	}
	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return domain.Interaction{}, domain.ErrMissingField("sessionId")
	}

	now := s.clock.Now()
	it := domain.Interaction{
		ID:         uuid.NewString(),
		Type:       typ,
		SessionID:  sessionID,
		ProductID:  optional(cmd.ProductID),
		Brand:      optional(cmd.Brand),
		SearchTerm: optional(cmd.SearchTerm),
		Metadata:   cmd.Metadata,
		Timestamp:  now,
	}
	if cmd.Timestamp != nil && !cmd.Timestamp.IsZero() {
		if cmd.Timestamp.After(now.Add(maxClockSkew)) {
			return domain.Interaction{}, domain.ErrInvalidField("timestamp", "must not be in the future")
		}
		it.Timestamp = cmd.Timestamp.UTC()
	}

	var (
		stored  domain.Interaction
		counted bool
	)
	err := s.repo.WithTx(ctx, func(tx RecordTx) error {
		var err error
		if stored, err = tx.Append(ctx, it); err != nil {
			return err
		}
		if s.agg == nil || !stored.Counted() {
			return nil
		}
		if _, err := s.agg.ApplyTo(ctx, tx, stored); err != nil {
			zlog.Error().Err(err).
				Str("interaction_id", stored.ID).
				Str("product_id", *stored.ProductID).
				Msg("counter update failed; interaction rolled back")
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return domain.Interaction{}, internal(err)
	}

	if counted {
		if err := s.agg.Invalidate(ctx); err != nil {
			zlog.Warn().Err(err).Msg("ranking snapshot mark dirty failed")
		}
	}

	eventing.Emit(ctx, s.pub, domain.EventInteractionRecorded, stored, now)
	return stored, nil
}

// optional trims the value and treats blanks as absent.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func internal(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrInternal(err)
}
