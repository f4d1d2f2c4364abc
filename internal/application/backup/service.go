package backup

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// BlobStore is implemented by the S3 store and the local directory store.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]domain.BackupInfo, error)
	Delete(ctx context.Context, key string) error
}

type TrendingStore interface {
	ListAll(ctx context.Context) ([]domain.ProductTrendingRecord, error)
	Restore(ctx context.Context, recs []domain.ProductTrendingRecord) error
}

type BadgeStore interface {
	ListAll(ctx context.Context) ([]domain.FireBadge, error)
	Restore(ctx context.Context, badges []domain.FireBadge) error
}

type SettingsStore interface {
	Load(ctx context.Context) (domain.OpsSettings, error)
	Save(ctx context.Context, s domain.OpsSettings) error
}

// Invalidator marks the ranked snapshot dirty after a restore.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	blobs    BlobStore
	trending TrendingStore
	badges   BadgeStore
	settings SettingsStore
	ranking  Invalidator
	pub      eventing.Publisher
	clock    domain.Clock
	prefix   string
}

func NewService(
	blobs BlobStore,
	trending TrendingStore,
	badges BadgeStore,
	settings SettingsStore,
	ranking Invalidator,
	pub eventing.Publisher,
	clock domain.Clock,
	prefix string,
) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if prefix == "" {
		prefix = "backups/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Service{
		blobs:    blobs,
		trending: trending,
		badges:   badges,
		settings: settings,
		ranking:  ranking,
		pub:      pub,
		clock:    clock,
		prefix:   prefix,
	}
}

const keyLayout = "20060102T150405.000Z"

func (s *Service) keyFor(t time.Time) string {
	return s.prefix + t.UTC().Format(keyLayout) + ".json"
}

// Create snapshots settings, trending records and badges into one document.
func (s *Service) Create(ctx context.Context, actor string) (domain.BackupInfo, error) {
	now := s.clock.Now()

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.BackupInfo{}, err
	}
	products, err := s.trending.ListAll(ctx)
	if err != nil {
		return domain.BackupInfo{}, err
	}
	badges, err := s.badges.ListAll(ctx)
	if err != nil {
		return domain.BackupInfo{}, err
	}

	doc := domain.BackupDocument{
		Version:   domain.BackupVersion,
		CreatedAt: now.UTC(),
		Settings:  settings,
		Products:  products,
		Badges:    badges,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return domain.BackupInfo{}, domain.ErrInternal(err)
	}

	key := s.keyFor(now)
	if err := s.blobs.Put(ctx, key, body); err != nil {
		return domain.BackupInfo{}, blobErr(err)
	}

	info := domain.BackupInfo{Key: key, Size: int64(len(body)), LastModified: now.UTC()}
	zlog.Info().
		Bool("audit", true).
		Str("action", "backup.create").
		Str("actor", actor).
		Str("key", key).
		Int("products", len(products)).
		Int("badges", len(badges)).
		Msg("audit")

	eventing.Emit(ctx, s.pub, domain.EventBackupCreated, info, now)
	return info, nil
}

// List returns backups newest first.
func (s *Service) List(ctx context.Context) ([]domain.BackupInfo, error) {
	infos, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return nil, blobErr(err)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastModified.Equal(infos[j].LastModified) {
			return infos[i].Key > infos[j].Key
		}
		return infos[i].LastModified.After(infos[j].LastModified)
	})
	return infos, nil
}

// Restore loads a backup document and writes it back. Interaction history is
// left alone; the ranked snapshot is invalidated afterwards.
func (s *Service) Restore(ctx context.Context, key, actor string) (domain.BackupDocument, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.BackupDocument{}, domain.ErrMissingField("key")
	}
	if !strings.HasPrefix(key, s.prefix) || strings.Contains(key, "..") {
		return domain.BackupDocument{}, domain.ErrInvalidField("key", "not a backup key")
	}

	body, err := s.blobs.Get(ctx, key)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return domain.BackupDocument{}, err
		}
		return domain.BackupDocument{}, blobErr(err)
	}

	var doc domain.BackupDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.BackupDocument{}, domain.ErrInvalidField("key", "backup is not valid JSON")
	}
	if doc.Version != domain.BackupVersion {
		return domain.BackupDocument{}, domain.ErrInvalidField("version", "unsupported backup version")
	}
	if err := doc.Settings.Validate(); err != nil {
		return domain.BackupDocument{}, err
	}

	if err := s.trending.Restore(ctx, doc.Products); err != nil {
		return domain.BackupDocument{}, err
	}
	if err := s.badges.Restore(ctx, doc.Badges); err != nil {
		return domain.BackupDocument{}, err
	}
	if err := s.settings.Save(ctx, doc.Settings); err != nil {
		return domain.BackupDocument{}, err
	}
	if s.ranking != nil {
		if err := s.ranking.Invalidate(ctx); err != nil {
			zlog.Warn().Err(err).Msg("ranking invalidate after restore failed")
		}
	}

	zlog.Info().
		Bool("audit", true).
		Str("action", "backup.restore").
		Str("actor", actor).
		Str("key", key).
		Int("products", len(doc.Products)).
		Msg("audit")
	return doc, nil
}

// Prune deletes backups older than retentionDays and reports how many went.
func (s *Service) Prune(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, domain.ErrInvalidField("retentionDays", "must be positive")
	}
	infos, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return 0, blobErr(err)
	}

	cutoff := s.clock.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	removed := 0
	for _, in := range infos {
		if !in.LastModified.Before(cutoff) {
			continue
		}
		if err := s.blobs.Delete(ctx, in.Key); err != nil {
			zlog.Warn().Err(err).Str("key", in.Key).Msg("backup prune delete failed")
			continue
		}
		removed++
	}
	return removed, nil
}

// RunScheduled is the cron entry point: create, then prune per current settings.
func (s *Service) RunScheduled(ctx context.Context) error {
	info, err := s.Create(ctx, "scheduler")
	if err != nil {
		return err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return err
	}
	n, err := s.Prune(ctx, settings.RetentionDays)
	if err != nil {
		return err
	}
	zlog.Info().Str("key", info.Key).Int("pruned", n).Msg("scheduled backup done")
	return nil
}

func blobErr(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrBlobUnavailable(err)
}
