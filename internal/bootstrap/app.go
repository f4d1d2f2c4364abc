package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/application/backup"
	"github.com/baechuer/wholesale-catalog/internal/application/badges"
	"github.com/baechuer/wholesale-catalog/internal/application/catalog"
	"github.com/baechuer/wholesale-catalog/internal/application/dashboard"
	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/application/settings"
	"github.com/baechuer/wholesale-catalog/internal/application/tracking"
	"github.com/baechuer/wholesale-catalog/internal/config"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/blob"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/caching/redis"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/catalogsrc"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/db/postgres"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/memory"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/scheduler"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/security"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/settingsfile"
)

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig   func() (*config.Config, error)
	NewDB        func(cfg *config.Config) (*sql.DB, error)
	NewRedis     func(url string) (*redis.Client, error)
	NewPublisher func(url, exchange string) (eventing.Publisher, error)
	NewBlobStore func(ctx context.Context, cfg *config.Config) (backup.BlobStore, error)
}

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(cfg *config.Config) (*sql.DB, error) {
			return postgres.NewDB(cfg.DBDriver, cfg.DatabaseURL, postgres.PoolConfig{
				MaxOpenConns: cfg.DBMaxOpenConns,
				MaxIdleConns: cfg.DBMaxIdleConns,
				ConnMaxIdle:  cfg.DBConnMaxIdle,
			}, cfg.DBDebug)
		},
		NewRedis: redis.New,
		NewPublisher: func(url, exchange string) (eventing.Publisher, error) {
			return rabbitmq.NewPublisher(url, exchange)
		},
		NewBlobStore: newBlobStore,
	}
}

// newBlobStore picks S3 when a bucket is configured, else a local directory.
func newBlobStore(ctx context.Context, cfg *config.Config) (backup.BlobStore, error) {
	if cfg.S3Bucket != "" {
		return blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return blob.NewDirStore(cfg.BackupDir)
}

// App holds every wired service. The HTTP server and the maintenance tool
// both build one.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client // nil when REDIS_URL is empty or unreachable
	Blobs  backup.BlobStore

	Tracking  *tracking.Service
	Ranking   *ranking.Service
	Catalog   *catalog.Service
	Badges    *badges.Service
	Auth      *auth.Service
	Settings  *settings.Service
	Backups   *backup.Service
	Dashboard *dashboard.Service
	Scheduler *scheduler.Scheduler

	cleanupFns []func()
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() {
	runCleanup(a.cleanupFns)
	a.cleanupFns = nil
}

// BuildApp loads config and wires the whole object graph.
func BuildApp(ctx context.Context, deps Deps) (*App, error) {
	d := defaultDeps()
	if deps.LoadConfig != nil {
		d.LoadConfig = deps.LoadConfig
	}
	if deps.NewDB != nil {
		d.NewDB = deps.NewDB
	}
	if deps.NewRedis != nil {
		d.NewRedis = deps.NewRedis
	}
	if deps.NewPublisher != nil {
		d.NewPublisher = deps.NewPublisher
	}
	if deps.NewBlobStore != nil {
		d.NewBlobStore = deps.NewBlobStore
	}

	// 0) config
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg}

	// 1) db
	db, err := d.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	a.cleanupFns = append(a.cleanupFns, func() { _ = db.Close() })

	if cfg.DBAutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	// 2) redis (best-effort)
	if cfg.RedisURL != "" {
		c, err := d.NewRedis(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable; using in-process caches")
		} else {
			zlog.Info().Msg("redis connected")
			a.Redis = c
			a.cleanupFns = append(a.cleanupFns, func() { _ = c.Close() })
		}
	}

	// 3) publisher (best-effort)
	var pub eventing.Publisher = memory.NewNoopPublisher()
	if cfg.RabbitURL == "" {
		zlog.Warn().Msg("RABBIT_URL not set; domain events are dropped")
	} else {
		p, err := d.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		} else {
			pub = p
			if c, ok := p.(interface{ Close() error }); ok {
				a.cleanupFns = append(a.cleanupFns, func() { _ = c.Close() })
			}
		}
	}

	// 4) ranking core
	scorer, err := ranking.NewScorer(ranking.ScorerConfig{
		Kind:     cfg.RankingScorer,
		Weights:  ranking.Weights{View: cfg.WeightView, Click: cfg.WeightClick, Search: cfg.WeightSearch},
		HalfLife: cfg.DecayHalfLife,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	var snapCache ranking.SnapshotCache = ranking.NewMemorySnapshotCache()
	var kvCache catalog.Cache = memory.NewCache()
	if a.Redis != nil {
		snapCache = redis.NewSnapshotCache(a.Redis)
		kvCache = a.Redis
	}

	clock := domain.SystemClock{}
	trendingRepo := postgres.NewTrendingRepo(db)
	badgeRepo := postgres.NewBadgeRepo(db)

	a.Ranking = ranking.NewService(trendingRepo, scorer, snapCache, pub, clock, ranking.Config{Mode: ranking.Mode(cfg.RankingMode)})
	a.Tracking = tracking.NewService(postgres.NewInteractionRepo(db), a.Ranking, pub, clock)

	// 5) back office
	a.Catalog = catalog.NewService(
		catalogsrc.NewSheetSource(cfg.CatalogCSVURL, cfg.CatalogFetchTimeout, cfg.CatalogImageDomains, cfg.CatalogMaxBytes),
		kvCache,
		cfg.CatalogCacheTTL,
	)
	a.Badges = badges.NewService(badgeRepo, pub, clock, badges.Config{
		MaxPosition:      cfg.BadgeMaxPosition,
		MaxDurationHours: cfg.BadgeMaxDurationHrs,
	})
	a.Dashboard = dashboard.NewService(postgres.NewStatsRepo(db), clock)

	a.Auth = auth.NewService(
		postgres.NewUserRepo(db),
		security.NewBcryptHasher(cfg.BcryptCost),
		security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer),
		auth.Config{AccessTTL: cfg.AccessTokenTTL},
	)
	if cfg.SeedAdminUsername != "" {
		created, err := a.Auth.SeedAdmin(ctx, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		if created {
			zlog.Info().Str("username", cfg.SeedAdminUsername).Msg("seed admin created")
		}
	}

	settingsStore := settingsfile.New(cfg.SettingsPath)
	a.Settings = settings.NewService(settingsStore)

	blobs, err := d.NewBlobStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("backup store: %w", err)
	}
	a.Blobs = blobs
	a.Backups = backup.NewService(blobs, trendingRepo, badgeRepo, settingsStore, a.Ranking, pub, clock, cfg.BackupPrefix)

	// 6) scheduler (started by the server, not by the tool)
	sch, err := scheduler.New(cfg.SchedulerTimezone, 10*time.Minute)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Scheduler = sch
	if err := a.scheduleJobs(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) scheduleJobs(ctx context.Context) error {
	cfg := a.Config
	jobs := []struct {
		name, spec string
		job        scheduler.Job
	}{
		{"ranking.refresh", cfg.RankingRefreshCron, a.Ranking.Refresh},
		{"ranking.rebuild", cfg.RankingRebuildCron, func(ctx context.Context) error {
			_, err := a.Ranking.Rebuild(ctx)
			return err
		}},
		{"badges.sweep", cfg.BadgeSweepCron, a.Badges.Sweep},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if err := a.Scheduler.Schedule(j.name, j.spec, j.job); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	current, err := a.Settings.Get(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("settings unreadable; backup job uses defaults")
		current = domain.DefaultOpsSettings()
	}
	if err := a.scheduleBackups(current); err != nil {
		return err
	}
	a.Settings.OnChange(func(s domain.OpsSettings) {
		if err := a.scheduleBackups(s); err != nil {
			zlog.Error().Err(err).Msg("reschedule backups failed")
		}
	})
	return nil
}

func (a *App) scheduleBackups(s domain.OpsSettings) error {
	spec := s.BackupFrequency.CronSpec()
	if err := a.Scheduler.Schedule("backup", spec, a.Backups.RunScheduled); err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	zlog.Info().Str("frequency", string(s.BackupFrequency)).Int("retention_days", s.RetentionDays).Msg("backup schedule applied")
	return nil
}

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
