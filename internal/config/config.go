package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr string

	// Database
	DBDriver       string // "pgx" or "postgres" (lib/pq)
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxIdle  time.Duration
	DBAutoMigrate  bool
	DBDebug        bool

	// Auth
	JWTSecret         string
	JWTIssuer         string
	AccessTokenTTL    time.Duration
	BcryptCost        int
	SeedAdminUsername string
	SeedAdminPassword string

	// RabbitMQ (empty URL => noop publisher)
	RabbitURL      string
	RabbitExchange string

	// Redis (empty URL => in-process caches)
	RedisURL string

	// Ranking
	RankingMode         string // "live" or "snapshot"
	RankingScorer       string // "simple" or "decayed"
	WeightView          float64
	WeightClick         float64
	WeightSearch        float64
	DecayHalfLife       time.Duration
	RankingRefreshCron  string
	RankingRebuildCron  string
	RankingMaxLimit     int
	SchedulerTimezone   string
	BadgeSweepCron      string
	BadgeMaxPosition    int
	BadgeMaxDurationHrs int

	// Catalog
	CatalogCSVURL       string
	CatalogImageDomains []string
	CatalogCacheTTL     time.Duration
	CatalogFetchTimeout time.Duration
	CatalogMaxBytes     int64

	// Ops settings + backups
	SettingsPath string
	BackupDir    string
	BackupPrefix string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string

	// Rate limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
	// per-IP limit on GET /ranking?forceRefresh=true
	RLRefreshLimit int
	LoginRLLimit   int
	LoginRLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBDriver = getEnv("DB_DRIVER", "pgx")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DBMaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", 20)
	cfg.DBMaxIdleConns = getIntEnv("DB_MAX_IDLE_CONNS", 10)
	cfg.DBConnMaxIdle = getDuration("DB_CONN_MAX_IDLE", 5*time.Minute)
	cfg.DBAutoMigrate = getBoolEnv("DB_AUTO_MIGRATE", true)
	cfg.DBDebug = getBoolEnv("DB_DEBUG", false)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "wholesale-catalog")
	cfg.AccessTokenTTL = getDuration("ACCESS_TOKEN_TTL", 12*time.Hour)
	cfg.BcryptCost = getIntEnv("BCRYPT_COST", 12)
	cfg.SeedAdminUsername = getEnv("SEED_ADMIN_USERNAME", "")
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "catalog.events")

	cfg.RedisURL = getEnv("REDIS_URL", "")

	cfg.RankingMode = getEnv("RANKING_MODE", "snapshot")
	cfg.RankingScorer = getEnv("RANKING_SCORER", "simple")
	cfg.WeightView = getFloatEnv("RANKING_WEIGHT_VIEW", 1)
	cfg.WeightClick = getFloatEnv("RANKING_WEIGHT_CLICK", 1)
	cfg.WeightSearch = getFloatEnv("RANKING_WEIGHT_SEARCH", 1)
	cfg.DecayHalfLife = getDuration("RANKING_DECAY_HALF_LIFE", 72*time.Hour)
	cfg.RankingRefreshCron = getEnv("RANKING_REFRESH_CRON", "*/10 * * * *")
	cfg.RankingRebuildCron = getEnv("RANKING_REBUILD_CRON", "")
	cfg.RankingMaxLimit = getIntEnv("RANKING_MAX_LIMIT", 500)
	cfg.SchedulerTimezone = getEnv("SCHEDULER_TZ", "UTC")
	cfg.BadgeSweepCron = getEnv("BADGE_SWEEP_CRON", "*/5 * * * *")
	cfg.BadgeMaxPosition = getIntEnv("BADGE_MAX_POSITION", 12)
	cfg.BadgeMaxDurationHrs = getIntEnv("BADGE_MAX_DURATION_HOURS", 24*30)

	cfg.CatalogCSVURL = getEnv("CATALOG_CSV_URL", "")
	cfg.CatalogImageDomains = getListEnv("CATALOG_IMAGE_DOMAINS")
	cfg.CatalogCacheTTL = getDuration("CATALOG_CACHE_TTL", 10*time.Minute)
	cfg.CatalogFetchTimeout = getDuration("CATALOG_FETCH_TIMEOUT", 15*time.Second)
	cfg.CatalogMaxBytes = int64(getIntEnv("CATALOG_MAX_BYTES", 10<<20))

	cfg.SettingsPath = getEnv("SETTINGS_PATH", "./data/settings.yaml")
	cfg.BackupDir = getEnv("BACKUP_DIR", "./data/backups")
	cfg.BackupPrefix = getEnv("BACKUP_PREFIX", "backups/")
	cfg.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", "")

	cfg.RLEnabled = getBoolEnv("RL_ENABLED", true)
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 120)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", time.Minute)
	cfg.RLRefreshLimit = getIntEnv("RL_REFRESH_LIMIT", 6)
	cfg.LoginRLLimit = getIntEnv("RL_LOGIN_LIMIT", 5)
	cfg.LoginRLWindow = getDuration("RL_LOGIN_WINDOW", time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET")
	}
	if c.AppEnv != "dev" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes when APP_ENV != dev")
	}
	switch c.DBDriver {
	case "pgx", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want pgx or postgres", c.DBDriver)
	}
	switch c.RankingMode {
	case "live", "snapshot":
	default:
		return fmt.Errorf("invalid RANKING_MODE %q: want live or snapshot", c.RankingMode)
	}
	switch c.RankingScorer {
	case "simple", "decayed":
	default:
		return fmt.Errorf("invalid RANKING_SCORER %q: want simple or decayed", c.RankingScorer)
	}
	if c.WeightView < 0 || c.WeightClick < 0 || c.WeightSearch < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if c.RankingScorer == "decayed" && c.DecayHalfLife <= 0 {
		return fmt.Errorf("RANKING_DECAY_HALF_LIFE must be positive for the decayed scorer")
	}
	if c.CatalogMaxBytes <= 0 {
		return fmt.Errorf("CATALOG_MAX_BYTES must be positive")
	}
	if c.BadgeMaxPosition < 1 {
		return fmt.Errorf("BADGE_MAX_POSITION must be >= 1")
	}
	if c.SeedAdminUsername != "" && c.SeedAdminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is required when SEED_ADMIN_USERNAME is set")
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getFloatEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getBoolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
