package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/bootstrap"
	"github.com/baechuer/wholesale-catalog/internal/config"
)

func TestParse_Usage(t *testing.T) {
	cases := [][]string{
		nil,
		{"nope"},
		{"backup"},
		{"backup", "restore"},
		{"backup", "prune", "-days", "-1"},
		{"create-user", "-username", "ops"},
		{"create-user", "-bogus"},
	}
	for _, args := range cases {
		_, err := parse(args)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

func TestParse_Valid(t *testing.T) {
	cases := [][]string{
		{"migrate"},
		{"rebuild"},
		{"refresh-catalog"},
		{"create-user", "-username", "ops", "-password", "secret-pass", "-role", "staff"},
		{"backup", "create"},
		{"backup", "list"},
		{"backup", "restore", "-key", "backups/20260101T000000Z.json"},
		{"backup", "prune", "-days", "7"},
	}
	for _, args := range cases {
		cmd, err := parse(args)
		require.NoError(t, err, "%v", args)
		assert.NotNil(t, cmd)
	}
}

func TestRun_BadArgsSkipsBootstrap(t *testing.T) {
	opened := false
	open := func(context.Context) (*bootstrap.App, error) {
		opened = true
		return nil, errors.New("unreachable")
	}
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"explode"}, open, &bytes.Buffer{}, &stderr)

	assert.Equal(t, 2, code)
	assert.False(t, opened)
	assert.Contains(t, stderr.String(), "usage: tool")
}

func TestRun_BootstrapFailure(t *testing.T) {
	open := func(context.Context) (*bootstrap.App, error) { return nil, errors.New("no db") }
	assert.Equal(t, 1, run(context.Background(), []string{"rebuild"}, open, &bytes.Buffer{}, &bytes.Buffer{}))
}

func TestRun_BackupListOnEmptyStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:           "pgx",
		JWTSecret:          "s",
		BcryptCost:         4,
		RankingMode:        "snapshot",
		RankingScorer:      "simple",
		WeightView:         1,
		WeightClick:        1,
		WeightSearch:       1,
		SchedulerTimezone:  "UTC",
		BadgeMaxPosition:   12,
		SettingsPath:       filepath.Join(dir, "settings.yaml"),
		BackupDir:          filepath.Join(dir, "backups"),
		BackupPrefix:       "backups/",
		AccessTokenTTL:     time.Hour,
		RankingMaxLimit:    10,
		RankingRefreshCron: "",
	}
	open := func(ctx context.Context) (*bootstrap.App, error) {
		return bootstrap.BuildApp(ctx, bootstrap.Deps{
			LoadConfig: func() (*config.Config, error) { return cfg, nil },
			NewDB: func(*config.Config) (*sql.DB, error) {
				db, _, err := sqlmock.New()
				return db, err
			},
		})
	}

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"backup", "list"}, open, &stdout, &bytes.Buffer{})

	assert.Equal(t, 0, code)
	assert.JSONEq(t, `[]`, stdout.String())
}
