// Command tool runs one-off maintenance tasks against the same database,
// caches and blob store the API uses.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/bootstrap"
	"github.com/baechuer/wholesale-catalog/internal/infrastructure/db/postgres"
	"github.com/baechuer/wholesale-catalog/internal/logger"
)

const actor = "tool"

var errUsage = errors.New("usage")

const usage = `usage: tool <command> [flags]

commands:
  migrate                                   apply the database schema
  rebuild                                   recompute every trending record from the interaction log
  refresh-catalog                           drop the catalog cache and refetch the CSV
  create-user -username U -password P [-role admin|staff]
  backup create | list | restore -key K | prune [-days N]
`

// opener builds the application graph. Tests swap it out.
type opener func(ctx context.Context) (*bootstrap.App, error)

func openApp(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.BuildApp(ctx, bootstrap.Deps{})
}

type command func(ctx context.Context, app *bootstrap.App, out io.Writer) error

// parse resolves args into a command without touching any infrastructure.
func parse(args []string) (command, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	switch args[0] {
	case "migrate":
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			if err := postgres.Migrate(ctx, app.DB); err != nil {
				return err
			}
			return emit(out, map[string]any{"migrated": true})
		}, nil

	case "rebuild":
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			n, err := app.Ranking.Rebuild(ctx)
			if err != nil {
				return err
			}
			return emit(out, map[string]any{"products": n})
		}, nil

	case "refresh-catalog":
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			n, err := app.Catalog.Refresh(ctx)
			if err != nil {
				return err
			}
			return emit(out, map[string]any{"items": n})
		}, nil

	case "create-user":
		fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		username := fs.String("username", "", "")
		password := fs.String("password", "", "")
		role := fs.String("role", "admin", "")
		if err := fs.Parse(args[1:]); err != nil {
			return nil, errUsage
		}
		if *username == "" || *password == "" {
			return nil, errUsage
		}
		cmd := auth.CreateUserCmd{Username: *username, Password: *password, Role: *role, Actor: actor}
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			id, err := app.Auth.CreateUser(ctx, cmd)
			if err != nil {
				return err
			}
			return emit(out, id)
		}, nil

	case "backup":
		return parseBackup(args[1:])
	}
	return nil, errUsage
}

func parseBackup(args []string) (command, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	switch args[0] {
	case "create":
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			info, err := app.Backups.Create(ctx, actor)
			if err != nil {
				return err
			}
			return emit(out, info)
		}, nil

	case "list":
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			list, err := app.Backups.List(ctx)
			if err != nil {
				return err
			}
			return emit(out, list)
		}, nil

	case "restore":
		fs := flag.NewFlagSet("backup restore", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		key := fs.String("key", "", "")
		if err := fs.Parse(args[1:]); err != nil || *key == "" {
			return nil, errUsage
		}
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			doc, err := app.Backups.Restore(ctx, *key, actor)
			if err != nil {
				return err
			}
			return emit(out, map[string]any{
				"key":      *key,
				"products": len(doc.Products),
				"badges":   len(doc.Badges),
			})
		}, nil

	case "prune":
		fs := flag.NewFlagSet("backup prune", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		days := fs.Int("days", 0, "")
		if err := fs.Parse(args[1:]); err != nil || *days < 0 {
			return nil, errUsage
		}
		return func(ctx context.Context, app *bootstrap.App, out io.Writer) error {
			retention := *days
			if retention == 0 {
				s, err := app.Settings.Get(ctx)
				if err != nil {
					return err
				}
				retention = s.RetentionDays
			}
			n, err := app.Backups.Prune(ctx, retention)
			if err != nil {
				return err
			}
			return emit(out, map[string]any{"deleted": n, "retentionDays": retention})
		}, nil
	}
	return nil, errUsage
}

func emit(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run returns 0 on success, 1 on failure and 2 on bad arguments.
func run(ctx context.Context, args []string, open opener, stdout, stderr io.Writer) int {
	cmd, err := parse(args)
	if err != nil {
		fmt.Fprint(stderr, usage)
		return 2
	}

	app, err := open(ctx)
	if err != nil {
		zlog.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer app.Close()

	if err := cmd(ctx, app, stdout); err != nil {
		zlog.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}
	return 0
}

func main() {
	logger.InitWithWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], openApp, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
