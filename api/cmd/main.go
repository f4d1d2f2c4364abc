package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/wholesale-catalog/internal/bootstrap"
	"github.com/baechuer/wholesale-catalog/internal/logger"
)

const shutdownGrace = 15 * time.Second

// server is what Run needs from *http.Server.
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string
}

type stdServer struct{ *http.Server }

func (s stdServer) Addr() string { return s.Server.Addr }

type buildFunc func() (server, func(), error)

// Run serves until a signal arrives or the listener fails, then drains
// in-flight requests. The returned value is the process exit code.
func Run(build buildFunc, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	srv, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("startup failed")
		return 1
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("catalog api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		lg.Error().Err(err).Msg("listener failed")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed; closing connections")
		_ = srv.Close()
	}

	lg.Info().Msg("stopped")
	return 0
}

func fromBootstrap() (server, func(), error) {
	srv, cleanup, err := bootstrap.NewServer()
	if err != nil {
		return nil, nil, err
	}
	return stdServer{srv}, cleanup, nil
}

func main() {
	logger.Init()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(fromBootstrap, sigCh, logger.Logger))
}
