package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/adapters/access"
	"github.com/dkeye/replayrelay/internal/adapters/gamestate"
	router "github.com/dkeye/replayrelay/internal/adapters/http"
	"github.com/dkeye/replayrelay/internal/adapters/replayfile"
	"github.com/dkeye/replayrelay/internal/adapters/ws"
	"github.com/dkeye/replayrelay/internal/app"
	"github.com/dkeye/replayrelay/internal/app/orch"
	"github.com/dkeye/replayrelay/internal/config"
	"github.com/dkeye/replayrelay/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	tracker := gamestate.NewTracker()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Access: &access.Client{
			BaseURL: cfg.APIBaseURL,
			Token:   cfg.AccessToken,
			Timeout: cfg.AccessTimeout,
		},
		Games:     tracker,
		Players:   tracker,
		Identity:  core.StaticIdentity(cfg.Username),
		Persister: replayfile.NewWriter(cfg.ReplayDir),
		Dialer: ws.Dialer{
			HandshakeTimeout: cfg.DialTimeout,
			WriteTimeout:     cfg.WriteTimeout,
		},
		BindHost:     cfg.BindHost,
		ChunkSize:    cfg.ChunkSize,
		LobbyVersion: cfg.LobbyVersion,
	}

	r := router.SetupRouter(cfg, o, tracker)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("replay relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	o.StopAll()
	log.Info().Msg("Server exited gracefully")
}
