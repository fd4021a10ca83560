package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/medsync/scheduling/internal/api"
	"github.com/medsync/scheduling/internal/config"
	"github.com/medsync/scheduling/internal/schedule"
)

const version = "2.0.0"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	policy, err := schedule.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("data_file", cfg.DataFile).
		Str("conflict_policy", string(policy)).
		Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The store is constructed once here and handed to the router; nothing
	// else holds schedule state.
	store := schedule.NewStore(schedule.Options{
		DataFile:      cfg.DataFile,
		Policy:        policy,
		BackupCorrupt: cfg.BackupCorrupt,
		Logger:        log,
	})

	router := api.NewRouter(api.RouterConfig{
		Store:   store,
		Logger:  log,
		Env:     cfg.Env,
		Version: version,
		DataDir: filepath.Dir(cfg.DataFile),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
