package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/ostap/huddle/internal/adapters/http"
	"github.com/ostap/huddle/internal/app"
	"github.com/ostap/huddle/internal/auth"
	"github.com/ostap/huddle/internal/config"
	"github.com/ostap/huddle/internal/directory"
	"github.com/ostap/huddle/internal/directory/migrate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create credential verifier")
	}

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("database_url is required")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reach database")
	}
	if err := migrate.Run(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	orch := &app.Orchestrator{
		Registry:  app.NewRegistry(),
		Meetings:  app.NewMeetingManager(),
		Directory: directory.NewPostgresStore(db),
		Policy:    app.SimplePolicy{},
		Timeout:   cfg.DirectoryTimeout,
	}

	r := router.SetupRouter(ctx, cfg, orch, orch.Directory, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
