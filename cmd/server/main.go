// Command server runs the forum-pulse service: a periodic forum ingestion
// pipeline (fetch -> extract -> classify -> store) plus the HTTP API that
// serves aggregated sentiment statistics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/forumpulse/go-forum-pulse/internal/config"
	"github.com/forumpulse/go-forum-pulse/internal/forum"
	httpapi "github.com/forumpulse/go-forum-pulse/internal/http"
	"github.com/forumpulse/go-forum-pulse/internal/observability"
	"github.com/forumpulse/go-forum-pulse/internal/repo"
	"github.com/forumpulse/go-forum-pulse/internal/scheduler"
	"github.com/forumpulse/go-forum-pulse/internal/sentiment"
	"github.com/forumpulse/go-forum-pulse/internal/services"
	"github.com/forumpulse/go-forum-pulse/internal/sysutil"
)

// version is stamped at build time: -ldflags "-X main.version=v1.2.3".
var version = "dev"

const ingestJob = "ingest"

func main() {
	// Best effort; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log := sysutil.NewLogger(cfg.LogPretty).With().
		Str("service", cfg.OTEL.ServiceName).
		Str("version", version).
		Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	classifier := sentiment.NewVADER()

	fetcher, err := forum.NewCollyFetcher(
		cfg.Forum.BaseURL,
		cfg.Forum.ListingPath,
		cfg.Forum.UserAgent,
		cfg.Forum.FetchDelay,
		cfg.Forum.FetchTimeout,
	)
	if err != nil {
		return err
	}

	ingest := &services.IngestService{
		DB:         db,
		Fetcher:    fetcher,
		Classifier: classifier,
		Log:        log,
		BaseURL:    cfg.Forum.BaseURL,
		Workers:    cfg.Ingest.Workers,
	}
	stats := &services.StatsService{
		DB:           db,
		Classifier:   classifier,
		MaxTextRunes: cfg.MaxTextRunes,
	}

	sched := scheduler.New(log, cfg.Ingest.CycleTimeout)
	cycle := func(ctx context.Context) error {
		_, err := ingest.RunCycle(ctx)
		return err
	}
	if err := sched.AddIntervalJob(ingestJob, cfg.Ingest.PollInterval, cycle); err != nil {
		return err
	}
	if cfg.Ingest.RunOnStart {
		// First pass in the background so the API comes up immediately.
		sched.RunNow(ingestJob)
	}
	sched.Start()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Deps{
		Stats:   stats,
		Ingest:  ingest,
		NextRun: func() time.Time { return sched.NextRun(ingestJob) },
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("forum", cfg.Forum.BaseURL).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	// Running ingest cycles get to finish; the cron chain prevents new ones.
	<-sched.Stop().Done()

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}

	log.Info().Msg("shutdown complete")
	return nil
}
