package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/movie-reviews-api/internal/catalog"
	"github.com/Clark-Hu/movie-reviews-api/internal/config"
	httpserver "github.com/Clark-Hu/movie-reviews-api/internal/http"
	"github.com/Clark-Hu/movie-reviews-api/internal/logging"
	"github.com/Clark-Hu/movie-reviews-api/internal/repository"
	"github.com/Clark-Hu/movie-reviews-api/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "movies-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New("movies-api", cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.New(ctx, cfg.DBURL, store.OptionsFromConfig(cfg, logger))
	if err != nil {
		logger.Error("connect database", zap.Error(err))
		return err
	}
	defer st.Close()

	if cfg.MigrateOnStart {
		if err := st.Migrate(ctx); err != nil {
			logger.Error("apply migrations", zap.Error(err))
			return err
		}
	}

	svc := catalog.New(catalog.NewUnitOfWork(repository.New(st)), catalog.Options{
		RecomputeOnReviewUpdate: cfg.RecomputeOnReviewUpdate,
		Logger:                  logger,
	})
	server := httpserver.New(cfg, st, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	logger.Info("movies-api started",
		zap.String("port", cfg.Port),
		zap.Bool("recompute_on_review_update", cfg.RecomputeOnReviewUpdate))

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("movies-api stopped")
	return nil
}
