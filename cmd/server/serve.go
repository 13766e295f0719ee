package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/cache"
	"github.com/jason-s-yu/picturepoker/internal/config"
	"github.com/jason-s-yu/picturepoker/internal/database"
	"github.com/jason-s-yu/picturepoker/internal/handlers"
	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/models"
	"github.com/jason-s-yu/picturepoker/internal/profile"
	"github.com/jason-s-yu/picturepoker/internal/transport"
)

func serve(parent context.Context, cfg config.Config, logger *logrus.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles := profile.NewStore(logger)
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		load := func(ctx context.Context) ([]models.UserProfile, error) {
			return database.LoadProfiles(ctx, pool)
		}
		if err := profiles.Refresh(ctx, load); err != nil {
			return err
		}
		go profiles.RunRefresh(ctx, cfg.ProfileRefreshInterval, load)
		logger.Infof("loaded %d profiles from database", profiles.Len())
	} else {
		if err := profiles.Refresh(ctx, profile.FileLoader(cfg.ProfilesPath)); err != nil {
			return err
		}
		logger.Infof("loaded %d profiles from %s", profiles.Len(), cfg.ProfilesPath)
	}

	var activity lobby.ActivitySink
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		publisher := cache.NewPublisher(rdb, cfg.ActivityQueue, logger)
		go publisher.Run(ctx)
		activity = publisher
		logger.Infof("publishing lobby activity to %s/%s", cfg.RedisAddr, cfg.ActivityQueue)
	}

	hub := transport.NewHub(cfg.SendBuffer, logger)
	registry := lobby.NewRegistry(lobby.Options{
		Transport:    hub,
		Profiles:     profiles,
		Activity:     activity,
		Logger:       logger,
		IdleTimeout:  cfg.IdleTimeout,
		StandIns:     cfg.BotCount,
		RandomizeBet: cfg.RandomizeBet,
		MaxBet:       cfg.MaxBet,
	})
	go registry.RunSweeper(ctx, cfg.SweepInterval)

	srv := handlers.NewServer(registry, lobby.NewQueue(registry), hub, logger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	logger.Infof("Running on %s", cfg.Addr())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
