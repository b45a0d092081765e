package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/winterdragon/winterdragon/internal/archive"
	"github.com/winterdragon/winterdragon/internal/config"
	"github.com/winterdragon/winterdragon/internal/db"
	"github.com/winterdragon/winterdragon/internal/discord"
	"github.com/winterdragon/winterdragon/internal/live"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/service"
	"golang.org/x/sync/errgroup"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("winterdragon stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.MigrationsURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(logger)
	opts := []service.ManagerOption{service.WithNotifier(hub)}
	if cfg.R2.Enabled() {
		uploader, err := archive.NewR2Uploader(ctx, archive.R2Config(cfg.R2))
		if err != nil {
			return err
		}
		opts = append(opts, service.WithArchiver(archive.New(uploader)))
		logger.Info("tournament archives enabled", "bucket", cfg.R2.BucketName)
	}

	manager := service.NewManager(database, logger, opts...)
	lobbies := lobby.NewRegistry()

	bot, err := discord.NewBot(cfg.DiscordToken, cfg.DiscordGuildID, discord.Deps{
		Manager:      manager,
		Games:        service.NewGameService(database, logger),
		Lobbies:      lobbies,
		LobbyTimeout: cfg.LobbyTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           newRouter(manager, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		lobbies.RunJanitor(gctx, janitorInterval, logger)
		return nil
	})
	g.Go(func() error {
		logger.Info("web server starting", "addr", cfg.WebAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := bot.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return bot.Stop()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
