package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rewired-gh/landoracle/internal/estimator"
	"github.com/rewired-gh/landoracle/internal/logger"
	"github.com/rewired-gh/landoracle/internal/metrics"
	"github.com/rewired-gh/landoracle/internal/server"
	"github.com/rewired-gh/landoracle/internal/storage"
	"github.com/rewired-gh/landoracle/internal/telegram"
)

const rotateInterval = time.Minute

type serveCommand struct {
	configPath *string
}

func registerServe(app *kingpin.Application, configPath *string) {
	c := &serveCommand{configPath: configPath}
	app.Command("serve", "load the models and serve the bot and operator endpoints").
		Default().
		Action(c.run)
}

func (c *serveCommand) run(*kingpin.ParseContext) error {
	cfg := loadConfig(*c.configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		logger.Fatal("Failed to register metrics: %v", err)
	}

	var ready atomic.Bool
	g, gctx := errgroup.WithContext(ctx)

	// The operator server comes up before loading so /readyz can report it.
	if cfg.Server.Enabled {
		g.Go(func() error {
			return server.Run(gctx, cfg.Server.Addr, server.Handler(ready.Load, reg))
		})
	}

	opts := []estimator.Option{estimator.WithMetrics(m)}
	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxEstimates)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		opts = append(opts, estimator.WithRecorder(store))
		g.Go(func() error {
			rotateLoop(gctx, store)
			return nil
		})
	}

	svc, err := estimator.New(gctx, cfg.Dataset, cfg.Models, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize estimator: %v", err)
	}
	ready.Store(true)
	logger.Info("Estimator ready")

	if cfg.Telegram.Enabled {
		bot, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase, svc)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		g.Go(func() error { return bot.ListenForCommands(gctx) })
	} else {
		logger.Debug("Telegram bot disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, cleaning up...")
		return nil
	})

	err = g.Wait()
	logger.Info("Service stopped")
	return err
}

func rotateLoop(ctx context.Context, store *storage.Storage) {
	ticker := time.NewTicker(rotateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.RotateEstimates(ctx); err != nil {
				logger.Warn("Failed to rotate estimates: %v", err)
			}
		}
	}
}
