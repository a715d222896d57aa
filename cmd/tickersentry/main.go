package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tickersentry/internal/activity"
	"tickersentry/internal/config"
	"tickersentry/internal/core"
	"tickersentry/internal/engine"
	"tickersentry/internal/feed"
	"tickersentry/internal/logger"
	"tickersentry/internal/metrics"
	"tickersentry/internal/normalize"
	"tickersentry/internal/server"
	"tickersentry/internal/storage"
	"tickersentry/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	eng, err := engine.New(cfg.Engine.Thresholds())
	if err != nil {
		logger.Fatal("Failed to initialize decision engine: %v", err)
	}
	tracker, err := activity.New(activity.Options{
		Timeframes:            cfg.Activity.ModelTimeframes(),
		DefaultVolumeFloor:    cfg.Activity.DefaultVolumeFloor,
		MaxSymbolsPerInterval: cfg.Activity.MaxSymbolsPerInterval,
	})
	if err != nil {
		logger.Fatal("Failed to initialize activity tracker: %v", err)
	}
	c := core.New(eng, tracker)

	// Restore persisted state; a missing or corrupt blob means a fresh start,
	// never a failed one.
	blob, err := store.Load()
	if err != nil {
		logger.Warn("Failed to load persisted state: %v", err)
	} else if err := c.ImportState(blob); err != nil {
		logger.Warn("Discarding persisted state: %v", err)
	} else if len(blob) > 0 {
		logger.Info("Restored announcer state (%d bytes)", len(blob))
	}

	persist := func() {
		blob, err := c.ExportState()
		if err != nil {
			logger.Error("Failed to serialize state: %v", err)
			return
		}
		if err := store.Save(blob); err != nil {
			logger.Error("Failed to persist state: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tg *telegram.Client
	if cfg.Telegram.Enabled {
		tg, err = telegram.NewClient(
			cfg.Telegram.BotToken,
			cfg.Telegram.Recipients,
			cfg.Telegram.AdminIDs,
			c,
			cfg.Telegram.MaxRetries,
			cfg.Telegram.RetryDelayBase,
			telegram.FormatOptions{
				QuoteAsset:                cfg.Feed.QuoteAsset,
				MarkPercentThreshold:      cfg.Telegram.MarkPercentThreshold,
				MarkDailyPercentThreshold: cfg.Telegram.MarkDailyPercentThreshold,
				MarkVolumeThreshold:       cfg.Telegram.MarkVolumeThreshold,
			},
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		tg.OnTunablesChanged(persist)
		tg.ListenForCommands(ctx)
		logger.Info("Telegram client initialized")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	if cfg.Server.Enabled {
		httpSrv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.New(c, cfg.Server.LimitCap).Router(),
		}
		go func() {
			logger.Info("Analytics API listening on %s", cfg.Server.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.Storage.PersistenceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				persist()
			case <-ctx.Done():
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	norm := normalize.New(cfg.Feed.QuoteAsset)
	handleBatch := func(batch []normalize.RawTicker, receivedAt time.Time) {
		for _, raw := range batch {
			tick, ok := norm.Normalize(raw, receivedAt)
			if !ok {
				metrics.TicksDropped.Inc()
				continue
			}
			c.IngestTick(tick, receivedAt)
			metrics.TicksIngested.Inc()
		}

		events := c.DrainBreachEvents()
		if len(events) == 0 {
			return
		}
		metrics.BreachEvents.Add(float64(len(events)))
		logger.Info("Detected %d notable moves in batch of %d tickers", len(events), len(batch))

		if tg == nil {
			return
		}
		if err := tg.SendBreaches(events); err != nil {
			logger.Error("Failed to deliver announcements: %v", err)
			return
		}
		persist()
	}

	logger.Info("Starting announcer (quote asset: %s, timeframes: %d)",
		cfg.Feed.QuoteAsset, len(cfg.Activity.ModelTimeframes()))

	if err := feed.New(cfg.Feed, handleBatch).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Feed stopped: %v", err)
	}

	persist()
	logger.Info("Service stopped")
}
