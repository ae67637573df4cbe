// Package app wires foodlens together from a Config
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/noot-app/foodlens/internal/appstate"
	"github.com/noot-app/foodlens/internal/auth"
	"github.com/noot-app/foodlens/internal/barcode"
	"github.com/noot-app/foodlens/internal/config"
	"github.com/noot-app/foodlens/internal/dataset"
	"github.com/noot-app/foodlens/internal/ledger"
	"github.com/noot-app/foodlens/internal/mcpgo"
	"github.com/noot-app/foodlens/internal/notify"
	"github.com/noot-app/foodlens/internal/recognition"
	"github.com/noot-app/foodlens/internal/storage"
)

// App holds every long-lived component
type App struct {
	Config     *config.Config
	Store      storage.Store
	Bus        *notify.Bus
	Ledger     *ledger.Store
	State      *appstate.Service
	Reminders  *notify.Reminders
	Recognizer *recognition.Client
	Barcodes   *barcode.Client
	Dataset    *dataset.Manager

	catalog barcode.Catalog
	log     *slog.Logger
}

// New builds the application. The offline catalog is best effort: when it cannot be
// synced or opened, barcode lookups go to the API only.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	start := time.Now()
	logger.Info("initializing foodlens...")

	if cfg.IsDevelopment() {
		logger.Warn("🚧 DEVELOPMENT MODE ENABLED 🚧", "environment", cfg.Environment)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	kv, err := storage.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{Config: cfg, Store: kv, log: logger}

	a.Bus = notify.NewBus(0, logger)
	a.Bus.Subscribe(notify.NewLogNotifier(logger))
	if cfg.SNSTopicARN != "" {
		sink, err := notify.NewSNSNotifier(ctx, cfg.SNSTopicARN, cfg.AWSRegion, logger)
		if err != nil {
			logger.Warn("SNS notifications disabled", "error", err)
		} else {
			a.Bus.Subscribe(sink)
			logger.Info("SNS notifications enabled", "topic", cfg.SNSTopicARN)
		}
	}

	a.Ledger = ledger.New(kv, a.Bus, logger)
	a.State = appstate.NewService(a.Ledger, kv, logger)
	a.Reminders = notify.NewReminders(kv, a.Bus, logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, recognition will return estimates only")
	}
	a.Recognizer = recognition.NewClient(
		recognition.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, logger),
		recognition.Options{
			Models:   cfg.GeminiModels,
			Timeout:  cfg.RecognitionTimeout,
			MaxWidth: cfg.ImageMaxWidth,
			Quality:  cfg.ImageQuality,
		},
		logger,
	)

	if cfg.CatalogEnabled {
		a.Dataset = dataset.NewManager(dataset.OptionsFromConfig(cfg), logger)
		a.catalog = a.openCatalog(ctx)
	}
	a.Barcodes = barcode.NewClient(cfg.OFFBaseURL, cfg.BarcodeTimeout, a.catalog, logger)

	logger.Info("foodlens initialized", "duration", time.Since(start), "catalog", a.catalog != nil)
	return a, nil
}

func (a *App) openCatalog(ctx context.Context) barcode.Catalog {
	if err := a.Dataset.Ensure(ctx); err != nil {
		a.log.Warn("offline catalog unavailable", "error", err)
		return nil
	}
	catalog, err := barcode.NewDuckDBCatalog(a.Dataset.Path(), a.log)
	if err != nil {
		a.log.Warn("failed to open offline catalog", "error", err)
		return nil
	}
	if err := catalog.TestConnection(ctx); err != nil {
		a.log.Warn("offline catalog failed its test query", "error", err)
		catalog.Close()
		return nil
	}
	return catalog
}

// RefreshCatalog keeps the offline snapshot current until ctx is cancelled. The
// catalog reads the file per query so a replaced snapshot is picked up directly.
func (a *App) RefreshCatalog(ctx context.Context) {
	if a.Dataset == nil || a.catalog == nil {
		return
	}
	a.Dataset.Run(ctx, a.Config.RefreshInterval(), func() {
		a.log.Info("offline catalog refreshed", "path", a.Dataset.Path())
	})
}

// CheckReminders sends the first missed-meal reminder once per day
func (a *App) CheckReminders(ctx context.Context) {
	if !a.Reminders.ShouldInitialize(ctx) {
		return
	}
	today, err := a.Ledger.GetDailyIntake(ctx, time.Now())
	if err != nil {
		a.log.Warn("skipping reminders", "error", err)
		return
	}
	a.Reminders.CheckMissedMeals(today)
	if err := a.Reminders.MarkInitialized(ctx); err != nil {
		a.log.Warn("failed to mark reminders initialized", "error", err)
	}
}

// WatchState logs a summary of every state change until ctx is cancelled
func (a *App) WatchState(ctx context.Context) {
	updates, cancel := a.State.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			a.log.Debug("state updated",
				"date", snap.Ledger.Date,
				"calories", snap.Ledger.TotalNutrition.Calories,
				"water", snap.Ledger.WaterGlasses,
				"recent_scans", len(snap.RecentScans),
				"theme", snap.Theme.String())
		}
	}
}

// MCPServer builds the MCP transport over this app
func (a *App) MCPServer() *mcpgo.Server {
	return mcpgo.NewServer(mcpgo.Deps{
		Recognizer: a.Recognizer,
		Barcodes:   a.Barcodes,
		Ledger:     a.Ledger,
		State:      a.State,
		Health:     a.Store,
	}, auth.NewBearer(a.Config.AuthToken, a.log), a.log)
}

// Close flushes pending notifications and releases storage
func (a *App) Close() error {
	a.Bus.Close()
	var errs []error
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close catalog: %w", err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}
