package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/noot-app/foodlens/internal/barcode"
	"github.com/noot-app/foodlens/internal/config"
	"github.com/noot-app/foodlens/internal/dataset"
)

// fetchCatalog syncs the parquet snapshot and checks it can be queried
func fetchCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("🗄️  starting catalog fetch", "target_dir", filepath.Dir(cfg.ParquetPath))
	logger.Info("⚠️  large dataset warning",
		"message", "the Open Food Facts dataset is several GB",
		"note", "the first download may take several minutes")

	m := dataset.NewManager(dataset.OptionsFromConfig(cfg), logger)
	if err := m.Ensure(ctx); err != nil {
		logger.Error("failed to fetch catalog", "error", err)
		return err
	}

	catalog, err := barcode.NewDuckDBCatalog(m.Path(), logger)
	if err != nil {
		return err
	}
	defer catalog.Close()
	if err := catalog.TestConnection(ctx); err != nil {
		logger.Error("catalog downloaded but cannot be queried", "error", err)
		return err
	}

	if meta, err := m.LoadMetadata(); err == nil {
		logger.Info("✅ catalog ready", "path", m.Path(), "sha256", meta.SHA256, "size", meta.Size)
	} else {
		logger.Info("✅ catalog ready", "path", m.Path())
	}
	return nil
}
