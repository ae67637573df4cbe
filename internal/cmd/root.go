package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noot-app/foodlens/internal/app"
	"github.com/noot-app/foodlens/internal/config"
	"github.com/noot-app/foodlens/internal/version"
)

// NewRootCmd builds the command tree. Each call returns a fresh tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "foodlens",
		Short: "Food recognition and nutrition tracking",
		Long: `foodlens identifies food from photos or barcodes, estimates nutrition and
keeps a local per-day log of meals, water and goals.

Run "foodlens serve" to expose the same operations as MCP tools:

1. STDIO Mode (--stdio): for local AI clients such as Claude Desktop
   - No authentication
   - Logs go to stderr

2. HTTP Mode (default): streamable HTTP on /mcp
   - Bearer token from AUTH_TOKEN required on /mcp
   - /health is public

Configuration is read from the environment, an optional .env file and an optional
YAML file named by FOODLENS_CONFIG.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newBarcodeCmd(),
		newTodayCmd(),
		newWeekCmd(),
		newWaterCmd(),
		newGoalsCmd(),
		newProfileCmd(),
		newRecentCmd(),
		newHistoryCmd(),
		newThemeCmd(),
		newClearCmd(),
		newFetchCatalogCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads and validates configuration
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the application for one-shot commands. Logs go to stderr so
// stdout carries only command output.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, config.NewLogger(true, cfg.LogLevel))
}

// withApp runs fn against a freshly built app and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var stdio bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over HTTP or stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := config.NewLogger(stdio, cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialize", "error", err)
				return err
			}
			defer a.Close()

			if err := a.State.Refresh(ctx); err != nil {
				logger.Warn("starting with partial state", "error", err)
			}
			go a.WatchState(ctx)
			a.CheckReminders(ctx)
			go a.RefreshCatalog(ctx)

			srv := a.MCPServer()
			if stdio {
				logger.Info("🔌 starting foodlens in STDIO mode", "transport", "stdio pipes")
				return srv.ServeStdio()
			}
			logger.Info("🌐 starting foodlens in HTTP mode",
				"transport", "streamable HTTP",
				"auth", "Bearer token required (except /health endpoint)",
				"port", cfg.Port)
			return srv.ServeHTTP(ctx, ":"+cfg.Port)
		},
	}
	cmd.Flags().BoolVar(&stdio, "stdio", false, "Serve over stdin/stdout for local MCP clients (default: HTTP)")
	return cmd
}

func newFetchCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-catalog",
		Short: "Download or refresh the offline Open Food Facts catalog and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := config.NewTextLogger(cmd.ErrOrStderr())
			return fetchCatalog(cmd.Context(), cfg, logger)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
