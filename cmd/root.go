package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerabuild/catalog-crawler/internal/app"
	"github.com/nerabuild/catalog-crawler/internal/config"
	"github.com/nerabuild/catalog-crawler/internal/logging"
	"github.com/nerabuild/catalog-crawler/internal/orchestrator"
)

var cfgFile string

type settingsKeyType string

const settingsKey settingsKeyType = "settings"

// settings is what the root command resolves before any subcommand runs.
type settings struct {
	cfg    config.Config
	logger *zap.Logger
}

// Runner is the part of the application the commands drive.
type Runner interface {
	Run(ctx context.Context) (orchestrator.Report, error)
	Close()
}

// newLogger builds the process logger. Tests replace it to observe flushing.
var newLogger = logging.New

// newApp is the application factory. Tests replace it with a stub.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Runner, error) {
	return app.NewApp(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-crawler",
		Short: "Ingests PC hardware listings into the component catalog.",
		Long: `catalog-crawler searches the supported marketplaces for every hardware
category, extracts brand, model, price and specs from each listing and
upserts the deduplicated results into the catalog store.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), settingsKey, settings{cfg: cfg, logger: logger}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and CRAWLER_* environment variables apply without one)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		zap.L().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
