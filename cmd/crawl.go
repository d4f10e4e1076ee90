// Package cmd defines the CLI commands for the catalog-crawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerabuild/catalog-crawler/internal/orchestrator"
)

// errRunFailed reports a run where at least one category did not complete.
var errRunFailed = errors.New("crawl run finished with failed categories")

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one ingestion pass over every configured category",
		Long: `Runs every configured category once, in order. Each category searches
all enabled sources with its keyword list, extracts and deduplicates the
listings and writes them to the catalog. A failing category is reported
and the run moves on; the command exits non-zero if any category failed.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	runner, err := newApp(cmd.Context(), s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer runner.Close()

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	logReport(s.logger, report)
	if report.Failed() {
		return errRunFailed
	}
	return nil
}

func resolveSettings(ctx context.Context) (settings, error) {
	s, ok := ctx.Value(settingsKey).(settings)
	if !ok || s.logger == nil {
		return settings{}, errors.New("configuration not loaded")
	}
	return s, nil
}

func logReport(logger *zap.Logger, report orchestrator.Report) {
	for _, c := range report.Categories {
		fields := []zap.Field{
			zap.String("category", c.Category.String()),
			zap.Int("listings", c.Listings),
			zap.Int("dropped", c.Dropped),
			zap.Int("resolved", c.Resolved),
			zap.Int("inserted", c.Inserted),
			zap.Int("updated", c.Updated),
			zap.Int("failed_writes", c.FailedWrites),
			zap.Int("fetch_errors", c.FetchErrors),
			zap.Duration("duration", c.Duration),
		}
		if c.Failed() {
			logger.Warn("category failed", append(fields, zap.String("error", c.Err))...)
			continue
		}
		logger.Info("category complete", fields...)
	}
	totals := report.Totals()
	logger.Info("crawl summary",
		zap.String("run_id", report.RunID),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
		zap.Int("inserted", totals.Inserted),
		zap.Int("updated", totals.Updated),
		zap.Int("failed_writes", totals.FailedWrites),
	)
}
