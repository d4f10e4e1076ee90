// Package orchestrator drives the category and keyword matrix through the
// fetch, extract, resolve and write stages.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
	"github.com/nerabuild/catalog-crawler/internal/metrics"
	"github.com/nerabuild/catalog-crawler/internal/resolve"
	"github.com/nerabuild/catalog-crawler/internal/writer"
)

// Extractor turns a raw listing into a canonical record.
type Extractor interface {
	Record(raw catalog.RawListing, category catalog.Category) (catalog.CanonicalRecord, error)
}

// Writer persists a batch of resolved records.
type Writer interface {
	UpsertAll(ctx context.Context, records []catalog.CanonicalRecord) writer.BatchResult
}

// pauser waits between categories.
type pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Config controls a run.
type Config struct {
	Categories      []catalog.Category
	Keywords        map[catalog.Category][]string
	CategoryPause   time.Duration
	ParallelSources bool
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Adapters  []catalog.SourceAdapter
	Extractor Extractor
	Writer    Writer
	Pacer     catalog.Pacer
	Clock     catalog.Clock
	IDs       catalog.IDGenerator
	Logger    *zap.Logger
}

// Orchestrator runs every configured category once per Run.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	pauser pauser
}

// New builds an Orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if len(deps.Adapters) == 0 {
		return nil, errors.New("orchestrator requires at least one source adapter")
	}
	if deps.Extractor == nil || deps.Writer == nil || deps.Clock == nil || deps.IDs == nil {
		return nil, errors.New("orchestrator requires extractor, writer, clock and id generator")
	}
	if deps.Pacer == nil {
		deps.Pacer = noPacer{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = catalog.Categories
	}
	for _, c := range cfg.Categories {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", c)
		}
	}
	return &Orchestrator{cfg: cfg, deps: deps, pauser: timerPauser{}}, nil
}

type noPacer struct{}

func (noPacer) Wait(context.Context, string) error { return nil }

// Run crawls every configured category in order. Each category is attempted
// exactly once; a failing category is recorded in the report and the run
// moves on. Only a canceled context ends the run early, in which case the
// remaining categories are reported as failed.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	runID, err := o.deps.IDs.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("generate run id: %w", err)
	}
	session := catalog.NewSession(runID, o.deps.Clock.Now(), o.deps.Logger)
	report := Report{RunID: runID, StartedAt: session.StartedAt}
	session.Logger.Info("crawl run started",
		zap.Int("categories", len(o.cfg.Categories)),
		zap.Int("sources", len(o.deps.Adapters)),
	)

	for i, category := range o.cfg.Categories {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Categories = append(report.Categories, CategoryReport{
				Category: category,
				Err:      fmt.Sprintf("skipped: %v", ctxErr),
			})
			continue
		}
		catReport := o.runCategory(ctx, session.With(zap.String("category", category.String())), category)
		report.Categories = append(report.Categories, catReport)
		if i < len(o.cfg.Categories)-1 {
			o.pauser.Pause(ctx, o.cfg.CategoryPause)
		}
	}

	report.FinishedAt = o.deps.Clock.Now()
	totals := report.Totals()
	session.Logger.Info("crawl run finished",
		zap.Bool("failed", report.Failed()),
		zap.Int("listings", totals.Listings),
		zap.Int("inserted", totals.Inserted),
		zap.Int("updated", totals.Updated),
		zap.Int("failed_writes", totals.FailedWrites),
		zap.Int("fetch_errors", totals.FetchErrors),
	)
	return report, nil
}

func (o *Orchestrator) runCategory(ctx context.Context, session *catalog.Session, category catalog.Category) (rep CategoryReport) {
	start := time.Now()
	rep.Category = category
	defer func() {
		if r := recover(); r != nil {
			rep.Err = fmt.Sprintf("panic: %v", r)
		}
		rep.Duration = time.Since(start)
		metrics.ObserveCategory(category.String(), rep.Failed(), rep.Duration)
		if rep.Failed() {
			session.Logger.Error("category pipeline failed", zap.String("error", rep.Err))
			return
		}
		session.Logger.Info("category done",
			zap.Int("listings", rep.Listings),
			zap.Int("dropped", rep.Dropped),
			zap.Int("resolved", rep.Resolved),
			zap.Int("inserted", rep.Inserted),
			zap.Int("updated", rep.Updated),
			zap.Int("failed_writes", rep.FailedWrites),
			zap.Int("fetch_errors", rep.FetchErrors),
			zap.Duration("duration", rep.Duration),
		)
	}()

	keywords := o.cfg.Keywords[category]
	if len(keywords) == 0 {
		session.Logger.Warn("no keywords configured")
		return rep
	}

	perSource, fetchErrors, err := o.fetchAll(ctx, session, category, keywords)
	rep.FetchErrors = fetchErrors
	if err != nil {
		rep.Err = err.Error()
		return rep
	}

	var records []catalog.CanonicalRecord
	for _, listings := range perSource {
		rep.Listings += len(listings)
		for _, raw := range listings {
			rec, err := o.deps.Extractor.Record(raw, category)
			if err != nil {
				rep.Dropped++
				metrics.ObserveDropped(category.String())
				session.Logger.Debug("listing dropped", zap.String("source", raw.Source), zap.Error(err))
				continue
			}
			records = append(records, rec)
		}
	}

	resolved := resolve.Resolve(records)
	rep.Resolved = len(resolved)

	result := o.deps.Writer.UpsertAll(ctx, resolved)
	rep.Inserted = result.Inserted
	rep.Updated = result.Updated
	rep.FailedWrites = result.Failed
	return rep
}

// fetchAll returns listings grouped by adapter, in adapter order.
func (o *Orchestrator) fetchAll(
	ctx context.Context,
	session *catalog.Session,
	category catalog.Category,
	keywords []string,
) ([][]catalog.RawListing, int, error) {
	perSource := make([][]catalog.RawListing, len(o.deps.Adapters))
	fetchErrors := make([]int, len(o.deps.Adapters))

	if !o.cfg.ParallelSources {
		for i, adapter := range o.deps.Adapters {
			perSource[i], fetchErrors[i] = o.fetchSource(ctx, session, adapter, category, keywords)
		}
		return perSource, sum(fetchErrors), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range o.deps.Adapters {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("source %s panic: %v", adapter.Name(), r)
				}
			}()
			perSource[i], fetchErrors[i] = o.fetchSource(gctx, session, adapter, category, keywords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, sum(fetchErrors), err
	}
	return perSource, sum(fetchErrors), nil
}

// fetchSource queries every keyword against one adapter. Keyword failures
// are logged and counted; the next keyword is still tried.
func (o *Orchestrator) fetchSource(
	ctx context.Context,
	session *catalog.Session,
	adapter catalog.SourceAdapter,
	category catalog.Category,
	keywords []string,
) ([]catalog.RawListing, int) {
	var (
		listings []catalog.RawListing
		failures int
	)
	logger := session.Logger.With(zap.String("source", adapter.Name()))
	for _, keyword := range keywords {
		if err := o.deps.Pacer.Wait(ctx, adapter.Name()); err != nil {
			failures++
			logger.Warn("pacer wait aborted", zap.String("keyword", keyword), zap.Error(err))
			continue
		}
		got, err := adapter.Fetch(ctx, session, category, keyword)
		if err != nil {
			failures++
			logger.Warn("keyword fetch failed", zap.String("keyword", keyword), zap.Error(err))
			continue
		}
		listings = append(listings, got...)
	}
	return listings, failures
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
