package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
	"newspulse/internal/source"
)

const (
	defaultSummarizeLimit = 15
	defaultRunTimeout     = 300 * time.Second
)

// IngestDeps wires all driven adapters into the orchestration pipeline.
type IngestDeps struct {
	Sources        *source.Registry
	Store          ports.ArticleStore
	Summarizer     ports.Summarizer
	Logger         *slog.Logger
	SummarizeLimit int
	RunTimeout     time.Duration
}

// Ingestor implements the fetch → persist → enrich workflow. One Run call
// is one audited pipeline execution; failures surface as a structured
// result, never as a panic or naked error.
type Ingestor struct {
	sources        *source.Registry
	store          ports.ArticleStore
	summarizer     ports.Summarizer
	logger         *slog.Logger
	summarizeLimit int
	runTimeout     time.Duration
}

// RunResult is the structured outcome every caller receives.
type RunResult struct {
	RunID      string           `json:"runId"`
	Status     domain.RunStatus `json:"status"`
	Fetched    int              `json:"fetched"`
	Inserted   int              `json:"inserted"`
	Updated    int              `json:"updated"`
	Summarized int              `json:"summarized"`
	Errors     int              `json:"errors"`
	Error      string           `json:"error,omitempty"`
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestDeps) *Ingestor {
	limit := deps.SummarizeLimit
	if limit <= 0 {
		limit = defaultSummarizeLimit
	}
	timeout := deps.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Ingestor{
		sources:        deps.Sources,
		store:          deps.Store,
		summarizer:     deps.Summarizer,
		logger:         deps.Logger,
		summarizeLimit: limit,
		runTimeout:     timeout,
	}
}

// Run executes one full pipeline pass. A primary-source list failure or a
// storage failure marks the run failed; everything else degrades into
// error counters while the run still completes.
func (i *Ingestor) Run(ctx context.Context) *RunResult {
	ctx, cancel := context.WithTimeout(ctx, i.runTimeout)
	defer cancel()

	run := domain.IngestRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    domain.RunRunning,
	}
	i.recordRun(ctx, run)

	articles, fatal := i.fetchAll(ctx, &run)
	if fatal != nil {
		return i.fail(ctx, run, fatal)
	}
	run.Fetched = len(articles)

	if i.store == nil {
		// Not configured: fetch-only run, nothing to persist or enrich.
		return i.complete(ctx, run)
	}

	merged, err := i.store.MergeUpsert(ctx, articles)
	if err != nil {
		return i.fail(ctx, run, fmt.Errorf("merge articles: %w", err))
	}
	run.Inserted = merged.Inserted
	run.Updated = merged.Updated
	run.Errors += merged.Errors

	if i.summarizer != nil && i.summarizer.Enabled() {
		if err := i.enrich(ctx, &run); err != nil {
			return i.fail(ctx, run, err)
		}
	}

	return i.complete(ctx, run)
}

// fetchAll gathers articles from every registered source. The first
// registered source is the primary feed: its failure is fatal.
// Supplementary sources only bump the error counter.
func (i *Ingestor) fetchAll(ctx context.Context, run *domain.IngestRun) ([]domain.Article, error) {
	var all []domain.Article
	for idx, src := range i.sources.Sources() {
		articles, err := src.FetchLatest(ctx)
		if err != nil {
			if idx == 0 {
				return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
			}
			i.warn("supplementary source failed", "source", src.Name(), "error", err)
			run.Errors++
			continue
		}
		all = append(all, articles...)
	}
	return all, nil
}

// enrich summarizes the highest-hotness unsummarized articles and
// persists each summary individually so one failure cannot abort the
// rest.
func (i *Ingestor) enrich(ctx context.Context, run *domain.IngestRun) error {
	pending, err := i.store.FindNeedingSummary(ctx, i.summarizeLimit)
	if err != nil {
		return fmt.Errorf("find unsummarized: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	enriched := i.summarizer.SummarizeBatch(ctx, pending, ports.SummarizeOptions{
		FetchContent:  true,
		FetchComments: false,
	})

	for _, article := range enriched {
		structured, ok := article.Summary.(domain.Structured)
		if !ok {
			run.Errors++
			continue
		}

		updated, err := i.store.UpdateSummary(ctx, article.ID, structured, article.SummarySource)
		if err != nil {
			i.warn("persist summary failed", "article", article.ID, "error", err)
			run.Errors++
			continue
		}
		if updated {
			run.Summarized++
		}
	}
	return nil
}

func (i *Ingestor) complete(ctx context.Context, run domain.IngestRun) *RunResult {
	now := time.Now().UTC()
	run.Status = domain.RunCompleted
	run.CompletedAt = &now
	i.updateRun(ctx, run)

	i.info("ingest completed", "run", run.ID, "fetched", run.Fetched,
		"inserted", run.Inserted, "updated", run.Updated,
		"summarized", run.Summarized, "errors", run.Errors)
	return resultFrom(run)
}

func (i *Ingestor) fail(ctx context.Context, run domain.IngestRun, cause error) *RunResult {
	now := time.Now().UTC()
	run.Status = domain.RunFailed
	run.CompletedAt = &now
	run.Error = cause.Error()
	i.updateRun(ctx, run)

	i.warn("ingest failed", "run", run.ID, "error", cause)
	return resultFrom(run)
}

func (i *Ingestor) recordRun(ctx context.Context, run domain.IngestRun) {
	if i.store == nil {
		return
	}
	if err := i.store.RecordRun(ctx, run); err != nil {
		i.warn("record run failed", "run", run.ID, "error", err)
	}
}

func (i *Ingestor) updateRun(ctx context.Context, run domain.IngestRun) {
	if i.store == nil {
		return
	}
	if err := i.store.UpdateRun(ctx, run); err != nil {
		i.warn("update run failed", "run", run.ID, "error", err)
	}
}

func resultFrom(run domain.IngestRun) *RunResult {
	return &RunResult{
		RunID:      run.ID,
		Status:     run.Status,
		Fetched:    run.Fetched,
		Inserted:   run.Inserted,
		Updated:    run.Updated,
		Summarized: run.Summarized,
		Errors:     run.Errors,
		Error:      run.Error,
	}
}

func (i *Ingestor) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingestor) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
