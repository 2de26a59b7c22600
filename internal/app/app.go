package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"newspulse/internal/config"
	"newspulse/internal/infrastructure/extract"
	"newspulse/internal/infrastructure/hackernews"
	"newspulse/internal/infrastructure/llm"
	"newspulse/internal/infrastructure/rss"
	"newspulse/internal/infrastructure/storage"
	"newspulse/internal/logging"
	"newspulse/internal/ports"
	"newspulse/internal/server"
	"newspulse/internal/source"
	"newspulse/internal/summarize"
	"newspulse/internal/usecase"
)

// Application wires configuration to components and owns their lifecycle.
// Components whose configuration is absent come up disabled rather than
// failing startup.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	ingestor  *usecase.Ingestor
	scheduler *usecase.Scheduler
	server    *server.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var store *storage.Store
	if cfg.Database.DSN != "" {
		var err error
		store, err = storage.Open(ctx, cfg.Database.DSN, baseLogger.With("component", "storage"))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	} else {
		baseLogger.Warn("no database configured, persistence disabled")
	}

	hnClient := hackernews.NewClient(cfg.HackerNews.APIURL, baseLogger.With("component", "hackernews"))

	registry := source.NewRegistry()
	registry.Register(hackernews.NewFetcher(
		hnClient,
		cfg.Ingest.TopStories,
		cfg.Ingest.FetchBatchSize,
		baseLogger.With("component", "fetcher.hackernews"),
	))
	for _, feed := range cfg.Feeds {
		registry.Register(rss.NewFetcher(feed.Name, feed.URL, baseLogger.With("component", "fetcher.rss", "feed", feed.Name)))
	}

	var chatClient ports.ChatClient
	if cfg.OpenAI.APIKey != "" {
		chatClient = llm.NewOpenAIClient(cfg.OpenAI)
	} else {
		baseLogger.Warn("no OpenAI key configured, summarization disabled")
	}

	extractor := extract.New(cfg.Ingest.ExtractTimeout.Std(), baseLogger.With("component", "extractor"))
	summarizer := summarize.New(summarize.Deps{
		Chat:      chatClient,
		Extractor: extractor,
		Comments:  hnClient,
		Logger:    baseLogger.With("component", "summarizer"),
	}, cfg.Ingest.CommentLimit, cfg.Ingest.SummarizeConcurrency)

	ingestor := usecase.NewIngestor(usecase.IngestDeps{
		Sources:        registry,
		Store:          storeOrNil(store),
		Summarizer:     summarizer,
		Logger:         baseLogger.With("component", "ingestor"),
		SummarizeLimit: cfg.Ingest.SummarizeLimit,
		RunTimeout:     cfg.Ingest.RunTimeout.Std(),
	})

	srv := server.New(server.Deps{
		Store:             storeOrNil(store),
		Ingestor:          ingestor,
		SummarizerEnabled: summarizer.Enabled(),
		IngestSecret:      cfg.Ingest.Secret,
		Logger:            baseLogger.With("component", "server"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		ingestor:  ingestor,
		scheduler: usecase.NewScheduler(ingestor, cfg.Scheduler.Interval.Std(), baseLogger.With("component", "scheduler")),
		server:    srv,
	}, nil
}

// Serve starts the periodic scheduler (when configured) and the HTTP
// listener, blocking until the context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	a.scheduler.Start(ctx)

	httpServer := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// IngestOnce runs one pipeline pass and returns its structured result.
func (a *Application) IngestOnce(ctx context.Context) *usecase.RunResult {
	return a.ingestor.Run(ctx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// storeOrNil avoids handing a typed-nil *storage.Store to interface
// fields.
func storeOrNil(store *storage.Store) ports.ArticleStore {
	if store == nil {
		return nil
	}
	return store
}
