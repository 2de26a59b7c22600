package ports

import (
	"context"

	"newspulse/internal/domain"
)

// ArticleSource pulls the latest batch of articles from an upstream feed,
// already classified, scored, and sorted by hotness descending. Only the
// initial item-list call may fail; per-item failures are tolerated by
// omission.
type ArticleSource interface {
	Name() string
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// MergeResult reports the outcome of a merge-upsert batch.
type MergeResult struct {
	Inserted int
	Updated  int
	Errors   int
}

// QueryOptions filters and orders the stored article listing.
type QueryOptions struct {
	Sort      string // hot | new | mostDiscussed
	TimeRange string // 24h | 7d | 30d | all
	Tags      []string
	Limit     int
	Offset    int
}

// SearchOptions drives full-text search over stored articles.
type SearchOptions struct {
	Text     string
	Tags     []string
	FromDate string
	ToDate   string
	Sort     string // empty means relevance
	Limit    int
	Offset   int
}

// QueryResult carries one page of articles plus the unpaginated total.
type QueryResult struct {
	Articles   []domain.Article
	TotalCount int
}

// ArticleStore is the persistence gateway contract. Merge-upsert is keyed
// by primary identity and must never overwrite an existing non-null
// summary.
type ArticleStore interface {
	Exists(ctx context.Context, source, externalID string) (bool, error)
	MergeUpsert(ctx context.Context, articles []domain.Article) (MergeResult, error)
	Query(ctx context.Context, opts QueryOptions) (QueryResult, error)
	Search(ctx context.Context, opts SearchOptions) (QueryResult, error)
	FindNeedingSummary(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateSummary(ctx context.Context, id string, summary domain.Structured, source domain.SummarySource) (bool, error)
	RecordRun(ctx context.Context, run domain.IngestRun) error
	UpdateRun(ctx context.Context, run domain.IngestRun) error
	RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)
}

// ContentExtractor fetches a webpage and derives a short excerpt.
// Best-effort: nil means no content, never an error.
type ContentExtractor interface {
	Fetch(ctx context.Context, pageURL string) *domain.PageContent
}

// CommentFetcher retrieves the top direct replies of a discussion thread.
// Best-effort: failed or textless comments are silently dropped.
type CommentFetcher interface {
	TopComments(ctx context.Context, threadID string, limit int) []string
}

// ChatClient issues one chat-style completion request.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SummarizeOptions toggles enrichment inputs for a summarization pass.
type SummarizeOptions struct {
	FetchContent  bool
	FetchComments bool
}

// Summarizer attaches structured summaries to articles. Disabled
// summarizers report Enabled() == false and produce no summaries.
type Summarizer interface {
	Enabled() bool
	SummarizeOne(ctx context.Context, article domain.Article, opts SummarizeOptions) (*domain.Structured, domain.SummarySource, bool)
	SummarizeBatch(ctx context.Context, articles []domain.Article, opts SummarizeOptions) []domain.Article
}
