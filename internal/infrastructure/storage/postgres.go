package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var articleColumns = []string{
	"id", "source", "external_id", "url", "title", "author",
	"published_at", "fetched_at", "tags", "points", "comment_count",
	"comments_url", "summary_legacy", "summary_what", "summary_why",
	"summary_detail", "summary_source", "hotness_score",
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id             TEXT PRIMARY KEY,
    source         TEXT NOT NULL,
    external_id    TEXT NOT NULL,
    url            TEXT NOT NULL,
    title          TEXT NOT NULL,
    author         TEXT,
    published_at   TIMESTAMPTZ NOT NULL,
    fetched_at     TIMESTAMPTZ NOT NULL,
    tags           JSONB NOT NULL DEFAULT '[]',
    points         INTEGER NOT NULL DEFAULT 0,
    comment_count  INTEGER NOT NULL DEFAULT 0,
    comments_url   TEXT,
    summary_legacy TEXT,
    summary_what   TEXT,
    summary_why    TEXT,
    summary_detail TEXT,
    summary_source TEXT,
    hotness_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
    UNIQUE (source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_articles_hotness   ON articles (hotness_score DESC);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles (published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_tags      ON articles USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_articles_fulltext  ON articles USING GIN (to_tsvector('english', title));

CREATE TABLE IF NOT EXISTS ingest_runs (
    id            UUID PRIMARY KEY,
    started_at    TIMESTAMPTZ NOT NULL,
    completed_at  TIMESTAMPTZ,
    status        TEXT NOT NULL,
    fetched       INTEGER NOT NULL DEFAULT 0,
    inserted      INTEGER NOT NULL DEFAULT 0,
    updated       INTEGER NOT NULL DEFAULT 0,
    summarized    INTEGER NOT NULL DEFAULT 0,
    errors        INTEGER NOT NULL DEFAULT 0,
    error_message TEXT
);
`

// upsertConflict keeps summary fields update-once-then-protected as a
// single atomic statement: COALESCE prefers the stored value, so a fresh
// fetch can never erase an existing summary even if two runs overlap.
// xmax = 0 distinguishes inserted rows from updated ones.
const upsertConflict = `ON CONFLICT (id) DO UPDATE SET
    url = EXCLUDED.url,
    title = EXCLUDED.title,
    author = EXCLUDED.author,
    published_at = EXCLUDED.published_at,
    fetched_at = EXCLUDED.fetched_at,
    tags = EXCLUDED.tags,
    points = EXCLUDED.points,
    comment_count = EXCLUDED.comment_count,
    comments_url = EXCLUDED.comments_url,
    summary_legacy = COALESCE(articles.summary_legacy, EXCLUDED.summary_legacy),
    summary_what = COALESCE(articles.summary_what, EXCLUDED.summary_what),
    summary_why = COALESCE(articles.summary_why, EXCLUDED.summary_why),
    summary_detail = COALESCE(articles.summary_detail, EXCLUDED.summary_detail),
    summary_source = COALESCE(articles.summary_source, EXCLUDED.summary_source),
    hotness_score = EXCLUDED.hotness_score
    RETURNING (xmax = 0) AS inserted`

// Store is the Postgres-backed persistence gateway.
type Store struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *slog.Logger
}

var _ ports.ArticleStore = (*Store)(nil)

// Open connects to Postgres, applies pool tuning, and verifies
// connectivity.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Exists reports whether the identity is already persisted.
func (s *Store) Exists(ctx context.Context, source, externalID string) (bool, error) {
	query, args, err := s.sb.Select("1").
		From("articles").
		Where(sq.Eq{"source": source, "external_id": externalID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// MergeUpsert writes each article individually so one bad row cannot sink
// the batch; failures are counted, not propagated.
func (s *Store) MergeUpsert(ctx context.Context, articles []domain.Article) (ports.MergeResult, error) {
	var result ports.MergeResult
	for _, article := range articles {
		query, args, err := s.upsertBuilder(article).ToSql()
		if err != nil {
			result.Errors++
			s.warn("build upsert", "article", article.ID, "error", err)
			continue
		}

		var inserted bool
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&inserted); err != nil {
			result.Errors++
			s.warn("upsert article", "article", article.ID, "error", err)
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) upsertBuilder(a domain.Article) sq.InsertBuilder {
	tags, _ := json.Marshal(a.Tags)
	legacy, what, why, detail := summaryFields(a.Summary)

	return s.sb.Insert("articles").
		Columns(articleColumns...).
		Values(
			a.ID, a.Source, a.ExternalID, a.URL, a.Title, nullable(a.Author),
			a.PublishedAt, a.FetchedAt, string(tags), a.Points, a.CommentCount,
			nullable(a.CommentsURL), legacy, what, why, detail,
			nullable(string(a.SummarySource)), a.HotnessScore,
		).
		Suffix(upsertConflict)
}

// Query lists stored articles with sorting, time-range, and tag filters.
func (s *Store) Query(ctx context.Context, opts ports.QueryOptions) (ports.QueryResult, error) {
	conds := queryConditions(opts.TimeRange, opts.Tags)

	total, err := s.count(ctx, conds)
	if err != nil {
		return ports.QueryResult{}, err
	}

	builder := s.sb.Select(articleColumns...).
		From("articles").
		OrderBy(orderClause(opts.Sort)).
		Limit(uint64(clampLimit(opts.Limit))).
		Offset(uint64(nonNegative(opts.Offset)))
	for _, cond := range conds {
		builder = builder.Where(cond)
	}

	articles, err := s.selectArticles(ctx, builder)
	if err != nil {
		return ports.QueryResult{}, err
	}
	return ports.QueryResult{Articles: articles, TotalCount: total}, nil
}

// Search runs full-text search over titles, ranked by relevance unless an
// explicit sort is requested.
func (s *Store) Search(ctx context.Context, opts ports.SearchOptions) (ports.QueryResult, error) {
	conds := []sq.Sqlizer{
		sq.Expr("to_tsvector('english', title) @@ plainto_tsquery('english', ?)", opts.Text),
	}
	conds = append(conds, tagConditions(opts.Tags)...)
	if opts.FromDate != "" {
		conds = append(conds, sq.Expr("published_at >= ?::timestamptz", opts.FromDate))
	}
	if opts.ToDate != "" {
		conds = append(conds, sq.Expr("published_at <= ?::timestamptz", opts.ToDate))
	}

	total, err := s.count(ctx, conds)
	if err != nil {
		return ports.QueryResult{}, err
	}

	builder := s.sb.Select(articleColumns...).
		From("articles").
		Limit(uint64(clampLimit(opts.Limit))).
		Offset(uint64(nonNegative(opts.Offset)))
	for _, cond := range conds {
		builder = builder.Where(cond)
	}
	if opts.Sort == "" {
		builder = builder.OrderByClause(
			"ts_rank(to_tsvector('english', title), plainto_tsquery('english', ?)) DESC", opts.Text)
	} else {
		builder = builder.OrderBy(orderClause(opts.Sort))
	}

	articles, err := s.selectArticles(ctx, builder)
	if err != nil {
		return ports.QueryResult{}, err
	}
	return ports.QueryResult{Articles: articles, TotalCount: total}, nil
}

// FindNeedingSummary returns the highest-hotness articles with no summary
// of either variant.
func (s *Store) FindNeedingSummary(ctx context.Context, limit int) ([]domain.Article, error) {
	builder := s.sb.Select(articleColumns...).
		From("articles").
		Where("summary_what IS NULL AND summary_legacy IS NULL").
		OrderBy("hotness_score DESC").
		Limit(uint64(clampLimit(limit)))

	return s.selectArticles(ctx, builder)
}

// UpdateSummary attaches a structured summary to an article. The guard on
// existing summary columns makes the write a no-op when one is already
// present, so summaries stay immutable once attached.
func (s *Store) UpdateSummary(ctx context.Context, id string, summary domain.Structured, source domain.SummarySource) (bool, error) {
	query, args, err := s.sb.Update("articles").
		Set("summary_what", summary.What).
		Set("summary_why", summary.WhyItMatters).
		Set("summary_detail", nullable(summary.KeyDetail)).
		Set("summary_source", string(source)).
		Where(sq.Eq{"id": id}).
		Where("summary_what IS NULL AND summary_legacy IS NULL").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build summary update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update summary %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("summary rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecordRun inserts the run in its initial running state.
func (s *Store) RecordRun(ctx context.Context, run domain.IngestRun) error {
	query, args, err := s.sb.Insert("ingest_runs").
		Columns("id", "started_at", "status").
		Values(run.ID, run.StartedAt, string(run.Status)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record run: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// UpdateRun stores the terminal state and final counts of a run.
func (s *Store) UpdateRun(ctx context.Context, run domain.IngestRun) error {
	query, args, err := s.sb.Update("ingest_runs").
		Set("status", string(run.Status)).
		Set("completed_at", run.CompletedAt).
		Set("fetched", run.Fetched).
		Set("inserted", run.Inserted).
		Set("updated", run.Updated).
		Set("summarized", run.Summarized).
		Set("errors", run.Errors).
		Set("error_message", nullable(run.Error)).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update run: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	query, args, err := s.sb.Select(
		"id", "started_at", "completed_at", "status",
		"fetched", "inserted", "updated", "summarized", "errors", "error_message").
		From("ingest_runs").
		OrderBy("started_at DESC").
		Limit(uint64(clampLimit(limit))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		var run domain.IngestRun
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.StartedAt, &completedAt, &run.Status,
			&run.Fetched, &run.Inserted, &run.Updated, &run.Summarized,
			&run.Errors, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) count(ctx context.Context, conds []sq.Sqlizer) (int, error) {
	builder := s.sb.Select("COUNT(*)").From("articles")
	for _, cond := range conds {
		builder = builder.Where(cond)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return total, nil
}

func (s *Store) selectArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func scanArticle(rows *sql.Rows) (domain.Article, error) {
	var (
		a             domain.Article
		author        sql.NullString
		commentsURL   sql.NullString
		tagsJSON      []byte
		legacy        sql.NullString
		what          sql.NullString
		why           sql.NullString
		detail        sql.NullString
		summarySource sql.NullString
	)

	err := rows.Scan(&a.ID, &a.Source, &a.ExternalID, &a.URL, &a.Title, &author,
		&a.PublishedAt, &a.FetchedAt, &tagsJSON, &a.Points, &a.CommentCount,
		&commentsURL, &legacy, &what, &why, &detail, &summarySource, &a.HotnessScore)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	a.Author = author.String
	a.CommentsURL = commentsURL.String
	a.SummarySource = domain.SummarySource(summarySource.String)
	if err := json.Unmarshal(tagsJSON, &a.Tags); err != nil {
		return domain.Article{}, fmt.Errorf("decode tags for %s: %w", a.ID, err)
	}

	// Structured wins when both variants are somehow present.
	switch {
	case what.Valid:
		a.Summary = domain.Structured{
			What:         what.String,
			WhyItMatters: why.String,
			KeyDetail:    detail.String,
		}
	case legacy.Valid:
		a.Summary = domain.LegacyText(legacy.String)
	}

	return a, nil
}

func summaryFields(summary domain.Summary) (legacy, what, why, detail sql.NullString) {
	switch v := summary.(type) {
	case domain.LegacyText:
		legacy = sql.NullString{String: string(v), Valid: true}
	case domain.Structured:
		what = sql.NullString{String: v.What, Valid: true}
		why = sql.NullString{String: v.WhyItMatters, Valid: true}
		detail = nullable(v.KeyDetail)
	}
	return legacy, what, why, detail
}

func queryConditions(timeRange string, tags []string) []sq.Sqlizer {
	var conds []sq.Sqlizer
	switch timeRange {
	case "24h":
		conds = append(conds, sq.Expr("published_at >= now() - interval '24 hours'"))
	case "7d":
		conds = append(conds, sq.Expr("published_at >= now() - interval '7 days'"))
	case "30d":
		conds = append(conds, sq.Expr("published_at >= now() - interval '30 days'"))
	}
	return append(conds, tagConditions(tags)...)
}

func tagConditions(tags []string) []sq.Sqlizer {
	if len(tags) == 0 {
		return nil
	}
	// Any-overlap semantics: a row matches when it carries at least one of
	// the requested tags.
	or := make(sq.Or, 0, len(tags))
	for _, tag := range tags {
		elem, _ := json.Marshal([]string{tag})
		or = append(or, sq.Expr("tags @> ?::jsonb", string(elem)))
	}
	return []sq.Sqlizer{or}
}

func orderClause(sort string) string {
	switch sort {
	case "new":
		return "published_at DESC"
	case "mostDiscussed":
		return "comment_count DESC NULLS LAST"
	default:
		return "hotness_score DESC"
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
