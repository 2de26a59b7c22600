package hackernews

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"newspulse/internal/classify"
	"newspulse/internal/domain"
	"newspulse/internal/ports"
	"newspulse/internal/score"
)

const (
	defaultTopN      = 30
	defaultBatchSize = 10
)

// Fetcher assembles the latest Hacker News front page into the internal
// article model.
type Fetcher struct {
	client    *Client
	topN      int
	batchSize int
	logger    *slog.Logger
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher wires the API client; topN and batchSize fall back to 30/10.
func NewFetcher(client *Client, topN, batchSize int, logger *slog.Logger) *Fetcher {
	if topN <= 0 {
		topN = defaultTopN
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Fetcher{client: client, topN: topN, batchSize: batchSize, logger: logger}
}

// Name identifies the source inside the registry.
func (f *Fetcher) Name() string { return SourceName }

// FetchLatest retrieves the top stories, builds articles for every item
// that carries a destination URL, and returns them sorted by hotness
// descending. Only the initial ID-list call can fail; per-item failures
// reduce the batch silently.
func (f *Fetcher) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	ids, err := f.client.TopStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch story ids: %w", err)
	}
	if len(ids) > f.topN {
		ids = ids[:f.topN]
	}

	items := f.fetchBatched(ctx, ids)

	now := time.Now().UTC()
	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		if item == nil || item.URL == "" {
			// Self posts and failed fetches drop out here.
			continue
		}
		articles = append(articles, f.toArticle(item, now))
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].HotnessScore > articles[j].HotnessScore
	})

	f.debug("fetch latest done", "requested", len(ids), "articles", len(articles))
	return articles, nil
}

// fetchBatched pulls item details in fixed-size concurrent batches: all
// requests of one batch run at once, the next batch starts only after the
// whole previous one finished. Output order matches input ID order.
func (f *Fetcher) fetchBatched(ctx context.Context, ids []int) []*Item {
	results := make([]*Item, len(ids))

	for start := 0; start < len(ids); start += f.batchSize {
		end := start + f.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				item, err := f.client.Item(ctx, ids[i])
				if err != nil {
					f.debug("fetch item", "id", ids[i], "error", err)
					return
				}
				results[i] = item
			}(i)
		}
		wg.Wait()
	}

	return results
}

func (f *Fetcher) toArticle(item *Item, now time.Time) domain.Article {
	externalID := strconv.Itoa(item.ID)
	publishedAt := time.Unix(item.Time, 0).UTC()

	return domain.Article{
		ID:           domain.ArticleID(SourceName, externalID),
		Source:       SourceName,
		ExternalID:   externalID,
		URL:          item.URL,
		Title:        item.Title,
		Author:       item.By,
		PublishedAt:  publishedAt,
		FetchedAt:    now,
		Tags:         classify.Tags(item.Title, item.URL),
		Points:       item.Score,
		CommentCount: item.Descendants,
		CommentsURL:  fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID),
		HotnessScore: score.HotnessAt(now, publishedAt, item.Score, item.Descendants, SourceName),
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
