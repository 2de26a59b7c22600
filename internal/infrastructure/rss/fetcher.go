package rss

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"newspulse/internal/classify"
	"newspulse/internal/domain"
	"newspulse/internal/ports"
	"newspulse/internal/score"
)

const defaultItemLimit = 30

// Fetcher adapts one RSS/Atom feed into the article model. Feeds carry no
// engagement metrics, so their hotness is pure recency at default weight.
type Fetcher struct {
	name    string
	feedURL string
	limit   int
	parser  *gofeed.Parser
	logger  *slog.Logger
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher builds an adapter for a configured feed.
func NewFetcher(name, feedURL string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		name:    name,
		feedURL: feedURL,
		limit:   defaultItemLimit,
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

// Name identifies the source inside the registry.
func (f *Fetcher) Name() string { return f.name }

// FetchLatest parses the feed and returns its items sorted by hotness
// descending. A feed-level parse failure is returned to the caller.
func (f *Fetcher) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.name, err)
	}

	items := feed.Items
	if len(items) > f.limit {
		items = items[:f.limit]
	}

	now := time.Now().UTC()
	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}
		articles = append(articles, f.toArticle(item, now))
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].HotnessScore > articles[j].HotnessScore
	})

	if f.logger != nil {
		f.logger.Debug("fetch feed done", "feed", f.name, "articles", len(articles))
	}
	return articles, nil
}

func (f *Fetcher) toArticle(item *gofeed.Item, now time.Time) domain.Article {
	externalID := item.GUID
	if externalID == "" {
		sum := sha1.Sum([]byte(item.Link))
		externalID = hex.EncodeToString(sum[:8])
	}

	publishedAt := now
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC()
	}

	author := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	return domain.Article{
		ID:           domain.ArticleID(f.name, externalID),
		Source:       f.name,
		ExternalID:   externalID,
		URL:          item.Link,
		Title:        item.Title,
		Author:       author,
		PublishedAt:  publishedAt,
		FetchedAt:    now,
		Tags:         classify.Tags(item.Title, item.Link),
		HotnessScore: score.HotnessAt(now, publishedAt, 0, 0, f.name),
	}
}
