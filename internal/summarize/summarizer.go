package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"newspulse/internal/domain"
	"newspulse/internal/infrastructure/hackernews"
	"newspulse/internal/ports"
)

const (
	defaultConcurrency = 3
	contentSnippetMax  = 800

	systemPrompt = `You are a news analyst. Respond with a single JSON object and nothing else.
The object must have exactly these fields:
  "what": factual one-sentence description of the story, at most 25 words
  "whyItMatters": why this matters to a technical audience, at most 25 words
  "keyDetail": optional; one striking number, quote, or claim from the material
Do not invent facts that are not in the provided material.`
)

// Deps wires the enrichment collaborators into the summarizer.
type Deps struct {
	Chat      ports.ChatClient
	Extractor ports.ContentExtractor
	Comments  ports.CommentFetcher
	Logger    *slog.Logger
}

// Summarizer produces structured three-field synopses via a chat backend.
// A nil chat client means summarization is not configured: Enabled
// reports false and every call degrades to "no summary".
type Summarizer struct {
	chat         ports.ChatClient
	extractor    ports.ContentExtractor
	comments     ports.CommentFetcher
	commentLimit int
	concurrency  int
	logger       *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// New builds a summarizer; concurrency falls back to 3.
func New(deps Deps, commentLimit, concurrency int) *Summarizer {
	if commentLimit <= 0 {
		commentLimit = 3
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Summarizer{
		chat:         deps.Chat,
		extractor:    deps.Extractor,
		comments:     deps.Comments,
		commentLimit: commentLimit,
		concurrency:  concurrency,
		logger:       deps.Logger,
	}
}

// Enabled reports whether a chat backend is configured.
func (s *Summarizer) Enabled() bool { return s.chat != nil }

// SummarizeOne builds enrichment context per the options, issues one chat
// request, and validates the structured result. Any failure along the way
// yields (nil, "", false); nothing propagates as an error.
func (s *Summarizer) SummarizeOne(ctx context.Context, article domain.Article, opts ports.SummarizeOptions) (*domain.Structured, domain.SummarySource, bool) {
	if s.chat == nil {
		return nil, "", false
	}

	payload, provenance := s.buildContext(ctx, article, opts)

	raw, err := s.chat.Complete(ctx, systemPrompt, payload)
	if err != nil {
		s.warn("chat completion failed", "article", article.ID, "error", err)
		return nil, "", false
	}

	summary, ok := parseSummary(raw)
	if !ok {
		s.warn("invalid summary payload", "article", article.ID)
		return nil, "", false
	}
	return summary, provenance, true
}

// SummarizeBatch processes articles in fixed-size concurrent groups,
// preserving input order and count. Articles whose summarization failed
// pass through unchanged. The group size is deliberately much smaller
// than the fetch batch size: each call is far more expensive.
func (s *Summarizer) SummarizeBatch(ctx context.Context, articles []domain.Article, opts ports.SummarizeOptions) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)
	if s.chat == nil {
		return out
	}

	for start := 0; start < len(out); start += s.concurrency {
		end := start + s.concurrency
		if end > len(out) {
			end = len(out)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				summary, provenance, ok := s.SummarizeOne(ctx, out[i], opts)
				if !ok {
					return
				}
				out[i].Summary = *summary
				out[i].SummarySource = provenance
			}(i)
		}
		wg.Wait()
	}

	return out
}

// buildContext assembles the user payload with progressively richer
// inputs. Comment enrichment supersedes content enrichment when both
// succeed.
func (s *Summarizer) buildContext(ctx context.Context, article domain.Article, opts ports.SummarizeOptions) (string, domain.SummarySource) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSource: %s\nPoints: %d\nComments: %d\nTags: %s\n",
		article.Title, article.Source, article.Points, article.CommentCount,
		strings.Join(article.Tags, ", "))

	provenance := domain.SummaryFromTitle

	if opts.FetchContent && s.extractor != nil && article.URL != "" {
		if page := s.extractor.Fetch(ctx, article.URL); page != nil {
			snippet := page.Content
			if snippet == "" {
				snippet = page.Description
			}
			if snippet != "" {
				if len(snippet) > contentSnippetMax {
					snippet = snippet[:contentSnippetMax]
				}
				fmt.Fprintf(&sb, "\nArticle excerpt:\n%s\n", snippet)
				provenance = domain.SummaryFromContent
			}
		}
	}

	if opts.FetchComments && s.comments != nil && article.Source == hackernews.SourceName {
		comments := s.comments.TopComments(ctx, article.ExternalID, s.commentLimit)
		if len(comments) > 0 {
			sb.WriteString("\nTop discussion comments:\n")
			for _, comment := range comments {
				fmt.Fprintf(&sb, "- %s\n", comment)
			}
			provenance = domain.SummaryFromComments
		}
	}

	return sb.String(), provenance
}

// parseSummary decodes and validates the backend output. Missing required
// fields are treated identically to a backend failure.
func parseSummary(raw string) (*domain.Structured, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var summary domain.Structured
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return nil, false
	}
	if strings.TrimSpace(summary.What) == "" || strings.TrimSpace(summary.WhyItMatters) == "" {
		return nil, false
	}
	return &summary, true
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
