package extract

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

const (
	userAgent      = "newspulse/1.0"
	minParagraph   = 50
	contentBudget  = 1000
	maxPageBody    = 2 << 20
	defaultTimeout = 5 * time.Second
)

// Extractor pulls a webpage and derives a short excerpt for summarization
// context. Every failure mode maps to a nil result, never an error.
type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// New builds an extractor with the hard per-fetch timeout.
func New(timeout time.Duration, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves pageURL and extracts Open Graph metadata plus a main
// content excerpt. Returns nil when nothing useful could be extracted.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) *domain.PageContent {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.debug("build request", "url", pageURL, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.debug("fetch page", "url", pageURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.debug("fetch page", "url", pageURL, "status", resp.Status)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		e.debug("parse page", "url", pageURL, "error", err)
		return nil
	}

	content := domain.PageContent{
		Title:       metaOr(doc, `meta[property="og:title"]`, ""),
		Description: description(doc),
		Image:       metaOr(doc, `meta[property="og:image"]`, ""),
		Content:     mainText(doc),
	}
	if content.Title == "" {
		content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if content.Title == "" && content.Description == "" && content.Content == "" {
		return nil
	}
	return &content
}

func description(doc *goquery.Document) string {
	for _, sel := range []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	} {
		if v := metaOr(doc, sel, ""); v != "" {
			return v
		}
	}
	return ""
}

func metaOr(doc *goquery.Document, selector, fallback string) string {
	if v, ok := doc.Find(selector).First().Attr("content"); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

// mainText locates the main content region, strips chrome elements, and
// concatenates long paragraphs up to the budget.
func mainText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	region := doc.Find("article").First()
	if region.Length() == 0 {
		region = doc.Find("main").First()
	}
	if region.Length() == 0 {
		region = doc.Selection
	}

	var sb strings.Builder
	region.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if len(text) <= minParagraph {
			return true
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
		return sb.Len() < contentBudget
	})

	text := sb.String()
	if len(text) > contentBudget {
		text = text[:contentBudget]
	}
	return text
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
