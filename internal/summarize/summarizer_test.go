package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

type fakeChat struct {
	mu       sync.Mutex
	response string
	err      error
	payloads []string
}

func (f *fakeChat) Complete(_ context.Context, _, user string) (string, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, user)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeChat) lastPayload() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return ""
	}
	return f.payloads[len(f.payloads)-1]
}

type fakeExtractor struct {
	page *domain.PageContent
}

func (f *fakeExtractor) Fetch(context.Context, string) *domain.PageContent { return f.page }

type fakeComments struct {
	comments []string
}

func (f *fakeComments) TopComments(context.Context, string, int) []string { return f.comments }

const validResponse = `{"what":"A new database engine was released.","whyItMatters":"It changes how teams store data.","keyDetail":"10x faster"}`

func hnArticle() domain.Article {
	return domain.Article{
		ID:         "hackernews-100",
		Source:     "hackernews",
		ExternalID: "100",
		URL:        "https://example.com/story",
		Title:      "New database engine released",
		Tags:       []string{"Programming"},
	}
}

func TestSummarizeOneFromTitle(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{Chat: chat}, 3, 3)

	summary, provenance, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{})
	if !ok {
		t.Fatal("expected a summary")
	}
	if provenance != domain.SummaryFromTitle {
		t.Errorf("provenance = %q, want %q", provenance, domain.SummaryFromTitle)
	}
	if summary.What == "" || summary.WhyItMatters == "" {
		t.Errorf("incomplete summary: %+v", summary)
	}
	if !strings.Contains(chat.lastPayload(), "New database engine released") {
		t.Errorf("payload missing title: %q", chat.lastPayload())
	}
}

func TestSummarizeOneContentProvenance(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{
		Chat:      chat,
		Extractor: &fakeExtractor{page: &domain.PageContent{Content: "The engine rewrites its storage layer from scratch."}},
	}, 3, 3)

	_, provenance, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{FetchContent: true})
	if !ok {
		t.Fatal("expected a summary")
	}
	if provenance != domain.SummaryFromContent {
		t.Errorf("provenance = %q, want %q", provenance, domain.SummaryFromContent)
	}
	if !strings.Contains(chat.lastPayload(), "storage layer") {
		t.Errorf("payload missing excerpt: %q", chat.lastPayload())
	}
}

func TestSummarizeOneCommentsSupersedeContent(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{
		Chat:      chat,
		Extractor: &fakeExtractor{page: &domain.PageContent{Content: "Long enough article body for an excerpt."}},
		Comments:  &fakeComments{comments: []string{"Benchmarks look cherry picked"}},
	}, 3, 3)

	opts := ports.SummarizeOptions{FetchContent: true, FetchComments: true}
	_, provenance, ok := s.SummarizeOne(context.Background(), hnArticle(), opts)
	if !ok {
		t.Fatal("expected a summary")
	}
	if provenance != domain.SummaryFromComments {
		t.Errorf("provenance = %q, want %q", provenance, domain.SummaryFromComments)
	}
	if !strings.Contains(chat.lastPayload(), "cherry picked") {
		t.Errorf("payload missing comments: %q", chat.lastPayload())
	}
}

func TestSummarizeOneCommentsOnlyForHackerNews(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{
		Chat:     chat,
		Comments: &fakeComments{comments: []string{"should not be used"}},
	}, 3, 3)

	article := hnArticle()
	article.Source = "engblog"

	_, provenance, ok := s.SummarizeOne(context.Background(), article, ports.SummarizeOptions{FetchComments: true})
	if !ok {
		t.Fatal("expected a summary")
	}
	if provenance != domain.SummaryFromTitle {
		t.Errorf("provenance = %q, want %q", provenance, domain.SummaryFromTitle)
	}
}

func TestSummarizeOneContentSnippetCap(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{
		Chat:      chat,
		Extractor: &fakeExtractor{page: &domain.PageContent{Content: strings.Repeat("a", 2000)}},
	}, 3, 3)

	_, _, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{FetchContent: true})
	if !ok {
		t.Fatal("expected a summary")
	}
	if strings.Contains(chat.lastPayload(), strings.Repeat("a", contentSnippetMax+1)) {
		t.Error("excerpt exceeds the snippet cap")
	}
}

func TestSummarizeOneFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		chat *fakeChat
	}{
		{"backend error", &fakeChat{err: errors.New("quota")}},
		{"not json", &fakeChat{response: "here is your summary!"}},
		{"missing whyItMatters", &fakeChat{response: `{"what":"something"}`}},
		{"blank fields", &fakeChat{response: `{"what":"  ","whyItMatters":"  "}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Deps{Chat: tc.chat}, 3, 3)
			if _, _, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{}); ok {
				t.Fatal("expected failure")
			}
		})
	}
}

func TestSummarizeOneStripsCodeFences(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: "```json\n" + validResponse + "\n```"}
	s := New(Deps{Chat: chat}, 3, 3)

	summary, _, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{})
	if !ok {
		t.Fatal("expected fenced JSON to parse")
	}
	if summary.KeyDetail != "10x faster" {
		t.Errorf("keyDetail = %q", summary.KeyDetail)
	}
}

func TestSummarizeBatchPreservesOrderAndCount(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: validResponse}
	s := New(Deps{Chat: chat}, 3, 2)

	articles := make([]domain.Article, 5)
	for i := range articles {
		articles[i] = hnArticle()
		articles[i].ID = domain.ArticleID("hackernews", strings.Repeat("1", i+1))
	}

	out := s.SummarizeBatch(context.Background(), articles, ports.SummarizeOptions{})
	if len(out) != len(articles) {
		t.Fatalf("expected %d articles, got %d", len(articles), len(out))
	}
	for i := range out {
		if out[i].ID != articles[i].ID {
			t.Errorf("order changed at %d: %q vs %q", i, out[i].ID, articles[i].ID)
		}
		if _, ok := out[i].Summary.(domain.Structured); !ok {
			t.Errorf("article %d missing structured summary", i)
		}
		if out[i].SummarySource != domain.SummaryFromTitle {
			t.Errorf("article %d provenance = %q", i, out[i].SummarySource)
		}
	}
	if articles[0].Summary != nil {
		t.Error("input slice was mutated")
	}
}

func TestSummarizerDisabled(t *testing.T) {
	t.Parallel()

	s := New(Deps{}, 3, 3)
	if s.Enabled() {
		t.Fatal("summarizer without a chat client reports enabled")
	}

	if _, _, ok := s.SummarizeOne(context.Background(), hnArticle(), ports.SummarizeOptions{}); ok {
		t.Fatal("expected no summary when disabled")
	}

	articles := []domain.Article{hnArticle()}
	out := s.SummarizeBatch(context.Background(), articles, ports.SummarizeOptions{})
	if len(out) != 1 || out[0].Summary != nil {
		t.Fatalf("disabled batch altered articles: %+v", out)
	}
}
