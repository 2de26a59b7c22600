package domain

import (
	"fmt"
	"time"
)

// SummarySource records which enrichment inputs contributed to a
// generated summary.
type SummarySource string

const (
	SummaryFromTitle    SummarySource = "title"
	SummaryFromContent  SummarySource = "content"
	SummaryFromComments SummarySource = "comments"
)

// Summary is a tagged variant: legacy rows carry free text, everything
// produced by the summarizer is structured. Read paths type-switch on the
// concrete variant instead of probing fields.
type Summary interface {
	summaryVariant()
}

// LegacyText is a plain-text summary carried over from older rows.
type LegacyText string

func (LegacyText) summaryVariant() {}

// Structured is the three-field synopsis produced by the summarizer.
// Immutable once attached to an article.
type Structured struct {
	What         string `json:"what"`
	WhyItMatters string `json:"whyItMatters"`
	KeyDetail    string `json:"keyDetail,omitempty"`
}

func (Structured) summaryVariant() {}

// Article is a normalized news item flowing through the pipeline.
type Article struct {
	ID            string
	Source        string
	ExternalID    string
	URL           string
	Title         string
	Author        string
	PublishedAt   time.Time
	FetchedAt     time.Time
	Tags          []string
	Points        int
	CommentCount  int
	CommentsURL   string
	Summary       Summary
	SummarySource SummarySource
	HotnessScore  float64
	Content       string // extraction context for summarization, never user-facing
}

// ArticleID derives the stable primary identity from source-local identity.
// Re-fetching the same upstream item resolves to the same value.
func ArticleID(source, externalID string) string {
	return fmt.Sprintf("%s-%s", source, externalID)
}

// PageContent is the best-effort result of extracting a webpage.
type PageContent struct {
	Title       string
	Description string
	Content     string
	Image       string
}

// RunStatus enumerates ingest run lifecycle states. Completed and failed
// are terminal.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IngestRun audits one pipeline execution. Created at orchestration start
// and mutated exactly once at orchestration end.
type IngestRun struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      RunStatus
	Fetched     int
	Inserted    int
	Updated     int
	Summarized  int
	Errors      int
	Error       string
}
