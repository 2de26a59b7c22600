package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
	"newspulse/internal/score"
)

type envelope map[string]any

func (s *Server) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

// ingestHandler triggers one pipeline run. The bearer check only applies
// when both a configured secret and a supplied token are present; either
// side missing skips it so a same-origin UI refresh works without
// credentials.
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if s.ingestSecret != "" && token != "" && token != s.ingestSecret {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if s.ingestor == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ingestion not configured")
		return
	}

	result := s.ingestor.Run(r.Context())
	status := http.StatusOK
	if result.Status == domain.RunFailed {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, result)
}

// statusHandler reports configured capabilities and recent run history.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	response := envelope{
		"database":   s.store != nil,
		"summarizer": s.summarizerEnabled,
	}

	if s.store != nil {
		runs, err := s.store.RecentRuns(r.Context(), 10)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "load run history failed")
			return
		}
		response["recentRuns"] = runViews(runs)
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	q := r.URL.Query()
	opts := ports.QueryOptions{
		Sort:      q.Get("sort"),
		TimeRange: q.Get("range"),
		Tags:      splitTags(q.Get("tags")),
		Limit:     intParam(q.Get("limit")),
		Offset:    intParam(q.Get("offset")),
	}

	result, err := s.store.Query(r.Context(), opts)
	if err != nil {
		s.logError("query articles", err)
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	s.writeJSON(w, http.StatusOK, queryView(result))
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	opts := ports.SearchOptions{
		Text:     text,
		Tags:     splitTags(q.Get("tags")),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Sort:     q.Get("sort"),
		Limit:    intParam(q.Get("limit")),
		Offset:   intParam(q.Get("offset")),
	}

	result, err := s.store.Search(r.Context(), opts)
	if err != nil {
		s.logError("search articles", err)
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, queryView(result))
}

// articleView is the wire shape of one article. The summary variant
// flattens into either "summary" (structured) or "legacySummary".
type articleView struct {
	ID            string             `json:"id"`
	Source        string             `json:"source"`
	URL           string             `json:"url"`
	Title         string             `json:"title"`
	Author        string             `json:"author,omitempty"`
	PublishedAt   string             `json:"publishedAt"`
	Tags          []string           `json:"tags"`
	Points        int                `json:"points"`
	CommentCount  int                `json:"commentCount"`
	CommentsURL   string             `json:"commentsUrl,omitempty"`
	Summary       *domain.Structured `json:"summary,omitempty"`
	LegacySummary string             `json:"legacySummary,omitempty"`
	SummarySource string             `json:"summarySource,omitempty"`
	HotnessScore  float64            `json:"hotnessScore"`
	HotnessLabel  string             `json:"hotnessLabel"`
}

func queryView(result ports.QueryResult) envelope {
	views := make([]articleView, 0, len(result.Articles))
	for _, a := range result.Articles {
		views = append(views, toView(a))
	}
	return envelope{"articles": views, "totalCount": result.TotalCount}
}

func toView(a domain.Article) articleView {
	view := articleView{
		ID:            a.ID,
		Source:        a.Source,
		URL:           a.URL,
		Title:         a.Title,
		Author:        a.Author,
		PublishedAt:   a.PublishedAt.Format("2006-01-02T15:04:05Z07:00"),
		Tags:          a.Tags,
		Points:        a.Points,
		CommentCount:  a.CommentCount,
		CommentsURL:   a.CommentsURL,
		SummarySource: string(a.SummarySource),
		HotnessScore:  a.HotnessScore,
		HotnessLabel:  score.Label(a.HotnessScore),
	}

	switch v := a.Summary.(type) {
	case domain.Structured:
		view.Summary = &v
	case domain.LegacyText:
		view.LegacySummary = string(v)
	}
	return view
}

type runView struct {
	ID          string `json:"id"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt,omitempty"`
	Status      string `json:"status"`
	Fetched     int    `json:"fetched"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Summarized  int    `json:"summarized"`
	Errors      int    `json:"errors"`
	Error       string `json:"error,omitempty"`
}

func runViews(runs []domain.IngestRun) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		view := runView{
			ID:         run.ID,
			StartedAt:  run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			Status:     string(run.Status),
			Fetched:    run.Fetched,
			Inserted:   run.Inserted,
			Updated:    run.Updated,
			Summarized: run.Summarized,
			Errors:     run.Errors,
			Error:      run.Error,
		}
		if run.CompletedAt != nil {
			view.CompletedAt = run.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		views = append(views, view)
	}
	return views
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func intParam(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logError("encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, envelope{"error": message})
}

func (s *Server) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}
