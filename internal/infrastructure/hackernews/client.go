package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"newspulse/internal/ports"
)

const (
	// SourceName identifies this adapter in article identities and
	// source-weight lookups.
	SourceName = "hackernews"

	defaultBaseURL  = "https://hacker-news.firebaseio.com/v0"
	commentMaxChars = 300
)

var tagExpr = regexp.MustCompile(`<[^>]*>`)

// Item mirrors the Firebase item payload. Stories and comments share the
// same shape with different fields populated.
type Item struct {
	ID          int    `json:"id"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Kids        []int  `json:"kids"`
}

// Client talks to the Hacker News Firebase API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.CommentFetcher = (*Client)(nil)

// NewClient wires a reusable API client; baseURL defaults to the public
// Firebase endpoint.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// TopStories returns the current ranked story ID list. This is the one
// upstream call whose failure is fatal to an ingest run.
func (c *Client) TopStories(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.get(ctx, "/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	return ids, nil
}

// Item fetches a single story or comment by identifier.
func (c *Client) Item(ctx context.Context, id int) (*Item, error) {
	var item Item
	if err := c.get(ctx, fmt.Sprintf("/item/%d.json", id), &item); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	if item.ID == 0 {
		return nil, fmt.Errorf("item %d: not found", id)
	}
	return &item, nil
}

// TopComments fetches up to limit direct replies of the given thread,
// preserving the thread's own child ordering. Individual failures are
// dropped silently; the result may be shorter than limit or empty.
func (c *Client) TopComments(ctx context.Context, threadID string, limit int) []string {
	id, err := strconv.Atoi(threadID)
	if err != nil || limit <= 0 {
		return nil
	}

	thread, err := c.Item(ctx, id)
	if err != nil {
		c.debug("fetch thread", "id", threadID, "error", err)
		return nil
	}

	kids := thread.Kids
	if len(kids) > limit {
		kids = kids[:limit]
	}

	fetched := make([]*Item, len(kids))
	var wg sync.WaitGroup
	for i, kid := range kids {
		wg.Add(1)
		go func(i, kid int) {
			defer wg.Done()
			item, err := c.Item(ctx, kid)
			if err != nil {
				c.debug("fetch comment", "id", kid, "error", err)
				return
			}
			fetched[i] = item
		}(i, kid)
	}
	wg.Wait()

	comments := make([]string, 0, len(fetched))
	for _, item := range fetched {
		if item == nil || item.Deleted || item.Dead {
			continue
		}
		text := cleanComment(item.Text)
		if text == "" {
			continue
		}
		comments = append(comments, text)
	}
	return comments
}

// cleanComment strips markup and entities and truncates to a fixed budget.
func cleanComment(raw string) string {
	text := strings.ReplaceAll(raw, "<p>", " ")
	text = tagExpr.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > commentMaxChars {
		text = text[:commentMaxChars]
	}
	return text
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newspulse/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
