package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestTopComments(t *testing.T) {
	t.Parallel()

	longComment := strings.Repeat("x", 400)

	var mu sync.Mutex
	requested := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested[r.URL.Path]++
		mu.Unlock()

		switch r.URL.Path {
		case "/item/1.json":
			fmt.Fprint(w, `{"id":1,"type":"story","kids":[11,12,13,14,15]}`)
		case "/item/11.json":
			fmt.Fprint(w, `{"id":11,"type":"comment","text":"<p>Hello <i>world</i> &amp; more</p>"}`)
		case "/item/12.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/item/13.json":
			fmt.Fprint(w, `{"id":13,"type":"comment","deleted":true,"text":"gone"}`)
		case "/item/14.json":
			fmt.Fprintf(w, `{"id":14,"type":"comment","text":"%s"}`, longComment)
		default:
			fmt.Fprint(w, "null")
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	comments := client.TopComments(context.Background(), "1", 4)

	want := []string{"Hello world & more", strings.Repeat("x", commentMaxChars)}
	if len(comments) != len(want) {
		t.Fatalf("expected %d comments, got %d: %v", len(want), len(comments), comments)
	}
	for i := range want {
		if comments[i] != want[i] {
			t.Errorf("comment %d = %q, want %q", i, comments[i], want[i])
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if requested["/item/15.json"] != 0 {
		t.Error("kid beyond the limit was fetched")
	}
}

func TestTopCommentsBadThreadID(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", nil)
	if got := client.TopComments(context.Background(), "not-a-number", 3); got != nil {
		t.Fatalf("expected nil for non-numeric thread id, got %v", got)
	}
	if got := client.TopComments(context.Background(), "1", 0); got != nil {
		t.Fatalf("expected nil for zero limit, got %v", got)
	}
}

func TestTopCommentsThreadFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Firebase answers deleted/unknown items with a literal null.
		fmt.Fprint(w, "null")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if got := client.TopComments(context.Background(), "999", 3); got != nil {
		t.Fatalf("expected nil when the thread cannot be fetched, got %v", got)
	}
}

func TestItemNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "null")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.Item(context.Background(), 42); err == nil {
		t.Fatal("expected error for null item payload")
	}
}

func TestCleanComment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"<p>One</p><p>Two</p>", "One Two"},
		{"A &quot;quoted&quot; claim", `A "quoted" claim`},
		{"  spaced\n\tout  ", "spaced out"},
		{"<a href=\"x\">link</a> text", "link text"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := cleanComment(tc.in); got != tc.want {
			t.Errorf("cleanComment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
