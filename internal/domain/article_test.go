package domain

import (
	"encoding/json"
	"testing"
)

func TestArticleIDDeterministic(t *testing.T) {
	t.Parallel()

	if got := ArticleID("hackernews", "12345"); got != "hackernews-12345" {
		t.Fatalf("id = %q", got)
	}
	if ArticleID("hackernews", "12345") != ArticleID("hackernews", "12345") {
		t.Fatal("same identity produced different ids")
	}
	if ArticleID("hackernews", "1") == ArticleID("engblog", "1") {
		t.Fatal("different sources collided")
	}
}

func TestSummaryVariants(t *testing.T) {
	t.Parallel()

	var s Summary = Structured{What: "w", WhyItMatters: "m"}
	if _, ok := s.(Structured); !ok {
		t.Fatal("structured variant lost its type")
	}

	s = LegacyText("old")
	if _, ok := s.(LegacyText); !ok {
		t.Fatal("legacy variant lost its type")
	}
}

func TestStructuredJSONOmitsEmptyKeyDetail(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Structured{What: "w", WhyItMatters: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"what":"w","whyItMatters":"m"}` {
		t.Fatalf("payload = %s", raw)
	}
}
