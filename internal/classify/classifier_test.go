package classify

import (
	"reflect"
	"testing"
)

func TestTagsFallback(t *testing.T) {
	t.Parallel()

	tags := Tags("Quarterly earnings report released", "")
	if !reflect.DeepEqual(tags, []string{"Tech"}) {
		t.Fatalf("expected [Tech], got %v", tags)
	}
}

func TestTagsDomainFallback(t *testing.T) {
	t.Parallel()

	tags := Tags("Quarterly earnings report released", "https://github.com/foo/bar")
	if !reflect.DeepEqual(tags, []string{"Programming"}) {
		t.Fatalf("expected [Programming], got %v", tags)
	}
}

func TestTagsDomainIgnoredWhenKeywordMatched(t *testing.T) {
	t.Parallel()

	// The keyword match wins; the arxiv.org domain rule must not fire.
	tags := Tags("Modern compiler design tips", "https://arxiv.org/abs/1234")
	if !reflect.DeepEqual(tags, []string{"Programming"}) {
		t.Fatalf("expected [Programming], got %v", tags)
	}
}

func TestTagsCapAtFourInMatchOrder(t *testing.T) {
	t.Parallel()

	title := "OpenAI LLM security startup funding round on GitHub with Nvidia GPU"
	tags := Tags(title, "")

	want := []string{"AI", "Security", "Programming", "Hardware"}
	if !reflect.DeepEqual(tags, want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
}

func TestTagsTopicBeforeCompany(t *testing.T) {
	t.Parallel()

	tags := Tags("Google ships a new Gemini LLM", "")
	want := []string{"AI", "Google"}
	if !reflect.DeepEqual(tags, want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
}

func TestTagsDeterministic(t *testing.T) {
	t.Parallel()

	title := "ChatGPT vulnerability found in Windows build of the Python runtime"
	first := Tags(title, "")
	for i := 0; i < 20; i++ {
		if got := Tags(title, ""); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}
