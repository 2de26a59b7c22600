package score

import (
	"math"
	"testing"
	"time"
)

func TestHotnessAtWorkedExample(t *testing.T) {
	t.Parallel()

	now := time.Now()
	got := HotnessAt(now, now, 100, 50, "hackernews")
	if got != 8.194 {
		t.Fatalf("expected 8.194, got %v", got)
	}
}

func TestHotnessAtUnknownSourceWeight(t *testing.T) {
	t.Parallel()

	now := time.Now()
	if got := HotnessAt(now, now, 0, 0, "someblog"); got != 1.0 {
		t.Fatalf("expected 1.0 for zero engagement and unit weight, got %v", got)
	}
}

func TestHotnessAtDecaysWithAge(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ages := []float64{0, 1, 3, 6, 12, 24, 36, 48}

	prev := math.Inf(1)
	for _, age := range ages {
		publishedAt := now.Add(-time.Duration(age * float64(time.Hour)))
		got := HotnessAt(now, publishedAt, 100, 50, "hackernews")
		if got >= prev {
			t.Fatalf("score at age %vh is %v, not below previous %v", age, got, prev)
		}
		prev = got
	}
}

func TestHotnessAtFuturePublishTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Now()
	future := HotnessAt(now, now.Add(2*time.Hour), 10, 0, "rss")
	present := HotnessAt(now, now, 10, 0, "rss")

	if math.IsNaN(future) || math.IsInf(future, 0) {
		t.Fatalf("future timestamp produced non-finite score %v", future)
	}
	if future <= present {
		t.Fatalf("future score %v not above present score %v", future, present)
	}
}

func TestHotnessAtRoundsToThreeDecimals(t *testing.T) {
	t.Parallel()

	now := time.Now()
	got := HotnessAt(now, now.Add(-7*time.Hour), 37, 11, "hackernews")
	if got != math.Round(got*1000)/1000 {
		t.Fatalf("score %v carries more than three decimals", got)
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  string
	}{
		{8.2, "hot"},
		{5.001, "hot"},
		{5, "warm"},
		{3, "warm"},
		{2, "normal"},
		{0.4, "normal"},
		{0, "normal"},
	}

	for _, tc := range cases {
		if got := Label(tc.score); got != tc.want {
			t.Errorf("Label(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
