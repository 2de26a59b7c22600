package score

import (
	"math"
	"time"
)

// decayHours controls how fast recency falls off: a story loses roughly
// 63% of its recency every 12 hours.
const decayHours = 12.0

// sourceWeights boosts sources whose engagement numbers run lower than
// their real-world signal. Unknown sources weigh 1.0.
var sourceWeights = map[string]float64{
	"hackernews": 1.3,
}

// Hotness computes the decaying popularity score from the current clock.
func Hotness(publishedAt time.Time, points, commentCount int, source string) float64 {
	return HotnessAt(time.Now(), publishedAt, points, commentCount, source)
}

// HotnessAt is the pure form used by callers that control the clock.
// Future publish timestamps make recency exceed 1, which is accepted
// rather than clamped.
func HotnessAt(now, publishedAt time.Time, points, commentCount int, source string) float64 {
	ageHours := now.Sub(publishedAt).Hours()

	recency := math.Exp(-ageHours / decayHours)
	engagement := 1 + math.Log(1+float64(points)+2*float64(commentCount))

	weight, ok := sourceWeights[source]
	if !ok {
		weight = 1.0
	}

	return round3(recency * engagement * weight)
}

// Label classifies a score for display purposes only; ranking always uses
// the raw score.
func Label(score float64) string {
	switch {
	case score > 5:
		return "hot"
	case score > 2:
		return "warm"
	default:
		return "normal"
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
