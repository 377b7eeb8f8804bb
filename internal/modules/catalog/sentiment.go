package catalog

import "gonum.org/v1/gonum/stat"

// MeanSentiment returns the average of recent sentiment scores. The second
// return is false when no scores are available, so callers can say
// "unknown" instead of feeding NaN into a prompt.
func MeanSentiment(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	return stat.Mean(scores, nil), true
}
