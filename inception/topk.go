package inception

import (
	"math"
)

// TopK returns the k highest scoring labels, best first.
//
// Only indices below min(len(labels), len(probabilities)) are eligible. Each
// round scans the remaining scores for the maximum and consumes that slot, so
// equal scores are returned in index order. NaN scores rank below every
// number. The result holds min(k, n) predictions.
func TopK(probabilities []float32, labels []string, k int) Result {
	n := len(probabilities)
	if len(labels) < n {
		n = len(labels)
	}
	if k > n {
		k = n
	}
	if k <= 0 {
		return Result{}
	}

	// working copy; consumed slots are marked with -Inf and skipped
	scores := make([]float64, n)
	used := make([]bool, n)
	for i := 0; i < n; i++ {
		scores[i] = float64(probabilities[i])
		if math.IsNaN(scores[i]) {
			scores[i] = math.Inf(-1)
		}
	}

	result := make(Result, 0, k)
	for rank := 0; rank < k; rank++ {
		best := -1
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			if best < 0 || scores[i] > scores[best] {
				best = i
			}
		}
		used[best] = true
		scores[best] = math.Inf(-1)

		result = append(result, Prediction{
			Label:       labels[best],
			Probability: FormatProbability(probabilities[best]),
			Rank:        rank,
			Score:       probabilities[best],
		})
	}

	return result
}
