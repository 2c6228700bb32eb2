package inception

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.New(100, 0)

// Prediction is one ranked label. Rank is 0 based.
type Prediction struct {
	Label       string  `json:"label"`
	Probability string  `json:"probability"`
	Rank        int     `json:"rank"`
	Score       float32 `json:"score"`
}

// DisplayRank is the 1 based rank shown to users.
func (p Prediction) DisplayRank() int {
	return p.Rank + 1
}

// Result is the ranked output of a classification, best label first.
type Result []Prediction

// Best returns the top prediction, if any.
func (r Result) Best() (Prediction, bool) {
	if len(r) == 0 {
		return Prediction{}, false
	}
	return r[0], true
}

// FormatProbability renders a score as a percentage with two decimals,
// e.g. 0.8732 -> "87.32%".
func FormatProbability(p float32) string {
	f := float64(p)
	switch {
	case math.IsNaN(f):
		return "NaN%"
	case math.IsInf(f, 1):
		return "+Inf%"
	case math.IsInf(f, -1):
		return "-Inf%"
	}
	return decimal.NewFromFloat32(p).Mul(hundred).StringFixed(2) + "%"
}
