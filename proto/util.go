package proto

import (
	"github.com/sdeoras/inception/inception"
)

// NewClassifyResponse packs a result for the wire.
func NewClassifyResponse(requestID string, result inception.Result) *ClassifyResponse {
	out := &ClassifyResponse{
		RequestId:   requestID,
		Predictions: make([]*Prediction, len(result)),
	}
	for i, p := range result {
		out.Predictions[i] = &Prediction{
			Label:       p.Label,
			Probability: p.Probability,
			Rank:        int32(p.Rank),
			Score:       p.Score,
		}
	}
	return out
}

// Result unpacks the predictions, best first.
func (m *ClassifyResponse) Result() inception.Result {
	preds := m.GetPredictions()
	result := make(inception.Result, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		result = append(result, inception.Prediction{
			Label:       p.Label,
			Probability: p.Probability,
			Rank:        int(p.Rank),
			Score:       p.Score,
		})
	}
	return result
}
