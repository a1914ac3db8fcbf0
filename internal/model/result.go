package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// NewResult ranks probs against classes. probs[i] is the confidence of classes[i].
func NewResult(probs []float32, classes []string) (*Result, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("model returned no probabilities")
	}
	if len(probs) != len(classes) {
		return nil, fmt.Errorf("model returned %d probabilities for %d classes", len(probs), len(classes))
	}
	for i, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			return nil, fmt.Errorf("model returned non-finite probability %v for class %s", p, classes[i])
		}
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	k := TopK
	if len(order) < k {
		k = len(order)
	}
	top := make([]TopPrediction, 0, k)
	for _, idx := range order[:k] {
		c := widen(probs[idx])
		top = append(top, TopPrediction{
			Class:      classes[idx],
			Confidence: c,
			Percentage: Percentage(c),
		})
	}

	best := order[0]
	confidence := widen(probs[best])
	plant, disease := ParseClassName(classes[best])

	return &Result{
		Index: best,
		Prediction: Prediction{
			Class:      classes[best],
			Plant:      plant,
			Disease:    disease,
			Confidence: confidence,
			Percentage: Percentage(confidence),
			IsHealthy:  IsHealthy(disease),
		},
		TopPredictions:      top,
		ConfidenceThreshold: ConfidenceThreshold,
		Reliable:            Reliable(confidence),
	}, nil
}

func Reliable(confidence float64) bool {
	return confidence >= ConfidenceThreshold
}

// Percentage formats a confidence as e.g. "87.34%".
func Percentage(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}

// widen converts v to the float64 with the same shortest decimal form, so
// float32(0.7) reports as 0.7 rather than 0.699999988.
func widen(v float32) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	if err != nil {
		return float64(v)
	}
	return f
}
