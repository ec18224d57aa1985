package scoring

import (
	"strings"

	"token-snipe-engine/internal/domain"
)

// PredictFromSignals estimates outcome probabilities for a token from
// the pattern memory of its signal traits. Returns an empty map when
// no trait has any history.
func PredictFromSignals(signals map[string]string, hist HistogramFunc) map[domain.Outcome]float64 {
	counts := make(map[domain.Outcome]int64)
	var total int64

	for key, value := range signals {
		h := hist(key, strings.ToLower(value))
		for outcome, n := range map[domain.Outcome]int64{
			domain.OutcomeProfit: h.Profit,
			domain.OutcomeLoss:   h.Loss,
			domain.OutcomeRug:    h.Rug,
			domain.OutcomeMoon:   h.Moon,
			domain.OutcomeDead:   h.Dead,
		} {
			if n > 0 {
				counts[outcome] += n
				total += n
			}
		}
	}

	if total == 0 {
		return map[domain.Outcome]float64{}
	}

	prediction := make(map[domain.Outcome]float64, len(counts))
	for outcome, n := range counts {
		prediction[outcome] = float64(n) / float64(total)
	}
	return prediction
}

// MostLikely returns the outcome with the highest predicted
// probability, or empty when the prediction has no evidence.
func MostLikely(prediction map[domain.Outcome]float64) domain.Outcome {
	var best domain.Outcome
	var bestP float64
	for outcome, p := range prediction {
		if p > bestP {
			best, bestP = outcome, p
		}
	}
	return best
}
