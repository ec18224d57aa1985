package scoring

// ApplyReasoningWeights penalizes a score when its reasoning tags have
// historically preceded bad outcomes for a token with negative
// reputation. Tags with weight <= 2 never penalize, and each tag's
// penalty is capped at 5.
func ApplyReasoningWeights(score float64, reasoning []string, weights map[string]float64, reputation float64) float64 {
	if reputation >= 0 {
		return score
	}

	adjusted := score
	for _, tag := range reasoning {
		w, ok := weights[tag]
		if !ok || w <= 2 {
			continue
		}
		penalty := w * 0.5
		if penalty > 5 {
			penalty = 5
		}
		adjusted -= penalty
	}

	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted
}
