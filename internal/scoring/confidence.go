package scoring

import (
	"math"

	"token-snipe-engine/internal/domain"
)

// ReweightConfidence adjusts a score using memory-weighted reasoning
// tags and the global outcome streak. Positive tag weights add w*0.2,
// negative subtract |w|*0.3. A loss streak of three or more applies a
// growing penalty, a profit/moon streak a growing bonus, and any rug
// streak a flat 10-point penalty.
func ReweightConfidence(score float64, reasoning []string, weights map[string]float64, streak domain.StreakState) float64 {
	var bonus, penalty float64

	for _, tag := range reasoning {
		w := weights[tag]
		if w > 0 {
			bonus += w * 0.2
		} else if w < 0 {
			penalty += math.Abs(w) * 0.3
		}
	}

	switch {
	case streak.Type == domain.OutcomeLoss && streak.Count >= 3:
		penalty += 5 + float64(streak.Count-3)
	case (streak.Type == domain.OutcomeProfit || streak.Type == domain.OutcomeMoon) && streak.Count >= 3:
		bonus += 3 + float64(streak.Count-3)
	case streak.Type == domain.OutcomeRug:
		penalty += 10
	}

	adjusted := score + bonus - penalty
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted
}
