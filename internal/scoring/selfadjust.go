package scoring

import (
	"token-snipe-engine/internal/domain"
)

// ApplySelfAdjustments folds recent reinforcement trends into a score:
// caution after rugs and losing streaks, momentum on win streaks.
func ApplySelfAdjustments(score float64, streak domain.StreakState, counts domain.OutcomeHistogram) float64 {
	adjusted := score

	switch {
	case counts.Rug >= 5:
		adjusted -= 5
	case counts.Rug >= 2:
		adjusted -= 2
	}

	if streak.Type == domain.OutcomeRug && streak.Count >= 2 {
		adjusted -= 3
	}

	if streak.Type == domain.OutcomeProfit || streak.Type == domain.OutcomeMoon {
		bonus := float64(streak.Count) * 1.5
		if bonus > 6 {
			bonus = 6
		}
		adjusted += bonus
	}

	if streak.Type == domain.OutcomeLoss && streak.Count >= 3 {
		adjusted -= 4
	}

	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted
}
