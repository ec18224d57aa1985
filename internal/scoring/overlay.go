package scoring

import (
	"token-snipe-engine/internal/domain"
)

// FinalizeAction folds outcome prediction and streak state on top of
// the adjusted score. Overrides run in fixed priority with rug risk
// first so safety wins ties; when nothing fires the base action stands.
func FinalizeAction(score float64, baseAction domain.Action, prediction map[domain.Outcome]float64, streak domain.StreakState) domain.Action {
	if prediction[domain.OutcomeRug] > 0.5 && score < 25 {
		return domain.ActionIgnore
	}
	if prediction[domain.OutcomeMoon] > 0.4 && score >= 15 {
		return domain.ActionSnipe
	}

	if streak.Type == domain.OutcomeLoss && streak.Count >= 3 && score < 30 {
		return domain.ActionIgnore
	}
	onWinStreak := streak.Type == domain.OutcomeProfit || streak.Type == domain.OutcomeMoon
	if onWinStreak && streak.Count >= 3 && score >= 15 {
		return domain.ActionSnipe
	}

	return baseAction
}
