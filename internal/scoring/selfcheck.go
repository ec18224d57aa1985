package scoring

import (
	"token-snipe-engine/internal/domain"
)

// SelfCheck is the final sanity pass over an evaluation. It never
// changes the score; it flags internal contradictions. A fail status
// blocks execution even when every earlier stage passed.
func SelfCheck(score float64, action domain.Action, reasoning []string) (domain.VerifyStatus, []string) {
	var issues []string
	status := domain.VerifyOK

	warn := func(issue string) {
		issues = append(issues, issue)
		if status != domain.VerifyFail {
			status = domain.VerifyWarning
		}
	}
	fail := func(issue string) {
		issues = append(issues, issue)
		status = domain.VerifyFail
	}

	if score == 0 && action != domain.ActionIgnore && action != domain.ActionAvoid {
		warn("score 0 but action is not ignore")
	}
	if score > 80 && action == domain.ActionIgnore {
		warn("high score but ignored")
	}
	if action == domain.ActionSnipe || action == domain.ActionTrade {
		for _, tag := range reasoning {
			if tag == "honeypot" || tag == "blacklisted" {
				fail(tag + " in reasoning but action is " + string(action))
			}
		}
		if len(reasoning) == 0 {
			warn("no reasoning to justify entry")
		}
	}

	return status, issues
}
