package scoring

import (
	"strings"

	"token-snipe-engine/internal/domain"
)

// HistogramFunc looks up the outcome histogram for one key/value pair
// in signal pattern memory.
type HistogramFunc func(key, value string) domain.OutcomeHistogram

// ReasoningHistKey is the signal-pattern key under which reasoning tag
// outcome histograms are recorded by the feedback router.
const ReasoningHistKey = "reasoning"

// ClassifyRisk assigns an informational risk level from the outcome
// history of the evaluation's reasoning tags and signal traits. Rug
// evidence from tags weighs 1.5x and from signals 1.2x against win
// evidence; tokens with no evidence at all are experimental.
func ClassifyRisk(reasoning []string, signals map[string]string, hist HistogramFunc) domain.RiskLevel {
	if len(reasoning) == 0 && len(signals) == 0 {
		return domain.RiskExperimental
	}

	var rugWeight, winWeight float64

	for _, r := range reasoning {
		tag := strings.ToLower(strings.TrimSpace(r))
		h := hist(ReasoningHistKey, tag)
		rugWeight += float64(h.Rug) * 1.5
		winWeight += float64(h.Profit + h.Moon)
	}

	for k, v := range signals {
		h := hist(k, strings.ToLower(v))
		rugWeight += float64(h.Rug) * 1.2
		winWeight += float64(h.Profit + h.Moon)
	}

	total := rugWeight + winWeight
	if total == 0 {
		return domain.RiskExperimental
	}

	rugRatio := rugWeight / total
	switch {
	case rugRatio >= 0.7:
		return domain.RiskHigh
	case rugRatio >= 0.5:
		return domain.RiskMedium
	case rugRatio <= 0.2 && winWeight >= 3:
		return domain.RiskAlphaSafe
	case rugRatio <= 0.4:
		return domain.RiskLow
	default:
		return domain.RiskMedium
	}
}
