package domain

// Outcome classifies the result of a completed trade.
type Outcome string

const (
	OutcomeProfit Outcome = "profit"
	OutcomeLoss   Outcome = "loss"
	OutcomeRug    Outcome = "rug"
	OutcomeMoon   Outcome = "moon"
	OutcomeDead   Outcome = "dead"
)

// ValidOutcome reports whether o is a known outcome label.
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomeProfit, OutcomeLoss, OutcomeRug, OutcomeMoon, OutcomeDead:
		return true
	}
	return false
}

// ReasoningImpact is the fixed per-outcome impact applied to reasoning
// tag weights. This is the only update rule for reasoning weights.
var ReasoningImpact = map[Outcome]float64{
	OutcomeProfit: 2,
	OutcomeMoon:   3,
	OutcomeLoss:   -1,
	OutcomeRug:    -3,
	OutcomeDead:   -2,
}

// WalletImpact is the fixed per-occurrence weighting of wallet outcome
// history used by the wallet risk weighter.
var WalletImpact = map[Outcome]float64{
	OutcomeRug:    -4,
	OutcomeDead:   -2,
	OutcomeLoss:   -1,
	OutcomeProfit: 2,
	OutcomeMoon:   3,
}

// ReputationImpact is the fixed per-outcome impact on a token's
// reputation score.
var ReputationImpact = map[Outcome]float64{
	OutcomeProfit: 2,
	OutcomeMoon:   3,
	OutcomeLoss:   -1,
	OutcomeRug:    -5,
	OutcomeDead:   -2,
}

// OutcomeRecord is the result of a completed trade. It is created once
// per completed trade, is immutable after creation, and is the single
// input that drives all reinforcement memory updates.
type OutcomeRecord struct {
	RecordID     string // deterministic hash
	TokenAddress string
	TokenName    string
	FinalScore   float64
	Reasoning    []string
	Signals      map[string]string // signal key -> observed value snapshot
	Wallets      []string
	PnL          float64
	Outcome      Outcome // resolved label; inferred from PnL when absent
	OpenedAt     int64   // Unix timestamp in milliseconds
	ClosedAt     int64   // Unix timestamp in milliseconds
}

// OutcomeHistogram counts outcomes by kind. Counts are non-negative.
type OutcomeHistogram struct {
	Profit int64
	Loss   int64
	Rug    int64
	Moon   int64
	Dead   int64
}

// Add increments the bucket for o. Unknown outcomes are ignored.
func (h *OutcomeHistogram) Add(o Outcome) {
	switch o {
	case OutcomeProfit:
		h.Profit++
	case OutcomeLoss:
		h.Loss++
	case OutcomeRug:
		h.Rug++
	case OutcomeMoon:
		h.Moon++
	case OutcomeDead:
		h.Dead++
	}
}

// Total returns the sum of all buckets.
func (h OutcomeHistogram) Total() int64 {
	return h.Profit + h.Loss + h.Rug + h.Moon + h.Dead
}
