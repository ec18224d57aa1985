package domain

// Mode identifies which scoring profile evaluated a token.
type Mode string

const (
	ModeSnipe Mode = "snipe"
	ModeTrade Mode = "trade"
)

// Evaluation is the exposed result of one scoring pass.
type Evaluation struct {
	EvaluationID string
	TokenAddress string
	Mode         Mode
	Action       Action
	Score        float64
	Reasoning    []string
	Risk         RiskLevel
	Status       VerifyStatus
	Issues       []string
	Timestamp    int64 // Unix timestamp in milliseconds
}

// Blocked reports whether the evaluation must not be executed. A
// self-check failure is the only condition that blocks execution
// outright after the gate and overlay have run.
func (e *Evaluation) Blocked() bool {
	return e.Status == VerifyFail
}
