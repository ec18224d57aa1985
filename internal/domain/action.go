package domain

// Action is the bounded decision emitted for a candidate token.
type Action string

const (
	ActionSnipe  Action = "snipe"
	ActionTrade  Action = "trade"
	ActionIgnore Action = "ignore"
	ActionAvoid  Action = "avoid"
)

// RiskLevel is the informational risk classification axis. It is
// separate from the action itself.
type RiskLevel string

const (
	RiskHigh         RiskLevel = "high"
	RiskMedium       RiskLevel = "medium"
	RiskLow          RiskLevel = "low"
	RiskExperimental RiskLevel = "experimental" // default for zero-evidence tokens
	RiskAlphaSafe    RiskLevel = "alpha-safe"
)

// CheckStatus is the three-valued result of an independently fallible
// risk check. A failing check reports unknown rather than blocking.
type CheckStatus string

const (
	CheckOK      CheckStatus = "ok"
	CheckFlagged CheckStatus = "flagged"
	CheckUnknown CheckStatus = "unknown"
)

// CheckResult is the outcome of one named gate check.
type CheckResult struct {
	Name   string
	Status CheckStatus
	Detail string
}

// VerifyStatus is the result of the final self-check sanity pass.
type VerifyStatus string

const (
	VerifyOK      VerifyStatus = "ok"
	VerifyWarning VerifyStatus = "warning"
	VerifyFail    VerifyStatus = "fail" // blocks execution
)
