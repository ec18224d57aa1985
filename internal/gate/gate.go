// Package gate holds the pre-trade risk gate: hard blacklist, honeypot
// and LP-lock checks, contract red-flag scanning, and the emergency
// reflex override applied after scoring.
package gate

import (
	"context"
	"log"

	"token-snipe-engine/internal/domain"
)

// LPStatusLocked and LPStatusUnlocked are the recognized LP states.
// Anything else is treated as unknown.
const (
	LPStatusLocked   = "locked"
	LPStatusUnlocked = "unlocked"
)

// CheckFunc answers a yes/no risk question for a token. An error means
// the check could not run, not that the token is risky.
type CheckFunc func(ctx context.Context, token string) (bool, error)

// LPStatusFunc reports the LP lock status for a token.
type LPStatusFunc func(ctx context.Context, token string) (string, error)

// BasicGate runs the hard risk checks before any scoring happens. Each
// check is independently fallible: a check error downgrades to unknown
// and is recorded, never blocks on its own.
type BasicGate struct {
	blacklist CheckFunc
	honeypot  CheckFunc
	lpStatus  LPStatusFunc
	logger    *log.Logger
}

// BasicGateOptions configures a BasicGate.
type BasicGateOptions struct {
	Blacklist CheckFunc
	Honeypot  CheckFunc
	LPStatus  LPStatusFunc
	Logger    *log.Logger
}

// NewBasicGate creates a gate from the given checks. Nil checks report
// unknown.
func NewBasicGate(opts BasicGateOptions) *BasicGate {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &BasicGate{
		blacklist: opts.Blacklist,
		honeypot:  opts.Honeypot,
		lpStatus:  opts.LPStatus,
		logger:    logger,
	}
}

// Evaluate runs all checks for a token. Returns ok=false when any check
// came back flagged; unknown results never block.
func (g *BasicGate) Evaluate(ctx context.Context, token string) (bool, []domain.CheckResult) {
	results := []domain.CheckResult{
		g.runBool(ctx, "blacklist", token, g.blacklist, "blacklisted"),
		g.runBool(ctx, "honeypot", token, g.honeypot, "honeypot"),
		g.runLPStatus(ctx, token),
	}

	ok := true
	for _, r := range results {
		if r.Status == domain.CheckFlagged {
			ok = false
		}
	}
	return ok, results
}

func (g *BasicGate) runBool(ctx context.Context, name, token string, check CheckFunc, detail string) domain.CheckResult {
	if check == nil {
		return domain.CheckResult{Name: name, Status: domain.CheckUnknown, Detail: "check not configured"}
	}

	risky, err := check(ctx, token)
	if err != nil {
		g.logger.Printf("gate: %s check failed for %s: %v", name, token, err)
		return domain.CheckResult{Name: name, Status: domain.CheckUnknown, Detail: err.Error()}
	}
	if risky {
		return domain.CheckResult{Name: name, Status: domain.CheckFlagged, Detail: detail}
	}
	return domain.CheckResult{Name: name, Status: domain.CheckOK}
}

func (g *BasicGate) runLPStatus(ctx context.Context, token string) domain.CheckResult {
	const name = "lp_lock"

	if g.lpStatus == nil {
		return domain.CheckResult{Name: name, Status: domain.CheckUnknown, Detail: "check not configured"}
	}

	status, err := g.lpStatus(ctx, token)
	if err != nil {
		g.logger.Printf("gate: lp status check failed for %s: %v", token, err)
		return domain.CheckResult{Name: name, Status: domain.CheckUnknown, Detail: err.Error()}
	}

	switch status {
	case LPStatusUnlocked:
		return domain.CheckResult{Name: name, Status: domain.CheckFlagged, Detail: "lp_unlocked"}
	case LPStatusLocked:
		return domain.CheckResult{Name: name, Status: domain.CheckOK}
	default:
		return domain.CheckResult{Name: name, Status: domain.CheckUnknown, Detail: "lp status " + status}
	}
}
