package idhash

import (
	"fmt"

	"github.com/google/uuid"
)

// NewEvaluationID returns a unique evaluation ID of the form
// <token>-<millis>-<6 hex chars>. Unlike record IDs, evaluation IDs are
// not deterministic: one token may be evaluated many times and each
// pass needs its own trace identity.
func NewEvaluationID(tokenAddress string, nowMs int64) string {
	return fmt.Sprintf("%s-%d-%s", tokenAddress, nowMs, uuid.NewString()[:6])
}
