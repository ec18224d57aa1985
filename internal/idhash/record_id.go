package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRecordID computes a deterministic outcome record ID using SHA256.
// Formula: SHA256(token_address|outcome|opened_at|closed_at)
// Returns hex-encoded hash (64 characters).
func ComputeRecordID(
	tokenAddress string,
	outcome string,
	openedAt int64,
	closedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		tokenAddress,
		outcome,
		openedAt,
		closedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
