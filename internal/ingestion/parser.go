package ingestion

import (
	"strings"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/solana"
)

const wsolMint = "So11111111111111111111111111111111111111112"

// Launchpad program IDs watched by default.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// maxWalletsPerEvent caps how many participant wallets one event
// carries into wallet-risk lookups.
const maxWalletsPerEvent = 8

// ParseFunc turns a raw log notification into an ingestion event.
// Returning (nil, nil) means the notification is not of interest.
type ParseFunc func(notif solana.LogNotification) (*domain.Event, error)

// Instruction markers, checked in order; the first match decides the
// event kind. LP initialization outranks the swap marker because pool
// creation transactions log both.
var kindMarkers = []struct {
	marker string
	kind   domain.EventKind
}{
	{"initialize2", domain.EventLPCreate},
	{"InitializeMint", domain.EventMint},
	{"MintTo", domain.EventMint},
	{"Swap", domain.EventSwap},
}

// ParseLaunchLogs is the default parser for Raydium-style program
// logs. The event kind comes from instruction markers; the token
// address is the first well-formed account address in the logs, and
// subsequent on-curve addresses become participant wallets. Timestamp
// is left zero for the listener to stamp on admission.
func ParseLaunchLogs(notif solana.LogNotification) (*domain.Event, error) {
	kind, ok := detectKind(notif.Logs)
	if !ok {
		return nil, nil
	}

	token, wallets := extractAddresses(notif.Logs)
	if token == "" {
		return nil, nil
	}

	return &domain.Event{
		Kind:         kind,
		TokenAddress: token,
		Wallets:      wallets,
		Payload: map[string]any{
			"signature": notif.Signature,
			"slot":      notif.Slot,
		},
	}, nil
}

func detectKind(logs []string) (domain.EventKind, bool) {
	for _, m := range kindMarkers {
		for _, line := range logs {
			if strings.Contains(line, m.marker) {
				return m.kind, true
			}
		}
	}
	return "", false
}

// extractAddresses scans log fields for base58 account addresses. The
// first non-WSOL address is taken as the token; later on-curve
// addresses are collected as wallets.
func extractAddresses(logs []string) (string, []string) {
	var token string
	var wallets []string
	seen := make(map[string]bool)

	for _, line := range logs {
		for _, field := range strings.Fields(line) {
			field = strings.Trim(field, ",:;()[]")
			if len(field) < 32 || len(field) > 44 || field == wsolMint || seen[field] {
				continue
			}
			if !solana.ValidAddress(field) {
				continue
			}
			seen[field] = true
			if token == "" {
				token = field
				continue
			}
			if len(wallets) < maxWalletsPerEvent && solana.IsOnCurve(field) {
				wallets = append(wallets, field)
			}
		}
	}
	return token, wallets
}
