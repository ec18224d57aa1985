package gate

import (
	"context"
	"log"
	"regexp"
)

// redFlagPatterns maps a flag label to the contract source pattern that
// triggers it. Matching is case-insensitive.
var redFlagPatterns = map[string]*regexp.Regexp{
	"blacklist":     regexp.MustCompile(`(?i)(blacklist|black_list|addToBlacklist)`),
	"whitelist":     regexp.MustCompile(`(?i)(whitelist|white_list|onlyWhitelisted)`),
	"anti_bot":      regexp.MustCompile(`(?i)(cooldown|maxTxAmount|antiBot|earlyBuyerPenalty)`),
	"owner_control": regexp.MustCompile(`(?i)(setFees|changeTax|setMarketingWallet|renounceOwnership)`),
	"stealth_mint":  regexp.MustCompile(`(?i)(mint|_mint|createTokens)`),
	"honeypot":      regexp.MustCompile(`(?i)(canSell|_canSell|setSellLockTime)`),
	"lock_bypass":   regexp.MustCompile(`(?i)(setUniswapV2Pair|disableLimits|openTrading)`),
}

// flagPenalty is the score penalty applied per matched red flag.
const flagPenalty = -2

// SourceFetchFunc retrieves contract source text for a token. Empty
// source with nil error means no code was available.
type SourceFetchFunc func(ctx context.Context, token string) (string, error)

// RedFlagScan is the result of one contract scan.
type RedFlagScan struct {
	Score float64  // penalty, zero or negative
	Flags []string // matched flag labels
}

// RedFlagScanner scans fetched contract source against a fixed pattern
// table. Missing or unfetchable source is neutral, not a flag.
type RedFlagScanner struct {
	fetch  SourceFetchFunc
	logger *log.Logger
}

// RedFlagScannerOptions configures a RedFlagScanner.
type RedFlagScannerOptions struct {
	Fetch  SourceFetchFunc
	Logger *log.Logger
}

// NewRedFlagScanner creates a scanner.
func NewRedFlagScanner(opts RedFlagScannerOptions) *RedFlagScanner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &RedFlagScanner{fetch: opts.Fetch, logger: logger}
}

// Scan fetches the token's contract source and matches it against the
// red-flag table.
func (s *RedFlagScanner) Scan(ctx context.Context, token string) RedFlagScan {
	if s.fetch == nil {
		return RedFlagScan{}
	}

	code, err := s.fetch(ctx, token)
	if err != nil {
		s.logger.Printf("gate: fetch contract source for %s: %v", token, err)
		return RedFlagScan{}
	}
	return ScanSource(code)
}

// ScanSource matches contract source text against the red-flag table.
// Empty source is neutral.
func ScanSource(code string) RedFlagScan {
	if code == "" {
		return RedFlagScan{}
	}

	var flags []string
	for label, pattern := range redFlagPatterns {
		if pattern.MatchString(code) {
			flags = append(flags, label)
		}
	}
	return RedFlagScan{
		Score: float64(flagPenalty * len(flags)),
		Flags: flags,
	}
}
