package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const addressLength = 32

// DecodeAddress decodes a base58 address into its 32 raw bytes.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(raw) != addressLength {
		return nil, fmt.Errorf("address %q is %d bytes, want %d", address, len(raw), addressLength)
	}
	return raw, nil
}

// ValidAddress reports whether address is well-formed base58 of the
// right length. Token mints and program accounts pass this check
// whether or not they are on the curve.
func ValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// IsOnCurve reports whether the address decodes to a point on the
// ed25519 curve. Wallets controlled by a keypair are on-curve;
// program-derived addresses are deliberately off-curve.
func IsOnCurve(address string) bool {
	raw, err := DecodeAddress(address)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
