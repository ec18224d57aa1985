package solana

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/mr-tron/base58"
)

const wsolMint = "So11111111111111111111111111111111111111112"

func TestDecodeAddress(t *testing.T) {
	raw, err := DecodeAddress(wsolMint)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("decoded length = %d, want 32", len(raw))
	}

	if _, err := DecodeAddress("not-base58!"); err == nil {
		t.Error("expected error for invalid base58")
	}
	if _, err := DecodeAddress("abc"); err == nil {
		t.Error("expected error for short address")
	}
}

func TestValidAddress(t *testing.T) {
	if !ValidAddress(wsolMint) {
		t.Error("known mint should be valid")
	}
	if ValidAddress("") {
		t.Error("empty address should be invalid")
	}
	if ValidAddress("abc") {
		t.Error("short address should be invalid")
	}
}

func TestIsOnCurveForKeypairAddress(t *testing.T) {
	// An ed25519 public key is on the curve by construction.
	pub, _, err := ed25519.GenerateKey(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	address := base58.Encode(pub)
	if !IsOnCurve(address) {
		t.Errorf("keypair address %s should be on-curve", address)
	}
}

func TestIsOnCurveRejectsMalformed(t *testing.T) {
	if IsOnCurve("not-base58!") {
		t.Error("invalid base58 cannot be on-curve")
	}
	if IsOnCurve("abc") {
		t.Error("short address cannot be on-curve")
	}
}
