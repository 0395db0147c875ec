package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// SignerKeyFromSeed returns the signer key string for an Ed25519 seed.
//
// Format: "ed25519:" + base64(pubkey).
func SignerKeyFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// ParseSignerKey decodes a signer key string back into an Ed25519 public key.
func ParseSignerKey(signerKey string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if len(signerKey) <= len(prefix) || signerKey[:len(prefix)] != prefix {
		return nil, errors.New(`signer key must start with "ed25519:"`)
	}
	raw, err := base64.StdEncoding.DecodeString(signerKey[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("invalid base64 in signer key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from
// a root seed. The derivation is stable across releases; changing it would
// orphan every derived key.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("canonval-kms-lite-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
