package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const roleSeedInfo = "xdao-ledgertx-role-v1"

// DeriveRoleSeed deterministically derives a role-specific seed from a root seed
// using HKDF-SHA256.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	r := hkdf.New(sha256.New, rootSeed, []byte("role:"+role), []byte(roleSeedInfo))
	out := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("kdf: %w", err)
	}
	return out, nil
}

// PublicKeyFromSeed returns the public key for an Ed25519 seed.
func PublicKeyFromSeed(seed []byte) (PublicKey, error) {
	kp, err := NewKeyPairFromSeed(seed)
	if err != nil {
		return PublicKey{}, err
	}
	return kp.Pubkey(), nil
}
