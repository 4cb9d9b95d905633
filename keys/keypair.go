package keys

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
)

const (
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
	SeedSize      = ed25519.SeedSize
)

// PublicKey identifies an account. The zero value is the default key.
type PublicKey [PublicKeySize]byte

// Signature is a detached Ed25519 signature. The zero value is the unsigned marker.
type Signature [SignatureSize]byte

// KeyPair holds Ed25519 signing material.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// NewKeyPair generates a key pair from rand.
func NewKeyPair(rand io.Reader) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	kp := &KeyPair{priv: priv}
	copy(kp.pub[:], pub)
	return kp, nil
}

// NewKeyPairFromSeed derives a key pair from a 32-byte seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	kp := &KeyPair{priv: priv}
	copy(kp.pub[:], priv.Public().(ed25519.PublicKey))
	return kp, nil
}

// Pubkey returns the public half of the pair.
func (kp *KeyPair) Pubkey() PublicKey { return kp.pub }

// Seed returns a copy of the private seed.
func (kp *KeyPair) Seed() []byte { return append([]byte(nil), kp.priv.Seed()...) }

// Sign signs message.
func (kp *KeyPair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.priv, message))
	return sig
}

// Verify reports whether sig is a valid signature of message by pub.
func (sig Signature) Verify(pub PublicKey, message []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:])
}

// IsZero reports whether sig is the unsigned default.
func (sig Signature) IsZero() bool { return sig == Signature{} }
