// Package hash provides the fixed-size digest used as a ledger freshness marker.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the byte length of a Hash.
const Size = sha256.Size

// Hash is a SHA-256 digest. The zero value is the default marker.
type Hash [Size]byte

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// Extend returns Sum(id || data). Ledgers chain freshness markers with it.
func Extend(id Hash, data []byte) Hash {
	h := sha256.New()
	_, _ = h.Write(id[:])
	_, _ = h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether h is the default value.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Parse decodes a hex-encoded hash. An optional 0x prefix is accepted.
func Parse(s string) (Hash, error) {
	var out Hash
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	if len(b) != Size {
		return out, fmt.Errorf("hash: expected %d bytes, got %d", Size, len(b))
	}
	copy(out[:], b)
	return out, nil
}
