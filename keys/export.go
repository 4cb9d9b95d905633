package keys

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const keyPrefix = "ed25519:"

// String encodes the key as "ed25519:" + base64(key).
func (pub PublicKey) String() string {
	return keyPrefix + base64.StdEncoding.EncodeToString(pub[:])
}

// ParsePublicKey decodes the "ed25519:<base64>" text form.
func ParsePublicKey(s string) (PublicKey, error) {
	var pub PublicKey
	enc, ok := strings.CutPrefix(strings.TrimSpace(s), keyPrefix)
	if !ok {
		return pub, fmt.Errorf("unsupported public key encoding %q", s)
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		// Accept unpadded input too.
		if b, err = base64.RawStdEncoding.DecodeString(enc); err != nil {
			return pub, fmt.Errorf("invalid public key base64: %w", err)
		}
	}
	if l := len(b); l != PublicKeySize {
		return pub, fmt.Errorf("ed25519 public key must be %d bytes, got %d", PublicKeySize, l)
	}
	copy(pub[:], b)
	return pub, nil
}
