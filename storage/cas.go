// Package storage defines the content-addressed store that holds encoded
// transactions, plus composition helpers shared by every backend.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a content-addressable blob store keyed by CIDv1 (raw, sha2-256).
//
// Contract:
// - Put is idempotent and returns the CID of exactly the bytes written.
// - Stored objects are immutable; a conflicting write fails with ErrImmutable.
// - Get returns ErrNotFound when the CID is absent and ErrCIDMismatch when
//   the stored bytes no longer hash to the CID.
// - An undefined CID is ErrInvalidCID for Get and false for Has.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
