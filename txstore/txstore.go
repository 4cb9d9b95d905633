// Package txstore persists signed transactions in a content-addressed store.
//
// Only transactions that pass Check are written, and every read decodes and
// re-checks what the store returned.
package txstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/transaction"
)

type Store struct {
	cas    storage.CAS
	logger *slog.Logger
}

// New wraps cas. A nil logger uses slog.Default().
func New(cas storage.CAS, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cas: cas, logger: logger}
}

// Put verifies tr and stores its canonical encoding. A transaction that fails
// Check is not written; the returned error carries its RuleID.
func (s *Store) Put(ctx context.Context, tr *transaction.Transaction) (cid.Cid, error) {
	if err := tr.Check(); err != nil {
		s.logger.Warn("rejected transaction", "rule", transaction.RuleID(err), "error", err)
		return cid.Undef, err
	}
	id, err := s.cas.Put(ctx, tr.Marshal())
	if err != nil {
		return cid.Undef, fmt.Errorf("txstore: put: %w", err)
	}
	s.logger.Debug("stored transaction", "cid", id.String(), "tokens", tr.Tokens)
	return id, nil
}

// Get loads and decodes the transaction stored under id. A stored object that
// no longer verifies is reported as an error.
func (s *Store) Get(ctx context.Context, id cid.Cid) (*transaction.Transaction, error) {
	b, err := s.cas.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("txstore: get %s: %w", id, err)
	}
	tr, err := transaction.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("txstore: decode %s: %w", id, err)
	}
	if err := tr.Check(); err != nil {
		return nil, fmt.Errorf("txstore: stored %s: %w", id, err)
	}
	return tr, nil
}

// GetRaw returns the stored encoding without decoding it.
func (s *Store) GetRaw(ctx context.Context, id cid.Cid) ([]byte, error) {
	return s.cas.Get(ctx, id)
}

// Has reports whether id is present.
func (s *Store) Has(ctx context.Context, id cid.Cid) (bool, error) {
	return s.cas.Has(ctx, id)
}

// Load returns the transactions for ids in order, failing on the first miss.
func (s *Store) Load(ctx context.Context, ids []cid.Cid) ([]*transaction.Transaction, error) {
	out := make([]*transaction.Transaction, 0, len(ids))
	for _, id := range ids {
		tr, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}
