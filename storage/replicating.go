package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
)

// NamedCAS pairs a backend with the name it was opened under.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes every object to all backends and reads from the
// first backend that has it, in slice order.
//
// Callers fix the order; reads never depend on map iteration.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = ReplicatingCAS{}

// PutAll writes data to every backend and returns the CID each one reported.
// Any backend that reports a different CID than the one computed from data
// fails the write with ErrCIDMismatch.
func (r ReplicatingCAS) PutAll(ctx context.Context, data []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	want, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, nil, err
	}

	got := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, got, fmt.Errorf("storage: backend %q is nil", b.Name)
		}
		id, err := b.CAS.Put(ctx, data)
		if err != nil {
			return cid.Undef, got, fmt.Errorf("storage: put to %q: %w", b.Name, err)
		}
		got[b.Name] = id
		if !id.Equals(want) {
			return cid.Undef, got, ErrCIDMismatch
		}
	}
	return want, got, nil
}

func (r ReplicatingCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, data)
	return id, err
}

// Get returns the first hit. ErrNotFound from a backend moves on to the next
// one; any other error stops the search.
func (r ReplicatingCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	for _, b := range r.Backends {
		data, err := b.CAS.Get(ctx, id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("storage: get from %q: %w", b.Name, err)
		}
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	for _, b := range r.Backends {
		ok, err := b.CAS.Has(ctx, id)
		if err != nil {
			return false, fmt.Errorf("storage: has on %q: %w", b.Name, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
