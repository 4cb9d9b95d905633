// Package testkit holds the behavioural suite every storage.CAS backend must
// pass.
package testkit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
)

// NewCAS returns a fresh, empty CAS isolated from other tests. Backends that
// hold resources register cleanup with t.Cleanup.
type NewCAS func(t *testing.T) storage.CAS

// RunCASConformance runs the shared CAS contract against newCAS.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("signed transaction bytes")

		id, err := cas.Put(ctx, want)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		wantID, err := cidutil.Sum(want)
		if err != nil {
			t.Fatalf("cidutil.Sum: %v", err)
		}
		if !id.Equals(wantID) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if !cidutil.Matches(id, got) {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(1): %v", err)
		}
		id2, err := cas.Put(ctx, b)
		if err != nil {
			t.Fatalf("Put(2): %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.Sum(b)
		if err != nil {
			t.Fatalf("cidutil.Sum: %v", err)
		}

		ok, err := cas.Has(ctx, id)
		if err != nil || ok {
			t.Fatalf("Has before Put: got (%v, %v) want (false, nil)", ok, err)
		}
		if _, err := cas.Get(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get missing: got %v want ErrNotFound", err)
		}

		if _, err := cas.Put(ctx, b); err != nil {
			t.Fatalf("Put: %v", err)
		}
		ok, err = cas.Has(ctx, id)
		if err != nil || !ok {
			t.Fatalf("Has after Put: got (%v, %v) want (true, nil)", ok, err)
		}
	})

	t.Run("EmptyObject", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put(ctx, nil)
		if err != nil {
			t.Fatalf("Put(empty): %v", err)
		}
		got, err := cas.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(empty): %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty object, got %d bytes", len(got))
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if ok, _ := cas.Has(ctx, undef); ok {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(ctx, undef); !errors.Is(err, storage.ErrInvalidCID) {
			t.Fatalf("Get undefined: got %v want ErrInvalidCID", err)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cas := newCAS(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := cas.Put(cctx, []byte("late")); !errors.Is(err, context.Canceled) {
			t.Fatalf("Put with canceled context: got %v want context.Canceled", err)
		}
	})
}
