package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/storage/localfs"
	"xdao.co/ledgertx/storage/testkit"
)

func newReplicated(t *testing.T) storage.ReplicatingCAS {
	t.Helper()
	var rep storage.ReplicatingCAS
	for _, name := range []string{"a", "b"} {
		cas, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("localfs.New: %v", err)
		}
		rep.Backends = append(rep.Backends, storage.NamedCAS{Name: name, CAS: cas})
	}
	return rep
}

func TestReplicating_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return newReplicated(t)
	})
}

func TestReplicating_ReadFallsBack(t *testing.T) {
	ctx := context.Background()
	rep := newReplicated(t)

	// Only the second backend holds the object.
	id, err := rep.Backends[1].CAS.Put(ctx, []byte("only in b"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := rep.Get(ctx, id)
	if err != nil || string(got) != "only in b" {
		t.Fatalf("Get: %q, %v", got, err)
	}
	ok, err := rep.Has(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Has: %v, %v", ok, err)
	}
}

type fixedCIDCAS struct{ storage.CAS }

func (fixedCIDCAS) Put(context.Context, []byte) (cid.Cid, error) {
	return cidutil.Sum([]byte("something else"))
}

func TestReplicating_PutAllDetectsMismatch(t *testing.T) {
	rep := newReplicated(t)
	rep.Backends = append(rep.Backends, storage.NamedCAS{Name: "liar", CAS: fixedCIDCAS{}})

	_, got, err := rep.PutAll(context.Background(), []byte("payload"))
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("PutAll: got %v want ErrCIDMismatch", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected per-backend CIDs for all attempted backends, got %d", len(got))
	}
}

func TestReplicating_NoBackends(t *testing.T) {
	if _, err := (storage.ReplicatingCAS{}).Put(context.Background(), []byte("x")); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("Put: got %v want ErrNoBackends", err)
	}
}
