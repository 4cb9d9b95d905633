package localfs

import (
	"context"
	"errors"
	"os"
	"testing"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return cas
	})
}

func TestLocalFS_RequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestLocalFS_DetectsOutOfBandCorruption(t *testing.T) {
	ctx := context.Background()
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	orig := []byte("original")
	id, err := cas.Put(ctx, orig)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := cas.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := cas.Get(ctx, id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get after corruption: got %v want ErrCIDMismatch", err)
	}
	// Put must not repair the corrupted object.
	if _, err := cas.Put(ctx, orig); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want ErrImmutable", err)
	}
	if !cidutil.Matches(id, orig) {
		t.Fatalf("CID no longer matches original bytes")
	}
}
