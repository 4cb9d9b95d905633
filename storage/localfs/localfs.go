// Package localfs stores CAS objects as read-only files in a directory tree.
package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
)

// CAS keeps each object at <root>/<first two CID chars>/<CID>.
//
// Objects are written to a temporary file and linked into place, so a reader
// never observes a partial object.
type CAS struct {
	root string
}

var _ storage.CAS = (*CAS)(nil)

// New returns a CAS rooted at root, creating the directory if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: %w", err)
	}
	return &CAS{root: root}, nil
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return id, c.checkExisting(path, data)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o444); err != nil {
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}

	// Link fails if another writer got there first; that object must match.
	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return id, c.checkExisting(path, data)
		}
		return cid.Undef, fmt.Errorf("localfs: %w", err)
	}
	return id, nil
}

func (c *CAS) checkExisting(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(existing, data) {
		return storage.ErrImmutable
	}
	return nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("localfs: %w", err)
	}
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(c.pathFor(id))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("localfs: %w", err)
	}
}

func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	return filepath.Join(c.root, s[:2], s)
}
