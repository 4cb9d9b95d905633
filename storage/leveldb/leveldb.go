// Package leveldb stores CAS objects in a goleveldb database keyed by the
// binary CID.
package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
)

type CAS struct {
	db *leveldb.DB
}

var _ storage.CAS = (*CAS)(nil)

// Open opens (or creates) the database in dir.
func Open(dir string) (*CAS, error) {
	if dir == "" {
		return nil, errors.New("leveldb: directory is required")
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("leveldb: open %s: %w", dir, err)
	}
	return &CAS{db: db}, nil
}

func (c *CAS) Close() error { return c.db.Close() }

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	key := id.Bytes()

	existing, err := c.db.Get(key, nil)
	switch {
	case err == nil:
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	case !errors.Is(err, leveldb.ErrNotFound):
		return cid.Undef, fmt.Errorf("leveldb: %w", err)
	}

	if err := c.db.Put(key, data, &opt.WriteOptions{Sync: true}); err != nil {
		return cid.Undef, fmt.Errorf("leveldb: %w", err)
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := c.db.Get(id.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("leveldb: %w", err)
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
	ok, err := c.db.Has(id.Bytes(), nil)
	if err != nil {
		return false, fmt.Errorf("leveldb: %w", err)
	}
	return ok, nil
}
