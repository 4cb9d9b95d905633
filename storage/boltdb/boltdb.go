// Package boltdb stores CAS objects in a single bbolt file.
package boltdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ipfs/go-cid"
	"go.etcd.io/bbolt"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
)

// FileName is the database file created inside the backend directory.
const FileName = "objects.bolt"

var bucketObjects = []byte("objects")

type CAS struct {
	db *bbolt.DB
}

var _ storage.CAS = (*CAS)(nil)

// Open opens (or creates) dir/objects.bolt.
func Open(dir string) (*CAS, error) {
	if dir == "" {
		return nil, errors.New("boltdb: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("boltdb: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dir, FileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltdb: open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketObjects)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltdb: create bucket: %w", err)
	}
	return &CAS{db: db}, nil
}

func (c *CAS) Close() error { return c.db.Close() }

// lookup returns a copy of the value under key; ok is false when absent.
// A cursor distinguishes a missing key from an empty value.
func lookup(b *bbolt.Bucket, key []byte) (value []byte, ok bool) {
	k, v := b.Cursor().Seek(key)
	if !bytes.Equal(k, key) {
		return nil, false
	}
	return append([]byte{}, v...), true
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	key := id.Bytes()

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		if existing, ok := lookup(b, key); ok {
			if !bytes.Equal(existing, data) {
				return storage.ErrImmutable
			}
			return nil
		}
		return b.Put(key, data)
	})
	if err != nil {
		if errors.Is(err, storage.ErrImmutable) {
			return cid.Undef, err
		}
		return cid.Undef, fmt.Errorf("boltdb: %w", err)
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
	var (
		out   []byte
		found bool
	)
	err := c.db.View(func(tx *bbolt.Tx) error {
		out, found = lookup(tx.Bucket(bucketObjects), id.Bytes())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltdb: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	if !cidutil.Matches(id, out) {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		_, found = lookup(tx.Bucket(bucketObjects), id.Bytes())
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("boltdb: %w", err)
	}
	return found, nil
}
