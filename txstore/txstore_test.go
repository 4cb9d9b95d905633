package txstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgertx/hash"
	"xdao.co/ledgertx/keys"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/storage/localfs"
	"xdao.co/ledgertx/transaction"
)

func newStore(t *testing.T) (*Store, storage.CAS) {
	t.Helper()
	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	return New(cas, slog.New(slog.NewJSONHandler(io.Discard, nil))), cas
}

func keypair(t *testing.T, b byte) *keys.KeyPair {
	t.Helper()
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	kp, err := keys.NewKeyPairFromSeed(seed)
	require.NoError(t, err)
	return kp
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice := keypair(t, 1)
	tr := transaction.New(alice, keypair(t, 2).Pubkey(), 42, hash.Sum([]byte("seed")))

	id, err := s.Put(ctx, tr)
	require.NoError(t, err)

	want, err := tr.ID()
	require.NoError(t, err)
	assert.True(t, id.Equals(want))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tr.Marshal(), got.Marshal())

	ok, err := s.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := s.Load(ctx, []cid.Cid{id, id})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPutRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	alice := keypair(t, 1)
	tr := transaction.New(alice, alice.Pubkey(), 42, hash.Hash{})
	tr.Tokens = 1_000_000

	_, err := s.Put(ctx, tr)
	assert.True(t, transaction.IsKind(err, transaction.KindSignature))

	id, err := tr.ID()
	require.NoError(t, err)
	ok, err := s.Has(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "rejected transaction must not be stored")
}

func TestGetRejectsUndecodableObject(t *testing.T) {
	ctx := context.Background()
	s, cas := newStore(t)

	id, err := cas.Put(ctx, []byte("not a transaction"))
	require.NoError(t, err)

	_, err = s.Get(ctx, id)
	assert.True(t, transaction.IsKind(err, transaction.KindEncoding), "got %v", err)

	raw, err := s.GetRaw(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "not a transaction", string(raw))
}

func TestGetMissing(t *testing.T) {
	s, _ := newStore(t)
	id, err := transaction.New(keypair(t, 1), keypair(t, 2).Pubkey(), 1, hash.Hash{}).ID()
	require.NoError(t, err)

	_, err = s.Get(context.Background(), id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
