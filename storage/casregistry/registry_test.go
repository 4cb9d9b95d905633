package casregistry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgertx/storage"
	_ "xdao.co/ledgertx/storage/boltdb"
	"xdao.co/ledgertx/storage/casregistry"
	_ "xdao.co/ledgertx/storage/leveldb"
	_ "xdao.co/ledgertx/storage/localfs"
)

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"bolt", "leveldb", "localfs"}, casregistry.Names())
}

func TestRegisterRejectsDuplicatesAndIncomplete(t *testing.T) {
	assert.Error(t, casregistry.Register(casregistry.Backend{Name: "localfs", Open: func(casregistry.Options) (storage.CAS, func() error, error) { return nil, nil, nil }}))
	assert.Error(t, casregistry.Register(casregistry.Backend{Name: "incomplete"}))
	assert.Error(t, casregistry.Register(casregistry.Backend{}))
}

func TestOpenUnknown(t *testing.T) {
	_, _, err := casregistry.Open("s3", casregistry.Options{Dir: t.TempDir()})
	assert.ErrorContains(t, err, "unknown backend")
}

func TestOpenAllReplicates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	names := []string{"localfs", "leveldb", "bolt"}

	cas, closeFn, err := casregistry.OpenAll(names, dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	rep, ok := cas.(storage.ReplicatingCAS)
	require.True(t, ok, "expected ReplicatingCAS, got %T", cas)

	_, perBackend, err := rep.PutAll(ctx, []byte("replicated"))
	require.NoError(t, err)
	assert.Len(t, perBackend, 3)

	for _, b := range rep.Backends {
		id := perBackend[b.Name]
		got, err := b.CAS.Get(ctx, id)
		require.NoError(t, err, b.Name)
		assert.Equal(t, "replicated", string(got))
	}
}

func TestOpenAllRejectsDuplicates(t *testing.T) {
	_, _, err := casregistry.OpenAll([]string{"localfs", "localfs"}, t.TempDir())
	assert.Error(t, err)

	_, _, err = casregistry.OpenAll(nil, t.TempDir())
	assert.ErrorIs(t, err, storage.ErrNoBackends)
}
