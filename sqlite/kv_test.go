package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/scimdb/scimdb/kv"
	scimdbtesting "github.com/scimdb/scimdb/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func NewTestStore(t *testing.T) *KVStore {
	t.Helper()

	store, err := NewKVStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func initKVStore(f scimdbtesting.KVStoreFields, t *testing.T) (kv.Store, func()) {
	s := NewTestStore(t)

	err := s.Update(context.Background(), func(tx kv.Tx) error {
		b, err := tx.Bucket(f.Bucket)
		if err != nil {
			return err
		}

		for _, p := range f.Pairs {
			if err := b.Put(p.Key, p.Value); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	return s, func() {}
}

func TestKVStore(t *testing.T) {
	scimdbtesting.KVStore(initKVStore, t)
}

func TestFlush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTestStore(t)

	err := store.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("bucket"))
		if err != nil {
			return err
		}
		return b.Put([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)

	store.Flush(ctx)

	var count int
	require.NoError(t, store.db.Get(&count, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, kvTableName)))
	require.Equal(t, 0, count)
}

func TestPersistence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultFilename)

	store, err := NewKVStore(path, zap.NewNop())
	require.NoError(t, err)

	err = store.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("bucket"))
		if err != nil {
			return err
		}
		return b.Put([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewKVStore(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	err = reopened.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("bucket"))
		if err != nil {
			return err
		}

		val, err := b.Get([]byte("key"))
		if err != nil {
			return err
		}

		require.Equal(t, []byte("value"), val)
		return nil
	})
	require.NoError(t, err)
}
