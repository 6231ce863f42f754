package inmem_test

import (
	"context"
	"testing"

	"github.com/scimdb/scimdb/inmem"
	"github.com/scimdb/scimdb/kv"
	scimdbtesting "github.com/scimdb/scimdb/testing"
)

func initKVStore(f scimdbtesting.KVStoreFields, t *testing.T) (kv.Store, func()) {
	s := inmem.NewKVStore()

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
	if err != nil {
		t.Fatalf("failed to put keys: %v", err)
	}

	return s, func() {}
}

func TestKVStore(t *testing.T) {
	scimdbtesting.KVStore(initKVStore, t)
}
