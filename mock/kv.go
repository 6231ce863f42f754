package mock

import (
	"context"

	"github.com/scimdb/scimdb/kv"
)

var _ (kv.Store) = (*Store)(nil)

// Store is a mock kv.Store
type Store struct {
	ViewFn   func(func(kv.Tx) error) error
	UpdateFn func(func(kv.Tx) error) error
}

// View opens up a transaction that will not write to any data. Implementing interfaces
// should take care to ensure that all view transactions do not mutate any data.
func (s *Store) View(ctx context.Context, fn func(kv.Tx) error) error {
	return s.ViewFn(fn)
}

// Update opens up a transaction that will mutate data.
func (s *Store) Update(ctx context.Context, fn func(kv.Tx) error) error {
	return s.UpdateFn(fn)
}

var _ (kv.Tx) = (*Tx)(nil)

// Tx is mock of a kv.Tx.
type Tx struct {
	BucketFn      func(b []byte) (kv.Bucket, error)
	ContextFn     func() context.Context
	WithContextFn func(ctx context.Context)
}

// Bucket possibly creates and returns bucket, b.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	return t.BucketFn(b)
}

// Context returns the context associated with this Tx.
func (t *Tx) Context() context.Context {
	return t.ContextFn()
}

// WithContext associates a context with this Tx.
func (t *Tx) WithContext(ctx context.Context) {
	t.WithContextFn(ctx)
}

var _ (kv.Bucket) = (*Bucket)(nil)

// Bucket is the abstraction used to perform get/put/delete/get-many operations
// in a key value store.
type Bucket struct {
	GetFn           func(key []byte) ([]byte, error)
	GetBatchFn      func(keys ...[]byte) ([][]byte, error)
	CursorFn        func() (kv.Cursor, error)
	PutFn           func(key, value []byte) error
	DeleteFn        func(key []byte) error
	ForwardCursorFn func(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error)
}

// Get returns the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	return b.GetFn(key)
}

// GetBatch returns the values at the provided keys.
func (b *Bucket) GetBatch(keys ...[]byte) ([][]byte, error) {
	return b.GetBatchFn(keys...)
}

// Cursor returns a cursor at the start of this bucket.
func (b *Bucket) Cursor() (kv.Cursor, error) {
	return b.CursorFn()
}

// Put puts the provided key and value in the bucket.
func (b *Bucket) Put(key, value []byte) error {
	return b.PutFn(key, value)
}

// Delete removes the key from the bucket.
func (b *Bucket) Delete(key []byte) error {
	return b.DeleteFn(key)
}

// ForwardCursor returns a directional cursor starting at seek.
func (b *Bucket) ForwardCursor(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error) {
	return b.ForwardCursorFn(seek, opts...)
}
