// Package storage implements the tenant-scoped keyed engine the
// resource service is built on. Values are opaque JSON documents
// addressed by keyspace keys; every read and write happens inside a
// kv transaction so the attribute index and the change log stay
// consistent with the primary record.
package storage

import (
	"bytes"
	"context"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/keyspace"
	"github.com/scimdb/scimdb/kit/tracing"
	"github.com/scimdb/scimdb/kv"
	errors2 "github.com/scimdb/scimdb/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	resourceBucket  = []byte("resourcesv1")
	attrIndexBucket = []byte("resourceattrindexv1")
	changelogBucket = []byte("resourcechangelogv1")
)

// Entry is a decoded key and the value stored under it.
type Entry struct {
	Key   keyspace.Key
	Value []byte
}

// Engine is the keyed storage engine. All methods are safe for
// concurrent use; per-key atomicity comes from the underlying store's
// single-writer update transactions.
type Engine struct {
	kv   kv.Store
	log  *zap.Logger
	time scimdb.TimeGenerator

	indexDisabled bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for index diagnostics.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTimeGenerator sets the time source for change-log entries.
func WithTimeGenerator(g scimdb.TimeGenerator) EngineOption {
	return func(e *Engine) {
		e.time = g
	}
}

// DisableIndex turns off attribute index maintenance and lookups.
// FindByAttribute always takes the full-scan path on an engine with the
// index disabled.
func DisableIndex() EngineOption {
	return func(e *Engine) {
		e.indexDisabled = true
	}
}

// NewEngine returns an Engine on top of the provided store. Call
// Initialize before issuing operations.
func NewEngine(store kv.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		kv:   store,
		log:  zap.NewNop(),
		time: scimdb.RealTimeGenerator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Initialize creates the engine's buckets so read-only transactions can
// open them on every backend.
func (e *Engine) Initialize(ctx context.Context) error {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	return e.kv.Update(ctx, func(tx kv.Tx) error {
		for _, bucket := range [][]byte{resourceBucket, attrIndexBucket, changelogBucket} {
			if _, err := tx.Bucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put stores value at key, replacing any previous value. The attribute
// index and the change log are updated in the same transaction. The
// stored bytes are returned.
func (e *Engine) Put(ctx context.Context, key keyspace.Key, value []byte) (stored []byte, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pk := key.Encode()

	err := e.kv.Update(ctx, func(tx kv.Tx) error {
		old, _, err := getCurrent(tx, pk)
		if err != nil {
			return err
		}

		return e.putInTx(tx, key, pk, old, value)
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Get returns the value stored at key, or ErrKeyNotFound.
func (e *Engine) Get(ctx context.Context, key keyspace.Key) (value []byte, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pk := key.Encode()

	err := e.kv.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(resourceBucket)
		if err != nil {
			return err
		}

		v, err := b.Get(pk)
		if kv.IsNotFound(err) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}

		// Backend buffers are only valid for the life of the
		// transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Delete removes the value at key and reports whether one existed.
// Index entries are removed and a change-log entry appended in the same
// transaction.
func (e *Engine) Delete(ctx context.Context, key keyspace.Key) (existed bool, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pk := key.Encode()

	err := e.kv.Update(ctx, func(tx kv.Tx) error {
		old, found, err := getCurrent(tx, pk)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		existed = true
		return e.deleteInTx(tx, key, pk, old)
	})
	if err != nil {
		return false, err
	}

	return existed, nil
}

// Exists reports whether a value is stored at key.
func (e *Engine) Exists(ctx context.Context, key keyspace.Key) (exists bool, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pk := key.Encode()

	err := e.kv.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(resourceBucket)
		if err != nil {
			return err
		}

		_, err = b.Get(pk)
		if kv.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		exists = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Count returns the number of values stored under prefix.
func (e *Engine) Count(ctx context.Context, prefix keyspace.Prefix) (n int, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pfx := prefix.Encode()

	err := e.kv.View(ctx, func(tx kv.Tx) (txErr error) {
		b, err := tx.Bucket(resourceBucket)
		if err != nil {
			return err
		}

		cursor, err := b.ForwardCursor(pfx, kv.WithCursorPrefix(pfx))
		if err != nil {
			return err
		}
		defer errors2.Capture(&txErr, cursor.Close)()

		for k, _ := cursor.Next(); k != nil; k, _ = cursor.Next() {
			n++
		}

		return cursor.Err()
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// List returns the entries stored under prefix ordered by encoded key,
// honoring offset, limit and descending options. The order is stable
// for an unmodified snapshot.
func (e *Engine) List(ctx context.Context, prefix keyspace.Prefix, opts scimdb.FindOptions) (entries []Entry, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pfx := prefix.Encode()

	err := e.kv.View(ctx, func(tx kv.Tx) (txErr error) {
		b, err := tx.Bucket(resourceBucket)
		if err != nil {
			return err
		}

		seek := pfx
		cursorOpts := []kv.CursorOption{kv.WithCursorPrefix(pfx)}
		if opts.Descending {
			// The prefix option rejects a seek outside the prefix, so
			// the descending scan seeks the end bound and checks the
			// prefix by hand.
			seek = prefixSeekEnd(pfx)
			cursorOpts = []kv.CursorOption{kv.WithCursorDirection(kv.CursorDescending)}
		}

		cursor, err := b.ForwardCursor(seek, cursorOpts...)
		if err != nil {
			return err
		}
		defer errors2.Capture(&txErr, cursor.Close)()

		count := 0
		for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
			if opts.Descending && !bytes.HasPrefix(k, pfx) {
				break
			}

			if opts.Offset != 0 && count < opts.Offset {
				count++
				continue
			}

			key, err := keyspace.DecodeKey(k)
			if err != nil {
				continue
			}

			entries = append(entries, Entry{
				Key:   key,
				Value: append([]byte(nil), v...),
			})

			if opts.Limit != 0 && len(entries) >= opts.Limit {
				break
			}
		}

		return cursor.Err()
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Apply runs fn against the current value at key inside a single update
// transaction and stores its result. fn receives the current value and
// whether one exists; returning nil bytes deletes the key. This is the
// read-modify-write primitive conditional operations are built on: two
// concurrent Applies on the same key are serialized, so at most one can
// observe any given prior state.
func (e *Engine) Apply(ctx context.Context, key keyspace.Key, fn func(current []byte, found bool) ([]byte, error)) (stored []byte, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	pk := key.Encode()

	err := e.kv.Update(ctx, func(tx kv.Tx) error {
		current, found, err := getCurrent(tx, pk)
		if err != nil {
			return err
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		if next == nil {
			if found {
				return e.deleteInTx(tx, key, pk, current)
			}
			return nil
		}

		stored = next
		return e.putInTx(tx, key, pk, current, next)
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func getCurrent(tx kv.Tx, pk []byte) (value []byte, found bool, err error) {
	b, err := tx.Bucket(resourceBucket)
	if err != nil {
		return nil, false, err
	}

	v, err := b.Get(pk)
	if kv.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return append([]byte(nil), v...), true, nil
}

func (e *Engine) putInTx(tx kv.Tx, key keyspace.Key, pk, old, value []byte) error {
	b, err := tx.Bucket(resourceBucket)
	if err != nil {
		return err
	}

	if err := b.Put(pk, value); err != nil {
		return err
	}

	if !e.indexDisabled {
		if err := e.updateIndex(tx, key, pk, old, value); err != nil {
			return err
		}
	}

	return e.appendChange(tx, pk, changeOpPut, value)
}

func (e *Engine) deleteInTx(tx kv.Tx, key keyspace.Key, pk, old []byte) error {
	b, err := tx.Bucket(resourceBucket)
	if err != nil {
		return err
	}

	if err := b.Delete(pk); err != nil {
		return err
	}

	var cleanupErr error
	if !e.indexDisabled {
		cleanupErr = e.removeIndexEntries(tx, key, pk, old)
	}
	cleanupErr = multierr.Append(cleanupErr, e.appendChange(tx, pk, changeOpDelete, old))

	return cleanupErr
}

// prefixSeekEnd returns the smallest byte string greater than every key
// under the encoded prefix. Encoded prefixes always end in the
// separator byte, so bumping the final byte is exact.
func prefixSeekEnd(pfx []byte) []byte {
	end := append([]byte(nil), pfx...)
	end[len(end)-1]++
	return end
}
