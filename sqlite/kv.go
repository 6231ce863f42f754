// Package sqlite implements a kv.Store on a single sqlite table, for
// deployments that want resource data living next to relational data.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/scimdb/scimdb/kv"
	"go.uber.org/zap"
)

// DefaultFilename is the name of the sqlite database file created when
// only a directory is configured.
const DefaultFilename = "scimdb.sqlite"

const kvTableName = "kv"

// KVStore is a kv.Store backed by a single sqlite table of
// (bucket, key, value) rows.
type KVStore struct {
	db   *sqlx.DB
	path string
	log  *zap.Logger
}

// NewKVStore opens (creating if necessary) the sqlite database at path.
// The special path ":memory:" opens a transient in-memory database.
func NewKVStore(path string, log *zap.Logger) (*KVStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db %q: %w", path, err)
	}

	// sqlite allows a single writer. Constraining the pool to one
	// connection serializes transactions instead of surfacing busy
	// errors to callers.
	db.SetMaxOpenConns(1)

	s := &KVStore{
		db:   db,
		path: path,
		log:  log,
	}

	if err := s.createSchema(); err != nil {
		s.Close()
		return nil, err
	}

	s.log.Info("Resources opened", zap.String("path", s.path))
	return s, nil
}

func (s *KVStore) createSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	bucket BLOB NOT NULL,
	key    BLOB NOT NULL,
	value  BLOB NOT NULL,
	PRIMARY KEY (bucket, key)
)`, kvTableName))
	return err
}

// Close the connection to the sqlite database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Flush removes all rows, leaving the schema in place.
func (s *KVStore) Flush(ctx context.Context) {
	_, _ = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, kvTableName))
}

// View opens up a transaction that will not write to any data.
func (s *KVStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	return fn(&Tx{
		tx:       tx,
		writable: false,
		ctx:      ctx,
	})
}

// Update opens up a transaction that will mutate data.
func (s *KVStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&Tx{
		tx:       tx,
		writable: true,
		ctx:      ctx,
	}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Tx wraps an sqlite transaction. It implements kv.Tx.
type Tx struct {
	tx       *sqlx.Tx
	writable bool
	ctx      context.Context
}

// Context returns the context for the transaction.
func (t *Tx) Context() context.Context {
	return t.ctx
}

// WithContext sets the context for the transaction.
func (t *Tx) WithContext(ctx context.Context) {
	t.ctx = ctx
}

// Bucket returns a view over the rows sharing the provided bucket name.
// Buckets need no creation, an unknown name reads as empty.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	return &Bucket{
		tx:       t.tx,
		name:     append([]byte(nil), b...),
		writable: t.writable,
	}, nil
}

// Bucket implements kv.Bucket over rows of the kv table.
type Bucket struct {
	tx       *sqlx.Tx
	name     []byte
	writable bool
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.tx.QueryRowx(
		fmt.Sprintf(`SELECT value FROM %s WHERE bucket = ? AND key = ?`, kvTableName),
		b.name, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

// GetBatch retrieves the values for the provided keys. A nil value is
// left at the index of any key not present.
func (b *Bucket) GetBatch(keys ...[]byte) ([][]byte, error) {
	values := make([][]byte, len(keys))
	for idx, key := range keys {
		value, err := b.Get(key)
		if err == kv.ErrKeyNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		values[idx] = value
	}

	return values, nil
}

// Put sets the value at the provided key.
func (b *Bucket) Put(key, value []byte) error {
	if !b.writable {
		return kv.ErrTxNotWritable
	}

	_, err := b.tx.Exec(
		fmt.Sprintf(`INSERT INTO %s (bucket, key, value) VALUES (?, ?, ?)
ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value`, kvTableName),
		b.name, key, value,
	)
	return err
}

// Delete removes the provided key.
func (b *Bucket) Delete(key []byte) error {
	if !b.writable {
		return kv.ErrTxNotWritable
	}

	_, err := b.tx.Exec(
		fmt.Sprintf(`DELETE FROM %s WHERE bucket = ? AND key = ?`, kvTableName),
		b.name, key,
	)
	return err
}

// Cursor creates a static cursor from all entries in the bucket.
func (b *Bucket) Cursor() (kv.Cursor, error) {
	pairs, err := b.queryPairs(
		fmt.Sprintf(`SELECT key, value FROM %s WHERE bucket = ? ORDER BY key`, kvTableName),
		b.name,
	)
	if err != nil {
		return nil, err
	}

	return kv.NewStaticCursor(pairs), nil
}

// ForwardCursor returns a directional cursor over the bucket contents
// starting at the seek position.
func (b *Bucket) ForwardCursor(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error) {
	config := kv.NewCursorConfig(opts...)
	if config.Prefix != nil && !bytes.HasPrefix(seek, config.Prefix) {
		return nil, kv.ErrSeekMissingPrefix
	}

	var (
		pairs []kv.Pair
		err   error
	)
	if config.Direction == kv.CursorDescending {
		if len(seek) == 0 {
			pairs, err = b.queryPairs(
				fmt.Sprintf(`SELECT key, value FROM %s WHERE bucket = ? ORDER BY key DESC`, kvTableName),
				b.name,
			)
		} else {
			pairs, err = b.queryPairs(
				fmt.Sprintf(`SELECT key, value FROM %s WHERE bucket = ? AND key <= ? ORDER BY key DESC`, kvTableName),
				b.name, seek,
			)
		}
	} else {
		pairs, err = b.queryPairs(
			fmt.Sprintf(`SELECT key, value FROM %s WHERE bucket = ? AND key >= ? ORDER BY key`, kvTableName),
			b.name, seek,
		)
	}
	if err != nil {
		return nil, err
	}

	if config.Prefix != nil {
		bounded := pairs[:0]
		for _, pair := range pairs {
			if !bytes.HasPrefix(pair.Key, config.Prefix) {
				break
			}
			bounded = append(bounded, pair)
		}
		pairs = bounded
	}

	if config.SkipFirst && len(pairs) > 0 {
		pairs = pairs[1:]
	}

	if config.Limit != nil && len(pairs) > *config.Limit {
		pairs = pairs[:*config.Limit]
	}

	return &forwardCursor{pairs: pairs}, nil
}

func (b *Bucket) queryPairs(query string, args ...interface{}) ([]kv.Pair, error) {
	rows, err := b.tx.Queryx(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []kv.Pair
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		pairs = append(pairs, kv.Pair{Key: key, Value: value})
	}

	return pairs, rows.Err()
}

// forwardCursor is a kv.ForwardCursor over a queried snapshot of rows.
type forwardCursor struct {
	idx   int
	pairs []kv.Pair
}

// Next returns the next pair in the snapshot.
func (c *forwardCursor) Next() ([]byte, []byte) {
	if c.idx >= len(c.pairs) {
		return nil, nil
	}

	pair := c.pairs[c.idx]
	c.idx++

	return pair.Key, pair.Value
}

// Err always returns nil, iteration happened during the query.
func (c *forwardCursor) Err() error {
	return nil
}

// Close is a no-op for the snapshot cursor.
func (c *forwardCursor) Close() error {
	return nil
}
