package storage

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/buger/jsonparser"
	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/keyspace"
	"github.com/scimdb/scimdb/kit/tracing"
	"github.com/scimdb/scimdb/kv"
	errors2 "github.com/scimdb/scimdb/pkg/errors"
)

const (
	changeOpPut    = "put"
	changeOpDelete = "delete"
)

// ChangeEntry records one mutation of a key.
type ChangeEntry struct {
	Op      string
	Version scimdb.VersionToken
	At      time.Time
}

type changeRecord struct {
	Op      string `json:"op"`
	Version string `json:"version,omitempty"`
}

// changeKeyPrefix hashes the primary key to a fixed length so per-key
// entries are contiguous and no key's range is a prefix of another's.
func changeKeyPrefix(pk []byte) []byte {
	h := sha1.Sum(pk)
	return h[:]
}

// encodeChangeKey appends the timestamp big-endian so iteration order
// is chronological. Two writes in the same nanosecond collapse to one
// entry.
func encodeChangeKey(pk []byte, ts int64) []byte {
	prefix := changeKeyPrefix(pk)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(ts))
	return key
}

func decodeChangeTime(k []byte) time.Time {
	ts := int64(binary.BigEndian.Uint64(k[len(k)-8:]))
	return time.Unix(0, ts).UTC()
}

func (e *Engine) appendChange(tx kv.Tx, pk []byte, op string, body []byte) error {
	b, err := tx.Bucket(changelogBucket)
	if err != nil {
		return err
	}

	rec := changeRecord{Op: op}
	if version, err := jsonparser.GetString(body, "meta", "version"); err == nil {
		rec.Version = version
	}

	v, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return b.Put(encodeChangeKey(pk, e.time.Now().UTC().UnixNano()), v)
}

// ChangeLog returns the mutation history of key in chronological order,
// honoring offset, limit and descending options.
func (e *Engine) ChangeLog(ctx context.Context, key keyspace.Key, opts scimdb.FindOptions) (entries []ChangeEntry, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	prefix := changeKeyPrefix(key.Encode())

	err := e.kv.View(ctx, func(tx kv.Tx) (txErr error) {
		b, err := tx.Bucket(changelogBucket)
		if err != nil {
			return err
		}

		seek := prefix
		cursorOpts := []kv.CursorOption{kv.WithCursorPrefix(prefix)}
		if opts.Descending {
			// Timestamp suffixes are non-negative int64s, so a key of
			// all-ones suffix bytes sorts after every entry.
			seek = append(append([]byte(nil), prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
			cursorOpts = append(cursorOpts, kv.WithCursorDirection(kv.CursorDescending))
		}

		cursor, err := b.ForwardCursor(seek, cursorOpts...)
		if err != nil {
			return err
		}
		defer errors2.Capture(&txErr, cursor.Close)()

		count := 0
		for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
			if opts.Offset != 0 && count < opts.Offset {
				count++
				continue
			}

			var rec changeRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}

			entries = append(entries, ChangeEntry{
				Op:      rec.Op,
				Version: scimdb.VersionToken(rec.Version),
				At:      decodeChangeTime(k),
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
