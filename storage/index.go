package storage

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/scimdb/scimdb/keyspace"
	"github.com/scimdb/scimdb/kit/tracing"
	"github.com/scimdb/scimdb/kv"
	errors2 "github.com/scimdb/scimdb/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// The attribute index maps
//
//	tenant 0x1f type 0x1f attr 0x1f foldedValue 0x1f primaryKey -> primaryKey
//
// for every top-level string attribute of a stored document. Matching
// is case-folded. Attribute values may themselves contain the separator
// byte, so an index scan can produce false hits; every hit is verified
// against the primary record before being returned, which also filters
// entries whose document changed or vanished.

// foldValue normalizes an attribute value for matching. A fresh Caser
// per call, they are stateful and not safe for concurrent use.
func foldValue(s string) string {
	return cases.Fold().String(s)
}

// stringAttributes returns the folded top-level string attributes of a
// stored document.
func stringAttributes(body []byte) map[string]string {
	attrs := map[string]string{}
	if len(body) == 0 {
		return attrs
	}

	_ = jsonparser.ObjectEach(body, func(k, v []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.String {
			return nil
		}

		parsed, err := jsonparser.ParseString(v)
		if err != nil {
			return nil
		}

		attrs[string(k)] = foldValue(parsed)
		return nil
	}, "attributes")

	return attrs
}

// attributeMatches reports whether the document's attribute folds to
// foldedWant.
func attributeMatches(body []byte, attr, foldedWant string) bool {
	v, err := jsonparser.GetString(body, "attributes", attr)
	if err != nil {
		return false
	}

	return foldValue(v) == foldedWant
}

func indexKeyPrefix(prefix keyspace.Prefix, attr, foldedValue string) []byte {
	b := prefix.Encode()
	b = append(b, attr...)
	b = append(b, keyspace.Separator)
	b = append(b, foldedValue...)
	b = append(b, keyspace.Separator)
	return b
}

func indexEntryKey(key keyspace.Key, attr, foldedValue string) []byte {
	b := indexKeyPrefix(key.Prefix(), attr, foldedValue)
	return append(b, key.Encode()...)
}

// updateIndex diffs the indexed attributes of the old and new document
// and applies only the changes.
func (e *Engine) updateIndex(tx kv.Tx, key keyspace.Key, pk, old, value []byte) error {
	idx, err := tx.Bucket(attrIndexBucket)
	if err != nil {
		return err
	}

	oldAttrs := stringAttributes(old)
	newAttrs := stringAttributes(value)

	for attr, folded := range oldAttrs {
		if newAttrs[attr] == folded {
			continue
		}
		if err := idx.Delete(indexEntryKey(key, attr, folded)); err != nil {
			return err
		}
	}

	for attr, folded := range newAttrs {
		if v, ok := oldAttrs[attr]; ok && v == folded {
			continue
		}
		if err := idx.Put(indexEntryKey(key, attr, folded), pk); err != nil {
			return err
		}
	}

	return nil
}

// removeIndexEntries drops all index entries derived from the deleted
// document, aggregating cleanup failures.
func (e *Engine) removeIndexEntries(tx kv.Tx, key keyspace.Key, pk, old []byte) error {
	idx, err := tx.Bucket(attrIndexBucket)
	if err != nil {
		return err
	}

	var cleanupErr error
	for attr, folded := range stringAttributes(old) {
		if err := idx.Delete(indexEntryKey(key, attr, folded)); err != nil {
			cleanupErr = multierr.Append(cleanupErr, err)
		}
	}

	return cleanupErr
}

// FindByAttribute returns the entries under prefix whose top-level
// attribute folds equal to value. The attribute index is consulted
// first; if it yields nothing, or indexing is disabled, the engine
// falls back to a full prefix scan.
func (e *Engine) FindByAttribute(ctx context.Context, prefix keyspace.Prefix, attr, value string) (entries []Entry, retErr error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	defer func() { retErr = ErrInternalServiceError(retErr) }()

	folded := foldValue(value)

	err := e.kv.View(ctx, func(tx kv.Tx) error {
		if !e.indexDisabled {
			found, err := e.findByIndex(tx, prefix, attr, folded)
			if err != nil {
				return err
			}
			if len(found) > 0 {
				entries = found
				return nil
			}
		}

		found, err := e.findByScan(tx, prefix, attr, folded)
		if err != nil {
			return err
		}
		entries = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (e *Engine) findByIndex(tx kv.Tx, prefix keyspace.Prefix, attr, folded string) (entries []Entry, retErr error) {
	idx, err := tx.Bucket(attrIndexBucket)
	if err != nil {
		return nil, err
	}

	ikPrefix := indexKeyPrefix(prefix, attr, folded)

	cursor, err := idx.ForwardCursor(ikPrefix, kv.WithCursorPrefix(ikPrefix))
	if err != nil {
		return nil, err
	}
	defer errors2.Capture(&retErr, cursor.Close)()

	var pks [][]byte
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		pks = append(pks, append([]byte(nil), v...))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(pks) == 0 {
		return nil, nil
	}

	b, err := tx.Bucket(resourceBucket)
	if err != nil {
		return nil, err
	}

	values, err := b.GetBatch(pks...)
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		if v == nil {
			e.log.Debug("Skipping index entry without a primary record", zap.ByteString("key", pks[i]))
			continue
		}
		if !attributeMatches(v, attr, folded) {
			e.log.Debug("Skipping stale index entry", zap.ByteString("key", pks[i]))
			continue
		}

		key, err := keyspace.DecodeKey(pks[i])
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Key:   key,
			Value: append([]byte(nil), v...),
		})
	}

	return entries, nil
}

func (e *Engine) findByScan(tx kv.Tx, prefix keyspace.Prefix, attr, folded string) (entries []Entry, retErr error) {
	b, err := tx.Bucket(resourceBucket)
	if err != nil {
		return nil, err
	}

	pfx := prefix.Encode()

	cursor, err := b.ForwardCursor(pfx, kv.WithCursorPrefix(pfx))
	if err != nil {
		return nil, err
	}
	defer errors2.Capture(&retErr, cursor.Close)()

	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		if !attributeMatches(v, attr, folded) {
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
	}

	return entries, cursor.Err()
}
