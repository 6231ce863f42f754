package testing

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scimdb/scimdb/kv"
)

var pairCmpOptions = cmp.Options{
	cmp.Comparer(func(x, y []byte) bool {
		return bytes.Equal(x, y)
	}),
}

// KVStoreFields are the background data seeded into a store before a
// contract test runs. The init func must create Bucket even when Pairs
// is empty.
type KVStoreFields struct {
	Bucket []byte
	Pairs  []kv.Pair
}

// KVStore tests the contract shared by every kv.Store implementation.
func KVStore(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	tests := []struct {
		name string
		fn   func(
			init func(KVStoreFields, *testing.T) (kv.Store, func()),
			t *testing.T,
		)
	}{
		{
			name: "Get",
			fn:   KVGet,
		},
		{
			name: "GetBatch",
			fn:   KVGetBatch,
		},
		{
			name: "Put",
			fn:   KVPut,
		},
		{
			name: "Delete",
			fn:   KVDelete,
		},
		{
			name: "Cursor",
			fn:   KVCursor,
		},
		{
			name: "ForwardCursor",
			fn:   KVForwardCursor,
		},
		{
			name: "ViewNotWritable",
			fn:   KVViewNotWritable,
		},
		{
			name: "ErrorPropagation",
			fn:   KVErrorPropagation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

// KVGet tests retrieving values at single keys.
func KVGet(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	type args struct {
		bucket []byte
		key    []byte
	}
	type wants struct {
		err error
		val []byte
	}

	tests := []struct {
		name   string
		fields KVStoreFields
		args   args
		wants  wants
	}{
		{
			name: "get key",
			fields: KVStoreFields{
				Bucket: []byte("bucket"),
				Pairs: []kv.Pair{
					{Key: []byte("hello"), Value: []byte("world")},
				},
			},
			args: args{
				bucket: []byte("bucket"),
				key:    []byte("hello"),
			},
			wants: wants{
				val: []byte("world"),
			},
		},
		{
			name: "get missing key",
			fields: KVStoreFields{
				Bucket: []byte("bucket"),
				Pairs: []kv.Pair{
					{Key: []byte("hello"), Value: []byte("world")},
				},
			},
			args: args{
				bucket: []byte("bucket"),
				key:    []byte("world"),
			},
			wants: wants{
				err: kv.ErrKeyNotFound,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()

			err := s.View(context.Background(), func(tx kv.Tx) error {
				b, err := tx.Bucket(tt.args.bucket)
				if err != nil {
					t.Fatalf("unexpected error retrieving bucket: %v", err)
				}

				val, err := b.Get(tt.args.key)
				if (err != nil) != (tt.wants.err != nil) {
					t.Fatalf("expected error '%v' got '%v'", tt.wants.err, err)
				}
				if tt.wants.err != nil && !kv.IsNotFound(err) {
					t.Fatalf("expected not found error got '%v'", err)
				}

				if want, got := tt.wants.val, val; !bytes.Equal(want, got) {
					t.Fatalf("expected value %q got %q", string(want), string(got))
				}

				return nil
			})
			if err != nil {
				t.Fatalf("error during view transaction: %v", err)
			}
		})
	}
}

// KVGetBatch tests retrieving values at several keys at once.
func KVGetBatch(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
			{Key: []byte("d"), Value: []byte("4")},
		},
	}

	s, done := init(fields, t)
	defer done()

	err := s.View(context.Background(), func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			t.Fatalf("unexpected error retrieving bucket: %v", err)
		}

		vals, err := b.GetBatch([]byte("a"), []byte("c"), []byte("d"))
		if err != nil {
			t.Fatalf("unexpected error on batch get: %v", err)
		}

		want := [][]byte{[]byte("1"), nil, []byte("4")}
		if diff := cmp.Diff(want, vals, pairCmpOptions...); diff != "" {
			t.Errorf("batch values are different -got/+want\ndiff %s", diff)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("error during view transaction: %v", err)
	}
}

// KVPut tests that writes commit and are visible to later transactions.
func KVPut(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("hello"), Value: []byte("world")},
		},
	}

	s, done := init(fields, t)
	defer done()

	ctx := context.Background()

	err := s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}
		if err := b.Put([]byte("hello"), []byte("overwritten")); err != nil {
			return err
		}
		return b.Put([]byte("second"), []byte("value"))
	})
	if err != nil {
		t.Fatalf("error during update transaction: %v", err)
	}

	err = s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}

		for _, pair := range []kv.Pair{
			{Key: []byte("hello"), Value: []byte("overwritten")},
			{Key: []byte("second"), Value: []byte("value")},
		} {
			val, err := b.Get(pair.Key)
			if err != nil {
				t.Fatalf("unexpected error retrieving %q: %v", string(pair.Key), err)
			}
			if !bytes.Equal(val, pair.Value) {
				t.Fatalf("expected value %q got %q", string(pair.Value), string(val))
			}
		}

		return nil
	})
	if err != nil {
		t.Fatalf("error during view transaction: %v", err)
	}
}

// KVDelete tests removing keys.
func KVDelete(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("hello"), Value: []byte("world")},
			{Key: []byte("stays"), Value: []byte("put")},
		},
	}

	s, done := init(fields, t)
	defer done()

	ctx := context.Background()

	err := s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}
		return b.Delete([]byte("hello"))
	})
	if err != nil {
		t.Fatalf("error during update transaction: %v", err)
	}

	err = s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}

		if _, err := b.Get([]byte("hello")); !kv.IsNotFound(err) {
			t.Fatalf("expected key to be deleted, got err %v", err)
		}

		if _, err := b.Get([]byte("stays")); err != nil {
			t.Fatalf("unexpected error retrieving untouched key: %v", err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("error during view transaction: %v", err)
	}
}

// KVCursor tests basic bidirectional cursor movement.
func KVCursor(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("ab"), Value: []byte("2")},
			{Key: []byte("abc"), Value: []byte("3")},
			{Key: []byte("bbb"), Value: []byte("4")},
			{Key: []byte("bbc"), Value: []byte("5")},
		},
	}

	s, done := init(fields, t)
	defer done()

	err := s.View(context.Background(), func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}

		cur, err := b.Cursor()
		if err != nil {
			return err
		}

		assertPair := func(op string, k, v []byte, wantK, wantV string) {
			t.Helper()
			if string(k) != wantK || string(v) != wantV {
				t.Fatalf("%s: expected (%q, %q) got (%q, %q)", op, wantK, wantV, string(k), string(v))
			}
		}

		k, v := cur.First()
		assertPair("first", k, v, "a", "1")

		k, v = cur.Next()
		assertPair("next", k, v, "ab", "2")

		k, v = cur.Last()
		assertPair("last", k, v, "bbc", "5")

		k, v = cur.Prev()
		assertPair("prev", k, v, "bbb", "4")

		k, v = cur.Seek([]byte("ab"))
		assertPair("seek", k, v, "ab", "2")

		k, v = cur.Seek([]byte("bb"))
		assertPair("seek prefix", k, v, "bbb", "4")

		if k, v = cur.Seek([]byte("zz")); k != nil || v != nil {
			t.Fatalf("expected nil pair seeking past the end, got (%q, %q)", string(k), string(v))
		}

		return nil
	})
	if err != nil {
		t.Fatalf("error during view transaction: %v", err)
	}
}

// KVForwardCursor tests directional range scans.
func KVForwardCursor(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("aa/00"), Value: []byte("0")},
			{Key: []byte("aa/01"), Value: []byte("1")},
			{Key: []byte("aa/02"), Value: []byte("2")},
			{Key: []byte("bb/00"), Value: []byte("3")},
			{Key: []byte("bb/01"), Value: []byte("4")},
			{Key: []byte("cc/00"), Value: []byte("5")},
		},
	}

	type args struct {
		seek string
		opts []kv.CursorOption
	}
	type wants struct {
		keys []string
		err  error
	}

	tests := []struct {
		name  string
		args  args
		wants wants
	}{
		{
			name: "ascending from start",
			args: args{
				seek: "",
			},
			wants: wants{
				keys: []string{"aa/00", "aa/01", "aa/02", "bb/00", "bb/01", "cc/00"},
			},
		},
		{
			name: "ascending from middle",
			args: args{
				seek: "bb/00",
			},
			wants: wants{
				keys: []string{"bb/00", "bb/01", "cc/00"},
			},
		},
		{
			name: "ascending with prefix",
			args: args{
				seek: "aa/01",
				opts: []kv.CursorOption{kv.WithCursorPrefix([]byte("aa/"))},
			},
			wants: wants{
				keys: []string{"aa/01", "aa/02"},
			},
		},
		{
			name: "ascending with limit",
			args: args{
				seek: "",
				opts: []kv.CursorOption{kv.WithCursorLimit(3)},
			},
			wants: wants{
				keys: []string{"aa/00", "aa/01", "aa/02"},
			},
		},
		{
			name: "ascending skipping first",
			args: args{
				seek: "aa/01",
				opts: []kv.CursorOption{kv.WithCursorSkipFirstItem()},
			},
			wants: wants{
				keys: []string{"aa/02", "bb/00", "bb/01", "cc/00"},
			},
		},
		{
			name: "ascending skip and limit",
			args: args{
				seek: "aa/00",
				opts: []kv.CursorOption{
					kv.WithCursorSkipFirstItem(),
					kv.WithCursorLimit(2),
				},
			},
			wants: wants{
				keys: []string{"aa/01", "aa/02"},
			},
		},
		{
			name: "descending from end",
			args: args{
				seek: "",
				opts: []kv.CursorOption{kv.WithCursorDirection(kv.CursorDescending)},
			},
			wants: wants{
				keys: []string{"cc/00", "bb/01", "bb/00", "aa/02", "aa/01", "aa/00"},
			},
		},
		{
			name: "descending from middle",
			args: args{
				seek: "bb/01",
				opts: []kv.CursorOption{kv.WithCursorDirection(kv.CursorDescending)},
			},
			wants: wants{
				keys: []string{"bb/01", "bb/00", "aa/02", "aa/01", "aa/00"},
			},
		},
		{
			name: "descending with prefix",
			args: args{
				seek: "bb/01",
				opts: []kv.CursorOption{
					kv.WithCursorDirection(kv.CursorDescending),
					kv.WithCursorPrefix([]byte("bb/")),
				},
			},
			wants: wants{
				keys: []string{"bb/01", "bb/00"},
			},
		},
		{
			name: "descending with limit",
			args: args{
				seek: "",
				opts: []kv.CursorOption{
					kv.WithCursorDirection(kv.CursorDescending),
					kv.WithCursorLimit(2),
				},
			},
			wants: wants{
				keys: []string{"cc/00", "bb/01"},
			},
		},
		{
			name: "seek outside prefix",
			args: args{
				seek: "bb/00",
				opts: []kv.CursorOption{kv.WithCursorPrefix([]byte("aa/"))},
			},
			wants: wants{
				err: kv.ErrSeekMissingPrefix,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(fields, t)
			defer done()

			err := s.View(context.Background(), func(tx kv.Tx) error {
				b, err := tx.Bucket(fields.Bucket)
				if err != nil {
					return err
				}

				cur, err := b.ForwardCursor([]byte(tt.args.seek), tt.args.opts...)
				if tt.wants.err != nil {
					if err != tt.wants.err {
						t.Fatalf("expected error '%v' got '%v'", tt.wants.err, err)
					}
					return nil
				}
				if err != nil {
					t.Fatalf("unexpected error on forward cursor: %v", err)
				}
				defer cur.Close()

				var keys []string
				for k, _ := cur.Next(); k != nil; k, _ = cur.Next() {
					keys = append(keys, string(k))
				}
				if err := cur.Err(); err != nil {
					t.Fatalf("unexpected error during iteration: %v", err)
				}

				if diff := cmp.Diff(tt.wants.keys, keys); diff != "" {
					t.Errorf("keys are different -got/+want\ndiff %s", diff)
				}

				return nil
			})
			if err != nil {
				t.Fatalf("error during view transaction: %v", err)
			}
		})
	}
}

// KVViewNotWritable tests that mutations are rejected inside View.
func KVViewNotWritable(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("hello"), Value: []byte("world")},
		},
	}

	s, done := init(fields, t)
	defer done()

	err := s.View(context.Background(), func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}

		if err := b.Put([]byte("hello"), []byte("mutated")); err != kv.ErrTxNotWritable {
			t.Fatalf("expected %v on put, got %v", kv.ErrTxNotWritable, err)
		}

		if err := b.Delete([]byte("hello")); err != kv.ErrTxNotWritable {
			t.Fatalf("expected %v on delete, got %v", kv.ErrTxNotWritable, err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("error during view transaction: %v", err)
	}
}

// KVErrorPropagation tests that errors returned by the transaction func
// surface from View and Update.
func KVErrorPropagation(
	init func(KVStoreFields, *testing.T) (kv.Store, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
	}

	s, done := init(fields, t)
	defer done()

	ctx := context.Background()
	wantErr := kv.ErrKeyNotFound

	if err := s.View(ctx, func(kv.Tx) error { return wantErr }); err != wantErr {
		t.Fatalf("expected view to return %v, got %v", wantErr, err)
	}

	if err := s.Update(ctx, func(kv.Tx) error { return wantErr }); err != wantErr {
		t.Fatalf("expected update to return %v, got %v", wantErr, err)
	}
}
