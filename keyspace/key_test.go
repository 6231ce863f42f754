package keyspace_test

import (
	"bytes"
	"testing"

	"github.com/scimdb/scimdb/keyspace"
	"github.com/scimdb/scimdb/kit/errors"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		name     string
		tenant   string
		typ      string
		id       string
		wantCode string
	}{
		{
			name:   "valid key",
			tenant: "acme",
			typ:    "User",
			id:     "0000000000000001",
		},
		{
			name:   "default tenant is a normal tenant",
			tenant: keyspace.Default,
			typ:    "Group",
			id:     "0000000000000002",
		},
		{
			name:     "empty tenant",
			tenant:   "",
			typ:      "User",
			id:       "0000000000000001",
			wantCode: errors.EEmptyValue,
		},
		{
			name:     "empty type",
			tenant:   "acme",
			typ:      "",
			id:       "0000000000000001",
			wantCode: errors.EEmptyValue,
		},
		{
			name:     "empty id",
			tenant:   "acme",
			typ:      "User",
			id:       "",
			wantCode: errors.EEmptyValue,
		},
		{
			name:     "separator in tenant",
			tenant:   "ac\x1fme",
			typ:      "User",
			id:       "0000000000000001",
			wantCode: errors.EInvalid,
		},
		{
			name:     "separator in id",
			tenant:   "acme",
			typ:      "User",
			id:       "00\x1f01",
			wantCode: errors.EInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyspace.NewKey(tt.tenant, tt.typ, tt.id)
			if tt.wantCode != "" {
				if got := errors.ErrorCode(err); got != tt.wantCode {
					t.Fatalf("expected error code %q got %q (err: %v)", tt.wantCode, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if key.Tenant != tt.tenant || key.Type != tt.typ || key.ID != tt.id {
				t.Fatalf("unexpected key %#v", key)
			}
		})
	}
}

func TestKeyEncode(t *testing.T) {
	key, err := keyspace.NewKey("acme", "User", "01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte("acme\x1fUser\x1f01")
	if got := key.Encode(); !bytes.Equal(got, want) {
		t.Fatalf("expected encoded key %q got %q", want, got)
	}
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		name     string
		encoded  []byte
		want     keyspace.Key
		wantCode string
	}{
		{
			name:    "round trip",
			encoded: []byte("acme\x1fUser\x1f01"),
			want:    keyspace.Key{Tenant: "acme", Type: "User", ID: "01"},
		},
		{
			name:     "missing component",
			encoded:  []byte("acme\x1fUser"),
			wantCode: errors.EInvalid,
		},
		{
			name:     "extra separator",
			encoded:  []byte("acme\x1fUser\x1f01\x1fjunk"),
			wantCode: errors.EInvalid,
		},
		{
			name:     "empty component",
			encoded:  []byte("acme\x1f\x1f01"),
			wantCode: errors.EEmptyValue,
		},
		{
			name:     "empty input",
			encoded:  nil,
			wantCode: errors.EInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyspace.DecodeKey(tt.encoded)
			if tt.wantCode != "" {
				if got := errors.ErrorCode(err); got != tt.wantCode {
					t.Fatalf("expected error code %q got %q (err: %v)", tt.wantCode, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if key != tt.want {
				t.Fatalf("expected key %#v got %#v", tt.want, key)
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	key, err := keyspace.NewKey("acme", "User", "0000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := keyspace.DecodeKey(key.Encode())
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}

	if decoded != key {
		t.Fatalf("round trip changed key: %#v != %#v", decoded, key)
	}
}

func TestPrefixContains(t *testing.T) {
	prefix, err := keyspace.NewPrefix("acme", "User")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		tenant string
		typ    string
		id     string
		want   bool
	}{
		{
			name:   "same tenant and type",
			tenant: "acme",
			typ:    "User",
			id:     "01",
			want:   true,
		},
		{
			name:   "different tenant",
			tenant: "umbrella",
			typ:    "User",
			id:     "01",
			want:   false,
		},
		{
			name:   "different type",
			tenant: "acme",
			typ:    "Group",
			id:     "01",
			want:   false,
		},
		{
			name:   "type sharing a textual prefix",
			tenant: "acme",
			typ:    "UserGroup",
			id:     "01",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyspace.NewKey(tt.tenant, tt.typ, tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := prefix.Contains(key.Encode()); got != tt.want {
				t.Fatalf("expected contains=%v for key %s", tt.want, key)
			}
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	key, err := keyspace.NewKey("acme", "User", "01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prefix := key.Prefix()
	if prefix.Tenant != "acme" || prefix.Type != "User" {
		t.Fatalf("unexpected prefix %#v", prefix)
	}
	if !prefix.Contains(key.Encode()) {
		t.Fatalf("expected prefix to contain its own key")
	}

	completed, err := prefix.Key("01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != key {
		t.Fatalf("expected completed key %#v got %#v", key, completed)
	}
}
