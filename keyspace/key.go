// Package keyspace defines the addressing scheme for stored resources.
//
// Every key carries a tenant identifier as its first component, so a
// prefix scan can never cross a tenant boundary. The tenant is a
// constructor argument, not a filter.
package keyspace

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/scimdb/scimdb/kit/errors"
)

// Default is the reserved tenant id for single-tenant callers.
const Default = "default"

// Separator delimits key components in the encoded form. It is reserved
// and may not appear inside a component.
const Separator byte = 0x1f

var (
	// ErrKeyMalformed is returned when decoding bytes that are not an
	// encoded key.
	ErrKeyMalformed = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "encoded key must contain tenant, type and id",
	}
)

func validateComponent(name, v string) error {
	if v == "" {
		return &errors.Error{
			Code: errors.EEmptyValue,
			Msg:  name + " is empty",
		}
	}
	if strings.IndexByte(v, Separator) >= 0 {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("%s contains reserved separator byte", name),
		}
	}
	return nil
}

// Key addresses at most one stored value. Two keys are equal exactly
// when all three components are equal.
type Key struct {
	Tenant string
	Type   string
	ID     string
}

// NewKey validates the components and returns a key.
func NewKey(tenant, typ, id string) (Key, error) {
	if err := validateComponent("tenant id", tenant); err != nil {
		return Key{}, err
	}
	if err := validateComponent("resource type", typ); err != nil {
		return Key{}, err
	}
	if err := validateComponent("resource id", id); err != nil {
		return Key{}, err
	}

	return Key{Tenant: tenant, Type: typ, ID: id}, nil
}

// Encode returns the storable form tenant 0x1f type 0x1f id.
func (k Key) Encode() []byte {
	b := make([]byte, 0, len(k.Tenant)+len(k.Type)+len(k.ID)+2)
	b = append(b, k.Tenant...)
	b = append(b, Separator)
	b = append(b, k.Type...)
	b = append(b, Separator)
	b = append(b, k.ID...)
	return b
}

// Prefix returns the scan prefix covering all keys of the same tenant
// and type.
func (k Key) Prefix() Prefix {
	return Prefix{Tenant: k.Tenant, Type: k.Type}
}

// String renders the key for logs. Not an encoding.
func (k Key) String() string {
	return k.Tenant + "/" + k.Type + "/" + k.ID
}

// DecodeKey parses an encoded key back into its components.
func DecodeKey(b []byte) (Key, error) {
	parts := bytes.Split(b, []byte{Separator})
	if len(parts) != 3 {
		return Key{}, ErrKeyMalformed
	}

	return NewKey(string(parts[0]), string(parts[1]), string(parts[2]))
}

// Prefix bounds a range scan to a single tenant and resource type.
type Prefix struct {
	Tenant string
	Type   string
}

// NewPrefix validates the components and returns a prefix.
func NewPrefix(tenant, typ string) (Prefix, error) {
	if err := validateComponent("tenant id", tenant); err != nil {
		return Prefix{}, err
	}
	if err := validateComponent("resource type", typ); err != nil {
		return Prefix{}, err
	}

	return Prefix{Tenant: tenant, Type: typ}, nil
}

// Encode returns the seek prefix tenant 0x1f type 0x1f. The trailing
// separator keeps a prefix from matching longer type names.
func (p Prefix) Encode() []byte {
	b := make([]byte, 0, len(p.Tenant)+len(p.Type)+2)
	b = append(b, p.Tenant...)
	b = append(b, Separator)
	b = append(b, p.Type...)
	b = append(b, Separator)
	return b
}

// Contains reports whether the encoded key falls under this prefix.
func (p Prefix) Contains(encodedKey []byte) bool {
	return bytes.HasPrefix(encodedKey, p.Encode())
}

// Key completes the prefix with a resource id.
func (p Prefix) Key(id string) (Key, error) {
	return NewKey(p.Tenant, p.Type, id)
}

// String renders the prefix for logs. Not an encoding.
func (p Prefix) String() string {
	return p.Tenant + "/" + p.Type
}
