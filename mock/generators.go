package mock

import (
	"testing"
	"time"

	"github.com/scimdb/scimdb"
)

// IDGenerator is mock implementation of scimdb.IDGenerator.
type IDGenerator struct {
	IDFn func() scimdb.ID
}

// ID generates a new scimdb.ID from a mock function.
func (g IDGenerator) ID() scimdb.ID {
	return g.IDFn()
}

// NewIDGenerator is a simple way to create immutable id generator
func NewIDGenerator(s string, t *testing.T) IDGenerator {
	t.Helper()

	return IDGenerator{
		IDFn: func() scimdb.ID {
			id, err := scimdb.IDFromString(s)
			if err != nil {
				t.Fatal(err)
			}
			return *id
		},
	}
}

// NewIncrementingIDGenerator returns an ID generator which starts at the
// provided ID and increments on each call.
func NewIncrementingIDGenerator(start scimdb.ID) *IDGenerator {
	return &IDGenerator{
		IDFn: func() scimdb.ID {
			id := start
			start++
			return id
		},
	}
}

// TokenGenerator is mock implementation of scimdb.TokenGenerator.
type TokenGenerator struct {
	TokenFn func() (string, error)
}

// Token generates a new token from a mock function.
func (g TokenGenerator) Token() (string, error) {
	return g.TokenFn()
}

// NewTokenGenerator is a simple way to create immutable token generator.
func NewTokenGenerator(s string, err error) TokenGenerator {
	return TokenGenerator{
		TokenFn: func() (string, error) {
			return s, err
		},
	}
}

// TimeGenerator stores a fake value of time.
type TimeGenerator struct {
	FakeValue time.Time
}

// Now returns the fake value stored in the struct.
func (g TimeGenerator) Now() time.Time {
	return g.FakeValue
}
