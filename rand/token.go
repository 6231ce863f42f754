// Package rand provides a cryptographically random secret generator.
package rand

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/scimdb/scimdb"
)

// TokenGenerator implements scimdb.TokenGenerator.
type TokenGenerator struct {
	size int
}

// NewTokenGenerator creates an instance of an available token generator.
func NewTokenGenerator(n int) scimdb.TokenGenerator {
	return &TokenGenerator{size: n}
}

// Token returns a new string token of size t.size.
func (t *TokenGenerator) Token() (string, error) {
	return generateRandomString(t.size)
}

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return b, nil
}

// generateRandomString returns a URL-safe, base64 encoded
// securely generated random string.
func generateRandomString(s int) (string, error) {
	b, err := generateRandomBytes(s)
	return base64.URLEncoding.EncodeToString(b), err
}
