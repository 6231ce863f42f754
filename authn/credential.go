package authn

import (
	"sync/atomic"
)

// Credential holds an opaque secret that can be presented for
// authentication exactly once. The zero value is unusable; credentials
// are built with NewCredential per request and discarded afterwards.
type Credential struct {
	secret   string
	consumed uint32
}

// NewCredential wraps a secret for one-shot presentation.
func NewCredential(secret string) *Credential {
	return &Credential{secret: secret}
}

// consume yields the secret on the first call and fails on every later
// one. The secret is cleared so a spent credential no longer holds it.
func (c *Credential) consume() (string, error) {
	if !atomic.CompareAndSwapUint32(&c.consumed, 0, 1) {
		return "", ErrCredentialConsumed
	}
	secret := c.secret
	c.secret = ""
	return secret, nil
}

// Consumed reports whether the credential has already been presented.
func (c *Credential) Consumed() bool {
	return atomic.LoadUint32(&c.consumed) == 1
}
