// Package authn implements the authentication chain that turns a
// one-shot credential into the request context the resource service
// accepts. Witnesses, authorities and request contexts cannot be
// constructed outside this package, so holding one proves the chain ran.
package authn

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
	"github.com/scimdb/scimdb/kit/tracing"
)

// DefaultWitnessTTL bounds how long a witness can sit between
// authentication and the derivation of authority. Witnesses live for a
// single request, so the window is short.
const DefaultWitnessTTL = time.Minute

// Authenticator resolves credentials against a tenant directory and
// issues witnesses.
type Authenticator struct {
	directory scimdb.TenantDirectory
	clock     clock.Clock
	ttl       time.Duration
	key       [32]byte
	log       *zap.Logger
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock sets the clock used for witness issue and expiry times.
func WithClock(c clock.Clock) AuthenticatorOption {
	return func(a *Authenticator) {
		a.clock = c
	}
}

// WithWitnessTTL sets how long issued witnesses stay derivable.
func WithWitnessTTL(ttl time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		a.ttl = ttl
	}
}

// WithLogger sets the logger used for authentication outcomes.
func WithLogger(log *zap.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.log = log
	}
}

// WithFingerprintKey pins the key used to fingerprint credentials.
// Without it every Authenticator draws its own random key, which keeps
// fingerprints from being comparable across instances.
func WithFingerprintKey(key [32]byte) AuthenticatorOption {
	return func(a *Authenticator) {
		a.key = key
	}
}

// NewAuthenticator returns an authenticator backed by the directory.
func NewAuthenticator(directory scimdb.TenantDirectory, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		directory: directory,
		clock:     clock.New(),
		ttl:       DefaultWitnessTTL,
		log:       zap.NewNop(),
	}
	if _, err := rand.Read(a.key[:]); err != nil {
		panic(err)
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.ttl <= 0 {
		a.ttl = DefaultWitnessTTL
	}
	return a
}

// Authenticate consumes the credential and resolves it to a witness.
// The credential is spent even when resolution fails; a second attempt
// with the same instance fails with ErrCredentialConsumed. Directory
// errors are never surfaced, and the secret is never logged.
func (a *Authenticator) Authenticate(ctx context.Context, c *Credential) (*Witness, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	if c == nil {
		return nil, &errors.Error{Code: errors.EUnauthorized, Msg: "credential is nil"}
	}

	secret, err := c.consume()
	if err != nil {
		return nil, err
	}

	tc, err := a.directory.LookupTenant(ctx, secret)
	if err != nil {
		a.log.Debug("Credential rejected by tenant directory", zap.Error(err))
		return nil, ErrAuthenticationFailed
	}

	now := a.clock.Now().UTC()
	w := &Witness{
		tenant:      tc.Clone(),
		fingerprint: a.fingerprint(secret),
		requestID:   uuid.New(),
		issuedAt:    now,
		expiresAt:   now.Add(a.ttl),
		clock:       a.clock,
	}

	a.log.Debug("Authentication succeeded",
		zap.String("tenant", tc.TenantID),
		zap.String("request_id", w.requestID.String()))
	return w, nil
}

// fingerprint digests the secret under the authenticator's key. The
// digest identifies a credential in logs and contexts without making
// the secret recoverable.
func (a *Authenticator) fingerprint(secret string) string {
	h, err := blake3.NewKeyed(a.key[:])
	if err != nil {
		// NewKeyed fails only for keys that are not 32 bytes long.
		panic(err)
	}
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}
