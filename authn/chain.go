package authn

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
)

// The types below form a one-directional chain:
//
//	Credential -> Witness -> Authority -> RequestContext
//
// Each link is produced by consuming the previous one and cannot be
// produced any other way. Tenant-scoped service operations accept only
// the terminal RequestContext, so a caller holding one has necessarily
// passed through authentication during this request.

// Witness is proof that a credential resolved to a tenant. Only the
// Authenticator constructs witnesses.
type Witness struct {
	tenant      scimdb.TenantContext
	fingerprint string
	requestID   uuid.UUID
	issuedAt    time.Time
	expiresAt   time.Time
	clock       clock.Clock
	spent       uint32
}

// Tenant returns the tenant identity the credential resolved to.
func (w *Witness) Tenant() scimdb.TenantContext {
	return w.tenant
}

// Fingerprint returns the keyed digest of the credential that produced
// the witness. It identifies the credential without revealing it.
func (w *Witness) Fingerprint() string {
	return w.fingerprint
}

// IssuedAt returns the authentication time.
func (w *Witness) IssuedAt() time.Time {
	return w.issuedAt
}

// ExpiresAt returns the instant after which the witness can no longer
// be turned into an authority.
func (w *Witness) ExpiresAt() time.Time {
	return w.expiresAt
}

// Authority is the right to act as a tenant for one request. It is
// derived from a witness and spent on deriving a request context.
type Authority struct {
	tenant      scimdb.TenantContext
	fingerprint string
	requestID   uuid.UUID
	spent       uint32
}

// AuthorityFromWitness consumes the witness and returns the tenant
// authority it vouches for. An expired witness yields ErrWitnessExpired,
// an already consumed one ErrWitnessSpent.
func AuthorityFromWitness(w *Witness) (*Authority, error) {
	if w == nil {
		return nil, &errors.Error{Code: errors.EUnauthorized, Msg: "witness is nil"}
	}

	now := time.Now()
	if w.clock != nil {
		now = w.clock.Now()
	}
	if now.After(w.expiresAt) {
		return nil, ErrWitnessExpired
	}

	if !atomic.CompareAndSwapUint32(&w.spent, 0, 1) {
		return nil, ErrWitnessSpent
	}

	return &Authority{
		tenant:      w.tenant,
		fingerprint: w.fingerprint,
		requestID:   w.requestID,
	}, nil
}

// RequestContext is the terminal state of the chain and the only value
// tenant-scoped operations accept. It is created per request and must be
// discarded at request end, never cached.
type RequestContext struct {
	tenant      scimdb.TenantContext
	fingerprint string
	requestID   uuid.UUID
}

// RequestContextFromAuthority consumes the authority and returns the
// request context derived from it. A spent authority yields
// ErrAuthoritySpent.
func RequestContextFromAuthority(a *Authority) (*RequestContext, error) {
	if a == nil {
		return nil, &errors.Error{Code: errors.EUnauthorized, Msg: "authority is nil"}
	}

	if !atomic.CompareAndSwapUint32(&a.spent, 0, 1) {
		return nil, ErrAuthoritySpent
	}

	return &RequestContext{
		tenant:      a.tenant,
		fingerprint: a.fingerprint,
		requestID:   a.requestID,
	}, nil
}

// Authenticated reports whether the context was produced by the chain.
// The zero value reports false.
func (rc *RequestContext) Authenticated() bool {
	return rc != nil && rc.tenant.TenantID != ""
}

// Tenant returns the tenant identity the request acts as. Callers must
// treat the returned value as read-only.
func (rc *RequestContext) Tenant() scimdb.TenantContext {
	return rc.tenant
}

// TenantID returns the tenant identifier.
func (rc *RequestContext) TenantID() string {
	return rc.tenant.TenantID
}

// RequestID returns the id assigned at authentication, carried through
// the chain for correlation.
func (rc *RequestContext) RequestID() uuid.UUID {
	return rc.requestID
}

// Fingerprint returns the credential digest carried from the witness.
func (rc *RequestContext) Fingerprint() string {
	return rc.fingerprint
}
