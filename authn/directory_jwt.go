package authn

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
)

// TokenDirectory resolves credentials that are themselves signed tokens.
// The tenant identity travels inside the token claims, so the directory
// holds no per-tenant state, only the HMAC key. Tokens with bad
// signatures, wrong algorithms or expired claims are directory misses.
type TokenDirectory struct {
	key   []byte
	clock clock.Clock
}

// TokenDirectoryOption configures a TokenDirectory.
type TokenDirectoryOption func(*TokenDirectory)

// WithTokenClock sets the clock used to judge token expiry.
func WithTokenClock(c clock.Clock) TokenDirectoryOption {
	return func(d *TokenDirectory) {
		d.clock = c
	}
}

// NewTokenDirectory returns a directory verifying tokens under key.
func NewTokenDirectory(key []byte, opts ...TokenDirectoryOption) *TokenDirectory {
	d := &TokenDirectory{
		key:   key,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// tenantClaims is the claim set a tenant token carries. Subject holds
// the tenant id.
type tenantClaims struct {
	jwt.RegisteredClaims
	ClientID    string               `json:"clientID,omitempty"`
	Isolation   string               `json:"isolation,omitempty"`
	Permissions scimdb.PermissionSet `json:"permissions"`
	Quotas      map[string]int       `json:"quotas,omitempty"`
}

// Mint signs a token carrying the tenant identity. A zero expiresAt
// mints a token without an expiry claim.
func (d *TokenDirectory) Mint(tc scimdb.TenantContext, expiresAt time.Time) (string, error) {
	if tc.TenantID == "" {
		return "", &errors.Error{Code: errors.EEmptyValue, Msg: "tenantID is empty"}
	}

	claims := tenantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  tc.TenantID,
			IssuedAt: jwt.NewNumericDate(d.clock.Now()),
		},
		ClientID:    tc.ClientID,
		Isolation:   string(tc.Isolation),
		Permissions: tc.Permissions,
		Quotas:      tc.Quotas,
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.key)
	if err != nil {
		return "", &errors.Error{Code: errors.EInternal, Op: "authn.TokenDirectory.Mint", Err: err}
	}
	return signed, nil
}

// LookupTenant implements scimdb.TenantDirectory.
func (d *TokenDirectory) LookupTenant(_ context.Context, secret string) (scimdb.TenantContext, error) {
	claims := &tenantClaims{}
	token, err := jwt.ParseWithClaims(secret, claims, func(t *jwt.Token) (interface{}, error) {
		return d.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(d.clock.Now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return scimdb.TenantContext{}, ErrUnknownCredential
	}

	isolation := scimdb.IsolationLevel(claims.Isolation)
	if isolation == "" {
		isolation = scimdb.IsolationShared
	}

	return scimdb.TenantContext{
		TenantID:    claims.Subject,
		ClientID:    claims.ClientID,
		Isolation:   isolation,
		Permissions: claims.Permissions,
		Quotas:      claims.Quotas,
	}, nil
}
