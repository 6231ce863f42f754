package authn_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	kiterrors "github.com/scimdb/scimdb/kit/errors"
)

func TestTokenDirectory(t *testing.T) {
	key := []byte("an HMAC key for tenant tokens")
	mck := clock.NewMock()
	d := authn.NewTokenDirectory(key, authn.WithTokenClock(mck))

	token, err := d.Mint(acmeTenant(), mck.Now().Add(time.Hour))
	require.NoError(t, err)

	tc, err := d.LookupTenant(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "acme", tc.TenantID)
	assert.Equal(t, "provisioner", tc.ClientID)
	assert.Equal(t, scimdb.IsolationShared, tc.Isolation)
	assert.True(t, tc.Permissions.Allows(scimdb.OperationUpdate))
	assert.Equal(t, map[string]int{"max_users": 100}, tc.Quotas)
}

func TestTokenDirectoryExpiredToken(t *testing.T) {
	key := []byte("an HMAC key for tenant tokens")
	mck := clock.NewMock()
	d := authn.NewTokenDirectory(key, authn.WithTokenClock(mck))

	token, err := d.Mint(acmeTenant(), mck.Now().Add(time.Hour))
	require.NoError(t, err)

	mck.Add(2 * time.Hour)
	_, err = d.LookupTenant(context.Background(), token)
	require.ErrorIs(t, err, authn.ErrUnknownCredential)
}

func TestTokenDirectoryRejectsForeignKey(t *testing.T) {
	mck := clock.NewMock()
	minter := authn.NewTokenDirectory([]byte("one key"), authn.WithTokenClock(mck))
	verifier := authn.NewTokenDirectory([]byte("another key"), authn.WithTokenClock(mck))

	token, err := minter.Mint(acmeTenant(), mck.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = verifier.LookupTenant(context.Background(), token)
	require.ErrorIs(t, err, authn.ErrUnknownCredential)
}

func TestTokenDirectoryRejectsGarbage(t *testing.T) {
	d := authn.NewTokenDirectory([]byte("an HMAC key"))

	_, err := d.LookupTenant(context.Background(), "key-A")
	require.ErrorIs(t, err, authn.ErrUnknownCredential)
}

func TestTokenDirectoryMintRequiresTenant(t *testing.T) {
	d := authn.NewTokenDirectory([]byte("an HMAC key"))

	_, err := d.Mint(scimdb.TenantContext{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, kiterrors.EEmptyValue, kiterrors.ErrorCode(err))
}

func TestTokenDirectoryWithAuthenticator(t *testing.T) {
	key := []byte("an HMAC key for tenant tokens")
	d := authn.NewTokenDirectory(key)

	token, err := d.Mint(acmeTenant(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	a := authn.NewAuthenticator(d)
	w, err := a.Authenticate(context.Background(), authn.NewCredential(token))
	require.NoError(t, err)
	assert.Equal(t, "acme", w.Tenant().TenantID)
}
