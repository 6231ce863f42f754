package authn_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	kiterrors "github.com/scimdb/scimdb/kit/errors"
	"github.com/scimdb/scimdb/mock"
)

func TestStaticDirectory(t *testing.T) {
	d := authn.NewStaticDirectory(authn.WithCost(bcrypt.MinCost))
	require.NoError(t, d.Register("key-A", acmeTenant()))

	t.Run("known secret", func(t *testing.T) {
		tc, err := d.LookupTenant(context.Background(), "key-A")
		require.NoError(t, err)
		assert.Equal(t, "acme", tc.TenantID)
		assert.Equal(t, 100, tc.Quotas["max_users"])
	})

	t.Run("unknown secret", func(t *testing.T) {
		_, err := d.LookupTenant(context.Background(), "key-B")
		require.ErrorIs(t, err, authn.ErrUnknownCredential)
	})

	t.Run("empty secret", func(t *testing.T) {
		err := d.Register("", acmeTenant())
		require.Error(t, err)
		assert.Equal(t, kiterrors.EEmptyValue, kiterrors.ErrorCode(err))
	})

	t.Run("duplicate secret", func(t *testing.T) {
		err := d.Register("key-A", acmeTenant())
		require.Error(t, err)
		assert.Equal(t, kiterrors.EConflict, kiterrors.ErrorCode(err))
	})

	t.Run("lookups share nothing", func(t *testing.T) {
		tc, err := d.LookupTenant(context.Background(), "key-A")
		require.NoError(t, err)
		tc.Quotas["max_users"] = 1

		again, err := d.LookupTenant(context.Background(), "key-A")
		require.NoError(t, err)
		assert.Equal(t, 100, again.Quotas["max_users"])
	})
}

func TestStaticDirectoryProvision(t *testing.T) {
	d := authn.NewStaticDirectory(authn.WithCost(bcrypt.MinCost))

	secret, err := d.Provision(acmeTenant())
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	tc, err := d.LookupTenant(context.Background(), secret)
	require.NoError(t, err)
	assert.Equal(t, "acme", tc.TenantID)

	// Each call mints a distinct secret.
	second, err := d.Provision(acmeTenant())
	require.NoError(t, err)
	assert.NotEqual(t, secret, second)
}

func TestStaticDirectoryProvisionCollision(t *testing.T) {
	d := authn.NewStaticDirectory(
		authn.WithCost(bcrypt.MinCost),
		authn.WithTokenGenerator(mock.NewTokenGenerator("fixed", nil)),
	)

	_, err := d.Provision(acmeTenant())
	require.NoError(t, err)

	_, err = d.Provision(acmeTenant())
	require.Error(t, err)
	assert.Equal(t, kiterrors.EConflict, kiterrors.ErrorCode(err))
}

func TestStaticDirectoryFromFile(t *testing.T) {
	const file = `
tenants:
  - secret: key-A
    tenantID: acme
    clientID: provisioner
    permissions: [create, read, update, delete, list]
    quotas:
      max_users: 2
  - secret: key-B
    tenantID: umbrella
    isolation: strict
    permissions: [read, list]
`
	path := filepath.Join(t.TempDir(), "tenants.yml")
	require.NoError(t, os.WriteFile(path, []byte(file), 0600))

	d, err := authn.NewStaticDirectoryFromFile(path, authn.WithCost(bcrypt.MinCost))
	require.NoError(t, err)

	acme, err := d.LookupTenant(context.Background(), "key-A")
	require.NoError(t, err)
	assert.Equal(t, "acme", acme.TenantID)
	assert.Equal(t, "provisioner", acme.ClientID)
	assert.Equal(t, scimdb.IsolationShared, acme.Isolation)
	assert.True(t, acme.Permissions.Allows(scimdb.OperationDelete))
	assert.Equal(t, map[string]int{"max_users": 2}, acme.Quotas)

	umbrella, err := d.LookupTenant(context.Background(), "key-B")
	require.NoError(t, err)
	assert.Equal(t, scimdb.IsolationStrict, umbrella.Isolation)
	assert.True(t, umbrella.Permissions.Allows(scimdb.OperationList))
	assert.False(t, umbrella.Permissions.Allows(scimdb.OperationCreate))
}

func TestStaticDirectoryFromFileRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{
			name: "unknown permission",
			file: "tenants:\n  - secret: key-A\n    tenantID: acme\n    permissions: [fly]\n",
		},
		{
			name: "missing tenant id",
			file: "tenants:\n  - secret: key-A\n    permissions: [read]\n",
		},
		{
			name: "not yaml",
			file: "{{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tenants.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.file), 0600))

			_, err := authn.NewStaticDirectoryFromFile(path, authn.WithCost(bcrypt.MinCost))
			require.Error(t, err)
			assert.Equal(t, kiterrors.EInvalid, kiterrors.ErrorCode(err))
		})
	}
}
