package scim

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimdb/scimdb"
)

func versionedResource() *scimdb.Resource {
	r := &scimdb.Resource{
		ID:       scimdb.ID(1),
		TenantID: "acme",
		Type:     "User",
		Attributes: map[string]interface{}{
			"userName": "alice",
			"active":   true,
		},
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.Meta.SetCreated(now)
	r.Meta.SetLastModified(now)
	return r
}

func TestComputeVersionDeterministic(t *testing.T) {
	first, err := computeVersion(versionedResource())
	require.NoError(t, err)
	second, err := computeVersion(versionedResource())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^W/"[0-9a-f]{16}"$`), string(first))
	assert.True(t, first.Valid())
}

func TestComputeVersionDetectsChange(t *testing.T) {
	base, err := computeVersion(versionedResource())
	require.NoError(t, err)

	changed := versionedResource()
	changed.Attributes["userName"] = "alice2"
	next, err := computeVersion(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, next)
}

func TestComputeVersionIgnoresStoredToken(t *testing.T) {
	plain := versionedResource()
	base, err := computeVersion(plain)
	require.NoError(t, err)

	stamped := versionedResource()
	stamped.Meta.Version = base
	again, err := computeVersion(stamped)
	require.NoError(t, err)

	// The token field itself never participates in the hash, otherwise
	// no resource could ever carry a stable token.
	assert.Equal(t, base, again)
}

func TestComputeVersionCoversMetadata(t *testing.T) {
	base, err := computeVersion(versionedResource())
	require.NoError(t, err)

	touched := versionedResource()
	touched.Meta.SetLastModified(touched.Meta.LastModified.Add(time.Second))
	next, err := computeVersion(touched)
	require.NoError(t, err)

	assert.NotEqual(t, base, next)
}
