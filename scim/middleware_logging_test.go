package scim_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/scim"
)

func TestLoggingServiceRecordsOutcomes(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := scim.NewLoggingService(zap.New(core), newTestService(t))
	rc := authenticate(t, fullAccessTenant("acme"))
	ctx := context.Background()

	created, err := svc.CreateResource(ctx, rc, "User", map[string]interface{}{"userName": "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("resource create").Len())

	_, err = svc.FindResourceByID(ctx, rc, "User", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("resource find by ID").Len())

	// Failures log under a distinct message carrying the error.
	_, err = svc.CreateResource(ctx, nil, "User", nil)
	require.Error(t, err)
	failed := logs.FilterMessage("failed to create resource")
	require.Equal(t, 1, failed.Len())
	fields := failed.All()[0].ContextMap()
	assert.Contains(t, fields, "error")
	assert.Contains(t, fields, "took")

	missing := scimdb.ID(999)
	_, err = svc.FindResourceByID(ctx, rc, "User", missing)
	require.Error(t, err)
	msg := fmt.Sprintf("failed to find resource with ID %v", missing)
	assert.Equal(t, 1, logs.FilterMessage(msg).Len())
}

func TestLoggingServicePassesResultsThrough(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	svc := scim.NewLoggingService(zap.New(core), newTestService(t))
	rc := authenticate(t, fullAccessTenant("acme"))
	ctx := context.Background()

	created, err := svc.CreateResource(ctx, rc, "User", map[string]interface{}{"userName": "alice"})
	require.NoError(t, err)

	updated, err := svc.UpdateResourceConditional(ctx, rc, "User", created.ID, created.Meta.Version, map[string]interface{}{"userName": "alice2"})
	require.NoError(t, err)
	assert.NotEqual(t, created.Meta.Version, updated.Meta.Version)

	require.NoError(t, svc.DeleteResource(ctx, rc, "User", created.ID))
	_, err = svc.FindResourceByID(ctx, rc, "User", created.ID)
	require.ErrorIs(t, err, scim.ErrResourceNotFound)
}
