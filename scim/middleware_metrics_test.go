package scim_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimdb/scimdb"
	kiterrors "github.com/scimdb/scimdb/kit/errors"
	"github.com/scimdb/scimdb/kit/metric"
	"github.com/scimdb/scimdb/kit/prom/promtest"
	"github.com/scimdb/scimdb/scim"
)

func TestMetricsServiceCountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := scim.NewMetricsService(reg, newTestService(t))
	rc := authenticate(t, fullAccessTenant("acme"))
	ctx := context.Background()

	created, err := svc.CreateResource(ctx, rc, "User", map[string]interface{}{"userName": "alice"})
	require.NoError(t, err)
	_, err = svc.FindResourceByID(ctx, rc, "User", created.ID)
	require.NoError(t, err)
	_, err = svc.FindResourceByID(ctx, rc, "User", created.ID)
	require.NoError(t, err)

	mfs := promtest.MustGather(t, reg)

	m := promtest.MustFindMetric(t, mfs, "service_resource_call_total", map[string]string{"method": "create_resource"})
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	m = promtest.MustFindMetric(t, mfs, "service_resource_call_total", map[string]string{"method": "find_resource_by_id"})
	assert.Equal(t, float64(2), m.GetCounter().GetValue())

	m = promtest.MustFindMetric(t, mfs, "service_resource_duration", map[string]string{"method": "create_resource"})
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())

	// Successful calls leave no error series behind.
	assert.Nil(t, promtest.FindMetric(mfs, "service_resource_error_total", map[string]string{
		"method": "create_resource",
		"code":   kiterrors.ETooManyRequests,
	}))
}

func TestMetricsServiceCountsErrorsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := scim.NewMetricsService(reg, newTestService(t))
	rc := authenticate(t, fullAccessTenant("acme"))
	ctx := context.Background()

	_, err := svc.FindResourceByID(ctx, rc, "User", scimdb.ID(999))
	require.ErrorIs(t, err, scim.ErrResourceNotFound)

	_, err = svc.CreateResource(ctx, nil, "User", nil)
	require.Error(t, err)

	mfs := promtest.MustGather(t, reg)

	m := promtest.MustFindMetric(t, mfs, "service_resource_error_total", map[string]string{
		"method": "find_resource_by_id",
		"code":   kiterrors.ENotFound,
	})
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	m = promtest.MustFindMetric(t, mfs, "service_resource_error_total", map[string]string{
		"method": "create_resource",
		"code":   kiterrors.EUnauthorized,
	})
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestMetricsServiceSuffix(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := scim.NewMetricsService(reg, newTestService(t), metric.WithSuffix("replica"))
	rc := authenticate(t, fullAccessTenant("acme"))

	_, err := svc.CreateResource(context.Background(), rc, "User", map[string]interface{}{"userName": "alice"})
	require.NoError(t, err)

	mfs := promtest.MustGather(t, reg)
	m := promtest.MustFindMetric(t, mfs, "service_resource_replica_call_total", map[string]string{"method": "create_resource"})
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}
