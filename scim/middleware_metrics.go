package scim

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	"github.com/scimdb/scimdb/kit/metric"
	"github.com/scimdb/scimdb/storage"
)

var _ ResourceService = (*MetricsService)(nil)

// MetricsService records RED metrics for every resource operation.
type MetricsService struct {
	// RED metrics
	rec *metric.REDClient

	resourceService ResourceService
}

// NewMetricsService returns a metrics middleware for a ResourceService.
func NewMetricsService(reg prometheus.Registerer, s ResourceService, opts ...metric.ClientOptFn) *MetricsService {
	o := metric.ApplyMetricOpts(opts...)
	return &MetricsService{
		rec:             metric.New(reg, o.ApplySuffix("resource")),
		resourceService: s,
	}
}

func (m *MetricsService) CreateResource(ctx context.Context, rc *authn.RequestContext, typ string, attributes map[string]interface{}) (*scimdb.Resource, error) {
	rec := m.rec.Record("create_resource")
	r, err := m.resourceService.CreateResource(ctx, rc, typ, attributes)
	return r, rec(err)
}

func (m *MetricsService) FindResourceByID(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) (*scimdb.Resource, error) {
	rec := m.rec.Record("find_resource_by_id")
	r, err := m.resourceService.FindResourceByID(ctx, rc, typ, id)
	return r, rec(err)
}

func (m *MetricsService) ListResources(ctx context.Context, rc *authn.RequestContext, typ string, opts scimdb.FindOptions) ([]*scimdb.Resource, int, error) {
	rec := m.rec.Record("list_resources")
	rs, n, err := m.resourceService.ListResources(ctx, rc, typ, opts)
	return rs, n, rec(err)
}

func (m *MetricsService) FindResourcesByAttribute(ctx context.Context, rc *authn.RequestContext, typ, attr, value string) ([]*scimdb.Resource, error) {
	rec := m.rec.Record("find_resources_by_attribute")
	rs, err := m.resourceService.FindResourcesByAttribute(ctx, rc, typ, attr, value)
	return rs, rec(err)
}

func (m *MetricsService) UpdateResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, attributes map[string]interface{}) (*scimdb.Resource, error) {
	rec := m.rec.Record("update_resource")
	r, err := m.resourceService.UpdateResource(ctx, rc, typ, id, attributes)
	return r, rec(err)
}

func (m *MetricsService) UpdateResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, attributes map[string]interface{}) (*scimdb.Resource, error) {
	rec := m.rec.Record("update_resource_conditional")
	r, err := m.resourceService.UpdateResourceConditional(ctx, rc, typ, id, expected, attributes)
	return r, rec(err)
}

func (m *MetricsService) PatchResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, partial map[string]interface{}) (*scimdb.Resource, error) {
	rec := m.rec.Record("patch_resource")
	r, err := m.resourceService.PatchResource(ctx, rc, typ, id, partial)
	return r, rec(err)
}

func (m *MetricsService) PatchResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, partial map[string]interface{}) (*scimdb.Resource, error) {
	rec := m.rec.Record("patch_resource_conditional")
	r, err := m.resourceService.PatchResourceConditional(ctx, rc, typ, id, expected, partial)
	return r, rec(err)
}

func (m *MetricsService) DeleteResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) error {
	rec := m.rec.Record("delete_resource")
	err := m.resourceService.DeleteResource(ctx, rc, typ, id)
	return rec(err)
}

func (m *MetricsService) DeleteResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken) error {
	rec := m.rec.Record("delete_resource_conditional")
	err := m.resourceService.DeleteResourceConditional(ctx, rc, typ, id, expected)
	return rec(err)
}

func (m *MetricsService) CountResources(ctx context.Context, rc *authn.RequestContext, typ string) (int, error) {
	rec := m.rec.Record("count_resources")
	n, err := m.resourceService.CountResources(ctx, rc, typ)
	return n, rec(err)
}

func (m *MetricsService) ResourceChangeLog(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, opts scimdb.FindOptions) ([]storage.ChangeEntry, error) {
	rec := m.rec.Record("resource_change_log")
	entries, err := m.resourceService.ResourceChangeLog(ctx, rc, typ, id, opts)
	return entries, rec(err)
}
