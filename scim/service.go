// Package scim implements the tenant-scoped resource service: metadata
// stamping, version tokens, permission and quota enforcement, and the
// conditional mutation protocol, layered over the storage engine.
//
// Every tenant-scoped operation takes an *authn.RequestContext and
// resolves storage keys exclusively from the tenant identity it carries.
// There is no way to address another tenant's data through this API.
package scim

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/authn"
	"github.com/scimdb/scimdb/keyspace"
	"github.com/scimdb/scimdb/kit/errors"
	"github.com/scimdb/scimdb/kit/tracing"
	"github.com/scimdb/scimdb/snowflake"
	"github.com/scimdb/scimdb/storage"
)

// ResourceService is the surface the resource engine exposes. Service
// implements it; LoggingService and MetricsService wrap it.
type ResourceService interface {
	CreateResource(ctx context.Context, rc *authn.RequestContext, typ string, attributes map[string]interface{}) (*scimdb.Resource, error)
	FindResourceByID(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) (*scimdb.Resource, error)
	ListResources(ctx context.Context, rc *authn.RequestContext, typ string, opts scimdb.FindOptions) ([]*scimdb.Resource, int, error)
	FindResourcesByAttribute(ctx context.Context, rc *authn.RequestContext, typ, attr, value string) ([]*scimdb.Resource, error)
	UpdateResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, attributes map[string]interface{}) (*scimdb.Resource, error)
	UpdateResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, attributes map[string]interface{}) (*scimdb.Resource, error)
	PatchResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, partial map[string]interface{}) (*scimdb.Resource, error)
	PatchResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, partial map[string]interface{}) (*scimdb.Resource, error)
	DeleteResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) error
	DeleteResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken) error
	CountResources(ctx context.Context, rc *authn.RequestContext, typ string) (int, error)
	ResourceChangeLog(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, opts scimdb.FindOptions) ([]storage.ChangeEntry, error)
}

var _ ResourceService = (*Service)(nil)

// Service is the concrete resource engine.
type Service struct {
	engine    *storage.Engine
	log       *zap.Logger
	idGen     scimdb.IDGenerator
	timeGen   scimdb.TimeGenerator
	validator scimdb.Validator
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithIDGenerator sets the generator used for new resource ids.
func WithIDGenerator(gen scimdb.IDGenerator) ServiceOption {
	return func(s *Service) {
		s.idGen = gen
	}
}

// WithTimeGenerator sets the clock used for metadata timestamps.
func WithTimeGenerator(gen scimdb.TimeGenerator) ServiceOption {
	return func(s *Service) {
		s.timeGen = gen
	}
}

// WithValidator installs a validation hook invoked before any mutation
// is persisted. Without one, every mutation passes validation.
func WithValidator(v scimdb.Validator) ServiceOption {
	return func(s *Service) {
		s.validator = v
	}
}

// NewService returns a resource service over the storage engine.
func NewService(engine *storage.Engine, opts ...ServiceOption) *Service {
	s := &Service{
		engine:  engine,
		log:     zap.NewNop(),
		idGen:   snowflake.NewIDGenerator(),
		timeGen: scimdb.RealTimeGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateResource stamps metadata onto the attributes and persists a new
// resource for the caller's tenant. Quota enforcement counts existing
// resources of the type first and tolerates drift from creates in
// flight; the count never lags by more than those.
func (s *Service) CreateResource(ctx context.Context, rc *authn.RequestContext, typ string, attributes map[string]interface{}) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationCreate)
	if err != nil {
		return nil, err
	}

	prefix, err := keyspace.NewPrefix(tc.TenantID, typ)
	if err != nil {
		return nil, err
	}

	if limit, ok := tc.QuotaFor(typ); ok {
		n, err := s.engine.Count(ctx, prefix)
		if err != nil {
			return nil, translate("scim/service.CreateResource", err)
		}
		if n+1 > limit {
			s.log.Debug("Create rejected by quota",
				zap.String("tenant", tc.TenantID),
				zap.String("resource_type", typ),
				zap.Int("limit", limit))
			return nil, ErrQuotaExceeded(typ, limit, n)
		}
	}

	if attributes == nil {
		attributes = map[string]interface{}{}
	}

	now := s.timeGen.Now().UTC()
	r := &scimdb.Resource{
		ID:         s.idGen.ID(),
		TenantID:   tc.TenantID,
		Type:       typ,
		Attributes: attributes,
	}
	r.Meta.SetCreated(now)
	r.Meta.SetLastModified(now)

	if err := s.validate(ctx, scimdb.OperationCreate, r); err != nil {
		return nil, err
	}

	version, err := computeVersion(r)
	if err != nil {
		return nil, err
	}
	r.Meta.Version = version

	key, err := prefix.Key(r.ID.String())
	if err != nil {
		return nil, err
	}
	buf, err := marshalResource(r)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Put(ctx, key, buf); err != nil {
		return nil, translate("scim/service.CreateResource", err)
	}
	return r, nil
}

// FindResourceByID returns the resource stored under the caller's tenant
// with the given type and id.
func (s *Service) FindResourceByID(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationRead)
	if err != nil {
		return nil, err
	}

	key, err := s.resourceKey(tc, typ, id)
	if err != nil {
		return nil, err
	}

	buf, err := s.engine.Get(ctx, key)
	if err != nil {
		return nil, translate("scim/service.FindResourceByID", err)
	}
	return unmarshalResource(buf)
}

// ListResources returns the tenant's resources of the type in stable key
// order, honoring offset, limit and direction. The int returned is the
// number of resources in the page.
func (s *Service) ListResources(ctx context.Context, rc *authn.RequestContext, typ string, opts scimdb.FindOptions) ([]*scimdb.Resource, int, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationList)
	if err != nil {
		return nil, 0, err
	}

	prefix, err := keyspace.NewPrefix(tc.TenantID, typ)
	if err != nil {
		return nil, 0, err
	}

	entries, err := s.engine.List(ctx, prefix, opts)
	if err != nil {
		return nil, 0, translate("scim/service.ListResources", err)
	}

	resources := make([]*scimdb.Resource, 0, len(entries))
	for _, entry := range entries {
		r, err := unmarshalResource(entry.Value)
		if err != nil {
			return nil, 0, err
		}
		resources = append(resources, r)
	}
	return resources, len(resources), nil
}

// FindResourcesByAttribute returns the tenant's resources of the type
// whose attribute matches the value, compared case-insensitively.
func (s *Service) FindResourcesByAttribute(ctx context.Context, rc *authn.RequestContext, typ, attr, value string) ([]*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationList)
	if err != nil {
		return nil, err
	}

	prefix, err := keyspace.NewPrefix(tc.TenantID, typ)
	if err != nil {
		return nil, err
	}

	entries, err := s.engine.FindByAttribute(ctx, prefix, attr, value)
	if err != nil {
		return nil, translate("scim/service.FindResourcesByAttribute", err)
	}

	resources := make([]*scimdb.Resource, 0, len(entries))
	for _, entry := range entries {
		r, err := unmarshalResource(entry.Value)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// CountResources returns how many resources of the type the tenant
// holds.
func (s *Service) CountResources(ctx context.Context, rc *authn.RequestContext, typ string) (int, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationList)
	if err != nil {
		return 0, err
	}

	prefix, err := keyspace.NewPrefix(tc.TenantID, typ)
	if err != nil {
		return 0, err
	}

	n, err := s.engine.Count(ctx, prefix)
	if err != nil {
		return 0, translate("scim/service.CountResources", err)
	}
	return n, nil
}

// UpdateResource replaces the resource's attributes wholesale.
func (s *Service) UpdateResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, attributes map[string]interface{}) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationUpdate)
	if err != nil {
		return nil, err
	}
	return s.mutateResource(ctx, tc, typ, id, scimdb.OperationUpdate, "", false, replaceAttributes(attributes))
}

// UpdateResourceConditional replaces the resource's attributes only when
// the stored version token matches expected. Under concurrent attempts
// from the same token exactly one succeeds; the rest observe the new
// token and fail with a conflict.
func (s *Service) UpdateResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, attributes map[string]interface{}) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationUpdate)
	if err != nil {
		return nil, err
	}
	return s.mutateResource(ctx, tc, typ, id, scimdb.OperationUpdate, expected, true, replaceAttributes(attributes))
}

// PatchResource merges the partial attribute set into the resource. A
// nil value removes the attribute.
func (s *Service) PatchResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, partial map[string]interface{}) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationPatch)
	if err != nil {
		return nil, err
	}
	return s.mutateResource(ctx, tc, typ, id, scimdb.OperationPatch, "", false, mergeAttributes(partial))
}

// PatchResourceConditional merges the partial attribute set only when
// the stored version token matches expected.
func (s *Service) PatchResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken, partial map[string]interface{}) (*scimdb.Resource, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationPatch)
	if err != nil {
		return nil, err
	}
	return s.mutateResource(ctx, tc, typ, id, scimdb.OperationPatch, expected, true, mergeAttributes(partial))
}

// DeleteResource removes the resource.
func (s *Service) DeleteResource(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID) error {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationDelete)
	if err != nil {
		return err
	}

	key, err := s.resourceKey(tc, typ, id)
	if err != nil {
		return err
	}

	existed, err := s.engine.Delete(ctx, key)
	if err != nil {
		return translate("scim/service.DeleteResource", err)
	}
	if !existed {
		return ErrResourceNotFound
	}
	return nil
}

// DeleteResourceConditional removes the resource only when the stored
// version token matches expected.
func (s *Service) DeleteResourceConditional(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, expected scimdb.VersionToken) error {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationDelete)
	if err != nil {
		return err
	}

	key, err := s.resourceKey(tc, typ, id)
	if err != nil {
		return err
	}

	_, err = s.engine.Apply(ctx, key, func(current []byte, found bool) ([]byte, error) {
		if !found {
			return nil, ErrResourceNotFound
		}
		existing, err := unmarshalResource(current)
		if err != nil {
			return nil, err
		}
		if existing.Meta.Version != expected {
			return nil, ErrVersionMismatch(expected, existing.Meta.Version)
		}
		return nil, nil
	})
	if err != nil {
		return translate("scim/service.DeleteResourceConditional", err)
	}
	return nil
}

// ResourceChangeLog returns the recorded mutations of the resource,
// oldest first unless opts request descending order. A resource that
// never existed has an empty log.
func (s *Service) ResourceChangeLog(ctx context.Context, rc *authn.RequestContext, typ string, id scimdb.ID, opts scimdb.FindOptions) ([]storage.ChangeEntry, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	tc, err := s.authorize(rc, scimdb.OperationRead)
	if err != nil {
		return nil, err
	}

	key, err := s.resourceKey(tc, typ, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.engine.ChangeLog(ctx, key, opts)
	if err != nil {
		return nil, translate("scim/service.ResourceChangeLog", err)
	}
	return entries, nil
}

// authorize gates an operation on the request context. It fails fast
// before any I/O when the context is unauthenticated or the tenant's
// permission set does not allow the operation.
func (s *Service) authorize(rc *authn.RequestContext, op scimdb.OperationKind) (scimdb.TenantContext, error) {
	if !rc.Authenticated() {
		return scimdb.TenantContext{}, ErrUnauthenticated
	}
	tc := rc.Tenant()
	if !tc.Permissions.Allows(op) {
		return scimdb.TenantContext{}, ErrPermissionDenied(op)
	}
	return tc, nil
}

func (s *Service) resourceKey(tc scimdb.TenantContext, typ string, id scimdb.ID) (keyspace.Key, error) {
	if !id.Valid() {
		return keyspace.Key{}, scimdb.ErrInvalidID
	}
	return keyspace.NewKey(tc.TenantID, typ, id.String())
}

// mutateResource runs the read-modify-write cycle for updates and
// patches inside one storage transaction. When conditional is set the
// stored token must equal expected before change is applied.
func (s *Service) mutateResource(ctx context.Context, tc scimdb.TenantContext, typ string, id scimdb.ID, op scimdb.OperationKind, expected scimdb.VersionToken, conditional bool, change func(*scimdb.Resource)) (*scimdb.Resource, error) {
	key, err := s.resourceKey(tc, typ, id)
	if err != nil {
		return nil, err
	}

	updated := new(scimdb.Resource)
	_, err = s.engine.Apply(ctx, key, func(current []byte, found bool) ([]byte, error) {
		if !found {
			return nil, ErrResourceNotFound
		}
		existing, err := unmarshalResource(current)
		if err != nil {
			return nil, err
		}
		if conditional && existing.Meta.Version != expected {
			return nil, ErrVersionMismatch(expected, existing.Meta.Version)
		}

		next := existing.Clone()
		change(next)
		next.Meta.SetLastModified(s.timeGen.Now().UTC())

		if err := s.validate(ctx, op, next); err != nil {
			return nil, err
		}

		version, err := computeVersion(next)
		if err != nil {
			return nil, err
		}
		next.Meta.Version = version

		buf, err := marshalResource(next)
		if err != nil {
			return nil, err
		}
		*updated = *next
		return buf, nil
	})
	if err != nil {
		return nil, translate("scim/service.mutateResource", err)
	}
	return updated, nil
}

// replaceAttributes returns a change function swapping the attribute
// set wholesale.
func replaceAttributes(attributes map[string]interface{}) func(*scimdb.Resource) {
	return func(r *scimdb.Resource) {
		if attributes == nil {
			attributes = map[string]interface{}{}
		}
		r.Attributes = attributes
	}
}

// mergeAttributes returns a change function applying a SCIM-style
// partial modification: present keys replace, nil values remove.
func mergeAttributes(partial map[string]interface{}) func(*scimdb.Resource) {
	return func(r *scimdb.Resource) {
		if r.Attributes == nil {
			r.Attributes = map[string]interface{}{}
		}
		for k, v := range partial {
			if v == nil {
				delete(r.Attributes, k)
				continue
			}
			r.Attributes[k] = v
		}
	}
}

// validate runs the installed hook. A hook error aborts the operation;
// errors without a code are reported as validation failures.
func (s *Service) validate(ctx context.Context, op scimdb.OperationKind, r *scimdb.Resource) error {
	if s.validator == nil {
		return nil
	}
	err := s.validator.Validate(ctx, op, r)
	if err == nil {
		return nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	return &errors.Error{Code: errors.EInvalid, Err: err}
}

// translate maps storage errors onto the service taxonomy: key misses
// become resource misses, coded domain errors pass through verbatim,
// anything else is an internal error that names the operation but not
// the backend detail.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.ErrorCode(err) == errors.ENotFound {
		return ErrResourceNotFound
	}

	var e *errors.Error
	if stderrors.As(err, &e) && e.Code != "" && e.Code != errors.EInternal {
		return err
	}
	return &errors.Error{Code: errors.EInternal, Op: op, Err: err}
}

func marshalResource(r *scimdb.Resource) ([]byte, error) {
	buf, err := json.Marshal(r)
	if err != nil {
		return nil, &errors.Error{Code: errors.EInternal, Op: "scim.marshalResource", Err: err}
	}
	return buf, nil
}

func unmarshalResource(buf []byte) (*scimdb.Resource, error) {
	r := new(scimdb.Resource)
	if err := json.Unmarshal(buf, r); err != nil {
		return nil, &errors.Error{
			Code: errors.EInternal,
			Msg:  "stored resource is corrupt",
			Err:  err,
		}
	}
	return r, nil
}
