package scimdb

import (
	"strings"
)

// DefaultTenant is the reserved tenant identifier used by single-tenant
// deployments that never mint their own tenant ids.
const DefaultTenant = "default"

// IsolationLevel states how a tenant expects its data to be fenced from
// other tenants sharing the same store.
type IsolationLevel string

const (
	// IsolationShared permits the tenant to live in a store shared with
	// other tenants, fenced by the key space.
	IsolationShared IsolationLevel = "shared"
	// IsolationStrict records that the tenant was promised a dedicated
	// store. The engine treats it the same as shared; deployments use it
	// to route tenants to dedicated backends.
	IsolationStrict IsolationLevel = "strict"
)

// PermissionSet enumerates the operations a client may perform against
// its tenant's resources.
type PermissionSet struct {
	CanCreate bool `json:"canCreate"`
	CanRead   bool `json:"canRead"`
	CanUpdate bool `json:"canUpdate"`
	CanDelete bool `json:"canDelete"`
	CanList   bool `json:"canList"`
}

// NewPermissionSet builds a set allowing exactly the given operations.
func NewPermissionSet(ops ...OperationKind) PermissionSet {
	var p PermissionSet
	for _, op := range ops {
		switch op {
		case OperationCreate:
			p.CanCreate = true
		case OperationRead:
			p.CanRead = true
		case OperationUpdate, OperationPatch:
			p.CanUpdate = true
		case OperationDelete:
			p.CanDelete = true
		case OperationList:
			p.CanList = true
		}
	}
	return p
}

// FullAccess returns a set allowing every operation.
func FullAccess() PermissionSet {
	return PermissionSet{
		CanCreate: true,
		CanRead:   true,
		CanUpdate: true,
		CanDelete: true,
		CanList:   true,
	}
}

// Allows reports whether the set permits the given operation. Patch is
// governed by the update permission.
func (p PermissionSet) Allows(op OperationKind) bool {
	switch op {
	case OperationCreate:
		return p.CanCreate
	case OperationRead:
		return p.CanRead
	case OperationUpdate, OperationPatch:
		return p.CanUpdate
	case OperationDelete:
		return p.CanDelete
	case OperationList:
		return p.CanList
	default:
		return false
	}
}

// TenantContext is the resolved identity of an authenticated caller: the
// tenant whose data may be touched, the client acting on its behalf, and
// the rights and limits attached to that client.
//
// Contexts are treated as immutable once issued. Code handing a context
// to an untrusted party should pass the result of Clone.
type TenantContext struct {
	TenantID    string         `json:"tenantID"`
	ClientID    string         `json:"clientID,omitempty"`
	Isolation   IsolationLevel `json:"isolation,omitempty"`
	Permissions PermissionSet  `json:"permissions"`
	Quotas      map[string]int `json:"quotas,omitempty"`
}

// Clone returns a copy whose quota map is independently owned.
func (tc TenantContext) Clone() TenantContext {
	clone := tc
	if tc.Quotas != nil {
		clone.Quotas = make(map[string]int, len(tc.Quotas))
		for k, v := range tc.Quotas {
			clone.Quotas[k] = v
		}
	}
	return clone
}

// QuotaFor resolves the quota limiting how many resources of the given
// type the tenant may hold. The conventional key form is "max_users" for
// resource type "User"; a key matching the type verbatim is honored too.
// The second return is false when no quota applies.
func (tc TenantContext) QuotaFor(resourceType string) (int, bool) {
	if limit, ok := tc.Quotas["max_"+strings.ToLower(resourceType)+"s"]; ok {
		return limit, true
	}
	if limit, ok := tc.Quotas[resourceType]; ok {
		return limit, true
	}
	return 0, false
}
