package scim

import (
	"fmt"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
)

var (
	// ErrUnauthenticated is returned when an operation is invoked with a
	// nil or unauthenticated request context. No I/O happens.
	ErrUnauthenticated = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "request context is not authenticated",
	}

	// ErrResourceNotFound is returned when no resource exists under the
	// addressed key.
	ErrResourceNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "resource not found",
	}
)

// ErrPermissionDenied names the operation the tenant's permission set
// does not allow. Not retryable until the grant changes.
func ErrPermissionDenied(op scimdb.OperationKind) *errors.Error {
	return &errors.Error{
		Code: errors.EForbidden,
		Msg:  fmt.Sprintf("tenant is not permitted to %s resources", op),
	}
}

// ErrVersionMismatch reports a conditional operation that lost the race:
// the stored token no longer matches the caller's. Recoverable by
// re-reading and retrying with the current token.
func ErrVersionMismatch(expected, actual scimdb.VersionToken) *errors.Error {
	return &errors.Error{
		Code: errors.EConflict,
		Msg:  fmt.Sprintf("version mismatch: expected %s, actual %s", expected, actual),
	}
}

// ErrQuotaExceeded reports that creating one more resource of the type
// would exceed the tenant's limit.
func ErrQuotaExceeded(resourceType string, limit, count int) *errors.Error {
	return &errors.Error{
		Code: errors.ETooManyRequests,
		Msg:  fmt.Sprintf("quota exceeded for resource type %q: limit %d, have %d", resourceType, limit, count),
	}
}
