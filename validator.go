package scimdb

import (
	"context"
)

// OperationKind names an operation the resource service performs. It is
// the shared vocabulary between permission checks and validation hooks.
type OperationKind string

const (
	// OperationCreate is the creation of a new resource.
	OperationCreate OperationKind = "create"
	// OperationRead is a point read of a resource.
	OperationRead OperationKind = "read"
	// OperationUpdate is a full attribute replacement.
	OperationUpdate OperationKind = "update"
	// OperationPatch is a partial attribute merge.
	OperationPatch OperationKind = "patch"
	// OperationDelete is the removal of a resource.
	OperationDelete OperationKind = "delete"
	// OperationList is an enumeration or attribute search.
	OperationList OperationKind = "list"
)

// Valid reports whether k is one of the defined kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationCreate, OperationRead, OperationUpdate, OperationPatch, OperationDelete, OperationList:
		return true
	}
	return false
}

// Validator inspects resource content before a mutation is persisted.
// The resource passed in carries the state as it would be stored; an
// error returned here aborts the operation before any write happens.
type Validator interface {
	Validate(ctx context.Context, op OperationKind, r *Resource) error
}

// ValidatorFunc is a function adapter for Validator.
type ValidatorFunc func(ctx context.Context, op OperationKind, r *Resource) error

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, op OperationKind, r *Resource) error {
	return f(ctx, op, r)
}
