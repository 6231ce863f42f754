package mock

import (
	"context"

	"github.com/scimdb/scimdb"
)

var _ scimdb.Validator = (*Validator)(nil)

// Validator is a mock implementation of scimdb.Validator.
type Validator struct {
	ValidateFn func(ctx context.Context, op scimdb.OperationKind, r *scimdb.Resource) error
}

// Validate applies a mock validation function to the resource.
func (v *Validator) Validate(ctx context.Context, op scimdb.OperationKind, r *scimdb.Resource) error {
	return v.ValidateFn(ctx, op, r)
}
