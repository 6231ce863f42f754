package mock

import (
	"context"

	"github.com/scimdb/scimdb"
)

var _ scimdb.TenantDirectory = (*TenantDirectory)(nil)

// TenantDirectory is a mock implementation of scimdb.TenantDirectory.
type TenantDirectory struct {
	LookupTenantFn func(ctx context.Context, secret string) (scimdb.TenantContext, error)
}

// LookupTenant resolves a credential secret from a mock function.
func (d *TenantDirectory) LookupTenant(ctx context.Context, secret string) (scimdb.TenantContext, error) {
	return d.LookupTenantFn(ctx, secret)
}
