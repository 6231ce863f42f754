package scimdb

import (
	"context"
)

// TenantDirectory resolves a credential secret to the tenant identity it
// stands for. Implementations decide what a secret is, an API key looked
// up in a file or a signed token carrying its own claims, and own the
// verification of it. A lookup that cannot match the secret must return
// an error; the authentication layer translates any directory error into
// an authentication failure without echoing the secret.
type TenantDirectory interface {
	LookupTenant(ctx context.Context, secret string) (TenantContext, error)
}
