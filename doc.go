// Package scimdb is the shared vocabulary of the scimdb identity-resource
// core: a protocol-agnostic, multi-tenant store for SCIM-style resources.
//
// The root package holds the domain types every subsystem speaks
// (resources and their server-managed metadata, tenant contexts,
// operation kinds, identifiers) and the interfaces of the external
// collaborators (TenantDirectory, Validator). The behavior lives in the
// subpackages:
// keyspace and storage form the tenant-scoped storage engine, scim is the
// resource engine layered on it, and authn is the authentication chain
// that produces the only values the resource engine's tenant-scoped
// operations accept.
package scimdb
