package authn

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/scimdb/scimdb"
	"github.com/scimdb/scimdb/kit/errors"
	"github.com/scimdb/scimdb/rand"
)

// StaticDirectory maps a fixed set of secrets to tenant identities. It
// is populated from a yaml file or by Register calls and is safe for
// concurrent lookup.
//
// Entries are keyed by a blake3 digest of the secret, so plaintext
// secrets never appear as map keys. Verification runs bcrypt over the
// digest rather than the raw secret, which keeps arbitrarily long
// secrets inside bcrypt's 72 byte input limit.
type StaticDirectory struct {
	mu      sync.RWMutex
	entries map[string]staticEntry
	cost    int
	tokens  scimdb.TokenGenerator
}

type staticEntry struct {
	hash   []byte
	tenant scimdb.TenantContext
}

// StaticDirectoryOption configures a StaticDirectory.
type StaticDirectoryOption func(*StaticDirectory)

// WithCost sets the bcrypt cost used when registering secrets.
func WithCost(cost int) StaticDirectoryOption {
	return func(d *StaticDirectory) {
		d.cost = cost
	}
}

// WithTokenGenerator sets the generator Provision mints secrets with.
func WithTokenGenerator(g scimdb.TokenGenerator) StaticDirectoryOption {
	return func(d *StaticDirectory) {
		d.tokens = g
	}
}

// NewStaticDirectory returns an empty directory.
func NewStaticDirectory(opts ...StaticDirectoryOption) *StaticDirectory {
	d := &StaticDirectory{
		entries: make(map[string]staticEntry),
		cost:    bcrypt.DefaultCost,
		tokens:  rand.NewTokenGenerator(64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// staticDirectoryFile is the yaml form of the directory.
type staticDirectoryFile struct {
	Tenants []staticDirectoryEntry `yaml:"tenants"`
}

type staticDirectoryEntry struct {
	Secret      string         `yaml:"secret"`
	TenantID    string         `yaml:"tenantID"`
	ClientID    string         `yaml:"clientID"`
	Isolation   string         `yaml:"isolation"`
	Permissions []string       `yaml:"permissions"`
	Quotas      map[string]int `yaml:"quotas"`
}

// NewStaticDirectoryFromFile loads a directory from a yaml file. Secrets
// are hashed during the load; the plaintext is not retained.
func NewStaticDirectoryFromFile(path string, opts ...StaticDirectoryOption) (*StaticDirectory, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file staticDirectoryFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "malformed tenant directory file",
			Op:   "authn.NewStaticDirectoryFromFile",
			Err:  err,
		}
	}

	d := NewStaticDirectory(opts...)
	for i, entry := range file.Tenants {
		tc, err := entry.tenantContext()
		if err != nil {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Msg:  fmt.Sprintf("tenant entry %d is invalid", i),
				Op:   "authn.NewStaticDirectoryFromFile",
				Err:  err,
			}
		}
		if err := d.Register(entry.Secret, tc); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e staticDirectoryEntry) tenantContext() (scimdb.TenantContext, error) {
	if e.TenantID == "" {
		return scimdb.TenantContext{}, &errors.Error{Code: errors.EEmptyValue, Msg: "tenantID is empty"}
	}

	ops := make([]scimdb.OperationKind, 0, len(e.Permissions))
	for _, p := range e.Permissions {
		op := scimdb.OperationKind(p)
		if !op.Valid() {
			return scimdb.TenantContext{}, &errors.Error{
				Code: errors.EInvalid,
				Msg:  fmt.Sprintf("unknown permission %q", p),
			}
		}
		ops = append(ops, op)
	}

	isolation := scimdb.IsolationLevel(e.Isolation)
	if isolation == "" {
		isolation = scimdb.IsolationShared
	}

	return scimdb.TenantContext{
		TenantID:    e.TenantID,
		ClientID:    e.ClientID,
		Isolation:   isolation,
		Permissions: scimdb.NewPermissionSet(ops...),
		Quotas:      e.Quotas,
	}, nil
}

// Register adds a secret for the tenant. Registering a secret twice
// fails with EConflict.
func (d *StaticDirectory) Register(secret string, tc scimdb.TenantContext) error {
	if secret == "" {
		return &errors.Error{Code: errors.EEmptyValue, Msg: "secret is empty"}
	}

	fp := secretDigest(secret)
	hash, err := bcrypt.GenerateFromPassword([]byte(fp), d.cost)
	if err != nil {
		return &errors.Error{Code: errors.EInternal, Op: "authn.StaticDirectory.Register", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[fp]; ok {
		return &errors.Error{Code: errors.EConflict, Msg: "credential already registered"}
	}
	d.entries[fp] = staticEntry{hash: hash, tenant: tc.Clone()}
	return nil
}

// Provision mints a fresh secret for the tenant, registers it and
// returns the plaintext. The plaintext is not recoverable afterwards;
// only its hash is retained.
func (d *StaticDirectory) Provision(tc scimdb.TenantContext) (string, error) {
	secret, err := d.tokens.Token()
	if err != nil {
		return "", &errors.Error{Code: errors.EInternal, Op: "authn.StaticDirectory.Provision", Err: err}
	}
	if err := d.Register(secret, tc); err != nil {
		return "", err
	}
	return secret, nil
}

// LookupTenant implements scimdb.TenantDirectory.
func (d *StaticDirectory) LookupTenant(_ context.Context, secret string) (scimdb.TenantContext, error) {
	fp := secretDigest(secret)

	d.mu.RLock()
	entry, ok := d.entries[fp]
	d.mu.RUnlock()
	if !ok {
		return scimdb.TenantContext{}, ErrUnknownCredential
	}

	if err := bcrypt.CompareHashAndPassword(entry.hash, []byte(fp)); err != nil {
		return scimdb.TenantContext{}, ErrUnknownCredential
	}
	return entry.tenant.Clone(), nil
}

// secretDigest returns the hex blake3 digest a secret is filed under.
func secretDigest(secret string) string {
	sum := blake3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
