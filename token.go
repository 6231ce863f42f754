package scimdb

// VersionToken is an opaque token identifying one revision of a resource's
// content. Tokens are derived from the stored content itself, so writing
// identical content yields an identical token. Comparison is exact string
// equality; callers must not parse the token.
type VersionToken string

// Valid reports whether the token carries a value.
func (v VersionToken) Valid() bool {
	return v != ""
}

func (v VersionToken) String() string {
	return string(v)
}

// TokenGenerator represents a generator for secrets.
type TokenGenerator interface {
	// Token generates a new secret.
	Token() (string, error)
}
