package sqlite

// Config represents the configuration options for the sqlite store.
type Config struct {
	Path string `toml:"path"`
}

// NewConfig returns a config with the default in-memory path, suitable
// for tests and ephemeral use.
func NewConfig() Config {
	return Config{
		Path: ":memory:",
	}
}
