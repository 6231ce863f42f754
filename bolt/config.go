package bolt

import (
	"time"

	"github.com/scimdb/scimdb/toml"
)

// DefaultTimeout is how long to wait on the boltdb file lock before
// giving up on Open.
const DefaultTimeout = 1 * time.Second

type Config struct {
	Path    string        `toml:"path"`
	Timeout toml.Duration `toml:"timeout"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Timeout: toml.Duration(DefaultTimeout),
	}
}
