package authn

import (
	"github.com/scimdb/scimdb/toml"
)

// Config holds the authentication settings an operator tunes.
type Config struct {
	WitnessTTL toml.Duration `toml:"witness-ttl"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		WitnessTTL: toml.Duration(DefaultWitnessTTL),
	}
}
