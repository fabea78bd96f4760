package server

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the gramserver configuration file format, loaded by cmd/gramserver
// from a TOML file (see internal/tqw's marshaledtypes.go in the teacher
// lineage for the same BurntSushi/toml convention, there used for world
// files; here it loads server settings instead).
type Config struct {
	// ListenAddress is the BIND_ADDRESS:PORT to listen on.
	ListenAddress string `toml:"listen_address"`

	// DataDir is the directory holding gramlock.db (grammars + checkpoints).
	DataDir string `toml:"data_dir"`

	// Secret signs and verifies bearer JWTs. At least 32 bytes is
	// recommended; shorter secrets are repeated to fill 32.
	Secret string `toml:"secret"`

	// UnauthDelaySeconds is how long a 401/403/500 response is held before
	// being written back, to deprioritize unauthenticated/failing traffic.
	UnauthDelaySeconds float64 `toml:"unauth_delay_seconds"`
}

// UnauthDelay converts UnauthDelaySeconds to a time.Duration.
func (c Config) UnauthDelay() time.Duration {
	return time.Duration(c.UnauthDelaySeconds * float64(time.Second))
}

// Validate checks that c has enough information to start a server.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	return nil
}

// LoadConfig reads and parses a TOML config file at path.
func LoadConfig(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	if c.UnauthDelaySeconds == 0 {
		c.UnauthDelaySeconds = 1
	}
	return c, nil
}
