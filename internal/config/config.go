// Package config loads the server's boot-time TOML configuration, mirroring
// bastionai_app/src/main.rs's toml::from_str::<NetworkConfig> read of
// config.toml.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Network describes the listen address the gRPC server binds to.
type Network struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Address returns the host:port listen address.
func (n Network) Address() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// TLS names the two PEM files the server's X.509 identity is loaded from
// at boot (§6: "a conventional tls/ directory").
type TLS struct {
	CertPath string `toml:"cert_path"`
	KeyPath  string `toml:"key_path"`
}

// Auth configures the session layer's key directory and token lifetime.
type Auth struct {
	KeysDir           string `toml:"keys_dir"`
	SessionExpirySecs int64  `toml:"session_expiry_secs"`
}

// SessionTTL returns the configured session expiry as a time.Duration.
func (a Auth) SessionTTL() time.Duration {
	return time.Duration(a.SessionExpirySecs) * time.Second
}

// Config is the top-level boot-time configuration file contents.
type Config struct {
	Network Network `toml:"network"`
	TLS     TLS     `toml:"tls"`
	Auth    Auth    `toml:"auth"`
}

// Load reads and parses the TOML configuration file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, nil
}
