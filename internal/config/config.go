// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the full configuration surface of the server. All fields are
// populated from environment variables with sensible defaults, so a bare
// `ftpserver` invocation serves 127.0.0.1:8080 out of ./files.
type Config struct {
	// Host is the address to bind the listener to.
	Host string `env:"FTP_HOST" envDefault:"127.0.0.1"`
	// Port is the TCP port to listen on.
	Port int `env:"FTP_PORT" envDefault:"8080"`
	// StorageRoot is the directory uploaded files are stored in. Created on
	// startup if missing.
	StorageRoot string `env:"FTP_STORAGE_ROOT" envDefault:"./files"`
	// MaxConns caps concurrent client connections; 0 means unlimited.
	// Excess connections are closed immediately after accept.
	MaxConns int `env:"FTP_MAX_CONNS" envDefault:"0"`
	// ReadTimeout is the per-connection read-idle timeout; 0 disables it.
	ReadTimeout time.Duration `env:"FTP_READ_TIMEOUT" envDefault:"5m"`
	// LogLevel is the minimum zerolog level (debug, info, warn, error).
	LogLevel string `env:"FTP_LOG_LEVEL" envDefault:"info"`
	// ListCacheTTL is how long directory listings are cached for ls.
	ListCacheTTL time.Duration `env:"FTP_LIST_CACHE_TTL" envDefault:"2s"`
	// RedisAddr selects the Redis listing-cache backend when non-empty;
	// empty uses the in-process cache.
	RedisAddr string `env:"FTP_REDIS_ADDR"`
}

// Load reads the configuration from the environment.
//
// Returns:
//   - The populated Config
//   - An error if a variable cannot be parsed or a value is out of range
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.MaxConns < 0 {
		return Config{}, fmt.Errorf("invalid max connections %d", cfg.MaxConns)
	}

	return cfg, nil
}

// Addr returns the listener address in host:port form.
//
// Returns:
//   - The address string suitable for net.Listen
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
