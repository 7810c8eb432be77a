package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"4000"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ValidatePort reports an error when port is outside the TCP port range.
func ValidatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s: %d (must be 1-65535)", name, port)
	}
	return nil
}

// ValidateSecret rejects a signing secret that is still the shipped default or
// shorter than minLen. Development environments may keep the default.
func ValidateSecret(environment, secret, defaultSecret string, minLen int) error {
	if environment == "development" {
		return nil
	}
	if secret == "" || secret == defaultSecret {
		return fmt.Errorf("a non-default secret must be set in %s environment", environment)
	}
	if len(secret) < minLen {
		return fmt.Errorf("secret must be at least %d characters in %s environment", minLen, environment)
	}
	return nil
}
