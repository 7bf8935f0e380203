package storecache

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Davincible/rx-utils/env"
	"github.com/Davincible/rx-utils/utils"
)

// Config represents the cache configuration
type Config struct {
	Timeout Timeout          // Default entry timeout, Infinite when unset
	Codec   Codec            // Value serialization, JSONCodec when nil
	Logger  *slog.Logger     // Sweep and self-healing logs, discarded when nil
	Now     func() time.Time // Clock, time.Now when nil
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout: Infinite,
		Codec:   JSONCodec{},
		Logger:  slog.New(slog.DiscardHandler),
		Now:     time.Now,
	}
}

// Validate checks the configuration for errors and fills in defaults
func (c *Config) Validate() error {
	if c.Timeout <= 0 && !c.Timeout.IsInfinite() {
		return fmt.Errorf("%w: timeout must be positive or Infinite", ErrInvalidConfig)
	}
	if c.Codec == nil {
		c.Codec = JSONCodec{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// ConfigFromEnv builds a Config from <prefix>_TIMEOUT ("90s", "1d", "infinite")
// and <prefix>_CODEC ("json", "msgpack").
func ConfigFromEnv(prefix string) (*Config, error) {
	cfg := DefaultConfig()

	if raw := env.GetEnv(prefix + "_TIMEOUT"); raw != "" {
		if strings.EqualFold(raw, "infinite") || raw == TimeoutInfinite {
			cfg.Timeout = Infinite
		} else {
			d, err := utils.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s_TIMEOUT: %w", ErrInvalidConfig, prefix, err)
			}
			cfg.Timeout = Timeout(d)
		}
	}

	switch codec := strings.ToLower(env.GetEnv(prefix+"_CODEC", "json")); codec {
	case "json":
		cfg.Codec = JSONCodec{}
	case "msgpack":
		cfg.Codec = MsgpackCodec{}
	default:
		return nil, fmt.Errorf("%w: %s_CODEC: unknown codec %q", ErrInvalidConfig, prefix, codec)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
