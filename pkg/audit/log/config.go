package log

import (
	"fmt"

	"argus-hq/argus/pkg/audit/chain"
)

// Config contains configuration for one audit log instance.
type Config struct {
	// Algorithm selects the chain hash algorithm, recorded per entry.
	// Default: sha-256.
	Algorithm chain.Algorithm

	// MaxAppendRetries bounds the optimistic-concurrency retry loop. When
	// exhausted, the conflict is surfaced to the caller.
	// Default: 5.
	MaxAppendRetries int
}

// DefaultConfig returns the default log configuration.
func DefaultConfig() *Config {
	return &Config{
		Algorithm:        chain.DefaultAlgorithm,
		MaxAppendRetries: 5,
	}
}

// Validate validates the log configuration.
func (c *Config) Validate() error {
	if !c.Algorithm.Valid() {
		return fmt.Errorf("invalid log configuration: unsupported algorithm %q", c.Algorithm)
	}
	if c.MaxAppendRetries <= 0 {
		return fmt.Errorf("invalid log configuration: max append retries must be positive")
	}
	return nil
}

// WithAlgorithm sets the chain hash algorithm.
func (c *Config) WithAlgorithm(a chain.Algorithm) *Config {
	c.Algorithm = a
	return c
}

// WithMaxAppendRetries sets the append retry bound.
func (c *Config) WithMaxAppendRetries(n int) *Config {
	c.MaxAppendRetries = n
	return c
}
