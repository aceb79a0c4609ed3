package engine

import (
	"fmt"

	"argus-hq/argus/pkg/policy/schema"
)

// Config contains configuration for the policy engine.
type Config struct {
	// DefaultEffect applies when no rule matches.
	// Default: allow.
	DefaultEffect schema.Effect

	// StopOnFirstMatch stops scanning at the first matching
	// require_approval rule instead of accumulating requirements across
	// all matching rules.
	// Default: false.
	StopOnFirstMatch bool

	// MaxDocuments caps the number of loaded documents. Prevents
	// unbounded growth from a misbehaving policy source.
	// Default: 100.
	MaxDocuments int

	// MaxRulesPerDocument caps the rule count of one document.
	// Default: 200.
	MaxRulesPerDocument int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultEffect:       schema.EffectAllow,
		StopOnFirstMatch:    false,
		MaxDocuments:        100,
		MaxRulesPerDocument: 200,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if !schema.ValidEffect(c.DefaultEffect) {
		return fmt.Errorf("%w: invalid default effect %q", ErrInvalidConfig, c.DefaultEffect)
	}
	if c.DefaultEffect == schema.EffectRequireApproval {
		return fmt.Errorf("%w: default effect cannot be require_approval", ErrInvalidConfig)
	}
	if c.MaxDocuments <= 0 {
		return fmt.Errorf("%w: max documents must be positive", ErrInvalidConfig)
	}
	if c.MaxRulesPerDocument <= 0 {
		return fmt.Errorf("%w: max rules per document must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithDefaultEffect sets the effect applied when no rule matches.
func (c *Config) WithDefaultEffect(effect schema.Effect) *Config {
	c.DefaultEffect = effect
	return c
}

// WithStopOnFirstMatch sets first-match behavior for require_approval rules.
func (c *Config) WithStopOnFirstMatch(stop bool) *Config {
	c.StopOnFirstMatch = stop
	return c
}

// WithMaxDocuments sets the loaded-document cap.
func (c *Config) WithMaxDocuments(max int) *Config {
	c.MaxDocuments = max
	return c
}

// WithMaxRulesPerDocument sets the per-document rule cap.
func (c *Config) WithMaxRulesPerDocument(max int) *Config {
	c.MaxRulesPerDocument = max
	return c
}
