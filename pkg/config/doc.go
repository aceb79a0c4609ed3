// Package config defines the argus configuration model and its loading
// pipeline.
//
// Configuration is YAML with environment variable overrides. Loading runs
// in a fixed sequence: parse the file, apply defaults, apply ARGUS_*
// environment overrides, validate. Validation failures name the offending
// field so a bad deployment fails fast at startup instead of misbehaving
// later.
package config
