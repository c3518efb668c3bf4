// Package config loads and validates the engine configuration from TOML.
// Missing files fall back to defaults so the engine remains usable without
// any setup.
package config
