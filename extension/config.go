package extension

import "time"

// Config holds the solesub extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.solesub" or "solesub" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for membership routes (default: "/membership").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Driver selects the store built around a grove.DB passed with
	// WithGroveDB: "sqlite", "postgres" or "mongo".
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// Price is the membership fee in minor units of Currency. It seeds the
	// plan on first start only; later changes go through SetPrice.
	Price int64 `json:"price" mapstructure:"price" yaml:"price"`

	// Currency is the ISO 4217 code of Price (default: "usd").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// Duration is how long an issuance or renewal lasts (default: 720h).
	Duration time.Duration `json:"duration" mapstructure:"duration" yaml:"duration"`

	// Admins are granted admin rights on the in-memory gate.
	Admins []string `json:"admins" mapstructure:"admins" yaml:"admins"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/membership",
		Currency: "usd",
		Duration: 30 * 24 * time.Hour,
	}
}
