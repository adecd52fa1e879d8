package config

import "time"

// Config is the root configuration structure for esaudit. It aggregates all
// other specific configuration structs.
type Config struct {
	Log   LogConfig   `description:"Logging configuration" koanf:"log" validate:"required"`
	Probe ProbeConfig `description:"Probe transport configuration" koanf:"probe" validate:"required"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level for esaudit logs" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"omitempty,oneof=json text"`
}

// ProbeConfig holds transport settings shared by all probe requests.
type ProbeConfig struct {
	Timeout   time.Duration `description:"Per-request timeout" koanf:"timeout"`
	UserAgent string        `description:"User-Agent header sent with probe requests" koanf:"user_agent"`
	Proxy     string        `description:"Proxy URL for probe requests" koanf:"proxy" validate:"omitempty,url"`
	Insecure  bool          `description:"Skip TLS certificate verification" koanf:"insecure"`
}
