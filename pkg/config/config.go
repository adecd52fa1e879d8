// Package config loads and validates the esaudit configuration from
// defaults, an optional YAML file, and command-line flags (in that order of
// precedence, flags winning).
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"timeout":    "probe.timeout",
	"user-agent": "probe.user_agent",
	"proxy":      "probe.proxy",
	"insecure":   "probe.insecure",
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	validate      *validator.Validate
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		validate:      validator.New(),
	}
}

// DefaultConfig returns a Config populated with hardcoded default values.
// These serve as the baseline if no other source overrides them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "error",
			Format: "text",
		},
		Probe: ProbeConfig{
			Timeout:   10 * time.Second,
			UserAgent: "esaudit",
		},
	}
}

// defaultConfigAsMap flattens the defaults for the confmap provider.
func defaultConfigAsMap() map[string]any {
	defaults := DefaultConfig()
	return map[string]any{
		"log.level":        defaults.Log.Level,
		"log.format":       defaults.Log.Format,
		"probe.timeout":    defaults.Probe.Timeout,
		"probe.user_agent": defaults.Probe.UserAgent,
		"probe.proxy":      defaults.Probe.Proxy,
		"probe.insecure":   defaults.Probe.Insecure,
	}
}

// Load merges defaults, the optional YAML config file, and flags into the
// manager's current configuration.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(defaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading hardcoded defaults into koanf: %w", err)
	}

	if configFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file %q: %w", configFilePath, err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", m.koanfInstance, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := m.koanfInstance.Load(provider, nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}

	if err := m.validate.Struct(newCfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}
