package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// global holds the process-wide configuration.
	global atomic.Pointer[Config]

	// initOnce ensures Initialize loads only once.
	initOnce sync.Once
)

// Initialize loads configuration from path with environment overrides and
// stores it as the process-wide configuration. Only the first call loads;
// later calls return nil without touching the stored value. An empty path
// configures the service from defaults and the environment.
func Initialize(path string) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		global.Store(cfg)
	})
	return initErr
}

// GetConfig returns the process-wide configuration, or nil before a
// successful Initialize. Callers must treat the value as read-only.
//
// Library code takes a *Config explicitly; GetConfig is for the command
// entry points.
func GetConfig() *Config {
	return global.Load()
}

// SetConfig replaces the process-wide configuration. It exists for tests
// and for the CLI, which builds its configuration from flags.
func SetConfig(cfg *Config) {
	global.Store(cfg)
}

// ReloadConfig loads path again and swaps it in. On error the current
// configuration stays in place.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	global.Store(cfg)
	return nil
}

// MustGetConfig is GetConfig that panics when the configuration has not
// been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
