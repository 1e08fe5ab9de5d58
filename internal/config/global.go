package config

import (
	"context"
	"sync"
)

var (
	globalMu  sync.RWMutex
	globalCfg *Config = Default()
)

// Set installs cfg as the process-wide configuration, read by Get and by
// FromContext when no context-scoped override is present.
func Set(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// Get returns the process-wide configuration, or built-in defaults if
// Set has never been called.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

type overrideKey struct{}

// WithOverride returns a context carrying cfg as a scoped override,
// letting tests exercise non-default configuration without mutating the
// process-wide value returned by Get.
func WithOverride(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, overrideKey{}, cfg)
}

// FromContext returns ctx's override if WithOverride was used upstream,
// otherwise the process-wide configuration from Get.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(overrideKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	return Get()
}
