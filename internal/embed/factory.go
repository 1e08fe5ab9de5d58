package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// Config configures provider construction; mirrors the `embedding:` section
// of the on-disk config.
type Config struct {
	Provider   string // "local", "remote", "mock"
	BinaryPath string
	Port       int
	Dimensions int

	Endpoint   string
	APIKey     string
	Model      string
	MaxRetries int

	StartTimeout time.Duration
}

// New constructs a Provider from cfg. Local providers are started (the
// daemon process is spawned and health-checked) before New returns.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		binary := cfg.BinaryPath
		if binary == "" {
			binary = "deepwiki-embed"
		}
		port := cfg.Port
		if port == 0 {
			port = 8756
		}
		timeout := cfg.StartTimeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		p := NewLocalProvider(binary, port, cfg.Dimensions)
		if err := p.Start(ctx, timeout); err != nil {
			return nil, err
		}
		return p, nil

	case "remote":
		return NewRemoteProvider(RemoteConfig{
			Endpoint:   cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
		}), nil

	case "mock":
		return NewMockProvider(cfg.Dimensions), nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", deepwikierr.ErrInput, cfg.Provider)
	}
}
