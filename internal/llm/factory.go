package llm

import (
	"fmt"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// Config configures provider construction; mirrors the `llm:` section of
// the on-disk config.
type Config struct {
	Provider string // "ollama", "anthropic", "openai", "mock"
	Model    string
	Endpoint string // Ollama base URL, or an OpenAI-compatible gateway override
	APIKey   string

	Retry RetryConfig
}

// New constructs a Provider from cfg, wrapped in WithRetry.
func New(cfg Config) (Provider, error) {
	var base Provider
	switch cfg.Provider {
	case "ollama":
		base = NewOllamaProvider(cfg.Endpoint, cfg.Model)
	case "anthropic":
		base = NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case "openai":
		base = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", deepwikierr.ErrInput, cfg.Provider)
	}
	return WithRetry(base, cfg.Retry), nil
}
