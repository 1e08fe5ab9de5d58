package facade

import (
	"context"
	"fmt"
	"os"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
)

// embeddingDimensions maps a known model name to its vector width. Config
// never carries a dimensions field directly (spec.md keeps the on-disk
// schema to provider/model/base_url), so the façade resolves it from the
// model name, falling back to a common sentence-embedding width.
func embeddingDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 768
	}
}

// buildEmbedder translates config.EmbeddingConfig's provider names
// ("local", "openai") into embed.Config's ("local", "remote"), reading
// OPENAI_API_KEY from the environment for the latter since API keys never
// live in YAML-loadable config.
func buildEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embed.Provider, error) {
	dims := embeddingDimensions(cfg.Model)
	switch cfg.Provider {
	case "", "local":
		return embed.New(ctx, embed.Config{Provider: "local", BinaryPath: cfg.BaseURL, Model: cfg.Model, Dimensions: dims})
	case "openai":
		return embed.New(ctx, embed.Config{
			Provider:   "remote",
			Endpoint:   cfg.BaseURL,
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      cfg.Model,
			Dimensions: dims,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", deepwikierr.ErrInput, cfg.Provider)
	}
}

// buildLLM translates config.LLMConfig into llm.Config, reading the
// provider's API key from the environment (ANTHROPIC_API_KEY /
// OPENAI_API_KEY); ollama needs none.
func buildLLM(cfg config.LLMConfig) (llm.Provider, error) {
	var apiKey string
	switch cfg.Provider {
	case "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return llm.New(llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Endpoint: cfg.BaseURL,
		APIKey:   apiKey,
	})
}
