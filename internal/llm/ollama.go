package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// OllamaProvider talks to a local Ollama daemon over HTTP by POSTing to its
// /api/generate endpoint.
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaProvider constructs an OllamaProvider. endpoint defaults to
// http://127.0.0.1:11434 when empty.
func NewOllamaProvider(endpoint, model string) *OllamaProvider {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:11434"
	}
	return &OllamaProvider{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *OllamaProvider) options(req Request) map[string]any {
	opts := map[string]any{}
	if req.Temperature > 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	return opts
}

// Generate implements Provider.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: p.model, Prompt: req.Prompt, System: req.System,
		Stream: false, Options: p.options(req),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: request: %v", deepwikierr.ErrLLM, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned status %d", deepwikierr.ErrLLM, resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", deepwikierr.ErrLLM, err)
	}
	return out.Response, nil
}

// GenerateStream implements Provider by consuming Ollama's newline-delimited
// JSON stream and forwarding each response fragment.
func (p *OllamaProvider) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(tokens)

		body, err := json.Marshal(ollamaRequest{
			Model: p.model, Prompt: req.Prompt, System: req.System,
			Stream: true, Options: p.options(req),
		})
		if err != nil {
			errs <- fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
			return
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			errs <- fmt.Errorf("%w: request: %v", deepwikierr.ErrLLM, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			errs <- fmt.Errorf("%w: ollama returned status %d", deepwikierr.ErrLLM, resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var chunk ollamaResponse
			if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
				errs <- fmt.Errorf("%w: decode stream chunk: %v", deepwikierr.ErrLLM, err)
				return
			}
			if chunk.Response != "" {
				select {
				case tokens <- chunk.Response:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("%w: stream read: %v", deepwikierr.ErrLLM, err)
		}
	}()

	return tokens, errs
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return "ollama:" + p.model }
