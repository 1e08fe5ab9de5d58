package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// AnthropicProvider calls the hosted Anthropic Messages API.
type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewAnthropicProvider constructs an AnthropicProvider. baseURL defaults to
// https://api.anthropic.com when empty.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (p *AnthropicProvider) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return 4096
}

// Generate implements Provider.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       p.model,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   p.maxTokens(req),
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
	}
	httpReq, err := p.newRequest(ctx, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: request: %v", deepwikierr.ErrLLM, err)
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", deepwikierr.ErrLLM, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: anthropic: %s", deepwikierr.ErrLLM, msg)
	}
	var sb strings.Builder
	for _, c := range parsed.Content {
		sb.WriteString(c.Text)
	}
	return sb.String(), nil
}

// GenerateStream implements Provider using Anthropic's server-sent-events
// stream, forwarding each text delta.
func (p *AnthropicProvider) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(tokens)

		body, err := json.Marshal(anthropicRequest{
			Model:       p.model,
			System:      req.System,
			Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
			MaxTokens:   p.maxTokens(req),
			Temperature: req.Temperature,
			Stream:      true,
		})
		if err != nil {
			errs <- fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
			return
		}
		httpReq, err := p.newRequest(ctx, body)
		if err != nil {
			errs <- fmt.Errorf("%w: %v", deepwikierr.ErrLLM, err)
			return
		}

		resp, err := p.client.Do(httpReq)
		if err != nil {
			errs <- fmt.Errorf("%w: request: %v", deepwikierr.ErrLLM, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			errs <- fmt.Errorf("%w: anthropic returned status %d", deepwikierr.ErrLLM, resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			var event struct {
				Type  string `json:"type"`
				Delta struct {
					Text string `json:"text"`
				} `json:"delta"`
			}
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				continue // non-JSON keepalive lines are expected in SSE
			}
			if event.Type == "content_block_delta" && event.Delta.Text != "" {
				select {
				case tokens <- event.Delta.Text:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("%w: stream read: %v", deepwikierr.ErrLLM, err)
		}
	}()

	return tokens, errs
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic:" + p.model }
