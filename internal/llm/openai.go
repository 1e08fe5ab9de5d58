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

// OpenAIProvider calls the hosted OpenAI-compatible chat-completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider constructs an OpenAIProvider. baseURL defaults to
// https://api.openai.com when empty, which also lets a self-hosted
// OpenAI-compatible gateway be targeted by overriding it.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) messages(req Request) []openAIMessage {
	msgs := make([]openAIMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, openAIMessage{Role: "user", Content: req.Prompt})
	return msgs
}

func (p *OpenAIProvider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return req, nil
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: p.model, Messages: p.messages(req),
		Temperature: req.Temperature, MaxTokens: req.MaxTokens,
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

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", deepwikierr.ErrLLM, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: openai: %s", deepwikierr.ErrLLM, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", deepwikierr.ErrLLM)
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateStream implements Provider using OpenAI's server-sent-events
// delta stream.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(tokens)

		body, err := json.Marshal(openAIRequest{
			Model: p.model, Messages: p.messages(req),
			Temperature: req.Temperature, MaxTokens: req.MaxTokens, Stream: true,
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
			errs <- fmt.Errorf("%w: openai returned status %d", deepwikierr.ErrLLM, resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				return
			}
			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			for _, c := range chunk.Choices {
				if c.Delta.Content == "" {
					continue
				}
				select {
				case tokens <- c.Delta.Content:
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
func (p *OpenAIProvider) Name() string { return "openai:" + p.model }
