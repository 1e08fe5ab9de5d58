package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// permanentEmbedErr marks a RemoteProvider failure that retrying would not
// fix: malformed request/response bodies, or a non-transient HTTP status.
type permanentEmbedErr struct{ err error }

func (e *permanentEmbedErr) Error() string { return e.err.Error() }
func (e *permanentEmbedErr) Unwrap() error { return e.err }

// RemoteProvider calls a hosted embeddings API over HTTPS, retrying
// transient failures with exponential backoff and jitter.
type RemoteProvider struct {
	endpoint   string
	apiKey     string
	model      string
	dims       int
	client     *http.Client
	maxRetries int
}

// RemoteConfig configures a RemoteProvider.
type RemoteConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	Dimensions int
	MaxRetries int // default 3
}

// NewRemoteProvider constructs a RemoteProvider from cfg.
func NewRemoteProvider(cfg RemoteConfig) *RemoteProvider {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &RemoteProvider{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dims:       cfg.Dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: retries,
	}
}

type remoteEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type remoteEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Provider, retrying on transient HTTP/network failures.
func (p *RemoteProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		out, err := p.doEmbed(ctx, texts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableEmbedErr(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: exhausted retries: %v", deepwikierr.ErrEmbedding, lastErr)
}

func (p *RemoteProvider) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(remoteEmbedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, &permanentEmbedErr{fmt.Errorf("%w: %v", deepwikierr.ErrEmbedding, err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &permanentEmbedErr{fmt.Errorf("%w: %v", deepwikierr.ErrEmbedding, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request: %v", deepwikierr.ErrEmbedding, err) // network error: retryable
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: transient status %d", deepwikierr.ErrEmbedding, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &permanentEmbedErr{fmt.Errorf("%w: status %d", deepwikierr.ErrEmbedding, resp.StatusCode)}
	}

	var parsed remoteEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &permanentEmbedErr{fmt.Errorf("%w: decode response: %v", deepwikierr.ErrEmbedding, err)}
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func isRetryableEmbedErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var perm *permanentEmbedErr
	return !errors.As(err, &perm)
}

func backoffDelay(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * 200 * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(base / 2)))
	return base + jitter
}

// Dimensions implements Provider.
func (p *RemoteProvider) Dimensions() int { return p.dims }

// Name implements Provider.
func (p *RemoteProvider) Name() string { return "remote:" + p.model }

// Close implements Provider; RemoteProvider holds no process resources.
func (p *RemoteProvider) Close() error { return nil }
