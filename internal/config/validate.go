package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidEmbeddingProvider = errors.New("invalid embedding provider")
	ErrInvalidLLMProvider       = errors.New("invalid llm provider")
	ErrEmptyModel               = errors.New("empty model")
	ErrInvalidChunking          = errors.New("invalid chunking configuration")
	ErrInvalidLLMCache          = errors.New("invalid llm_cache configuration")
	ErrInvalidDeepResearch      = errors.New("invalid deep_research configuration")
)

var validEmbeddingProviders = map[string]bool{"local": true, "openai": true}
var validLLMProviders = map[string]bool{"ollama": true, "anthropic": true, "openai": true}

// Validate checks that cfg is internally consistent, aggregating every
// violation found rather than stopping at the first.
func Validate(cfg *Config) error {
	var errs []error

	if !validEmbeddingProviders[strings.ToLower(cfg.Embedding.Provider)] {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidEmbeddingProvider, cfg.Embedding.Provider))
	}
	if strings.TrimSpace(cfg.Embedding.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: embedding.model is required", ErrEmptyModel))
	}

	if !validLLMProviders[strings.ToLower(cfg.LLM.Provider)] {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLLMProvider, cfg.LLM.Provider))
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: llm.model is required", ErrEmptyModel))
	}

	if cfg.Chunking.ClassSplitThreshold <= 0 {
		errs = append(errs, fmt.Errorf("%w: class_split_threshold must be positive, got %d", ErrInvalidChunking, cfg.Chunking.ClassSplitThreshold))
	}
	if cfg.Chunking.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidChunking, cfg.Chunking.BatchSize))
	}
	if cfg.Chunking.OverlapTokens < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap_tokens cannot be negative, got %d", ErrInvalidChunking, cfg.Chunking.OverlapTokens))
	}

	if cfg.LLMCache.Enabled {
		if cfg.LLMCache.SimilarityThreshold <= 0 || cfg.LLMCache.SimilarityThreshold > 1 {
			errs = append(errs, fmt.Errorf("%w: similarity_threshold must be in (0,1], got %f", ErrInvalidLLMCache, cfg.LLMCache.SimilarityThreshold))
		}
		if cfg.LLMCache.MaxEntries <= 0 {
			errs = append(errs, fmt.Errorf("%w: max_entries must be positive, got %d", ErrInvalidLLMCache, cfg.LLMCache.MaxEntries))
		}
	}

	resolved := cfg.DeepResearch.Resolve()
	if resolved.MaxSubQuestions <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_sub_questions must be positive, got %d", ErrInvalidDeepResearch, resolved.MaxSubQuestions))
	}
	if resolved.ChunksPerSubquestion <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunks_per_subquestion must be positive, got %d", ErrInvalidDeepResearch, resolved.ChunksPerSubquestion))
	}
	if resolved.MaxTotalChunks <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_total_chunks must be positive, got %d", ErrInvalidDeepResearch, resolved.MaxTotalChunks))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
