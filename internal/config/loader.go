package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads a Config for one repository root.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader returns a Loader rooted at rootDir, whose config file lives at
// <rootDir>/.deepwiki/config.yml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load reads configuration with priority (highest to lowest):
// environment variables (DEEPWIKI_*) > .deepwiki/config.yml > built-in
// defaults, then validates the result.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".deepwiki")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("DEEPWIKI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars(v)

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromDir is a convenience wrapper around NewLoader(rootDir).Load().
func LoadFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

func bindEnvVars(v *viper.Viper) {
	for _, key := range []string{
		"embedding.provider", "embedding.model", "embedding.base_url",
		"llm.provider", "llm.model", "llm.base_url",
		"llm_cache.enabled", "llm_cache.ttl_seconds", "llm_cache.max_entries",
		"llm_cache.similarity_threshold", "llm_cache.max_cacheable_temperature",
		"parsing.max_file_size",
		"chunking.max_chunk_tokens", "chunking.overlap_tokens",
		"chunking.batch_size", "chunking.class_split_threshold",
		"wiki.max_file_docs", "wiki.max_concurrent_llm_calls",
		"wiki.use_cloud_for_github",
		"deep_research.preset",
		"output.wiki_dir", "output.vector_db_name",
	} {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)

	v.SetDefault("llm_cache.enabled", d.LLMCache.Enabled)
	v.SetDefault("llm_cache.ttl_seconds", d.LLMCache.TTLSeconds)
	v.SetDefault("llm_cache.max_entries", d.LLMCache.MaxEntries)
	v.SetDefault("llm_cache.similarity_threshold", d.LLMCache.SimilarityThreshold)
	v.SetDefault("llm_cache.max_cacheable_temperature", d.LLMCache.MaxCacheableTemperature)

	v.SetDefault("parsing.languages", d.Parsing.Languages)
	v.SetDefault("parsing.max_file_size", d.Parsing.MaxFileSize)
	v.SetDefault("parsing.exclude_patterns", d.Parsing.ExcludePatterns)

	v.SetDefault("chunking.max_chunk_tokens", d.Chunking.MaxChunkTokens)
	v.SetDefault("chunking.overlap_tokens", d.Chunking.OverlapTokens)
	v.SetDefault("chunking.batch_size", d.Chunking.BatchSize)
	v.SetDefault("chunking.class_split_threshold", d.Chunking.ClassSplitThreshold)

	v.SetDefault("wiki.max_file_docs", d.Wiki.MaxFileDocs)
	v.SetDefault("wiki.max_concurrent_llm_calls", d.Wiki.MaxConcurrentLLMCalls)
	v.SetDefault("wiki.use_cloud_for_github", d.Wiki.UseCloudForGithub)
	v.SetDefault("wiki.import_search_limit", d.Wiki.ImportSearchLimit)
	v.SetDefault("wiki.context_search_limit", d.Wiki.ContextSearchLimit)
	v.SetDefault("wiki.fallback_search_limit", d.Wiki.FallbackSearchLimit)

	v.SetDefault("deep_research.max_sub_questions", d.DeepResearch.MaxSubQuestions)
	v.SetDefault("deep_research.chunks_per_subquestion", d.DeepResearch.ChunksPerSubquestion)
	v.SetDefault("deep_research.max_total_chunks", d.DeepResearch.MaxTotalChunks)
	v.SetDefault("deep_research.max_follow_up_queries", d.DeepResearch.MaxFollowUpQueries)
	v.SetDefault("deep_research.synthesis_temperature", d.DeepResearch.SynthesisTemperature)
	v.SetDefault("deep_research.synthesis_max_tokens", d.DeepResearch.SynthesisMaxTokens)
	v.SetDefault("deep_research.preset", d.DeepResearch.ActivePreset)
	v.SetDefault("deep_research.presets", d.DeepResearch.Presets)

	v.SetDefault("output.wiki_dir", d.Output.WikiDir)
	v.SetDefault("output.vector_db_name", d.Output.VectorDBName)
}
