// Package config defines the process-wide configuration for deepwiki:
// the Go struct shape, its defaults, a Viper-backed YAML+env loader, and a
// context-scoped override used by tests.
package config

// Config is the complete deepwiki configuration, loaded from
// .deepwiki/config.yml with environment variable overrides.
type Config struct {
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	LLMCache     LLMCacheConfig     `yaml:"llm_cache" mapstructure:"llm_cache"`
	Parsing      ParsingConfig      `yaml:"parsing" mapstructure:"parsing"`
	Chunking     ChunkingConfig     `yaml:"chunking" mapstructure:"chunking"`
	Wiki         WikiConfig         `yaml:"wiki" mapstructure:"wiki"`
	DeepResearch DeepResearchConfig `yaml:"deep_research" mapstructure:"deep_research"`
	Prompts      PromptsConfig      `yaml:"prompts" mapstructure:"prompts"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "local" or "openai"
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"` // local provider only
}

// LLMConfig selects and configures the generation provider. API keys are
// never read from YAML; they come from ANTHROPIC_API_KEY/OPENAI_API_KEY at
// provider-construction time.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "ollama", "anthropic", "openai"
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"` // ollama only
}

// LLMCacheConfig configures internal/llmcache.Cache.
type LLMCacheConfig struct {
	Enabled                 bool    `yaml:"enabled" mapstructure:"enabled"`
	TTLSeconds              int     `yaml:"ttl_seconds" mapstructure:"ttl_seconds"`
	MaxEntries              int     `yaml:"max_entries" mapstructure:"max_entries"`
	SimilarityThreshold     float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxCacheableTemperature float64 `yaml:"max_cacheable_temperature" mapstructure:"max_cacheable_temperature"`
}

// ParsingConfig configures internal/parser and file discovery.
type ParsingConfig struct {
	Languages       []string `yaml:"languages" mapstructure:"languages"`
	MaxFileSize     int64    `yaml:"max_file_size" mapstructure:"max_file_size"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

// ChunkingConfig configures internal/chunker and the indexer's batching.
type ChunkingConfig struct {
	MaxChunkTokens      int `yaml:"max_chunk_tokens" mapstructure:"max_chunk_tokens"`
	OverlapTokens       int `yaml:"overlap_tokens" mapstructure:"overlap_tokens"`
	BatchSize           int `yaml:"batch_size" mapstructure:"batch_size"`
	ClassSplitThreshold int `yaml:"class_split_threshold" mapstructure:"class_split_threshold"`
}

// WikiConfig configures internal/wiki generation.
type WikiConfig struct {
	MaxFileDocs           int  `yaml:"max_file_docs" mapstructure:"max_file_docs"`
	MaxConcurrentLLMCalls int  `yaml:"max_concurrent_llm_calls" mapstructure:"max_concurrent_llm_calls"`
	UseCloudForGithub     bool `yaml:"use_cloud_for_github" mapstructure:"use_cloud_for_github"`
	ImportSearchLimit     int  `yaml:"import_search_limit" mapstructure:"import_search_limit"`
	ContextSearchLimit    int  `yaml:"context_search_limit" mapstructure:"context_search_limit"`
	FallbackSearchLimit   int  `yaml:"fallback_search_limit" mapstructure:"fallback_search_limit"`
}

// DeepResearchPreset is the set of numeric caps a named preset overrides.
type DeepResearchPreset struct {
	MaxSubQuestions      int     `yaml:"max_sub_questions" mapstructure:"max_sub_questions"`
	ChunksPerSubquestion int     `yaml:"chunks_per_subquestion" mapstructure:"chunks_per_subquestion"`
	MaxTotalChunks       int     `yaml:"max_total_chunks" mapstructure:"max_total_chunks"`
	MaxFollowUpQueries   int     `yaml:"max_follow_up_queries" mapstructure:"max_follow_up_queries"`
	SynthesisTemperature float64 `yaml:"synthesis_temperature" mapstructure:"synthesis_temperature"`
	SynthesisMaxTokens   int     `yaml:"synthesis_max_tokens" mapstructure:"synthesis_max_tokens"`
}

// DeepResearchConfig configures internal/research. ActivePreset, when
// non-empty and present in Presets, replaces the embedded numeric caps as
// a whole; top-level fields are then ignored (see Resolve).
type DeepResearchConfig struct {
	DeepResearchPreset `yaml:",inline" mapstructure:",squash"`
	ActivePreset        string                        `yaml:"preset" mapstructure:"preset"`
	Presets             map[string]DeepResearchPreset `yaml:"presets" mapstructure:"presets"`
}

// Resolve returns the effective preset: ActivePreset's values from Presets
// when set and known, otherwise the top-level DeepResearchPreset fields.
func (d DeepResearchConfig) Resolve() DeepResearchPreset {
	if d.ActivePreset == "" {
		return d.DeepResearchPreset
	}
	if p, ok := d.Presets[d.ActivePreset]; ok {
		return p
	}
	return d.DeepResearchPreset
}

// ProviderPrompts holds the prompt templates for one LLM provider.
type ProviderPrompts struct {
	WikiSystem            string `yaml:"wiki_system" mapstructure:"wiki_system"`
	ResearchDecomposition  string `yaml:"research_decomposition" mapstructure:"research_decomposition"`
	ResearchGapAnalysis    string `yaml:"research_gap_analysis" mapstructure:"research_gap_analysis"`
	ResearchSynthesis      string `yaml:"research_synthesis" mapstructure:"research_synthesis"`
}

// PromptsConfig holds per-provider prompt overrides.
type PromptsConfig struct {
	Ollama    ProviderPrompts `yaml:"ollama" mapstructure:"ollama"`
	Anthropic ProviderPrompts `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    ProviderPrompts `yaml:"openai" mapstructure:"openai"`
}

// OutputConfig configures where generated artifacts are written.
type OutputConfig struct {
	WikiDir      string `yaml:"wiki_dir" mapstructure:"wiki_dir"`
	VectorDBName string `yaml:"vector_db_name" mapstructure:"vector_db_name"`
}

// Default returns a configuration with sensible built-in defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider: "local",
			Model:    "BAAI/bge-small-en-v1.5",
			BaseURL:  "http://127.0.0.1:8121",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3",
			BaseURL:  "http://127.0.0.1:11434",
		},
		LLMCache: LLMCacheConfig{
			Enabled:                 true,
			TTLSeconds:              3600,
			MaxEntries:              10000,
			SimilarityThreshold:     0.95,
			MaxCacheableTemperature: 0.3,
		},
		Parsing: ParsingConfig{
			Languages: []string{
				"python", "go", "javascript", "typescript", "tsx", "rust",
				"java", "c", "cpp", "swift", "ruby", "php", "kotlin", "csharp",
			},
			MaxFileSize: 1 << 20, // 1 MiB
			ExcludePatterns: []string{
				"**/.git/**", "**/node_modules/**", "**/vendor/**",
				"**/.deepwiki/**", "**/dist/**", "**/build/**",
				"**/__pycache__/**", "**/*.min.js",
			},
		},
		Chunking: ChunkingConfig{
			MaxChunkTokens:      800,
			OverlapTokens:       0,
			BatchSize:           20,
			ClassSplitThreshold: 100,
		},
		Wiki: WikiConfig{
			MaxFileDocs:           200,
			MaxConcurrentLLMCalls: 4,
			UseCloudForGithub:     false,
			ImportSearchLimit:     10,
			ContextSearchLimit:    20,
			FallbackSearchLimit:   10,
		},
		DeepResearch: DeepResearchConfig{
			DeepResearchPreset: DeepResearchPreset{
				MaxSubQuestions:      5,
				ChunksPerSubquestion: 8,
				MaxTotalChunks:       40,
				MaxFollowUpQueries:   3,
				SynthesisTemperature: 0.2,
				SynthesisMaxTokens:   2048,
			},
			ActivePreset: "default",
			Presets: map[string]DeepResearchPreset{
				"quick": {
					MaxSubQuestions:      2,
					ChunksPerSubquestion: 4,
					MaxTotalChunks:       12,
					MaxFollowUpQueries:   1,
					SynthesisTemperature: 0.2,
					SynthesisMaxTokens:   1024,
				},
				"default": {
					MaxSubQuestions:      5,
					ChunksPerSubquestion: 8,
					MaxTotalChunks:       40,
					MaxFollowUpQueries:   3,
					SynthesisTemperature: 0.2,
					SynthesisMaxTokens:   2048,
				},
				"thorough": {
					MaxSubQuestions:      8,
					ChunksPerSubquestion: 12,
					MaxTotalChunks:       96,
					MaxFollowUpQueries:   5,
					SynthesisTemperature: 0.1,
					SynthesisMaxTokens:   4096,
				},
			},
		},
		Output: OutputConfig{
			WikiDir:      ".deepwiki/wiki",
			VectorDBName: "chunks.db",
		},
	}
}
