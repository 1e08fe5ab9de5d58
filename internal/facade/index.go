package facade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/indexer"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/wiki"
)

func addIndexRepositoryTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"index_repository",
		mcp.WithDescription("Index a repository into the vector store, then regenerate its wiki. Incremental: only changed files are re-chunked and re-embedded."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Absolute path to the repository root")),
		mcp.WithArray("languages", mcp.Description("Languages to check against the configured set (an unknown one is an input error); the list is validated only and does not narrow which files are indexed")),
		mcp.WithBoolean("full_rebuild", mcp.Description("Force a full re-index instead of an incremental one (default: false)")),
		mcp.WithString("llm_provider", mcp.Description("Override the configured LLM provider for this run")),
		mcp.WithString("embedding_provider", mcp.Description("Override the configured embedding provider for this run")),
	)
	s.AddTool(tool, handlers.protect("index_repository", handleIndexRepository(reg)))
}

func handleIndexRepository(reg *Registry) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		repoPath, err := requireString(args, "repo_path")
		if err != nil {
			return nil, err
		}
		root, err := resolveRepoRoot(repoPath)
		if err != nil {
			return nil, err
		}
		fullRebuild := optionalBool(args, "full_rebuild", false)

		r, err := reg.Get(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}

		if languages := stringArrayArg(args, "languages"); len(languages) > 0 {
			if err := validateSubsetOf(languages, r.cfg.Parsing.Languages); err != nil {
				return nil, err
			}
		}

		ix := r.indexer
		wk := r.wiki
		if llmOverride, embOverride, err := resolveProviderOverrides(ctx, args, r); err != nil {
			return nil, err
		} else if llmOverride != nil || embOverride != nil {
			embedder := r.embedder()
			if embOverride != nil {
				embedder = embOverride
			}
			llmProvider := r.llm()
			if llmOverride != nil {
				llmProvider = llmOverride
			}
			ix = indexer.New(parser.New(r.cfg.Parsing.MaxFileSize), embedder, r.store)
			wk = wiki.New(r.store, embedder, llmProvider, r.cfg.Wiki)
		}

		stats, err := ix.Run(ctx, indexer.RunOptions{
			RepoRoot:            root,
			ExcludePatterns:     r.cfg.Parsing.ExcludePatterns,
			ClassSplitThreshold: r.cfg.Chunking.ClassSplitThreshold,
			BatchSize:           r.cfg.Chunking.BatchSize,
			FullRebuild:         fullRebuild,
		})
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", root, err)
		}

		wikiResult, err := wk.Run(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("generating wiki for %s: %w", root, err)
		}

		payload := map[string]any{
			"indexed":          stats,
			"wiki_regenerated": wikiResult.Regenerated,
			"wiki_reused":      wikiResult.Reused,
			"wiki_failed":      wikiResult.Failed,
		}
		out, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// resolveProviderOverrides builds one-off providers for this call when
// llm_provider/embedding_provider differ from r's cached configuration,
// without mutating the registry's cached repo (so later calls against the
// same repo_path keep using the configured providers).
func resolveProviderOverrides(ctx context.Context, args map[string]interface{}, r *repo) (llm.Provider, embed.Provider, error) {
	var llmOverride llm.Provider
	var embOverride embed.Provider

	if name := optionalString(args, "llm_provider", ""); name != "" && name != r.cfg.LLM.Provider {
		if _, err := enumArg(args, "llm_provider", "", "ollama", "anthropic", "openai"); err != nil {
			return nil, nil, err
		}
		p, err := buildLLM(config.LLMConfig{Provider: name, Model: r.cfg.LLM.Model, BaseURL: r.cfg.LLM.BaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("building override llm provider %q: %w", name, err)
		}
		llmOverride = p
	}

	if name := optionalString(args, "embedding_provider", ""); name != "" && name != r.cfg.Embedding.Provider {
		if _, err := enumArg(args, "embedding_provider", "", "local", "openai"); err != nil {
			return nil, nil, err
		}
		p, err := buildEmbedder(ctx, config.EmbeddingConfig{Provider: name, Model: r.cfg.Embedding.Model, BaseURL: r.cfg.Embedding.BaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("building override embedding provider %q: %w", name, err)
		}
		embOverride = p
	}

	return llmOverride, embOverride, nil
}
