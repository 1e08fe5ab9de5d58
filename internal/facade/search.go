package facade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

func addSearchCodeTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"search_code",
		mcp.WithDescription("Semantic search over an indexed repository's code chunks."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Absolute path to the indexed repository root")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language or code search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (1-50, default 10)")),
		mcp.WithString("language", mcp.Description("Restrict results to this language (must match a configured language)")),
	)
	s.AddTool(tool, handlers.protect("search_code", handleSearchCode(reg)))
}

func handleSearchCode(reg *Registry) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		repoPath, err := requireString(args, "repo_path")
		if err != nil {
			return nil, err
		}
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}
		limit := clampInt(args, "limit", 10, 1, 50)

		root, err := resolveRepoRoot(repoPath)
		if err != nil {
			return nil, err
		}
		r, err := reg.Get(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}

		language, err := validatedLanguage(args, r.cfg.Parsing.Languages)
		if err != nil {
			return nil, err
		}

		vecs, err := r.embedder().Embed(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
		results, err := r.store.Search(ctx, vecs[0], vectorstore.SearchOptions{
			Limit:    limit,
			Language: language,
		})
		if err != nil {
			return nil, fmt.Errorf("searching store: %w", err)
		}

		out, err := json.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("marshaling results: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// validatedLanguage extracts the optional "language" argument and rejects
// any value that isn't one of the repository's configured languages,
// preventing an unvalidated string from reaching the store's filter.
func validatedLanguage(args map[string]interface{}, allowed []string) (string, error) {
	lang := optionalString(args, "language", "")
	if lang == "" {
		return "", nil
	}
	for _, a := range allowed {
		if a == lang {
			return lang, nil
		}
	}
	return "", fmt.Errorf("%w: language must be one of %v, got %q", deepwikierr.ErrInput, allowed, lang)
}
