package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func addReadWikiStructureTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"read_wiki_structure",
		mcp.WithDescription("Return the generated wiki's table of contents (toc.json), or a path listing fallback if the wiki has not been generated yet."),
		mcp.WithString("wiki_path", mcp.Required(), mcp.Description("Absolute path to the repository root whose .deepwiki directory holds the wiki")),
	)
	s.AddTool(tool, handlers.protect("read_wiki_structure", handleReadWikiStructure(reg)))
}

func handleReadWikiStructure(reg *Registry) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		wikiPath, err := requireString(args, "wiki_path")
		if err != nil {
			return nil, err
		}
		root, err := resolveRepoRoot(wikiPath)
		if err != nil {
			return nil, err
		}

		tocPath := filepath.Join(root, ".deepwiki", "toc.json")
		if raw, err := os.ReadFile(tocPath); err == nil {
			return mcp.NewToolResultText(string(raw)), nil
		}

		fallback, err := dynamicWikiFallback(root)
		if err != nil {
			return nil, fmt.Errorf("building fallback structure: %w", err)
		}
		out, err := json.Marshal(fallback)
		if err != nil {
			return nil, fmt.Errorf("marshaling fallback structure: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// dynamicWikiFallback lists every markdown page under .deepwiki when
// toc.json hasn't been written yet (the wiki has never been generated for
// this repo, or generation partially failed before the TOC step ran).
func dynamicWikiFallback(root string) (map[string]any, error) {
	base := filepath.Join(root, ".deepwiki")
	var pages []string
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Strings(pages)
	return map[string]any{
		"generated": false,
		"pages":     pages,
	}, nil
}
