package facade

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

func addReadWikiPageTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"read_wiki_page",
		mcp.WithDescription("Read one generated wiki page's markdown content."),
		mcp.WithString("wiki_path", mcp.Required(), mcp.Description("Absolute path to the repository root whose .deepwiki directory holds the wiki")),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page path relative to the wiki root, e.g. index.md or files/internal/foo.go.md")),
	)
	s.AddTool(tool, handlers.protect("read_wiki_page", handleReadWikiPage(reg)))
}

func handleReadWikiPage(reg *Registry) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		wikiPath, err := requireString(args, "wiki_path")
		if err != nil {
			return nil, err
		}
		page, err := requireString(args, "page")
		if err != nil {
			return nil, err
		}
		root, err := resolveRepoRoot(wikiPath)
		if err != nil {
			return nil, err
		}

		full, err := resolveWikiPage(root, page)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: page %q not found", deepwikierr.ErrInput, page)
			}
			return nil, fmt.Errorf("reading page %q: %w", page, err)
		}
		return mcp.NewToolResultText(string(content)), nil
	}
}
