package facade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepwiki-go/deepwiki/internal/research"
)

func addDeepResearchTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"deep_research",
		mcp.WithDescription("Run the multi-step research pipeline (decomposition, parallel retrieval, gap analysis, follow-up retrieval, synthesis) over an indexed repository."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Absolute path to the indexed repository root")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The research question")),
		mcp.WithNumber("max_chunks", mcp.Description("Overrides the preset's max_total_chunks cap")),
		mcp.WithString("preset", mcp.Description("One of quick, default, thorough (default: default)")),
	)
	s.AddTool(tool, handlers.protect("deep_research", handleDeepResearch(reg)))
}

func handleDeepResearch(reg *Registry) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsMap(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		repoPath, err := requireString(args, "repo_path")
		if err != nil {
			return nil, err
		}
		question, err := requireString(args, "question")
		if err != nil {
			return nil, err
		}
		presetName, err := enumArg(args, "preset", "default", "quick", "default", "thorough")
		if err != nil {
			return nil, err
		}
		preset := research.PresetByName(presetName)
		if maxChunks, ok := args["max_chunks"]; ok {
			if f, ok := maxChunks.(float64); ok && f > 0 {
				preset.MaxTotalChunks = int(f)
			}
		}

		root, err := resolveRepoRoot(repoPath)
		if err != nil {
			return nil, err
		}
		r, err := reg.Get(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}

		progress := make(chan research.Progress, 16)
		events := make([]research.Progress, 0, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progress {
				events = append(events, p)
			}
		}()

		result, err := r.research.Run(ctx, research.Request{Question: question, Preset: preset}, progress, func() bool {
			return ctx.Err() != nil
		})
		close(progress)
		<-done
		if err != nil {
			return nil, fmt.Errorf("running research pipeline: %w", err)
		}

		payload := map[string]any{
			"result":   result,
			"progress": events,
		}
		out, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
