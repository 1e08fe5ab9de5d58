package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

const askQuestionSystemPrompt = `You are a code assistant answering questions about a single repository using only the provided excerpts. Cite file paths and line ranges for every claim. If the excerpts do not contain the answer, say so plainly.`

func addAskQuestionTool(s *server.MCPServer, reg *Registry, handlers *toolEnv) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription("Answer a natural-language question about an indexed repository using a single retrieval pass over the vector store."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Absolute path to the indexed repository root")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithNumber("max_context", mcp.Description("Number of chunks to retrieve as context (1-20, default 5)")),
	)
	s.AddTool(tool, handlers.protect("ask_question", handleAskQuestion(reg)))
}

type askQuestionResult struct {
	Answer  string                     `json:"answer"`
	Sources []vectorstore.SearchResult `json:"sources"`
}

func handleAskQuestion(reg *Registry) toolHandler {
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
		maxContext := clampInt(args, "max_context", 5, 1, 20)

		root, err := resolveRepoRoot(repoPath)
		if err != nil {
			return nil, err
		}
		r, err := reg.Get(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("opening repository: %w", err)
		}

		vecs, err := r.embedder().Embed(ctx, []string{question})
		if err != nil {
			return nil, fmt.Errorf("embedding question: %w", err)
		}
		results, err := r.store.Search(ctx, vecs[0], vectorstore.SearchOptions{Limit: maxContext})
		if err != nil {
			return nil, fmt.Errorf("searching store: %w", err)
		}

		var b strings.Builder
		for _, res := range results {
			fmt.Fprintf(&b, "### %s:%d-%d\n%s\n\n", res.Chunk.FilePath, res.Chunk.StartLine, res.Chunk.EndLine, res.Chunk.Content)
		}

		answer, err := r.llm().Generate(ctx, llm.Request{
			System:      askQuestionSystemPrompt,
			Prompt:      fmt.Sprintf("Question: %s\n\nExcerpts:\n%s", question, b.String()),
			Temperature: 0.2,
			MaxTokens:   1024,
		})
		if err != nil {
			return nil, fmt.Errorf("generating answer: %w", err)
		}

		out, err := json.Marshal(askQuestionResult{Answer: answer, Sources: results})
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
