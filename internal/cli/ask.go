package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

const askSystemPrompt = `You are a code assistant answering questions about a single repository using only the provided excerpts. Cite file paths and line ranges for every claim. If the excerpts do not contain the answer, say so plainly.`

var maxContextFlag int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the repository with a single retrieval pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&maxContextFlag, "max-context", 5, "number of chunks to retrieve as context")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	root, err := repoRoot()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	vecs, err := rt.embedder.Embed(ctx, []string{question})
	if err != nil {
		return fmt.Errorf("embedding question: %w", err)
	}
	limit := maxContextFlag
	if limit < 1 {
		limit = 1
	}
	if limit > 20 {
		limit = 20
	}
	results, err := rt.store.Search(ctx, vecs[0], vectorstore.SearchOptions{Limit: limit})
	if err != nil {
		return fmt.Errorf("searching store: %w", err)
	}

	var excerpts strings.Builder
	for _, res := range results {
		fmt.Fprintf(&excerpts, "### %s:%d-%d\n%s\n\n", res.Chunk.FilePath, res.Chunk.StartLine, res.Chunk.EndLine, res.Chunk.Content)
	}

	answer, err := rt.llm.Generate(ctx, llm.Request{
		System:      askSystemPrompt,
		Prompt:      fmt.Sprintf("Question: %s\n\nExcerpts:\n%s", question, excerpts.String()),
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(answer)
	fmt.Println()
	fmt.Println("Sources:")
	for _, res := range results {
		fmt.Printf("  %s:%d-%d\n", res.Chunk.FilePath, res.Chunk.StartLine, res.Chunk.EndLine)
	}
	return nil
}
