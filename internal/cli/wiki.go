package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var wikiCmd = &cobra.Command{
	Use:   "wiki",
	Short: "Regenerate the wiki from the current index without re-indexing",
	RunE:  runWiki,
}

func init() {
	rootCmd.AddCommand(wikiCmd)
}

func runWiki(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installInterruptHandler(cancel)

	root, err := repoRoot()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.wiki.Run(ctx, root)
	if err != nil {
		return fmt.Errorf("wiki generation failed: %w", err)
	}
	fmt.Printf("wiki: %d regenerated, %d reused, %d failed\n",
		len(result.Regenerated), len(result.Reused), len(result.Failed))
	for page, reason := range result.Failed {
		fmt.Printf("  failed: %s: %s\n", page, reason)
	}
	return nil
}
