package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deepwiki-go/deepwiki/internal/indexer"
)

var (
	quietFlag       bool
	fullRebuildFlag bool
	skipWikiFlag    bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the repository and regenerate its wiki",
	Long: `index parses, chunks, and embeds every supported source file under the
repository root, incrementally: only files whose content changed since the
last run are re-processed. The wiki is regenerated afterward unless
--skip-wiki is set.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress output")
	indexCmd.Flags().BoolVar(&fullRebuildFlag, "full-rebuild", false, "re-index every file regardless of content hash")
	indexCmd.Flags().BoolVar(&skipWikiFlag, "skip-wiki", false, "index only, skip wiki regeneration")
}

func runIndex(cmd *cobra.Command, args []string) error {
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

	reporter := newProgressReporter(quietFlag)
	stats, err := rt.indexer.Run(ctx, indexer.RunOptions{
		RepoRoot:            root,
		ExcludePatterns:     rt.cfg.Parsing.ExcludePatterns,
		ClassSplitThreshold: rt.cfg.Chunking.ClassSplitThreshold,
		BatchSize:           rt.cfg.Chunking.BatchSize,
		FullRebuild:         fullRebuildFlag,
		Progress:            reporter.onProgress,
	})
	reporter.finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Printf("indexed: %d added, %d changed, %d removed, %d chunks total (%s)\n",
		stats.FilesAdded, stats.FilesChanged, stats.FilesRemoved, stats.ChunksTotal, stats.Duration)
	for file, reason := range stats.FailedFiles {
		fmt.Fprintf(os.Stderr, "failed: %s: %s\n", file, reason)
	}

	if skipWikiFlag {
		return nil
	}

	result, err := rt.wiki.Run(ctx, root)
	if err != nil {
		return fmt.Errorf("wiki generation failed: %w", err)
	}
	fmt.Printf("wiki: %d regenerated, %d reused, %d failed\n",
		len(result.Regenerated), len(result.Reused), len(result.Failed))
	return nil
}

func installInterruptHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ninterrupted, cancelling...")
		cancel()
	}()
}
