package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/facade"
	"github.com/deepwiki-go/deepwiki/internal/indexer"
	"github.com/deepwiki-go/deepwiki/internal/watch"
)

var watchFlag bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `serve exposes index_repository, ask_question, deep_research,
read_wiki_structure, read_wiki_page, and search_code as MCP tools over
stdio for an LLM coding assistant to call.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "watch --repo for changes and re-index incrementally")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	level := slog.LevelInfo
	if v := os.Getenv("DEEPWIKI_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid DEEPWIKI_LOG_LEVEL %q: %w", v, err)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := facade.NewRegistry(logger)
	srv := facade.NewServer(reg, logger)
	defer srv.Close()

	if watchFlag {
		root, err := repoRoot()
		if err == nil {
			if err := startWatcher(ctx, root, logger); err != nil {
				logger.Warn("watch disabled", "error", err)
			}
		}
	}

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// startWatcher wires internal/watch to re-index root whenever a tracked
// file changes, skipping the excludes from the repository's own config so
// .deepwiki output and vendored trees never trigger a watch-induced loop.
func startWatcher(ctx context.Context, root string, logger *slog.Logger) error {
	cfg, err := config.LoadFromDir(root)
	if err != nil {
		return err
	}
	exclude := func(rel string) bool {
		for _, pattern := range cfg.Parsing.ExcludePatterns {
			trimmed := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
			if trimmed != "" && strings.Contains(rel, trimmed) {
				return true
			}
		}
		return rel == ".deepwiki" || rel == ".git"
	}

	w, err := watch.New(root, exclude)
	if err != nil {
		return err
	}

	w.Start(ctx, func(changed []string) {
		logger.Info("change detected, re-indexing", "root", root, "files", len(changed))
		rt, err := newRuntime(ctx, root)
		if err != nil {
			logger.Error("re-index failed to start", "error", err)
			return
		}
		defer rt.Close()
		_, err = rt.indexer.Run(ctx, indexer.RunOptions{
			RepoRoot:            root,
			ExcludePatterns:     rt.cfg.Parsing.ExcludePatterns,
			ClassSplitThreshold: rt.cfg.Chunking.ClassSplitThreshold,
			BatchSize:           rt.cfg.Chunking.BatchSize,
		})
		if err != nil {
			logger.Error("re-index failed", "error", err)
			return
		}
		if _, err := rt.wiki.Run(ctx, root); err != nil {
			logger.Error("wiki regeneration failed", "error", err)
		}
	})

	go func() {
		<-ctx.Done()
		w.Stop() //nolint:errcheck
	}()
	return nil
}
