// Package cli implements the deepwiki command-line entrypoint: init,
// index, wiki, ask, research, and serve subcommands over the per-repo
// runtime built in runtime.go.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "deepwiki",
	Short: "Index a repository, generate its wiki, and answer questions about it",
	Long: `deepwiki builds a semantically-indexed knowledge base from a source
repository and a wiki derived from it, then answers natural-language
questions using single-shot retrieval or a multi-step research pipeline.`,
}

// Execute runs the root command; main calls this and exits non-zero on
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "repo", "", "repository root (default: current directory)")
}

// repoRoot resolves the --repo flag to the current working directory when
// unset.
func repoRoot() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return os.Getwd()
}
