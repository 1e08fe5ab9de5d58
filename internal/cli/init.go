package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deepwiki-go/deepwiki/internal/config"
)

var initForceFlag bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .deepwiki/config.yml for the repository",
	Long: `init scaffolds .deepwiki/config.yml with the built-in defaults so
it can be edited by hand. It does not index anything; run 'deepwiki index'
afterward.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite an existing config.yml")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, ".deepwiki")
	path := filepath.Join(dir, "config.yml")

	if !initForceFlag {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	out, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
