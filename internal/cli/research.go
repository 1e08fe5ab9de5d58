package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepwiki-go/deepwiki/internal/research"
)

var researchPresetFlag string

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Run the multi-step research pipeline over the repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)
	researchCmd.Flags().StringVar(&researchPresetFlag, "preset", "default", "quick, default, or thorough")
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installInterruptHandler(cancel)

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

	progress := make(chan research.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			fmt.Printf("[%d] %s: %s\n", ev.Step, ev.Kind, ev.Message)
		}
	}()

	result, err := rt.research.Run(ctx, research.Request{
		Question: question,
		Preset:   research.PresetByName(researchPresetFlag),
	}, progress, func() bool { return ctx.Err() != nil })
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("research pipeline failed: %w", err)
	}

	fmt.Println()
	fmt.Println(result.Answer)
	fmt.Println()
	fmt.Println("Citations:")
	for _, c := range result.Citations {
		fmt.Printf("  %s:%d-%d\n", c.FilePath, c.StartLine, c.EndLine)
	}
	return nil
}
