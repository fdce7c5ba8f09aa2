package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [brief...]",
	Short: "Draft a PRD for a client brief",
	Long: `Generate runs the full pipeline once: embed the brief, retrieve the closest
reference passages, assemble the PRD prompt and call the generative model.

The brief is taken from the arguments, or from stdin when none are given.

Examples:
  prdrag generate "Mobile app for a coffee chain with loyalty points"
  cat brief.txt | prdrag generate -o json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out, err := a.pipeline.Run(ctx, query)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		view := generateOutput{
			RunID:    out.RunID,
			Model:    out.Model,
			Document: out.Text,
			Context:  passages(out.Retrieved),
			Usage: usageOutput{
				EmbeddingTokens:  out.EmbeddingTokens,
				GenerationTokens: out.GenerationTokens,
			},
		}
		return render(cmd.OutOrStdout(), view, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, out.Text)
			return err //nolint:wrapcheck // write to stdout
		})
	})
}
