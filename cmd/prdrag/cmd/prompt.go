package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [brief...]",
	Short: "Print the assembled PRD prompt without calling the model",
	RunE:  runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		draft, err := a.pipeline.Prompt(ctx, query)
		if err != nil {
			return fmt.Errorf("assemble prompt: %w", err)
		}
		view := promptOutput{RunID: draft.RunID, Prompt: draft.Prompt, Context: passages(draft.Retrieved)}
		return render(cmd.OutOrStdout(), view, func(w io.Writer) error {
			_, err := io.WriteString(w, draft.Prompt)
			return err //nolint:wrapcheck // write to stdout
		})
	})
}
