package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/prdrag/internal/domain/search/request"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [brief...]",
	Short: "Show the reference passages closest to a brief",
	RunE:  runRetrieve,
}

// retrieveTopK is the number of passages; 0 means pipeline.top_k
var retrieveTopK int

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "Number of passages (defaults to pipeline.top_k)")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		req, err := request.New(query, retrieveTopK, a.cfg.Pipeline.TopK)
		if err != nil {
			return err //nolint:wrapcheck // already descriptive
		}
		results, err := a.retriever.Retrieve(ctx, req.Query(), req.TopK())
		if err != nil {
			return fmt.Errorf("retrieve: %w", err)
		}
		view := passages(results)
		return render(cmd.OutOrStdout(), view, func(w io.Writer) error {
			return printPassages(w, view)
		})
	})
}
