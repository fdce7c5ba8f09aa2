package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/prdrag/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		return render(cmd.OutOrStdout(), info, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, info.String())
			return err //nolint:wrapcheck // write to stdout
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
