package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/prdrag/internal/config"
	"github.com/kailas-cloud/prdrag/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect or convert the reference corpus",
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured corpus passages in index order",
	RunE:  runCorpusList,
}

var corpusConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Write the configured corpus as a Parquet file",
	Long: `Convert loads the corpus exactly as the server would (YAML, text, PDF or
Parquet) and writes it as Parquet with "tag" and "text" columns.

Examples:
  prdrag corpus convert --out corpus.parquet
  prdrag corpus convert --in notes.pdf --out notes.parquet`,
	RunE: runCorpusConvert,
}

var (
	corpusIn     string
	corpusFormat string
	corpusOut    string
)

func init() {
	for _, c := range []*cobra.Command{corpusListCmd, corpusConvertCmd} {
		c.Flags().StringVar(&corpusIn, "in", "", "Corpus file (defaults to corpus.path from the config)")
		c.Flags().StringVar(&corpusFormat, "format", "", "Corpus format: yaml, text, pdf, parquet (defaults to the file extension)")
	}
	corpusConvertCmd.Flags().StringVar(&corpusOut, "out", "", "Output Parquet file")
	_ = corpusConvertCmd.MarkFlagRequired("out")

	corpusCmd.AddCommand(corpusListCmd, corpusConvertCmd)
	rootCmd.AddCommand(corpusCmd)
}

// corpusSource resolves the corpus location from the flags, falling back to the config.
func corpusSource() (config.CorpusConfig, error) {
	src := config.CorpusConfig{Path: corpusIn, Format: corpusFormat}
	if corpusIn != "" {
		return src, nil
	}
	cfg, _, err := bootstrap()
	if err != nil {
		return config.CorpusConfig{}, err
	}
	return cfg.Corpus, nil
}

func runCorpusList(cmd *cobra.Command, _ []string) error {
	src, err := corpusSource()
	if err != nil {
		return err
	}
	docs, err := loadCorpus(src)
	if err != nil {
		return err
	}

	view := make([]passageOutput, docs.Len())
	for i, d := range docs.Documents() {
		view[i] = passageOutput{ID: d.ID(), Tag: d.Tag(), Text: d.Text()}
	}
	return render(cmd.OutOrStdout(), view, func(w io.Writer) error {
		return printPassages(w, view)
	})
}

func runCorpusConvert(cmd *cobra.Command, _ []string) error {
	src, err := corpusSource()
	if err != nil {
		return err
	}
	docs, err := loadCorpus(src)
	if err != nil {
		return err
	}
	if err := corpus.WriteParquet(corpusOut, docs); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d documents to %s\n", docs.Len(), corpusOut)
	return err //nolint:wrapcheck // write to stdout
}
