package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/config"
	logpkg "github.com/kailas-cloud/prdrag/internal/logger"
	"github.com/kailas-cloud/prdrag/internal/version"
)

var (
	// configPath is an explicit config file; overrides envName
	configPath string
	// envName selects config/<env>.yaml and the logger flavour
	envName string
	// logLevel overrides logging.level from the config
	logLevel string
	// outputFormat is the output format (text, json, yaml)
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prdrag",
	Short: "Draft Project Requirement Documents from client briefs",
	Long: `prdrag turns a free-text client brief into a structured Project Requirement
Document. It retrieves the closest reference passages from a corpus of past
PM, UX and Dev notes, assembles them into a fixed ten-section PRD prompt and
sends it to a generative model.

Examples:
  # Run the HTTP API
  prdrag serve

  # Draft a PRD for a brief
  prdrag generate "Landing page for a snack brand with online ordering"

  # Show the passages a brief would retrieve
  prdrag retrieve --top-k 5 "QRIS payment"

  # Print the assembled prompt without calling the model
  prdrag prompt "Company profile website"`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (defaults to config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "Environment: local, dev, docker, prod (defaults to $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
}

func currentEnv() string {
	if envName != "" {
		return envName
	}
	return config.GetEnv()
}

// bootstrap loads the configuration and builds the logger.
func bootstrap() (config.Config, *zap.Logger, error) {
	env := currentEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// withApp wires the full service graph, runs fn and tears it down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// readQuery joins the positional arguments, or reads stdin when there are none.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
