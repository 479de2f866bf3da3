// Package main is the thin CLI front end for confcore: one positional
// argument naming the primary source, exit code 0 on success and
// non-zero on any parse, include or resolution failure.
package main

import (
	"context"
	"fmt"
	"os"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strataconf/confcore"
	"github.com/strataconf/confcore/logging"
)

var (
	previewYAML bool
	verbose     bool
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "confcore <source>",
		Short:        "Parse and resolve a confcore configuration document",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runParse,
	}
	cmd.Flags().BoolVar(&previewYAML, "preview-yaml", false, "print the resolved document as YAML")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	invocationID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generating invocation id: %w", err)
	}

	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = logger.Named("cmd").WithFields(logging.StringField("invocation_id", invocationID))

	sourcePath := args[0]
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	cfg, err := confcore.Parse(
		context.Background(),
		string(data),
		confcore.WithBaseDir(dirOf(sourcePath)),
		confcore.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if cfg.Invalid() {
		for _, e := range cfg.Errors() {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("%s: %d diagnostic(s)", sourcePath, len(cfg.Errors()))
	}

	if previewYAML {
		out, err := cfg.PreviewYAML()
		if err != nil {
			return fmt.Errorf("rendering preview: %w", err)
		}
		fmt.Println(out)
	}
	return nil
}

func buildLogger() (logging.Logger, error) {
	if !verbose {
		return logging.NewNopLogger(), nil
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	z, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logging.NewLoggerFromZap(z), nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
