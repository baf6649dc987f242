package gen

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/BIwashi/sigcodec/pkg/cli"
	"github.com/BIwashi/sigcodec/pkg/protolint"
)

type generator struct {
	networkFile string
	outputDir   string
	lint        string
}

func NewCommand() *cobra.Command {
	s := &generator{
		outputDir: "generated/proto/v1",
	}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a proto file from a network definition.",
		Example: `  # Generate engine.proto and lint it with buf
  sigcodec gen --network engine.dbc --output-dir proto --lint buf`,
		RunE: cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.networkFile, "network", s.networkFile, "Network definition (.dbc, .yaml)")
	cmd.Flags().StringVar(&s.outputDir, "output-dir", s.outputDir, "Output directory for proto file")
	cmd.Flags().StringVar(&s.lint, "lint", s.lint, "Lint the generated file with buf or protolint")

	cmd.MarkFlagRequired("network")

	return cmd
}

func (s *generator) run(ctx context.Context, input cli.Input) error {
	var tool protolint.Tool
	if s.lint != "" {
		var err error
		if tool, err = protolint.ParseTool(s.lint); err != nil {
			return err
		}
	}

	input.Logger.Info("Generating proto file",
		"network_file", s.networkFile,
		"output_dir", s.outputDir,
	)

	outputPath, err := GenerateFromFile(s.networkFile, s.outputDir, input.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(input.Stdout, outputPath)

	if tool == "" {
		return nil
	}
	result, err := protolint.NewLinter(input.Logger).Lint(ctx, tool, outputPath)
	if err != nil {
		return err
	}
	fmt.Fprint(input.Stdout, result.FormatResult())
	if !result.Success {
		return errors.Newf("%s reported %d issues", tool, len(result.Errors))
	}
	return nil
}
