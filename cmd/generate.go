/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tristendillon/doppelganger/core/generator"
	"github.com/tristendillon/doppelganger/core/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate <source-root> <destination-root>",
	Short: "Generates the stubbed doppelganger tree",
	Long: `Walks the source root and writes the stub of every eligible file to the
same relative path under the destination root, mirroring every directory.
Existing destination files are overwritten; nothing is deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("generate called")
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		gen := generator.NewDoppelgangerGenerator(cfg, generator.WithLogger(logger.Named("generator")))
		report, err := gen.Generate(cmd.Context(), args[0], args[1])
		if report != nil {
			printReport(report)
		}
		if err != nil {
			return err
		}
		if report.HasFailures() {
			return errors.Newf("%d files failed", len(report.Failed()))
		}
		return nil
	},
}

func init() {
	addPipelineFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}
