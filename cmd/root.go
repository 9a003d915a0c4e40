/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tristendillon/doppelganger/core/config"
	"github.com/tristendillon/doppelganger/core/logger"
)

var rootCmd = &cobra.Command{
	Use:   "doppel",
	Short: "Generate a stubbed doppelganger of a Python source tree.",
	Long: `Doppel mirrors a Python project into a sibling directory in which every
function and method body is replaced by pass, module docstrings are removed
and the result is canonically formatted. Signatures, decorators, class
attributes and module-level statements are kept.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		if logfile == "" {
			return nil
		}
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrapf(err, "failed to open log file %s", logfile)
		}
		logger.AddWriterForAll(f)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var logfile string
var verbose bool
var configPath string

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+config.FileName+")")
}

// loadConfig reads the config file and applies flag overrides set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast, _ = flags.GetBool("fail-fast")
	}
	if flags.Changed("ext") {
		cfg.Extension, _ = flags.GetString("ext")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "Number of files processed in parallel (default: number of CPUs)")
	cmd.Flags().Bool("fail-fast", false, "Abort on the first file that cannot be parsed or written")
	cmd.Flags().String("ext", "", "Suffix of eligible source files (default .py)")
}
