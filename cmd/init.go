/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tristendillon/doppelganger/core/config"
	"github.com/tristendillon/doppelganger/core/logger"
)

var (
	force bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.FileName,
	Long:  `Writes the default configuration to ` + config.FileName + ` (or --config) for editing.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("init called")
		path := configPath
		if path == "" {
			path = config.FileName
		}
		if _, err := os.Stat(path); err == nil {
			if !force {
				logger.Warn("Config %s already exists. Use --force to overwrite.", path)
				return nil
			}
			logger.Debug("Config %s already exists. Overwriting.", path)
		}
		if err := config.Default().Write(path); err != nil {
			return errors.Wrap(err, "failed to write config")
		}
		fmt.Printf("Successfully wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing config")
}
