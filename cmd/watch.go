package cmd

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/tristendillon/doppelganger/core/cache"
	"github.com/tristendillon/doppelganger/core/generator"
	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/watcher"
)

// watchCmd regenerates the doppelganger whenever the source tree changes
var watchCmd = &cobra.Command{
	Use:   "watch <source-root> <destination-root>",
	Short: "Regenerate the doppelganger on every source change",
	Long: `Runs generate once, then watches the source root and runs a full
regeneration shortly after each burst of file changes. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("watch called")
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		src, dst := args[0], args[1]

		outputCache := cache.NewOutputCache(cache.DefaultCacheConfig(), logger.Named("cache"))
		gen := generator.NewDoppelgangerGenerator(cfg,
			generator.WithLogger(logger.Named("generator")),
			generator.WithCache(outputCache),
		)
		regenerate := func() error {
			report, err := gen.Generate(cmd.Context(), src, dst)
			if report != nil {
				printReport(report)
			}
			return err
		}

		fw, err := watcher.NewFileWatcher(src, cfg.Extension, cfg.Exclude, logger.Named("watcher"))
		if err != nil {
			return err
		}
		fw.FileWatcher.AddOnStartFunc(regenerate)
		fw.FileWatcher.AddOnChangeFunc(regenerate)
		fw.FileWatcher.AddOnInvalidateFunc(outputCache.InvalidateFile)

		logger.Info("Watching %s (Ctrl-C to stop)", strings.TrimSuffix(src, string(filepath.Separator)))
		return fw.Watch(cmd.Context())
	},
}

func init() {
	addPipelineFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
