package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/TFMV/ctxgen/internal/snapshot"
	"github.com/TFMV/ctxgen/internal/watch"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Regenerate the snapshot whenever the source tree changes",
	Long: `Generate the snapshot once, then regenerate it from scratch every time
files under the directory change. Changes to paths a run would skip, such as
the output directory or ignored entries, are disregarded.

Examples:
  ctxgen watch
  ctxgen watch --debounce=2s -o /tmp/context ./src`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(args)
		if err != nil {
			return err
		}
		logger := newLogger()
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runSnapshot(ctx, cmd, cfg, logger); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		root, err := filepath.Abs(cfg.Root)
		if err != nil {
			return err
		}
		skip, err := snapshot.WatchFilter(cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes...\n", root)
		fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to exit.")

		return watch.Watch(ctx, root, watch.Options{
			Debounce: viper.GetDuration("debounce"),
			Skip:     skip,
			Logger:   logger,
		}, func(ctx context.Context, paths []string) error {
			logger.Info("change detected, regenerating", zap.Int("paths", len(paths)))
			return runSnapshot(ctx, cmd, cfg, logger)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period after a change before regenerating")
	viper.BindPFlag("debounce", watchCmd.Flags().Lookup("debounce"))
}
