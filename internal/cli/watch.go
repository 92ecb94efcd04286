package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tofscope/tofscope/internal/replay"
)

func newWatchCommand(g *globalOptions) *cobra.Command {
	var (
		opts     replayOptions
		existing bool
		settle   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Replay event files as they are dropped into a directory",
		Long: `Watch a directory and replay every new *.jsonl file into one run once it
has stopped changing. The run is completed on interrupt.

Examples:
  tofscope watch ./incoming
  tofscope watch --existing --settle 2s /data/events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return errors.New(dir + " is not a directory")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, g, &opts, dir, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			watchOpts := []replay.WatcherOption{replay.WithSettle(settle)}
			if existing {
				watchOpts = append(watchOpts, replay.WithExisting())
			}
			w := replay.NewWatcher(dir, s.replayFile, g.log, watchOpts...)

			runErr := w.Run(ctx)
			if errors.Is(runErr, context.Canceled) {
				runErr = nil
			}
			return s.finish(context.WithoutCancel(ctx), runErr)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&existing, "existing", false, "Also replay files already in the directory")
	cmd.Flags().DurationVar(&settle, "settle", replay.DefaultSettle, "Quiet period before a file is replayed")

	return cmd
}
