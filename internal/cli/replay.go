package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/app"
	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/replay"
	"github.com/tofscope/tofscope/internal/service"
)

// replayOptions are shared by replay and watch
type replayOptions struct {
	name        string
	workers     int
	momentumLog string
}

func (o *replayOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.name, "name", "", "Run name (defaults to the first input)")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "Number of event workers (defaults to worker.event_workers)")
	cmd.Flags().StringVarP(&o.momentumLog, "output", "o", "", "Momentum log path (defaults to output.momentum_log)")
}

// session is one run driven from the command line
type session struct {
	app    *app.App
	runner *service.Runner
	run    *domain.Run
	opts   *replayOptions
	out    io.Writer
}

func openSession(ctx context.Context, g *globalOptions, o *replayOptions, name string, out io.Writer) (*session, error) {
	if o.momentumLog != "" {
		g.cfg.Output.MomentumLog = o.momentumLog
	}
	if o.workers < 1 {
		o.workers = g.cfg.Worker.EventWorkers
	}
	if o.name != "" {
		name = o.name
	}

	a, err := app.New(ctx, g.cfg, g.log, "replay")
	if err != nil {
		return nil, err
	}

	r, err := a.Runs.Create(ctx, &domain.RunInput{Name: name})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return &session{
		app:    a,
		runner: service.NewRunner(a.Events, g.log),
		run:    r,
		opts:   o,
		out:    out,
	}, nil
}

// replayFile feeds one event file through the worker pool
func (s *session) replayFile(ctx context.Context, path string) error {
	reader, err := replay.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	report, err := s.runner.Run(ctx, s.run.ID, reader, s.opts.workers)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(s.out, "%s: %d events, %d defined, %d undefined, %d failed\n",
		path, report.Events, report.Defined, report.Undefined, report.Failed)
	return nil
}

// finish completes or fails the run, prints its statistics and closes the app
func (s *session) finish(ctx context.Context, runErr error) error {
	var (
		r   *domain.Run
		err error
	)
	if runErr != nil {
		r, err = s.app.Runs.Fail(ctx, s.run.ID, runErr.Error())
	} else {
		r, err = s.app.Runs.Complete(ctx, s.run.ID)
	}
	if err != nil {
		s.app.Logger.Error("failed to finish run", zap.Error(err))
	} else {
		printRun(s.out, r, s.app.Config.Output.MomentumLog)
	}

	if closeErr := s.app.Close(); closeErr != nil && runErr == nil {
		return closeErr
	}
	return runErr
}

func printRun(w io.Writer, r *domain.Run, logPath string) {
	st := r.Stats
	fmt.Fprintf(w, "run %s (%s) %s\n", r.ID, r.Name, r.Status)
	fmt.Fprintf(w, "  events:          %d\n", st.Events)
	fmt.Fprintf(w, "  energy mean/rms: %g / %g MeV\n", st.MeanEnergy, st.RMSEnergy)
	fmt.Fprintf(w, "  momentum:        %d defined, %d undefined, mean %g MeV/c\n",
		st.MomentumCount, st.UndefinedMomentum, st.MeanMomentum)
	fmt.Fprintf(w, "  momentum log:    %s\n", logPath)
}

func newReplayCommand(g *globalOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay FILE...",
		Short: "Replay recorded event files",
		Long: `Replay JSON-lines event files into one run. Every event goes through a
fresh begin/record/accumulate/end cycle; defined momenta are appended to
the momentum log.

Examples:
  tofscope replay events.jsonl
  tofscope replay --workers 8 --name calibration run-*.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, g, opts, args[0], cmd.OutOrStdout())
			if err != nil {
				return err
			}

			var runErr error
			for _, path := range args {
				if runErr = s.replayFile(ctx, path); runErr != nil {
					break
				}
			}
			// the run is finished even when ctx was cancelled
			return s.finish(context.WithoutCancel(ctx), runErr)
		},
	}

	opts.register(cmd)
	return cmd
}
