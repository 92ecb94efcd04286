// Package cli implements the tofscope command line tool: detector export,
// replay of recorded event files and momentum log reports.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/pkg/logger"
)

// Version is set at build time
var Version = "0.1.0"

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "tofscope",
		Short: "tofscope - time-of-flight momentum bookkeeping for the silicon tracker",
		Long: `tofscope replays recorded tracker events, estimates each event's momentum
from its time of flight and appends it to the momentum log.

Commands:
  geometry - Print the detector built from the configuration
  replay   - Replay recorded event files
  watch    - Replay event files as they are dropped into a directory
  report   - Summarise a momentum log

Example:
  tofscope geometry --format json
  tofscope replay --workers 8 run-0001.jsonl run-0002.jsonl
  tofscope watch ./incoming
  tofscope report momentum.txt`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (defaults to ./config.yaml when present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newGeometryCommand(opts),
		newReplayCommand(opts),
		newWatchCommand(opts),
		newReportCommand(opts),
	)

	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *globalOptions) load() error {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	// stdout carries command output
	if err := logger.Init(logger.Config{Level: level, Format: "console", Output: "stderr"}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	o.cfg = cfg
	o.log = logger.Log
	return nil
}
