package commands

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe/actor"
	"github.com/roasbeef/troupe/build"
)

var (
	// logLevel sets the verbosity of runtime logging.
	logLevel string

	// logDir is the directory for rotated log files (empty to log to
	// stderr only).
	logDir string

	// logCloser holds the rotating log writer so it can be flushed on
	// exit.
	logCloser *build.RotatingLogWriter
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Demo workloads for the troupe actor runtime",
	Long: `Troupe drives the actor runtime with self-contained demo workloads.

Each workload subcommand creates a fresh actor system, runs a workload to quiescence,
joins it, and prints a short summary.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging wires the runtime's logger to the console and, when a log
// directory is configured, to a rotating log file as well.
func setupLogging() error {
	handlers := []btclogv2.Handler{
		btclogv2.NewDefaultHandler(os.Stderr),
	}

	if logDir != "" {
		logCloser = build.NewRotatingLogWriter()
		err := logCloser.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDir,
			MaxLogFiles:    build.DefaultMaxLogFiles,
			MaxLogFileSize: build.DefaultMaxLogFileSize,
		})
		if err != nil {
			return err
		}

		handlers = append(
			handlers, btclogv2.NewDefaultHandler(logCloser),
		)
	}

	handlerSet := build.NewHandlerSet(handlers...)

	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	handlerSet.SetLevel(level)

	logger := btclogv2.NewSLogger(handlerSet)
	actor.UseLogger(logger.WithPrefix(actor.Subsystem))

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info",
		"Log level: trace, debug, info, warn, error, critical",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for rotated log files (empty to disable)",
	)

	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(versionCmd)
}
