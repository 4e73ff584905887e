// gmail-scheduler answers meeting requests from a Gmail inbox with free
// calendar slots and books the meetings once both sides agree.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/config"
	"github.com/hal9000y/gmail-scheduler/internal/logging"
)

var (
	configPath string
	envFile    string
	logFile    string
	verbose    bool

	cfg       *config.Config
	logger    = zap.NewNop()
	flushLogs = func() {}
)

var rootCmd = &cobra.Command{
	Use:          "gmail-scheduler",
	Short:        "Meeting scheduling assistant for Gmail and Google Calendar",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		l, flush, err := logging.New(logging.Options{
			Verbose: verbose,
			File:    logFile,
			Stdio:   stdoutReserved(cmd),
		})
		if err != nil {
			return err
		}
		logger, flushLogs = l, flush
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		flushLogs()
	},
}

// stdoutReserved reports whether stdout carries command output or the MCP
// stdio transport, in which case logs go elsewhere.
func stdoutReserved(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "serve":
		return serveOpts.stdio
	case "daemon":
		return false
	default:
		return true
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to env file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, runCmd, daemonCmd, slotsCmd, statusCmd, credentialCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
