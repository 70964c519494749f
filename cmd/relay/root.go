package main

import (
	"io"
	"log/slog"

	"github.com/spetersoncode/relay/config"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app holds state shared by the subcommands.
type app struct {
	// Global flags
	cfgFile  string
	logLevel string
	logFile  string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay - resilient multi-provider LLM requests",
		Long: `Relay sends chat requests to an ordered roster of models.

Transient failures are retried with exponential backoff, then the next
model in the roster takes over. The primary model is tried again once
the reset interval has passed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.relay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to a rotated file instead of stderr")

	rootCmd.AddCommand(newChatCmd(a))
	rootCmd.AddCommand(newModelsCmd())

	return rootCmd
}

// initConfig loads the config file, applies the environment and sets up logging.
func (a *app) initConfig(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.LoadEnv()
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	var w io.Writer = cmd.ErrOrStderr()
	if a.logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   a.logFile,
			MaxSize:    10, // megabytes before rotation
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = rotated
		a.closer = rotated
	}

	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}
