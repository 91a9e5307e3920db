package cmd

import (
	"fmt"
	"os"

	"ankivox/core/config"
	"ankivox/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// envFile is the env file named by --env; empty means ./.env when present.
var envFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ankivox",
	Short: "Fill Anki note fields with Azure neural speech",
	Long: `ankivox reads notes from a running Anki through the AnkiConnect add-on,
synthesizes the text of one field with Azure Speech and stores the audio
reference in another field.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Config may be what failed, so report with a fixed console logger.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to an env file (default ./.env when present)")
}

// loadConfig loads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}
