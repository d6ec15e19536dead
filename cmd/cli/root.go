package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/unit-converter/internal/adapters/cli"
	"github.com/kirillkom/unit-converter/internal/bootstrap"
	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/observability/logging"
)

const service = "unit-converter-cli"

type rootFlags struct {
	configPath string
	logFile    string
	precision  int
}

// newRootCmd returns the command that runs the interactive converter.
//
// Usage:
//
//	unitconv [flags]
//	unitconv units [--xlsx path]
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:          "unitconv",
		Short:        "Convert engineering units interactively",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, flags)
		},
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	cmd.Flags().SortFlags = false
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "Path to a YAML config file")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Conversion log path (overrides config)")
	cmd.Flags().IntVarP(&flags.precision, "precision", "p", -1, "Decimals shown for results (overrides config)")
	cmd.MarkPersistentFlagFilename("config", "yaml", "yml")

	cmd.AddCommand(newCmdUnits())
	return cmd
}

func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.logFile != "" {
		cfg.ConversionLogPath = flags.logFile
	}
	if cmd.Flags().Changed("precision") {
		cfg.DisplayPrecision = flags.precision
	}
	// The terminal session has no login gate.
	cfg.AuthEnabled = false
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), service, cfg.LogLevel))
	return cfg, nil
}

func runShell(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	return cli.NewShell(app.Converter, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.DisplayPrecision).Run(ctx)
}
