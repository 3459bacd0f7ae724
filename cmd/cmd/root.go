package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/ostafen/sigscan/internal/config"
	"github.com/ostafen/sigscan/internal/console"
	"github.com/ostafen/sigscan/internal/env"
	"github.com/ostafen/sigscan/internal/scan"
	"github.com/spf13/cobra"
)

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCommand()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !silent(err) {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		console.Stdio(noColor).Error("%v", err)
	}
	return scan.ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           env.AppName,
		Short:         env.AppName + " - signature based virus scanner for PE files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path of the TOML configuration file (default \""+config.DefaultConfigFile+"\" when present)")
	pf.String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "path of the scan log file")
	pf.Bool("no-log", false, "disable logging")
	pf.Bool("no-color", false, "disable coloured output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &scan.ExitError{Code: scan.ExitUsage, Err: err}
	})

	rootCmd.AddCommand(
		DefineScanCommand(),
		DefineSignatureCommand(),
		DefineReportCommand(),
		DefineVersionCommand(),
	)
	return rootCmd
}

// silent reports whether err only carries an exit code, its details having
// already been printed.
func silent(err error) bool {
	var eerr *scan.ExitError
	return errors.As(err, &eerr) && eerr.Err == nil
}

// loadConfig resolves the configuration and applies the flags the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, &scan.ExitError{Code: scan.ExitConfig, Err: err}
	}

	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &scan.ExitError{Code: scan.ExitConfig, Err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("signature") {
		cfg.SignatureFile, _ = flags.GetString("signature")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("output") {
		cfg.ReportFile, _ = flags.GetString("output")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("no-log") {
		cfg.DisableLog, _ = flags.GetBool("no-log")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}

	if err := cfg.Validate(); err != nil {
		return nil, &scan.ExitError{Code: scan.ExitConfig, Err: err}
	}
	return cfg, nil
}

func newConsole(cmd *cobra.Command, noColor bool) *console.Console {
	return console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &scan.ExitError{Code: scan.ExitUsage, Err: err}
		}
		return nil
	}
}
