// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"io"
	"os"

	"github.com/ostafen/sigscan/internal/config"
	"github.com/ostafen/sigscan/internal/logger"
	"github.com/ostafen/sigscan/internal/scan"
	"github.com/spf13/cobra"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target...]",
		Short: "Check files against a virus signature",
		Long: "Check every target against the signature definition file.\n" +
			"Missing paths are asked interactively when running in a terminal.",
		Args: cobra.ArbitraryArgs,
		RunE: RunScan,
	}

	cmd.Flags().StringP("signature", "s", "", "path of the signature definition file")
	cmd.Flags().IntP("workers", "w", 0, "max number of targets scanned concurrently (default: number of CPUs)")
	cmd.Flags().StringP("output", "o", "", "path of the XML scan report")

	return cmd
}

func RunScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	targets := args
	if cfg.SignatureFile == "" {
		cfg.SignatureFile, err = promptPath("Signature file", "no signature file given")
		if err != nil {
			return err
		}
	}
	if len(targets) == 0 {
		target, err := promptPath("File to scan", "no target given")
		if err != nil {
			return err
		}
		targets = []string{target}
	}

	summary, err := scan.Scan(cmd.Context(), parseOptions(cfg, targets), newConsole(cmd, cfg.NoColor))
	if err != nil {
		return err
	}

	if code := summary.ExitCode(); code != scan.ExitClean {
		return &scan.ExitError{Code: code}
	}
	return nil
}

func parseOptions(cfg *config.Config, targets []string) scan.Options {
	var progress io.Writer
	if len(targets) > 1 && isTerminal(os.Stderr) {
		progress = os.Stderr
	}

	return scan.Options{
		SignatureFile: cfg.SignatureFile,
		Targets:       targets,
		Workers:       cfg.Workers,
		ReportFile:    cfg.ReportFile,
		LogFile:       cfg.LogFile,
		DisableLog:    cfg.DisableLog,
		LogLevel:      logger.ParseLevel(cfg.LogLevel),
		Progress:      progress,
	}
}
