package cmd

import (
	"fmt"
	"runtime"

	"github.com/ostafen/sigscan/internal/env"
	"github.com/spf13/cobra"
)

func DefineVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", env.AppName, env.Version)
			fmt.Fprintf(out, "Commit:     %s\n", env.CommitHash)
			fmt.Fprintf(out, "Build Time: %s\n", env.BuildTime)
			fmt.Fprintf(out, "Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
