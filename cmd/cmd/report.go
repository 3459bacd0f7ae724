package cmd

import (
	"fmt"
	"os"

	"github.com/ostafen/sigscan/internal/scan"
	"github.com/ostafen/sigscan/pkg/report"
	"github.com/spf13/cobra"
)

func DefineReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Summarize an XML scan report",
		Args:  exactArgs(1),
		RunE:  RunReport,
	}

	cmd.Flags().BoolP("all", "a", false, "list every scanned file, not only detections")

	return cmd
}

func RunReport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return &scan.ExitError{Code: scan.ExitUsage, Err: err}
	}
	defer f.Close()

	rep, err := report.Read(f)
	if err != nil {
		return &scan.ExitError{
			Code: scan.ExitUsage,
			Err:  fmt.Errorf("invalid report %q: %w", args[0], err),
		}
	}

	all, _ := cmd.Flags().GetBool("all")

	objs := rep.Detections()
	if all {
		objs = rep.FileObjects
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:       %s\n", rep.RunID)
	fmt.Fprintf(out, "Created:   %s %s (%s)\n", rep.Creator.Package, rep.Creator.Version, rep.Creator.ExecutionEnvironment.Start)
	fmt.Fprintf(out, "Signature: %s at offset %d\n", rep.Signature.Name, rep.Signature.Offset)
	fmt.Fprintf(out, "Files:     %d, detections: %d\n", len(rep.FileObjects), len(rep.Detections()))

	if len(objs) > 0 {
		fmt.Fprintln(out)
	}
	for _, obj := range objs {
		switch {
		case obj.Verdict == report.VerdictDetected:
			fmt.Fprintf(out, "%-9s %s (%s)\n", obj.Verdict, obj.Filename, obj.VirusName)
		case obj.Error != nil:
			fmt.Fprintf(out, "%-9s %s: %s [%d]\n", obj.Verdict, obj.Filename, obj.Error.Kind, obj.Error.Code)
		default:
			fmt.Fprintf(out, "%-9s %s\n", obj.Verdict, obj.Filename)
		}
	}
	return nil
}
