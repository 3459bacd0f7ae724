package cmd

import (
	"fmt"

	"github.com/ostafen/sigscan/internal/scan"
	"github.com/ostafen/sigscan/internal/signature"
	"github.com/ostafen/sigscan/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineSignatureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Inspect signature definition files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <file>",
			Short: "Print the record of a signature definition file",
			Args:  exactArgs(1),
			RunE:  RunSignatureShow,
		},
		&cobra.Command{
			Use:   "check <file>",
			Short: "Validate a signature definition file",
			Args:  exactArgs(1),
			RunE:  RunSignatureCheck,
		},
	)
	return cmd
}

func readSignature(path string) (*signature.VirusSignature, error) {
	vs, err := signature.ReadSignature(path)
	if err != nil {
		return nil, &scan.ExitError{Code: scan.LoaderExitCode(err), Err: err}
	}
	return vs, nil
}

func RunSignatureShow(cmd *cobra.Command, args []string) error {
	vs, err := readSignature(args[0])
	if err != nil {
		return err
	}

	record, err := vs.MarshalText()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:    %s\n", vs.VirusName())
	fmt.Fprintf(out, "Offset:  %d (0x%X)\n", vs.Offset(), vs.Offset())
	fmt.Fprintf(out, "Length:  %d bytes\n", vs.Len())
	fmt.Fprintf(out, "Pattern: %s\n", format.FormatHex(vs.Signature()))
	fmt.Fprintf(out, "ASCII:   %s\n", format.FormatASCII(vs.Signature()))
	fmt.Fprintf(out, "Record:  %s\n", record)
	return nil
}

func RunSignatureCheck(cmd *cobra.Command, args []string) error {
	vs, err := readSignature(args[0])
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	newConsole(cmd, noColor).Info("%s: signature %s is valid", args[0], vs.VirusName())
	return nil
}
