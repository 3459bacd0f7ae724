package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/ostafen/sigscan/internal/scan"
	"golang.org/x/term"
)

var errNotInteractive = errors.New("not running in a terminal")

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// promptPath asks the user for a path. Outside a terminal it fails with
// missing as the reason.
func promptPath(label, missing string) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", &scan.ExitError{
			Code: scan.ExitUsage,
			Err:  fmt.Errorf("%s: %w", missing, errNotInteractive),
		}
	}

	prompt := promptui.Prompt{
		Label:    label,
		Validate: validatePath,
	}

	path, err := prompt.Run()
	if err != nil {
		return "", &scan.ExitError{Code: scan.ExitUsage, Err: fmt.Errorf("%s: %w", missing, err)}
	}
	return strings.TrimSpace(path), nil
}

func validatePath(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("path must not be empty")
	}
	return nil
}
