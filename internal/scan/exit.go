package scan

import (
	"errors"
	"fmt"

	"github.com/ostafen/sigscan/internal/scanner"
	"github.com/ostafen/sigscan/internal/signature"
)

// Process exit codes. Loader and scan failures are offset by their kind:
// a loader error of kind k exits with ExitLoaderBase+k, a scan error of
// kind k with ExitScanBase+k.
const (
	ExitClean       = 0
	ExitDetected    = 1
	ExitUsage       = 2
	ExitConfig      = 3
	ExitSetup       = 4
	ExitLoaderBase  = 10
	ExitScanBase    = 20
	ExitInterrupted = 130
)

// ExitError carries the exit code a command wants the process to end with.
// Err may be nil when the code alone is the outcome, as for a detection.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps the error returned by a command to a process exit code.
// Errors that do not carry a code come from command line parsing.
func ExitCode(err error) int {
	if err == nil {
		return ExitClean
	}

	var eerr *ExitError
	if errors.As(err, &eerr) {
		return eerr.Code
	}
	return ExitUsage
}

func LoaderExitCode(err error) int {
	if err == nil {
		return ExitClean
	}

	var lerr *signature.Error
	if errors.As(err, &lerr) {
		return ExitLoaderBase + int(lerr.Kind)
	}
	return ExitLoaderBase + int(signature.KindSignature)
}

func ScanExitCode(err error) int {
	if err == nil {
		return ExitClean
	}

	var serr *scanner.Error
	if errors.As(err, &serr) {
		return ExitScanBase + int(serr.Kind)
	}
	return ExitScanBase + int(scanner.KindOpen)
}
