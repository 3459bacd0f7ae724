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
package scan

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ostafen/sigscan/internal/console"
	"github.com/ostafen/sigscan/internal/env"
	"github.com/ostafen/sigscan/internal/fs"
	"github.com/ostafen/sigscan/internal/logger"
	"github.com/ostafen/sigscan/internal/scanner"
	"github.com/ostafen/sigscan/internal/signature"
	"github.com/ostafen/sigscan/pkg/pbar"
	"github.com/ostafen/sigscan/pkg/report"
	fmtutil "github.com/ostafen/sigscan/pkg/util/format"
	osutil "github.com/ostafen/sigscan/pkg/util/os"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	SignatureFile string
	Targets       []string
	Workers       int
	ReportFile    string
	LogFile       string
	DisableLog    bool
	LogLevel      slog.Level

	// Progress receives a progress line while more than one target is
	// being scanned. Nil disables it.
	Progress io.Writer

	// Opener is used for both the signature file and the targets.
	// Nil means the operating system.
	Opener fs.Opener
}

// Outcome is the result of scanning one target. Err is a *scanner.Error
// when the scan did not reach a verdict.
type Outcome struct {
	Result scanner.Result
	Err    error
}

type Summary struct {
	RunID     string
	Signature *signature.VirusSignature
	Outcomes  []Outcome // in target order
	LogFile   string
	Duration  time.Duration
}

func (s *Summary) Detections() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err == nil && o.Result.Detected() {
			n++
		}
	}
	return n
}

func (s *Summary) Failures() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// ExitCode returns ExitDetected when any target is infected. Otherwise the
// first target that failed, or whose close failed, decides the code.
func (s *Summary) ExitCode() int {
	if s.Detections() > 0 {
		return ExitDetected
	}

	for _, o := range s.Outcomes {
		if o.Err != nil {
			return ScanExitCode(o.Err)
		}
		if o.Result.CloseErr != nil {
			return ScanExitCode(o.Result.CloseErr)
		}
	}
	return ExitClean
}

// Scan loads the signature once and checks every target against it.
// Failures of single targets are part of the returned Summary; the error
// is an *ExitError for failures that prevent the run as a whole.
func Scan(ctx context.Context, opts Options, con *console.Console) (*Summary, error) {
	start := time.Now()

	runID := uuid.NewString()

	var logFilePath string
	if !opts.DisableLog {
		logFilePath = opts.LogFile
		if logFilePath == "" {
			logFilePath = filepath.Join(os.TempDir(), env.AppName, runID+".log")
		}
		logFilePath = absPath(logFilePath)
	}

	log, logFile, err := logger.Setup(logFilePath, opts.LogLevel)
	if err != nil {
		return nil, &ExitError{Code: ExitSetup, Err: err}
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log = log.With("run_id", runID)

	vs, err := signature.NewLoader(opts.Opener, log).Read(opts.SignatureFile)
	if err != nil {
		log.Error("unable to load signature", "path", opts.SignatureFile, "err", err)
		return nil, &ExitError{Code: LoaderExitCode(err), Err: err}
	}

	var (
		reportWriter *report.Writer
		reportFile   *os.File
	)
	if opts.ReportFile != "" {
		reportWriter, reportFile, err = openReport(opts.ReportFile, runID, vs)
		if err != nil {
			return nil, &ExitError{Code: ExitSetup, Err: err}
		}
		defer reportFile.Close()
	}

	workers := max(opts.Workers, 1)

	con.Info("Starting scanning operation...")
	con.Info("Signature: \t%s (%s)", absPath(opts.SignatureFile), vs)
	con.Info("Targets: \t%d", len(opts.Targets))
	if len(opts.Targets) > 1 {
		con.Info("Workers: \t%d", min(workers, len(opts.Targets)))
	}
	outLog := "disabled"
	if logFilePath != "" {
		outLog = logFilePath
	}
	con.Info("Output Log: \t%s", outLog)
	fmt.Fprintln(con.Out())

	log.Info("scan started",
		"signature", vs.VirusName(),
		"offset", vs.Offset(),
		"targets", len(opts.Targets),
		"workers", workers,
	)

	sc := scanner.New(opts.Opener, log)

	outcomes, err := scanAll(ctx, sc, vs, opts.Targets, workers, opts.Progress)
	if err != nil {
		log.Warn("scan interrupted", "err", err)

		// the report stays a well formed document, without file objects
		if reportWriter != nil {
			if cerr := closeReport(reportWriter, reportFile); cerr != nil {
				log.Error("unable to finalize report", "err", cerr)
			}
		}
		return nil, &ExitError{Code: ExitInterrupted, Err: err}
	}

	var totalDataSize uint64
	for _, o := range outcomes {
		printOutcome(con, o)

		if o.Err != nil {
			log.Error("scan failed", "path", o.Result.Path, "err", o.Err)
		} else {
			totalDataSize += o.Result.Size
		}

		if reportWriter == nil {
			continue
		}
		if err := reportWriter.WriteFileObject(fileObject(o)); err != nil {
			log.Error("unable to write report entry", "path", o.Result.Path, "err", err)
		}
	}

	if reportWriter != nil {
		if err := closeReport(reportWriter, reportFile); err != nil {
			log.Error("unable to finalize report", "err", err)
			con.Warn("unable to finalize report %s: %v", opts.ReportFile, err)
		}
	}

	summary := &Summary{
		RunID:     runID,
		Signature: vs,
		Outcomes:  outcomes,
		LogFile:   logFilePath,
		Duration:  time.Since(start),
	}

	log.Info("scan completed",
		"detections", summary.Detections(),
		"errors", summary.Failures(),
		"exit_code", summary.ExitCode(),
	)

	fmt.Fprintln(con.Out())
	con.Info("Scan completed!")
	con.Info("Files scanned: \t%d", len(outcomes))
	con.Info("Detections: \t%d", summary.Detections())
	con.Info("Errors: \t%d", summary.Failures())
	con.Info("Total data: \t%s", fmtutil.FormatBytes(int64(totalDataSize)))
	con.Info("Duration: \t%s", FormatDurationHMS(summary.Duration))
	if opts.ReportFile != "" {
		con.Info("Report saved to: \t%s", absPath(opts.ReportFile))
	}
	if logFilePath != "" {
		con.Info("Detailed scan log: \t%s", logFilePath)
	}
	return summary, nil
}

func scanAll(
	ctx context.Context,
	sc *scanner.FileScanner,
	vs *signature.VirusSignature,
	targets []string,
	workers int,
	progress io.Writer,
) ([]Outcome, error) {
	outcomes := make([]Outcome, len(targets))

	var bar *pbar.ProgressBarState
	if progress != nil && len(targets) > 1 {
		bar = pbar.NewProgressBarState(progress, len(targets))
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := sc.ScanFile(target, vs)
			outcomes[i] = Outcome{Result: res, Err: err}

			if bar != nil {
				mu.Lock()
				bar.Add(res.Detected(), err != nil)
				bar.Render(false)
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	if bar != nil {
		bar.Finish()
	}
	return outcomes, err
}

func printOutcome(con *console.Console, o Outcome) {
	switch {
	case o.Err != nil:
		con.Error("%v", o.Err)
		return
	case o.Result.Detected():
		con.Detected(o.Result.VirusName, o.Result.Path)
	default:
		con.Clean(o.Result.Path)
	}

	if o.Result.CloseErr != nil {
		con.Warn("%v", o.Result.CloseErr)
	}
}

func openReport(path, runID string, vs *signature.VirusSignature) (*report.Writer, *os.File, error) {
	if err := osutil.CheckOutputFile(path); err != nil {
		return nil, nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	w := report.NewWriter(f)

	err = w.WriteHeader(report.Header{
		RunID: runID,
		Creator: report.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: report.GetExecEnv(),
		},
		Signature: report.Signature{
			Name:    vs.VirusName(),
			Offset:  vs.Offset(),
			Pattern: strings.ToUpper(hex.EncodeToString(vs.Signature())),
		},
	})
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to write report header to %q: %w", path, err)
	}
	return w, f, nil
}

func closeReport(w *report.Writer, f *os.File) error {
	if err := w.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func fileObject(o Outcome) report.FileObject {
	obj := report.FileObject{
		Filename: o.Result.Path,
		FileSize: o.Result.Size,
	}

	if o.Err != nil {
		obj.Verdict = report.VerdictError
		obj.Error = errorDetail(o.Err)
		return obj
	}

	obj.Verdict = report.VerdictClean
	if o.Result.Detected() {
		obj.Verdict = report.VerdictDetected
		obj.VirusName = o.Result.VirusName
	}
	if o.Result.CloseErr != nil {
		obj.Warning = errorDetail(o.Result.CloseErr)
	}
	return obj
}

func errorDetail(err error) *report.ErrorDetail {
	detail := &report.ErrorDetail{
		Code:    ScanExitCode(err),
		Message: err.Error(),
	}

	var serr *scanner.Error
	if errors.As(err, &serr) {
		detail.Kind = serr.Kind.String()
	}
	return detail
}

func absPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// FormatDurationHMS formats a time.Duration into HH:MM:SS string.
// Durations under a second are printed as fractional seconds.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
