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
package pbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const MinRefreshRate = time.Millisecond * 500

const barLength = 20

// ProgressBarState tracks a multi-file scan and renders it on a single line.
type ProgressBarState struct {
	TotalFiles   int
	ScannedFiles int
	Detections   int
	Errors       int
	StartTime    time.Time

	out            io.Writer
	lastUpdateTime time.Time
}

func NewProgressBarState(out io.Writer, totalFiles int) *ProgressBarState {
	return &ProgressBarState{
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
		out:        out,
	}
}

// Add records the outcome of one scanned file.
func (pbs *ProgressBarState) Add(detected bool, failed bool) {
	pbs.ScannedFiles++
	if detected {
		pbs.Detections++
	}
	if failed {
		pbs.Errors++
	}
}

// Render redraws the progress line, at most once per MinRefreshRate unless force is set.
func (pbs *ProgressBarState) Render(force bool) {
	if !force && time.Since(pbs.lastUpdateTime) < MinRefreshRate {
		return
	}
	pbs.lastUpdateTime = time.Now()

	fmt.Fprintf(pbs.out, "\r%s    ", pbs.Line())
}

// Line returns the progress line without carriage return or padding.
func (pbs *ProgressBarState) Line() string {
	percentage := 100.0
	if pbs.TotalFiles > 0 {
		percentage = float64(pbs.ScannedFiles) / float64(pbs.TotalFiles) * 100
	}

	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen >= barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	return fmt.Sprintf("[INFO] Progress: [%s] %3.0f%% (%d/%d files) | Detections: %d | Errors: %d",
		bar,
		percentage,
		pbs.ScannedFiles,
		pbs.TotalFiles,
		pbs.Detections,
		pbs.Errors,
	)
}

// Finish forces a last render and moves to the next line.
func (pbs *ProgressBarState) Finish() {
	pbs.Render(true)
	fmt.Fprintln(pbs.out)
}
