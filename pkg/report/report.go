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
package report

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"

	"github.com/ostafen/sigscan/pkg/sysinfo"
)

const FormatVersion = "1.0"

// Header holds the elements written once, before any file object.
type Header struct {
	RunID     string    `xml:"run_id"`
	Creator   Creator   `xml:"creator"`
	Signature Signature `xml:"signature"`
}

// Creator describes the software and environment that produced the report.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Signature is the record every file object of the report was checked against.
type Signature struct {
	Name    string `xml:"name"`
	Offset  uint64 `xml:"offset"`
	Pattern string `xml:"pattern"` // upper-case hex
}

// FileObject is the outcome of scanning one target.
type FileObject struct {
	XMLName   xml.Name     `xml:"fileobject"`
	Filename  string       `xml:"filename"`
	FileSize  uint64       `xml:"filesize"`
	Verdict   string       `xml:"verdict"` // "clean", "detected" or "error"
	VirusName string       `xml:"virus_name,omitempty"`
	Error     *ErrorDetail `xml:"error,omitempty"`
	Warning   *ErrorDetail `xml:"warning,omitempty"`
}

// ErrorDetail carries the failed phase and the exit code it maps to.
type ErrorDetail struct {
	Kind    string `xml:"kind,attr"`
	Code    int    `xml:"code,attr"`
	Message string `xml:",chardata"`
}

const (
	VerdictClean    = "clean"
	VerdictDetected = "detected"
	VerdictError    = "error"
)

// GetExecEnv collects information about the machine running the scan.
func GetExecEnv() ExecEnv {
	info := sysinfo.Stat()

	uid := -1
	if u, err := user.Current(); err == nil {
		if n, err := strconv.Atoi(u.Uid); err == nil {
			uid = n
		}
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return ExecEnv{
		OS:      info.Name,
		Release: info.Release,
		Version: info.Version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format(time.RFC3339),
	}
}
