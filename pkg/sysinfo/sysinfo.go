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

// Package sysinfo identifies the operating system a scan runs on.
package sysinfo

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

type SysInfo struct {
	Name    string // runtime.GOOS
	Release string // distribution or product name, e.g. "Ubuntu", "macOS", "Windows"
	Version string // release version or build string
}

// Stat never fails: fields that cannot be determined are reported as "unknown".
func Stat() SysInfo {
	info := SysInfo{
		Name:    runtime.GOOS,
		Release: "unknown",
		Version: "unknown",
	}

	switch runtime.GOOS {
	case "linux":
		if f, err := os.Open("/etc/os-release"); err == nil {
			defer f.Close()
			fields := parseKeyValues(f, "=")
			info.Release = firstNonEmpty(fields["NAME"], info.Release)
			info.Version = firstNonEmpty(fields["VERSION"], fields["VERSION_ID"], info.Version)
		}
	case "darwin":
		if out, err := exec.Command("sw_vers").Output(); err == nil {
			fields := parseKeyValues(bytes.NewReader(out), ":")
			info.Release = firstNonEmpty(fields["ProductName"], "macOS")
			info.Version = firstNonEmpty(fields["ProductVersion"], info.Version)
		}
	case "windows":
		info.Release = "Windows"
		if out, err := exec.Command("cmd", "/c", "ver").Output(); err == nil {
			info.Version = firstNonEmpty(strings.TrimSpace(string(out)), info.Version)
		}
	}
	return info
}

// parseKeyValues reads "key<sep>value" lines, trimming blanks and quotes from values.
func parseKeyValues(r io.Reader, sep string) map[string]string {
	fields := make(map[string]string)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), sep)
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
