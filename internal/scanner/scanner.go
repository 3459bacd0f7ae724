// Package scanner checks a single file against a virus signature.
package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ostafen/sigscan/internal/fs"
	"github.com/ostafen/sigscan/internal/logger"
	"github.com/ostafen/sigscan/internal/probe"
	"github.com/ostafen/sigscan/internal/signature"
)

// MZMagic is the marker every DOS/PE executable starts with.
var MZMagic = []byte("MZ")

type Verdict uint8

const (
	VerdictClean Verdict = iota
	VerdictDetected
)

func (v Verdict) String() string {
	if v == VerdictDetected {
		return "detected"
	}
	return "clean"
}

type Result struct {
	Path      string
	Size      uint64
	Verdict   Verdict
	VirusName string // set when Verdict is VerdictDetected

	// CloseErr is a *Error of kind KindClose when the target could not be
	// closed after the verdict was reached. It never changes the verdict.
	CloseErr error
}

func (r Result) Detected() bool {
	return r.Verdict == VerdictDetected
}

// FileScanner is stateless and can be shared by concurrent scans.
type FileScanner struct {
	opener fs.Opener
	prober *probe.Prober
	logger *slog.Logger
}

func New(opener fs.Opener, log *slog.Logger) *FileScanner {
	if opener == nil {
		opener = fs.DefaultOpener
	}
	if log == nil {
		log = logger.Discard()
	}
	return &FileScanner{
		opener: opener,
		prober: probe.New(opener, log),
		logger: log,
	}
}

// ScanFile reports whether the file at path holds vs.Signature() at vs.Offset().
//
// The scan runs through its phases exactly once: size probe, MZ header
// check, seek to the signature offset, window read, comparison and close.
// Files smaller than the signature window are rejected before being opened
// for inspection, and files without the MZ marker are never seeked.
func (s *FileScanner) ScanFile(path string, vs *signature.VirusSignature) (Result, error) {
	res := Result{Path: path}

	if path == "" {
		return res, &Error{Kind: KindNilPath}
	}
	if vs == nil {
		return res, &Error{Kind: KindNilSignature, Path: path}
	}

	size, err := s.prober.Calculate(path)
	if err != nil {
		var perr *probe.Error
		if errors.As(err, &perr) {
			return res, &Error{Kind: KindFromProbe(perr.Kind), Path: path, Err: err}
		}
		return res, &Error{Kind: KindProbeOpen, Path: path, Err: err}
	}
	res.Size = size

	minSize := max(uint64(len(MZMagic)), vs.End())
	if size < minSize {
		return res, &Error{
			Kind: KindTooSmall,
			Path: path,
			Err:  fmt.Errorf("size is %d bytes, at least %d required", size, minSize),
		}
	}

	f, err := s.opener.Open(path)
	if err != nil {
		return res, &Error{Kind: KindOpen, Path: path, Err: err}
	}

	detected, serr := s.inspect(f, vs)
	if serr != nil {
		f.Close()

		serr.Path = path
		return res, serr
	}

	if detected {
		res.Verdict = VerdictDetected
		res.VirusName = vs.VirusName()
	}

	if err := f.Close(); err != nil {
		s.logger.Warn("unable to close scanned file", "path", path, "err", err)
		res.CloseErr = &Error{Kind: KindClose, Path: path, Err: err}
	}

	s.logger.Debug("file scanned",
		"path", path,
		"size", size,
		"verdict", res.Verdict.String(),
	)
	return res, nil
}

func (s *FileScanner) inspect(f fs.File, vs *signature.VirusSignature) (bool, *Error) {
	header := make([]byte, len(MZMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false, &Error{Kind: KindHeaderRead, Err: err}
	}
	if !bytes.Equal(header, MZMagic) {
		return false, &Error{Kind: KindNotPE, Err: fmt.Errorf("header is %q", header)}
	}

	offset := int64(vs.Offset())
	pos, err := f.Seek(offset, io.SeekStart)
	if err != nil {
		return false, &Error{Kind: KindOffsetSeek, Err: err}
	}
	if pos != offset {
		return false, &Error{Kind: KindOffsetSeek, Err: fmt.Errorf("seek landed at %d instead of %d", pos, offset)}
	}

	window := make([]byte, vs.Len())
	if _, err := io.ReadFull(f, window); err != nil {
		return false, &Error{Kind: KindBufferRead, Err: err}
	}

	return vs.Match(window), nil
}
