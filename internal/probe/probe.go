// Package probe measures file sizes without keeping files open.
package probe

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ostafen/sigscan/internal/fs"
	"github.com/ostafen/sigscan/internal/logger"
)

type Prober struct {
	opener fs.Opener
	logger *slog.Logger
}

func New(opener fs.Opener, log *slog.Logger) *Prober {
	if opener == nil {
		opener = fs.DefaultOpener
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Prober{
		opener: opener,
		logger: log,
	}
}

// CalculateFileSize probes path with the operating system opener.
func CalculateFileSize(path string) (uint64, error) {
	return New(nil, nil).Calculate(path)
}

// Calculate returns the byte length of the file at path.
func (p *Prober) Calculate(path string) (uint64, error) {
	var size uint64
	if err := p.CalculateInto(path, &size); err != nil {
		return 0, err
	}
	return size, nil
}

// CalculateInto opens path, seeks to its end, stores the reached position
// into size and closes the file. The handle is released on every path.
func (p *Prober) CalculateInto(path string, size *uint64) error {
	if path == "" {
		return &Error{Kind: KindNilPath}
	}
	if size == nil {
		return &Error{Kind: KindNilSize, Path: path}
	}

	f, err := p.opener.Open(path)
	if err != nil {
		return &Error{Kind: KindOpen, Path: path, Err: err}
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return &Error{Kind: KindSeekEnd, Path: path, Err: err}
	}

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return &Error{Kind: KindTell, Path: path, Err: err}
	}
	if pos < 0 {
		f.Close()
		return &Error{Kind: KindTell, Path: path, Err: fmt.Errorf("negative position %d", pos)}
	}
	*size = uint64(pos)

	if err := f.Close(); err != nil {
		return &Error{Kind: KindClose, Path: path, Err: err}
	}

	p.logger.Debug("file size probed", "path", path, "size", pos)
	return nil
}
