package signature

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ostafen/sigscan/internal/fs"
	"github.com/ostafen/sigscan/internal/logger"
)

// MaxDefinitionSize bounds how much of a definition file is read.
const MaxDefinitionSize = 64 * 1024

type Loader struct {
	opener fs.Opener
	logger *slog.Logger
}

func NewLoader(opener fs.Opener, log *slog.Logger) *Loader {
	if opener == nil {
		opener = fs.DefaultOpener
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{
		opener: opener,
		logger: log,
	}
}

// ReadSignature loads the definition at path with the operating system opener.
func ReadSignature(path string) (*VirusSignature, error) {
	return NewLoader(nil, nil).Read(path)
}

func (l *Loader) Read(path string) (*VirusSignature, error) {
	var vs VirusSignature
	if err := l.ReadInto(path, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}

// ReadInto loads the single record stored at path into dst. The file is
// opened once and closed once; dst is only written when every step succeeds.
func (l *Loader) ReadInto(path string, dst *VirusSignature) error {
	if path == "" {
		return &Error{Kind: KindNilPath}
	}
	if dst == nil {
		return &Error{Kind: KindNilDestination, Path: path}
	}

	f, err := l.opener.Open(path)
	if err != nil {
		return &Error{Kind: KindOpen, Path: path, Err: err}
	}

	vs, err := decodeFile(f)
	if err != nil {
		f.Close()

		var serr *Error
		if errors.As(err, &serr) {
			serr.Path = path
			return serr
		}
		return &Error{Kind: KindSignature, Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		return &Error{Kind: KindClose, Path: path, Err: err}
	}

	*dst = *vs

	l.logger.Debug("signature loaded",
		"path", path,
		"name", vs.name,
		"offset", vs.offset,
		"length", len(vs.signature),
	)
	return nil
}

func decodeFile(r io.Reader) (*VirusSignature, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDefinitionSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDefinitionSize {
		return nil, fmt.Errorf("definition exceeds %d bytes", MaxDefinitionSize)
	}
	return decodeRecord(data)
}
