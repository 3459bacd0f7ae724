package scanner

import (
	"fmt"

	"github.com/ostafen/sigscan/internal/probe"
)

// Kind identifies the phase of a scan that failed. Size probe failures get
// their own kinds so that they can be told apart from the equivalent
// failures of the scan itself.
type Kind uint8

const (
	KindNilPath Kind = iota + 1
	KindNilSignature
	KindOpen
	KindHeaderRead
	KindNotPE
	KindProbeNilPath
	KindProbeNilSize
	KindProbeOpen
	KindProbeSeekEnd
	KindProbeTell
	KindProbeClose
	KindTooSmall
	KindOffsetSeek
	KindBufferRead
	KindClose
)

// KindFromProbe maps a size probe failure to the scan kind that reports it.
func KindFromProbe(k probe.Kind) Kind {
	switch k {
	case probe.KindNilPath:
		return KindProbeNilPath
	case probe.KindNilSize:
		return KindProbeNilSize
	case probe.KindOpen:
		return KindProbeOpen
	case probe.KindSeekEnd:
		return KindProbeSeekEnd
	case probe.KindTell:
		return KindProbeTell
	case probe.KindClose:
		return KindProbeClose
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindNilPath:
		return "empty target path"
	case KindNilSignature:
		return "nil signature"
	case KindOpen:
		return "open failed"
	case KindHeaderRead:
		return "cannot read MZ header"
	case KindNotPE:
		return "not a PE file"
	case KindProbeNilPath, KindProbeNilSize, KindProbeOpen, KindProbeSeekEnd, KindProbeTell, KindProbeClose:
		return "size probe: " + (probe.Kind(k-KindProbeNilPath) + probe.KindNilPath).String()
	case KindTooSmall:
		return "file too small"
	case KindOffsetSeek:
		return "cannot seek to signature offset"
	case KindBufferRead:
		return "cannot read signature window"
	case KindClose:
		return "close failed"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Error() string { return k.String() }

type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := "scan"
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
