package signature

import "fmt"

// Kind identifies the step of a signature load that failed.
type Kind uint8

const (
	KindNilPath Kind = iota + 1
	KindNilDestination
	KindOpen
	KindSignature
	KindOffset
	KindName
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindNilPath:
		return "empty signature file path"
	case KindNilDestination:
		return "nil signature destination"
	case KindOpen:
		return "open failed"
	case KindSignature:
		return "cannot read signature bytes"
	case KindOffset:
		return "cannot read offset"
	case KindName:
		return "cannot read virus name"
	case KindClose:
		return "close failed"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Error() string { return k.String() }

// Error reports a failed signature load. Path is empty when the error comes
// from decoding text that was not read from a file.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := "signature"
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
