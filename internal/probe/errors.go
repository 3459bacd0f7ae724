package probe

import "fmt"

// Kind identifies the step of a size probe that failed.
type Kind uint8

const (
	KindNilPath Kind = iota + 1
	KindNilSize
	KindOpen
	KindSeekEnd
	KindTell
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindNilPath:
		return "empty file path"
	case KindNilSize:
		return "nil size destination"
	case KindOpen:
		return "open failed"
	case KindSeekEnd:
		return "seek to end failed"
	case KindTell:
		return "position read failed"
	case KindClose:
		return "close failed"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Error reports a failed size probe together with the step that failed.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("size probe %q: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("size probe %q: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
