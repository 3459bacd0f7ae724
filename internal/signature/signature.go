// Package signature defines the virus signature record and its text encoding.
package signature

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSignatureLength is the maximum number of pattern bytes.
	MaxSignatureLength = 64
	// MaxVirusNameLength is the maximum length, in bytes, of a virus name.
	MaxVirusNameLength = 256
	// MaxFileSystemAddress is the largest offset a file can be seeked to.
	MaxFileSystemAddress uint64 = math.MaxInt64
)

var (
	ErrEmptySignature   = errors.New("signature is empty")
	ErrSignatureTooLong = fmt.Errorf("signature exceeds %d bytes", MaxSignatureLength)
	ErrOffsetTooLarge   = fmt.Errorf("signature window exceeds max address %d", MaxFileSystemAddress)
	ErrEmptyName        = errors.New("virus name is empty")
	ErrNameTooLong      = fmt.Errorf("virus name exceeds %d bytes", MaxVirusNameLength)
	ErrInvalidName      = errors.New("virus name must be a single printable token")
	ErrHexName          = errors.New("virus name must not consist of hex digits only")
)

// VirusSignature is an exact byte pattern expected at a fixed file offset.
// It has no setters: once built by New or by a Loader it is safe to share
// between goroutines.
type VirusSignature struct {
	signature []byte
	offset    uint64
	name      string
}

// New validates its arguments and builds a signature holding a private copy of pattern.
func New(pattern []byte, offset uint64, name string) (*VirusSignature, error) {
	if err := validatePattern(pattern); err != nil {
		return nil, err
	}
	if err := validateOffset(offset, len(pattern)); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	return &VirusSignature{
		signature: bytes.Clone(pattern),
		offset:    offset,
		name:      name,
	}, nil
}

// Signature returns a copy of the pattern bytes.
func (vs *VirusSignature) Signature() []byte { return bytes.Clone(vs.signature) }

func (vs *VirusSignature) Len() int { return len(vs.signature) }

func (vs *VirusSignature) Offset() uint64 { return vs.offset }

func (vs *VirusSignature) VirusName() string { return vs.name }

// End returns the offset one past the last byte of the comparison window.
func (vs *VirusSignature) End() uint64 { return vs.offset + uint64(len(vs.signature)) }

// Match reports whether window is byte-for-byte equal to the pattern.
func (vs *VirusSignature) Match(window []byte) bool {
	return bytes.Equal(window, vs.signature)
}

// MarshalText renders the canonical definition record: upper-case hex
// pattern, decimal offset and name separated by single spaces.
func (vs *VirusSignature) MarshalText() ([]byte, error) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(hex.EncodeToString(vs.signature)))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(vs.offset, 10))
	b.WriteByte(' ')
	b.WriteString(vs.name)
	return []byte(b.String()), nil
}

// UnmarshalText decodes a definition record. On failure vs is left untouched
// and the returned *Error names the field that could not be decoded.
func (vs *VirusSignature) UnmarshalText(text []byte) error {
	decoded, err := decodeRecord(text)
	if err != nil {
		return err
	}
	*vs = *decoded
	return nil
}

func (vs *VirusSignature) String() string {
	return fmt.Sprintf("%s@%d[% X]", vs.name, vs.offset, vs.signature)
}

func validatePattern(pattern []byte) error {
	if len(pattern) == 0 {
		return ErrEmptySignature
	}
	if len(pattern) > MaxSignatureLength {
		return ErrSignatureTooLong
	}
	return nil
}

func validateOffset(offset uint64, n int) error {
	if offset > MaxFileSystemAddress || uint64(n) > MaxFileSystemAddress-offset {
		return ErrOffsetTooLarge
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxVirusNameLength {
		return ErrNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrInvalidName
	}
	for _, r := range name {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return ErrInvalidName
		}
	}
	// a hex-only name could not be told apart from pattern bytes or a
	// decimal offset when decoded
	if isHexDigits(name) {
		return ErrHexName
	}
	return nil
}
