package signature

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	errMissingField  = errors.New("missing field")
	errTrailingField = errors.New("unexpected field after name")
)

// stripComments drops blank lines and lines whose first non-blank character
// is '#'. The remaining lines are kept verbatim.
func stripComments(text []byte) string {
	var lines []string

	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(nil, MaxDefinitionSize+1)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// decodeRecord reads the fields of a single record left to right: pattern,
// offset, name. Nothing may follow the name.
func decodeRecord(text []byte) (*VirusSignature, error) {
	body := stripComments(text)

	var (
		pattern []byte
		fields  []string
		err     error
	)
	if strings.HasPrefix(body, `"`) {
		pattern, fields, err = splitQuoted(body)
	} else {
		pattern, fields, err = splitHex(strings.Fields(body))
	}
	if err != nil {
		return nil, &Error{Kind: KindSignature, Err: err}
	}
	if err := validatePattern(pattern); err != nil {
		return nil, &Error{Kind: KindSignature, Err: err}
	}

	if len(fields) == 0 {
		return nil, &Error{Kind: KindOffset, Err: errMissingField}
	}
	offset, err := parseOffset(fields[0])
	if err != nil {
		return nil, &Error{Kind: KindOffset, Err: err}
	}
	if err := validateOffset(offset, len(pattern)); err != nil {
		return nil, &Error{Kind: KindOffset, Err: err}
	}

	if len(fields) == 1 {
		return nil, &Error{Kind: KindName, Err: errMissingField}
	}
	name := fields[1]
	if err := validateName(name); err != nil {
		return nil, &Error{Kind: KindName, Err: err}
	}
	if len(fields) > 2 {
		return nil, &Error{Kind: KindName, Err: fmt.Errorf("%w: %q", errTrailingField, fields[2])}
	}

	return &VirusSignature{
		signature: pattern,
		offset:    offset,
		name:      name,
	}, nil
}

// splitQuoted reads a double-quoted Go string literal ("MZ\x90") from the
// start of body and returns its bytes and the fields that follow it.
func splitQuoted(body string) ([]byte, []string, error) {
	lit, err := strconv.QuotedPrefix(body)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid text pattern: %w", err)
	}

	s, err := strconv.Unquote(lit)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid text pattern: %w", err)
	}

	rest := body[len(lit):]
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && !unicode.IsSpace(r) {
		return nil, nil, fmt.Errorf("invalid text pattern: %s is followed by %q", lit, rest)
	}
	return []byte(s), strings.Fields(rest), nil
}

// splitHex reads a hex pattern, optionally split into groups ("DEAD" or
// "DE AD"), and returns it with the fields that follow it.
//
// Pattern groups and a decimal offset are both runs of hex digits. Names
// never are (see validateName), so the run of hex tokens ends right before
// the name and its last token is the offset, unless the offset is written
// with a 0x prefix.
func splitHex(tokens []string) ([]byte, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, errMissingField
	}

	n := 0
	for n < len(tokens) && isHexDigits(tokens[n]) {
		n++
	}

	switch {
	case n == 0:
		return nil, nil, fmt.Errorf("invalid hex pattern %q", tokens[0])
	case n < len(tokens) && hasHexPrefix(tokens[n]):
	case n > 1:
		n--
	}

	b, err := hex.DecodeString(strings.Join(tokens[:n], ""))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid hex pattern: %w", err)
	}
	return b, tokens[n:], nil
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hasHexPrefix(s string) bool {
	return len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X")
}

// parseOffset reads a decimal offset, or a hexadecimal one prefixed by 0x.
func parseOffset(s string) (uint64, error) {
	if hasHexPrefix(s) {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
