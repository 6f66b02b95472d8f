package discovery

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes generation failures. Every failure of the pipeline is
// reported as an *Error carrying one of these codes.
type ErrorCode string

const (
	DocumentParseError      ErrorCode = "DocumentParseError"
	UnsupportedSchemaShape  ErrorCode = "UnsupportedSchemaShape"
	UnsupportedInlineObject ErrorCode = "UnsupportedInlineObject"
	MissingRequiredField    ErrorCode = "MissingRequiredField"
	UnresolvedReference     ErrorCode = "UnresolvedReference"
	FileIOError             ErrorCode = "FileIOError"
)

// IO operations reported by FileIOError.
const (
	OpOpen   = "open"
	OpCreate = "create"
)

// Error is a structured error with an optional location and JSON pointer into
// the discovery document.
type Error struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Pointer  string // e.g. "#/resources/collections/methods/get"
	Op       string // OpOpen or OpCreate, FileIOError only
	Cause    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Pointer != "" {
		msg += " (at " + e.Pointer + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds an *Error for code at pointer.
func Errorf(code ErrorCode, pointer, format string, args ...any) *Error {
	return &Error{Code: code, Pointer: pointer, Message: fmt.Sprintf(format, args...)}
}

// IOError reports a failure to open the input or create the output.
func IOError(op, location string, cause error) *Error {
	return &Error{
		Code:     FileIOError,
		Op:       op,
		Location: location,
		Message:  fmt.Sprintf("%s %s: %v", op, location, cause),
		Cause:    cause,
	}
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Pointer appends JSON pointer segments to base, escaping "~" and "/".
func Pointer(base string, segs ...string) string {
	out := base
	if out == "" {
		out = "#"
	}
	for _, s := range segs {
		out += "/" + escapePointer(s)
	}
	return out
}

func escapePointer(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			b = append(b, '~', '0')
		case '/':
			b = append(b, '~', '1')
		default:
			b = append(b, s[i])
		}
	}
	return string(b)
}
