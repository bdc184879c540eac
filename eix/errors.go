package eix

import (
	"errors"
	"fmt"
)

// Kind categorises decode errors.
type Kind int

const (
	// KindTruncated means the byte source ran out (or failed) mid-field.
	KindTruncated Kind = iota + 1
	// KindBadMagic means the file does not start with the eix magic.
	KindBadMagic
	// KindUnsupportedVersion means the format version is below the minimum
	// the caller is willing to read.
	KindUnsupportedVersion
	// KindInvalidEncoding means a field could not be interpreted, like a
	// string that is not valid UTF-8 or a number that does not fit.
	KindInvalidEncoding
	// KindBadReference means a string table or overlay index is out of range.
	KindBadReference
)

func (k Kind) String() string {
	switch k {
	case KindTruncated:
		return "truncated input"
	case KindBadMagic:
		return "bad magic"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindInvalidEncoding:
		return "invalid encoding"
	case KindBadReference:
		return "bad reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned for all decode failures. Any Error leaves the stream
// position meaningless, no further reads can be attempted on the session.
type Error struct {
	Kind   Kind
	Offset int64  // byte offset at which the failing field started
	Field  string // name of the field being decoded, if known
	Detail string
	Err    error // underlying error, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("eix: %s at offset %d", e.Kind, e.Offset)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind only, so that errors.Is(err, ErrTruncated) works for
// any truncation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for use with errors.Is
var (
	ErrTruncated          = &Error{Kind: KindTruncated}
	ErrBadMagic           = &Error{Kind: KindBadMagic}
	ErrUnsupportedVersion = &Error{Kind: KindUnsupportedVersion}
	ErrInvalidEncoding    = &Error{Kind: KindInvalidEncoding}
	ErrBadReference       = &Error{Kind: KindBadReference}
)

var (
	// ErrCategoryNotDone is returned by Cursor.NextCategory when packages
	// of the current category have not all been read yet.
	ErrCategoryNotDone = errors.New("eix: current category still has unread packages")
)

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// withField sets the field name on an *Error that does not have one yet.
// Errors of other types are returned as is.
func withField(err error, field string) error {
	var e *Error
	if errors.As(err, &e) && e.Field == "" {
		e.Field = field
	}
	return err
}
