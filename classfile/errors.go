package classfile

import (
	"errors"
	"fmt"
)

type Reason int

const (
	ReasonInvalidMagic Reason = iota + 1
	ReasonInvalidTag
	ReasonTruncated
	ReasonTrailingBytes
	ReasonMalformedAttribute
	ReasonMissingSuperClass
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidMagic:
		return "invalid magic"
	case ReasonInvalidTag:
		return "invalid constant pool tag"
	case ReasonTruncated:
		return "truncated"
	case ReasonTrailingBytes:
		return "trailing bytes"
	case ReasonMalformedAttribute:
		return "malformed attribute"
	case ReasonMissingSuperClass:
		return "missing super class"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// FormatError reports a class file that does not follow the class file
// format. Offset is the byte position where decoding stopped.
type FormatError struct {
	Reason Reason
	Offset int
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("class file format error at offset %d: %s", e.Offset, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is matches another *FormatError with the same reason, so callers can
// write errors.Is(err, &FormatError{Reason: ReasonTruncated}).
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	return ok && t.Reason == e.Reason
}

// ReasonOf returns the reason of a format error anywhere in err's chain, or
// zero when err is not a format error.
func ReasonOf(err error) Reason {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return 0
}
