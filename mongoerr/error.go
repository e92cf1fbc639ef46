// Package mongoerr defines the error taxonomy shared by the blocking and
// async Connection types (spec §7).
package mongoerr

import (
	"fmt"

	"github.com/facebookgo/stackerr"
)

// Kind classifies a Connection or Reader error.
type Kind int

const (
	// OK means no error. Zero value so a nil *Error reads naturally.
	OK Kind = iota
	// IO is a read/write/connect syscall failure.
	IO
	// EOF means the peer closed the socket mid-exchange.
	EOF
	// Protocol is a malformed reply frame, unexpected opcode, or truncated
	// document stream.
	Protocol
	// OOM is an allocation failure on the hot path (a configured output
	// buffer size limit was exceeded while encoding a request).
	OOM
	// Other covers invalid state transitions and missing reconnect context.
	Other
)

// String names the Kind for logging.
func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case IO:
		return "IO"
	case EOF:
		return "EOF"
	case Protocol:
		return "PROTOCOL"
	case OOM:
		return "OOM"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Error wraps an underlying error with a Kind classification and a stack
// trace, matching dvara's use of github.com/facebookgo/stackerr.
type Error struct {
	Kind Kind
	err  error
}

// New wraps err with the given Kind, adding the caller's stack. Returns nil
// if err is nil.
func New(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: stackerr.Wrap(err)}
}

// Newf formats a new Error of the given Kind with a stack trace.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, err: stackerr.Newf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mongoerr: %s: %s", e.Kind, e.err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
