// Package moqerr defines the error taxonomy shared by the wire codec and the
// session state machine.
package moqerr

import (
	"errors"
	"fmt"
)

// Kind identifies which error variant an Error carries, so callers can
// branch on failure mode with errors.Is/As without string matching.
type Kind int

const (
	// ProtocolViolation means the peer sent a message that is well-formed
	// at the framing level but violates a MoQ Transport invariant (bad
	// field value, message out of sequence, unknown required parameter).
	ProtocolViolation Kind = iota
	// Done means no progress is possible right now: the data is not
	// available yet, or the stream has no send capacity. The caller retries
	// on a later poll.
	Done
	// Fin means the underlying stream ended (FIN), whether at a record
	// boundary or while a partial record was still being assembled.
	Fin
	// RequestBlocked means a request could not proceed because the peer's
	// advertised request-id quota has been exhausted.
	RequestBlocked
	// UnfinishedPayload means the caller attempted to send or begin a new
	// object header before completing the previous object's payload. Unlike
	// ProtocolViolation, this is a recoverable caller-contract failure: it
	// reports a misuse of this package's own send API, not a peer-sent
	// message violating the wire protocol.
	UnfinishedPayload
	// InsufficientCapacity means a fixed-size scratch buffer could not
	// hold the record being assembled.
	InsufficientCapacity
	// FromUtf8Error means a byte string field that must be valid UTF-8 (a
	// reason phrase) was not.
	FromUtf8Error
	// IO wraps an underlying transport I/O error.
	IO
	// bufferTooShort is a retry signal: the buffer does not yet hold a
	// full record and the caller should read more bytes and try again.
	// internal/wire's parsers return it (as ErrBufferTooShort) and
	// internal/moqsession retries on it, so callers of internal/moqsession
	// never receive it; it distinguishes "try again" from "this connection
	// is broken."
	bufferTooShort
)

func (k Kind) String() string {
	switch k {
	case ProtocolViolation:
		return "protocol violation"
	case Done:
		return "done"
	case Fin:
		return "fin"
	case RequestBlocked:
		return "request blocked"
	case UnfinishedPayload:
		return "unfinished payload"
	case InsufficientCapacity:
		return "insufficient capacity"
	case FromUtf8Error:
		return "invalid utf-8"
	case IO:
		return "io"
	case bufferTooShort:
		return "buffer too short"
	default:
		return "unknown"
	}
}

// Error is the error type returned across the wire and session packages.
// It carries a Kind for programmatic dispatch plus a human message and an
// optional wrapped cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("moqerr: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("moqerr: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, moqerr.New(SomeKind, "")) to match any *Error of
// the same Kind, regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// bufferTooShortSentinel is the single shared instance returned by wire
// parsers to signal "read more and retry." It is unexported so only this
// package's helpers can produce or recognize it canonically, though the
// Kind constant itself stays unexported too since no caller outside
// internal/wire and internal/moqsession should ever branch on it directly.
var bufferTooShortSentinel = &Error{Kind: bufferTooShort, Msg: "need more bytes"}

// ErrBufferTooShort is returned by wire parse functions when the supplied
// buffer does not yet contain a full record. Callers (internal/moqsession's
// Poll loop) read more bytes from the stream and retry the parse; it is
// never itself a protocol error.
var ErrBufferTooShort = bufferTooShortSentinel

// IsBufferTooShort reports whether err is (or wraps) the buffer-too-short
// retry signal.
func IsBufferTooShort(err error) bool {
	return errors.Is(err, bufferTooShortSentinel)
}
