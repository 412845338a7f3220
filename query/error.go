package query

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Failure kinds reported when parsing stops early. Every failure returned
// through [Result.Err] matches exactly one of these with [errors.Is].
var (
	ErrExpectedColon          = NewError("expected ':'")
	ErrUnterminatedQuote      = NewError("unterminated quoted literal")
	ErrUnterminatedParenValue = NewError("unterminated parenthesized value")
	ErrParenthesizedOperator  = NewError("parenthesized operator not allowed")
	ErrParenLevelMismatch     = NewError("parenthesis level mismatch")
	ErrExpectedClosingParen   = NewError("expected ')'")
	ErrMaxDepthExceeded       = NewError("maximum nesting depth exceeded")
)

// Errors reported when decoding a serialized condition tree.
var (
	ErrInvalidNode = NewError("invalid condition node")
	ErrInvalidJoin = NewError("invalid join operator")
	ErrSchema      = NewError("condition tree does not match schema")
)

// Error represents an error with an optional input position and structured
// logging attributes. It implements both error and slog.LogValuer.
//
// Errors derived from a sentinel with [Error.With], [Error.Wrap], or
// [Error.WithPosition] still match that sentinel with [errors.Is].
type Error struct {
	base  *Error // sentinel this error was derived from
	msg   string
	err   error // wrapped error (for errors.Unwrap)
	pos   int   // byte offset into the input, or -1
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg, pos: -1}
}

// WrapError wraps a standard error into an Error.
// If err already is (or wraps) an *Error, that Error is returned.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err, pos: -1}
}

// Error implements the error interface.
//
//	"<msg> at position <pos>: <err>"
//
// Each part is omitted when unset.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.msg)

	if e.pos >= 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		b.WriteString("at position ")
		b.WriteString(strconv.Itoa(e.pos))
	}

	if e.err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.err.Error())
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t != nil && e.root() == t.root()
}

// Message returns the error message without position or cause.
func (e *Error) Message() string { return e.msg }

// Position returns the byte offset into the parsed input at which the error
// occurred. ok is false if the error carries no position.
func (e *Error) Position() (pos int, ok bool) { return e.pos, e.pos >= 0 }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos >= 0 {
		attrs = append(attrs, slog.Int("position", e.pos))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], attrs...)

	return c
}

// WithPosition returns a copy of e located at byte offset pos.
func (e *Error) WithPosition(pos int) *Error {
	c := e.derive()
	c.pos = pos

	return c
}

// Diagnose renders e against the input it was produced from.
// The input must be the trimmed string the parser operated on, which is
// [Result.Input] for errors taken from a [Result].
func (e *Error) Diagnose(input string, radius ...int) *Diagnostic {
	pos := max(e.pos, 0)

	return FormatError(input, pos, e.msg, radius...)
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

func (e *Error) derive() *Error {
	c := *e
	c.base = e.root()

	return &c
}
