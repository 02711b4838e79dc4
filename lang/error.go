package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ardnew/typeline/lang/lexer"
	"github.com/ardnew/typeline/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrUnboundName      = NewError("unbound name")
	ErrParse            = NewError("syntax error")
	ErrNotCallable      = NewError("value is not callable")
	ErrArgCount         = NewError("argument count mismatch")
	ErrArgType          = NewError("invalid argument type")
	ErrExprCompile      = NewError("expression compilation failed")
	ErrExprEvaluate     = NewError("expression evaluation failed")
	ErrMaxDepthExceeded = NewError("maximum nesting depth exceeded")
	ErrReadInput        = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes and
// source position. It implements both error and slog.LogValuer interfaces.
type Error struct {
	base  *Error      // Sentinel this error was derived from
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   token.Position
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
//	"<line:col>: <msg>: <err>"
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.pos.IsValid() {
		part = append(part, e.pos.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	if name, ok := e.attr("name"); ok {
		part = append(part, strconv.Quote(name))
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t.root())
}

// Position returns the source position of the error, if known.
func (e *Error) Position() token.Position { return e.pos }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos.IsValid() {
		attrs = append(attrs, slog.String("pos", e.pos.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos token.Position) *Error {
	c := e.derive()
	c.pos = pos

	return c
}

func (e *Error) derive() *Error {
	return &Error{
		base:  e.root(),
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs, // Share attrs
		pos:   e.pos,
	}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

func (e *Error) attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value.String(), true
		}
	}

	return "", false
}

// syntaxError converts a scanning error from the lexer into ErrParse.
func syntaxError(err error) error {
	var le *lexer.Error
	if errors.As(err, &le) {
		return ErrParse.WithPosition(le.Pos).
			With(slog.String("reason", le.Msg))
	}

	return ErrParse.Wrap(err)
}

// FormatError renders err with the offending line of source and a caret under
// the reported column. Errors without a position are returned as text.
func FormatError(err error, source string) string {
	if err == nil {
		return ""
	}

	var (
		pos token.Position
		le  *Error
	)

	if errors.As(err, &le) {
		pos = le.Position()
	}

	if !pos.IsValid() {
		return err.Error()
	}

	lines := strings.Split(source, "\n")

	var buf strings.Builder

	buf.WriteString(err.Error())
	buf.WriteRune('\n')

	// Show the offending line if within bounds
	if pos.Line > 0 && pos.Line <= len(lines) {
		line := strings.TrimSuffix(lines[pos.Line-1], "\r")
		num := strconv.Itoa(pos.Line)

		buf.WriteString("  ")
		buf.WriteString(num)
		buf.WriteString(" | ")
		buf.WriteString(line)
		buf.WriteRune('\n')

		// +5 accounts for: 2 leading spaces + " | " (3 chars)
		pad := len(num) + 5

		prefix := []rune(line)
		if col := pos.Column - 1; col >= 0 && col <= len(prefix) {
			pad += runewidth.StringWidth(string(prefix[:col]))
		}

		buf.WriteString(strings.Repeat(" ", pad))
		buf.WriteString("^\n")
	}

	return buf.String()
}
