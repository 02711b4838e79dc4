// Package token defines the lexical tokens of typeline markup.
package token

import (
	"log/slog"
	"strconv"
)

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	// EOF marks the end of input. It is returned indefinitely once reached.
	EOF Kind = iota

	// Word is a run of non-whitespace text.
	Word

	// Space is a run of insignificant whitespace within a paragraph.
	Space

	// Break is an explicit line-break marker: a backslash followed by
	// whitespace, a paragraph boundary, or end of input. Adjoining
	// whitespace is part of the token.
	Break

	// Parbreak is a paragraph boundary (one or more blank lines).
	Parbreak

	// Escape is a backslash followed by a non-whitespace rune. Text holds the
	// escaped rune only.
	Escape

	// Hash introduces code: '#' followed by an identifier or '('.
	Hash

	// Close is ']' and terminates a nested content block.
	Close
)

// String returns the name of the token kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"

	case Word:
		return "Word"

	case Space:
		return "Space"

	case Break:
		return "Break"

	case Parbreak:
		return "Parbreak"

	case Escape:
		return "Escape"

	case Hash:
		return "Hash"

	case Close:
		return "Close"

	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Position is a location in source text. Line and Column are 1-based;
// Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Start is the position of the first rune of a source.
var Start = Position{Offset: 0, Line: 1, Column: 1}

// IsValid reports whether p refers to a real source location.
func (p Position) IsValid() bool { return p.Line > 0 }

// String formats p as "line:column".
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// LogValue implements [slog.LogValuer].
func (p Position) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("line", p.Line),
		slog.Int("column", p.Column),
		slog.Int("offset", p.Offset),
	)
}

// Token is a single lexical token.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// String returns a compact debugging representation of t.
func (t Token) String() string {
	switch t.Kind {
	case Word, Space, Escape:
		return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"

	default:
		return t.Kind.String()
	}
}
