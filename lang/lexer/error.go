package lexer

import "github.com/ardnew/typeline/lang/token"

// Error reports malformed code-mode syntax at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string { return e.Pos.String() + ": " + e.Msg }

// IsIdent reports whether s is exactly one identifier.
func IsIdent(s string) bool {
	l := New(s)

	id, ok := l.Ident()

	return ok && id == s
}
