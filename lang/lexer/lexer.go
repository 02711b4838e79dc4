// Package lexer implements the inline tokenizer for typeline markup.
//
// A [Lexer] is a cursor over source text. In markup mode, [Lexer.Next]
// produces tokens lazily, one rune of lookahead at a time, without
// backtracking. After a [token.Hash] the caller drives the same cursor in code
// mode using [Lexer.Ident], [Lexer.Block], [Lexer.Expr] and friends, then
// resumes calling Next.
//
// The break marker is a backslash. It is a [token.Break] if and only if the
// rune immediately after it is whitespace or end of input. Whitespace on both
// sides of a break belongs to the break token, except that a paragraph
// boundary is never absorbed.
package lexer

import (
	"iter"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/typeline/lang/token"
	"github.com/ardnew/typeline/log"
)

// EOFRune is returned by [Lexer.Peek] at end of input.
const EOFRune rune = -1

// Lexer scans typeline source text.
type Lexer struct {
	input  string
	pos    int // byte offset into input
	base   int // offset of input[0] in the enclosing source
	line   int
	col    int
	logger log.Logger
}

// Option configures a [Lexer].
type Option func(*Lexer)

// WithPosition sets the source position of the first rune of input.
// It is used to lex a fragment (e.g. a function body) of a larger source so
// that reported positions refer to the enclosing source.
func WithPosition(at token.Position) Option {
	return func(l *Lexer) {
		if !at.IsValid() {
			return
		}

		l.base = at.Offset
		l.line = at.Line
		l.col = at.Column
	}
}

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(l *Lexer) {
		l.logger = logger
	}
}

// New returns a Lexer positioned at the start of src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{
		input: src,
		line:  token.Start.Line,
		col:   token.Start.Column,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Tokenize returns every token of src, ending with [token.EOF].
func Tokenize(src string) []token.Token {
	var toks []token.Token

	for tok := range New(src).All() {
		toks = append(toks, tok)
	}

	return toks
}

// All returns an iterator over the remaining tokens. The final token yielded
// is always [token.EOF].
func (l *Lexer) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for {
			tok := l.Next()
			if !yield(tok) || tok.Kind == token.EOF {
				return
			}
		}
	}
}

// Next scans and returns the next markup token.
func (l *Lexer) Next() token.Token {
	tok := l.next()

	l.logger.Trace("token",
		slog.String("kind", tok.Kind.String()),
		slog.String("text", tok.Text),
		slog.Any("pos", tok.Pos),
	)

	return tok
}

func (l *Lexer) next() token.Token {
	at := l.Position()

	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: at}
	}

	switch r := l.peek(); {
	case r == '\n' && l.boundaryAt(l.pos):
		start := l.pos
		l.skipSpace()

		return token.Token{Kind: token.Parbreak, Text: l.input[start:l.pos], Pos: at}

	case unicode.IsSpace(r):
		return l.lexSpace(at)

	case r == '\\':
		if l.breakAt(l.pos) {
			return l.lexBreak(l.pos)
		}

		l.advance() // backslash

		start := l.pos
		l.advance()

		return token.Token{Kind: token.Escape, Text: l.input[start:l.pos], Pos: at}

	case r == ']':
		l.advance()

		return token.Token{Kind: token.Close, Text: "]", Pos: at}

	case r == '#' && l.codeAt(l.pos):
		l.advance()

		return token.Token{Kind: token.Hash, Text: "#", Pos: at}

	default:
		return l.lexWord(at)
	}
}

// lexSpace scans a whitespace run that does not contain a paragraph boundary.
// If the run is followed by a break marker, the run is folded into the break.
func (l *Lexer) lexSpace(at token.Position) token.Token {
	start := l.pos
	end := start

	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !unicode.IsSpace(r) || (r == '\n' && l.boundaryAt(end)) {
			break
		}

		end += size
	}

	if l.breakAt(end) {
		return l.lexBreak(start)
	}

	for l.pos < end {
		l.advance()
	}

	return token.Token{Kind: token.Space, Text: l.input[start:end], Pos: at}
}

// lexBreak consumes the input from the cursor through the break marker and
// its trailing whitespace. start is the offset of any leading whitespace that
// belongs to the break.
func (l *Lexer) lexBreak(start int) token.Token {
	for l.peek() != '\\' {
		l.advance()
	}

	at := l.Position()

	l.advance() // backslash

	for isInlineSpace(l.peek()) {
		l.advance()
	}

	if l.peek() == '\n' && !l.boundaryAt(l.pos) {
		l.advance()

		for isInlineSpace(l.peek()) {
			l.advance()
		}
	}

	return token.Token{Kind: token.Break, Text: l.input[start:l.pos], Pos: at}
}

func (l *Lexer) lexWord(at token.Position) token.Token {
	start := l.pos

	for {
		l.advance()

		if l.eof() {
			break
		}

		r := l.peek()
		if unicode.IsSpace(r) || r == '\\' || r == ']' ||
			(r == '#' && l.codeAt(l.pos)) {
			break
		}
	}

	return token.Token{Kind: token.Word, Text: l.input[start:l.pos], Pos: at}
}

// breakAt reports whether a break marker begins at byte offset i.
func (l *Lexer) breakAt(i int) bool {
	if i >= len(l.input) || l.input[i] != '\\' {
		return false
	}

	if i+1 >= len(l.input) {
		return true
	}

	r, _ := utf8.DecodeRuneInString(l.input[i+1:])

	return unicode.IsSpace(r)
}

// boundaryAt reports whether a paragraph boundary begins at byte offset i: a
// newline followed by optional inline whitespace and another newline.
func (l *Lexer) boundaryAt(i int) bool {
	if i >= len(l.input) || l.input[i] != '\n' {
		return false
	}

	for j := i + 1; j < len(l.input); {
		r, size := utf8.DecodeRuneInString(l.input[j:])

		switch {
		case r == '\n':
			return true

		case isInlineSpace(r):
			j += size

		default:
			return false
		}
	}

	return false
}

// codeAt reports whether '#' at byte offset i introduces code.
func (l *Lexer) codeAt(i int) bool {
	if i+1 >= len(l.input) {
		return false
	}

	r, _ := utf8.DecodeRuneInString(l.input[i+1:])

	return r == '(' || isIdentifierStart(r)
}

// ---------------------------------------------------------------------------
// Code mode
// ---------------------------------------------------------------------------

// Peek returns the rune at the cursor, or [EOFRune].
func (l *Lexer) Peek() rune {
	if l.eof() {
		return EOFRune
	}

	return l.peek()
}

// Advance moves the cursor past one rune.
func (l *Lexer) Advance() { l.advance() }

// Accept consumes r if it is the rune at the cursor.
func (l *Lexer) Accept(r rune) bool {
	if l.eof() || l.peek() != r {
		return false
	}

	l.advance()

	return true
}

// Position returns the source position of the cursor.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Offset: l.base + l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// SkipSpace skips all whitespace, including newlines.
func (l *Lexer) SkipSpace() { l.skipSpace() }

// SkipInlineSpace skips whitespace other than newlines.
func (l *Lexer) SkipInlineSpace() {
	for isInlineSpace(l.peek()) {
		l.advance()
	}
}

// Ident scans an identifier at the cursor. Identifiers may contain internal
// hyphens, e.g. "word-spacing".
func (l *Lexer) Ident() (string, bool) {
	if l.eof() || !isIdentifierStart(l.peek()) {
		return "", false
	}

	start := l.pos

	l.advance()

	for !l.eof() {
		r := l.peek()

		if r == '-' && l.pos+1 < len(l.input) {
			next, _ := utf8.DecodeRuneInString(l.input[l.pos+1:])
			if isIdentifierContinue(next) {
				l.advance()

				continue
			}
		}

		if !isIdentifierContinue(r) {
			break
		}

		l.advance()
	}

	return l.input[start:l.pos], true
}

// Block scans a bracketed content block starting at '[' and returns its inner
// source and the position of the first inner rune. Brackets nest; a
// backslash protects the following rune.
func (l *Lexer) Block() (string, token.Position, error) {
	open := l.Position()

	if !l.Accept('[') {
		return "", open, &Error{Pos: open, Msg: "expected '['"}
	}

	at := l.Position()
	start := l.pos
	depth := 1

	for !l.eof() {
		switch l.peek() {
		case '\\':
			l.advance()

			if !l.eof() {
				l.advance()
			}

			continue

		case '[':
			depth++

		case ']':
			depth--
			if depth == 0 {
				src := l.input[start:l.pos]
				l.advance()

				return src, at, nil
			}
		}

		l.advance()
	}

	return "", open, &Error{Pos: open, Msg: "unterminated content block"}
}

// Expr captures expression source text at the cursor. Capture stops at end
// of input, at an unbalanced ')', ']' or '}', or at any rune in stop that
// appears outside brackets and string literals. The stop rune is not
// consumed. The result is trimmed of surrounding whitespace.
func (l *Lexer) Expr(stop string) (string, token.Position, error) {
	l.SkipInlineSpace()

	at := l.Position()
	start := l.pos
	depth := 0

scan:
	for !l.eof() {
		r := l.peek()

		switch {
		case r == '"' || r == '\'' || r == '`':
			err := l.skipString(r)
			if err != nil {
				return "", at, err
			}

			continue

		case r == '(' || r == '[' || r == '{':
			depth++

		case r == ')' || r == ']' || r == '}':
			if depth == 0 {
				break scan
			}

			depth--

		case depth == 0 && strings.ContainsRune(stop, r):
			break scan
		}

		l.advance()
	}

	return strings.TrimSpace(l.input[start:l.pos]), at, nil
}

func (l *Lexer) skipString(quote rune) error {
	at := l.Position()

	l.advance() // opening quote

	for !l.eof() {
		r := l.peek()

		if r == '\\' && quote != '`' {
			l.advance()

			if !l.eof() {
				l.advance()
			}

			continue
		}

		l.advance()

		if r == quote {
			return nil
		}
	}

	return &Error{Pos: at, Msg: "unterminated string literal"}
}

// ---------------------------------------------------------------------------
// Cursor helpers
// ---------------------------------------------------------------------------

func (l *Lexer) eof() bool { return l.pos >= len(l.input) }

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

	return r
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) skipSpace() {
	for !l.eof() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// Character classification

func isInlineSpace(r rune) bool {
	return r != '\n' && r > 0 && unicode.IsSpace(r)
}

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
