package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/lang/lexer"
)

// primitiveParams lists the parameters of the built-in primitives. Named
// parameters end with ':'.
var primitiveParams = map[string][]string{
	lang.NameLinebreak: {},
	lang.NameParbreak:  {},
	lang.NamePar:       {"body", "spacing:", "leading:", "word-spacing:"},
	lang.NameEmph:      {"body"},
	lang.NameStrong:    {"body"},
	lang.NameText:      {"value"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// callSite is the function call enclosing the cursor.
type callSite struct {
	name     string
	argIndex int  // index of the argument under the cursor
	markup   bool // the call is introduced by '#'
	inCall   bool // name is the callee of the enclosing parentheses
	paren    bool // the cursor is inside parentheses
}

// detectCall reports the innermost parentheses that enclose cursor and the
// function they call, if any.
// The scan stops at an unclosed '[' since the cursor is then in markup.
func detectCall(input string, cursor int) callSite {
	cursor = min(max(cursor, 0), len(input))

	parens, brackets, args := 0, 0, 0
	open := -1

scan:
	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			parens++

		case ']':
			brackets++

		case '[':
			if brackets == 0 {
				return callSite{}
			}

			brackets--

		case ',':
			if parens == 0 && brackets == 0 {
				args++
			}

		case '(':
			if parens == 0 && brackets == 0 {
				open = i

				break scan
			}

			parens--
		}
	}

	if open < 0 {
		return callSite{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdentRune(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if !lexer.IsIdent(name) {
		return callSite{paren: true}
	}

	return callSite{
		name:     name,
		argIndex: args,
		markup:   start > 0 && input[start-1] == '#',
		inCall:   true,
		paren:    true,
	}
}

// isIdentRune reports whether r may appear in an identifier.
func isIdentRune(r rune) bool {
	return r == '_' || r == '-' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9') || r >= utf8.RuneSelf
}

// signature returns the parameters of the function bound to name in the
// session scope.
func (s *Session) signature(name string) ([]string, bool) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}

	switch b.Value.Kind {
	case lang.ClosureValue:
		return b.Value.Closure.Params, true

	case lang.PrimitiveValue:
		params, ok := primitiveParams[b.Value.Name]

		return params, ok

	default:
		return nil, false
	}
}

// renderSignatureHint renders "name(a, b)" with the parameter at argIndex
// highlighted. Named parameters are never highlighted since they are not
// positional.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == argIndex && !strings.HasSuffix(p, ":") {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
