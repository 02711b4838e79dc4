package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/typeline/render"
)

// exprBuiltins are the expression-language functions available in arguments.
var exprBuiltins = slices.Sorted(maps.Keys(builtin.Index))

// isWordBoundary reports whether r delimits a completion word. Hyphens are
// not boundaries because identifiers may contain them.
func isWordBoundary(r rune) bool {
	switch r {
	case '#', '.', '(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '\\':
		return true
	}

	return unicode.IsSpace(r)
}

// wordBounds returns the word containing cursor and its byte offsets in
// input. The word is empty when cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// candidates returns the completions valid for a word starting at wordStart
// and whether they should be offered before anything is typed.
func (s *Session) candidates(input string, wordStart int) ([]string, bool) {
	if rest, ok := strings.CutPrefix(input, commandPrefix); ok {
		switch name, _, hasArg := strings.Cut(rest, " "); {
		case wordStart == len(commandPrefix):
			return commands, true

		case hasArg && (name == "format" || name == "f"):
			return render.Formats(), true

		default:
			return nil, false
		}
	}

	if wordStart > 0 && input[wordStart-1] == '#' {
		return s.Names(), true
	}

	if detectCall(input, wordStart).paren {
		return slices.Concat(s.Names(), exprBuiltins), false
	}

	return nil, false
}

// complete returns the ranked completions for the word at cursor together
// with the word's byte offsets.
func (s *Session) complete(input string, cursor int) (fuzzy.Matches, int, int) {
	word, start, end := wordBounds(input, cursor)

	candidates, eager := s.candidates(input, start)
	if len(candidates) == 0 {
		return nil, start, end
	}

	if word == "" {
		if !eager {
			return nil, start, end
		}

		matches := make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, start, end
	}

	return fuzzy.Find(word, candidates), start, end
}

// callable reports whether name is bound to a function.
func (s *Session) callable(name string) bool {
	b, ok := s.Lookup(name)

	return ok && b.Value.Callable()
}

// renderCandidateBar renders the matches on one line, ellipsized to width.
// The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	selected int,
	tabActive bool,
	width int,
	callable func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == selected, callable)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += sepWidth
		}

		if i > 0 && used+w+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted. Functions get a "()" suffix that is not inserted on
// completion.
func renderCandidate(match fuzzy.Match, selected bool, callable func(string) bool) string {
	base := suggestionStyle
	highlight := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)

	if selected {
		base = selectedStyle
		highlight = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	next := 0

	for i, r := range match.Str {
		style := base
		if next < len(match.MatchedIndexes) && match.MatchedIndexes[next] == i {
			style = highlight
			next++
		}

		b.WriteString(style.Render(string(r)))
	}

	if callable != nil && callable(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
