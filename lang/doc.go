// Package lang compiles typeline markup into a tree of document nodes.
//
// Markup is prose. Words and whitespace form paragraphs, blank lines separate
// paragraphs, and a backslash followed by whitespace is a line break. Code is
// introduced with '#' and uses expr-lang for expressions.
//
// No parser generator. The tokenizer in package lexer is a hand-written
// cursor with one rune of lookahead, and the builder consumes its tokens with
// one token of lookahead.
//
// # Grammar
//
// Informal EBNF:
//
//	Block     → (Word | Space | Break | Parbreak | Escape | Code)*
//	Break     → '\' <whitespace or end of input>
//	Escape    → '\' <non-whitespace rune>
//	Code      → '#' (Let | Ref | '(' Expr ')')
//	Let       → 'let' Name ('(' Params ')')? '=' ('[' Block ']' | Expr)
//	Ref       → Name ('(' Args ')')? ('[' Block ']')*
//	Args      → (Arg (',' Arg)*)?
//	Arg       → '[' Block ']' | Name ':' Expr | Expr
//	Expr      → <balanced text, stops at ',', ';', newline or an unbalanced closer>
//
// # Example
//
//	#let name = "World"
//	Hello, #name! \
//	This is a new line.
//
//	#let linebreak() = [ \ ~ ]
//	#emph[Emphasis] and #strong[strength]. #par(leading: 1.5)
//	The sum is #(1 + 2).
//
// # Breaks
//
// A break marker becomes a call to whatever linebreak is bound to where the
// marker appears. A marker with nothing after it in its paragraph or block is
// dropped. A marker at the start of a paragraph is kept.
//
// # Scoping
//
// Scopes are immutable frames with parent links:
//
//  1. Primitives (linebreak, parbreak, par, emph, strong, text)
//  2. Document frame
//  3. One frame per let, visible to the code that follows it
//  4. Block frames for content blocks and function bodies
//
// A function defined with let captures the scope in effect just before its
// own binding. Its body therefore sees the definition it shadows: redefining
// linebreak in terms of break markup calls the previous linebreak, never
// itself.
package lang
