package lexer

import (
	"slices"
	"testing"

	"github.com/ardnew/typeline/lang/token"
)

type tk struct {
	kind token.Kind
	text string
}

func kinds(toks []token.Token) []tk {
	out := make([]tk, len(toks))
	for i, t := range toks {
		out[i] = tk{t.Kind, t.Text}
	}

	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tk
	}{
		{
			name:  "break glued to previous word",
			input: `Line\ Break`,
			want: []tk{
				{token.Word, "Line"},
				{token.Break, `\ `},
				{token.Word, "Break"},
				{token.EOF, ""},
			},
		},
		{
			name:  "break with space on both sides",
			input: `Line \ Break`,
			want: []tk{
				{token.Word, "Line"},
				{token.Break, ` \ `},
				{token.Word, "Break"},
				{token.EOF, ""},
			},
		},
		{
			name:  "backslash glued to next word escapes",
			input: `No \Break`,
			want: []tk{
				{token.Word, "No"},
				{token.Space, " "},
				{token.Escape, "B"},
				{token.Word, "reak"},
				{token.EOF, ""},
			},
		},
		{
			name:  "leading break",
			input: `\ Leading`,
			want: []tk{
				{token.Break, `\ `},
				{token.Word, "Leading"},
				{token.EOF, ""},
			},
		},
		{
			name:  "break before paragraph boundary keeps boundary",
			input: "Trailing 1 \\\n\nTrailing 2",
			want: []tk{
				{token.Word, "Trailing"},
				{token.Space, " "},
				{token.Word, "1"},
				{token.Break, ` \`},
				{token.Parbreak, "\n\n"},
				{token.Word, "Trailing"},
				{token.Space, " "},
				{token.Word, "2"},
				{token.EOF, ""},
			},
		},
		{
			name:  "break at end of input",
			input: `A \ B \ C \`,
			want: []tk{
				{token.Word, "A"},
				{token.Break, ` \ `},
				{token.Word, "B"},
				{token.Break, ` \ `},
				{token.Word, "C"},
				{token.Break, ` \`},
				{token.EOF, ""},
			},
		},
		{
			name:  "break absorbs one newline and indentation",
			input: "a \\\n   b",
			want: []tk{
				{token.Word, "a"},
				{token.Break, " \\\n   "},
				{token.Word, "b"},
				{token.EOF, ""},
			},
		},
		{
			name:  "single newline is space",
			input: "a\n  b",
			want: []tk{
				{token.Word, "a"},
				{token.Space, "\n  "},
				{token.Word, "b"},
				{token.EOF, ""},
			},
		},
		{
			name:  "blank lines collapse",
			input: "a\n \n\n  b",
			want: []tk{
				{token.Word, "a"},
				{token.Parbreak, "\n \n\n  "},
				{token.Word, "b"},
				{token.EOF, ""},
			},
		},
		{
			name:  "space before boundary",
			input: "a  \n\nb",
			want: []tk{
				{token.Word, "a"},
				{token.Space, "  "},
				{token.Parbreak, "\n\n"},
				{token.Word, "b"},
				{token.EOF, ""},
			},
		},
		{
			name:  "hash and close",
			input: "a #b ] # c#",
			want: []tk{
				{token.Word, "a"},
				{token.Space, " "},
				{token.Hash, "#"},
				{token.Word, "b"},
				{token.Space, " "},
				{token.Close, "]"},
				{token.Space, " "},
				{token.Word, "#"},
				{token.Space, " "},
				{token.Word, "c#"},
				{token.EOF, ""},
			},
		},
		{
			name:  "hash inside word",
			input: "x#(1)",
			want: []tk{
				{token.Word, "x"},
				{token.Hash, "#"},
				{token.Word, "(1)"},
				{token.EOF, ""},
			},
		},
		{
			name:  "escaped backslash",
			input: `a\\b`,
			want: []tk{
				{token.Word, "a"},
				{token.Escape, `\`},
				{token.Word, "b"},
				{token.EOF, ""},
			},
		},
		{
			name:  "lone backslash",
			input: `\`,
			want: []tk{
				{token.Break, `\`},
				{token.EOF, ""},
			},
		},
		{
			name:  "empty",
			input: "",
			want:  []tk{{token.EOF, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Tokenize(tt.input))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q)\n got: %v\nwant: %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	toks := Tokenize("ab\ncd \\ e")

	want := []token.Position{
		{Offset: 0, Line: 1, Column: 1}, // ab
		{Offset: 2, Line: 1, Column: 3}, // \n
		{Offset: 3, Line: 2, Column: 1}, // cd
		{Offset: 6, Line: 2, Column: 4}, // \ (leading space folded in)
		{Offset: 8, Line: 2, Column: 6}, // e
		{Offset: 9, Line: 2, Column: 7}, // EOF
	}

	if len(toks) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(toks), toks, len(want))
	}

	for i, tok := range toks {
		if tok.Pos != want[i] {
			t.Errorf("token %d %v: pos %+v, want %+v", i, tok, tok.Pos, want[i])
		}
	}
}

func TestInvalidUTF8PassesThrough(t *testing.T) {
	got := kinds(Tokenize("a\xffb \\\xff"))

	want := []tk{
		{token.Word, "a\xffb"},
		{token.Space, " "},
		{token.Escape, "\xff"},
		{token.EOF, ""},
	}

	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWithPosition(t *testing.T) {
	at := token.Position{Offset: 10, Line: 3, Column: 5}

	tok := New("x", WithPosition(at)).Next()
	if tok.Pos != at {
		t.Errorf("pos = %+v, want %+v", tok.Pos, at)
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("a")

	l.Next()

	for range 3 {
		if tok := l.Next(); tok.Kind != token.EOF {
			t.Fatalf("got %v after end of input, want EOF", tok)
		}
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	const input = "Line \\ Break\n\n#let linebreak() = [a \\ b]\nNo \\Break \\"

	first := Tokenize(input)
	second := Tokenize(input)

	if !slices.Equal(first, second) {
		t.Errorf("tokenizing twice differs:\n%v\n%v", first, second)
	}
}

func TestIdent(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
		rest  rune
	}{
		{"word-spacing: 1", "word-spacing", true, ':'},
		{"a-", "a", true, '-'},
		{"a--b", "a", true, '-'},
		{"_x1(y)", "_x1", true, '('},
		{"émphase ", "émphase", true, ' '},
		{"1abc", "", false, '1'},
		{"", "", false, EOFRune},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)

			got, ok := l.Ident()
			if got != tt.want || ok != tt.ok {
				t.Errorf("Ident() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}

			if r := l.Peek(); r != tt.rest {
				t.Errorf("Peek() after Ident = %q, want %q", r, tt.rest)
			}
		})
	}
}

func TestIsIdent(t *testing.T) {
	for s, want := range map[string]bool{
		"leading":      true,
		"word-spacing": true,
		"a b":          false,
		"a ? b ":       false,
		"":             false,
		"-a":           false,
	} {
		if got := IsIdent(s); got != want {
			t.Errorf("IsIdent(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestBlock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		rest    rune
		wantErr bool
	}{
		{"simple", "[abc]x", "abc", 'x', false},
		{"nested", "[a [b] c]", "a [b] c", EOFRune, false},
		{"escaped close", `[a \] b]!`, `a \] b`, '!', false},
		{"break inside", `[a \ b]`, `a \ b`, EOFRune, false},
		{"unterminated", "[a [b]", "", EOFRune, true},
		{"not a block", "abc", "", 'a', true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)

			got, at, err := l.Block()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Block() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				return
			}

			if got != tt.want {
				t.Errorf("Block() = %q, want %q", got, tt.want)
			}

			if at.Column != 2 {
				t.Errorf("Block() position column = %d, want 2", at.Column)
			}

			if r := l.Peek(); r != tt.rest {
				t.Errorf("Peek() after Block = %q, want %q", r, tt.rest)
			}
		})
	}
}

func TestExpr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		stop    string
		want    string
		rest    rune
		wantErr bool
	}{
		{"stop at comma", "a + 1, b", ",", "a + 1", ',', false},
		{"comma in call", "f(1, 2), b", ",", "f(1, 2)", ',', false},
		{"comma in string", `"x, y", z`, ",", `"x, y"`, ',', false},
		{"unbalanced paren", "1 + 2) tail", "", "1 + 2", ')', false},
		{"newline", "  x * 2\nnext", ";\n", "x * 2", '\n', false},
		{"semicolon", "x; y", ";\n", "x", ';', false},
		{"brackets", "[1, 2][0]]", "", "[1, 2][0]", ']', false},
		{"escaped quote", `"a\"b"`, "", `"a\"b"`, EOFRune, false},
		{"unterminated string", `"abc`, "", "", EOFRune, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)

			got, _, err := l.Expr(tt.stop)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expr() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				return
			}

			if got != tt.want {
				t.Errorf("Expr() = %q, want %q", got, tt.want)
			}

			if r := l.Peek(); r != tt.rest {
				t.Errorf("Peek() after Expr = %q, want %q", r, tt.rest)
			}
		})
	}
}

func FuzzLexer(f *testing.F) {
	for _, seed := range []string{
		`Line\ Break`,
		`Line \ Break`,
		`No \Break`,
		`\ Leading`,
		"Trailing 1 \\\n\nTrailing 2",
		`A \ B \ C \`,
		"#let linebreak() = [a \\ b]",
		"\\\n\n\\",
		"#",
		"]]#(",
		"\xff\\\xfe",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		first := Tokenize(input)
		second := Tokenize(input)

		if !slices.Equal(first, second) {
			t.Fatalf("tokenization is not deterministic for %q", input)
		}

		last := first[len(first)-1]
		if last.Kind != token.EOF || last.Pos.Offset != len(input) {
			t.Fatalf("last token %v at %d, want EOF at %d", last, last.Pos.Offset, len(input))
		}

		// Every token before EOF consumes input.
		prev := -1

		for _, tok := range first[:len(first)-1] {
			if tok.Pos.Offset <= prev {
				t.Fatalf("token %v at %d does not advance past %d", tok, tok.Pos.Offset, prev)
			}

			if tok.Kind == token.Space && len(tok.Text) == 0 {
				t.Fatalf("empty space token in %q", input)
			}

			prev = tok.Pos.Offset
		}
	})
}
