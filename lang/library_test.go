package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPar(t *testing.T) {
	t.Run("without body sets block settings", func(t *testing.T) {
		doc := compileDoc(t, "A\n\n#par(spacing: 1.5, word-spacing: 2)\nB\n\nC")

		if len(doc.Nodes) != 3 {
			t.Fatalf("got %s, want three paragraphs", doc)
		}

		if len(doc.Nodes[0].Attrs) != 0 {
			t.Errorf("first paragraph attrs = %v, want none", doc.Nodes[0].Attrs)
		}

		for _, p := range doc.Nodes[1:] {
			if p.Attrs["spacing"] != 1.5 || p.Attrs["word-spacing"] != 2.0 {
				t.Errorf("paragraph %s attrs = %v", p, p.Attrs)
			}
		}
	})

	t.Run("ends the open paragraph", func(t *testing.T) {
		doc := compileDoc(t, "A #par(leading: 1) B")

		assertNodes(t, doc.Paragraphs()[0].Children, Text("A"))
		assertNodes(t, doc.Paragraphs()[1].Children, Text("B"))

		if doc.Nodes[1].Attrs["leading"] != 1.0 {
			t.Errorf("second paragraph attrs = %v", doc.Nodes[1].Attrs)
		}
	})

	t.Run("with body scopes settings", func(t *testing.T) {
		doc := compileDoc(t, "#par(leading: 2)[x\n\ny]\n\nz")

		if len(doc.Nodes) != 2 {
			t.Fatalf("got %s, want element and paragraph", doc)
		}

		el := doc.Nodes[0]
		if el.Kind != ElementNode || el.Name != NamePar || len(el.Children) != 2 {
			t.Fatalf("first node = %s, want par element with two paragraphs", el)
		}

		for _, p := range el.Children {
			if p.Attrs["leading"] != 2.0 {
				t.Errorf("body paragraph %s attrs = %v", p, p.Attrs)
			}
		}

		if len(doc.Nodes[1].Attrs) != 0 {
			t.Errorf("paragraph after par has attrs %v", doc.Nodes[1].Attrs)
		}
	})

	t.Run("errors", func(t *testing.T) {
		for src, want := range map[string]error{
			`#par(leading: "x")`: ErrArgType,
			"#par(indent: 1)":    ErrArgCount,
			"#par(1)":            ErrArgType,
			"#par[a][b]":         ErrArgCount,
		} {
			_, err := Compile(context.Background(), src)
			if !errors.Is(err, want) {
				t.Errorf("Compile(%q) = %v, want %v", src, err, want)
			}
		}
	})
}

func TestParbreak(t *testing.T) {
	doc := compileDoc(t, "a #parbreak() b #parbreak() #parbreak()")

	assertParagraphs(t, doc, []*Node{Text("a")}, []*Node{Text("b")})
}

func TestElements(t *testing.T) {
	tests := []struct {
		input string
		want  []*Node
	}{
		{"#emph[a]", []*Node{Element(NameEmph, nil, Text("a"))}},
		{"#strong[a \\ b]", []*Node{Element(NameStrong, nil, Text("a"), LineBreak(), Text("b"))}},
		{"#emph(\"s\")", []*Node{Element(NameEmph, nil, Text("s"))}},
		{"#text(1.5)", []*Node{Text("1.5")}},
		{"#text([a #emph[b]])", []*Node{Text("a b")}},
		{"x#emph[]y", []*Node{Text("x"), Element(NameEmph, nil), Text("y")}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertParagraphs(t, compileDoc(t, tt.input), tt.want)
		})
	}
}

func TestBlockElement(t *testing.T) {
	doc := compileDoc(t, "before #emph[one\n\ntwo] after")

	if len(doc.Nodes) != 3 {
		t.Fatalf("got %s, want paragraph, element, paragraph", doc)
	}

	if doc.Nodes[1].Kind != ElementNode || !doc.Nodes[1].IsBlock() {
		t.Errorf("middle node = %s, want block element", doc.Nodes[1])
	}

	assertNodes(t, doc.Nodes[2].Children, Text("after"))
}

func TestCustomLibrary(t *testing.T) {
	lib := NewLibrary().Register("shout",
		func(_ context.Context, call *Call) (*Value, error) {
			if err := call.Expect(1, 1); err != nil {
				return nil, err
			}

			return NewContent(Text(strings.ToUpper(call.Arg(0).Text()))), nil
		},
	)

	doc := compileDoc(t, "#shout[hi] there", WithLibrary(lib))
	assertParagraphs(t, doc, []*Node{Text("HI"), Text(" there")})

	_, err := Compile(context.Background(), "#shout[hi]")
	if !errors.Is(err, ErrUnboundName) {
		t.Errorf("default library resolved shout: %v", err)
	}

	empty := EmptyLibrary()
	if len(empty.Names()) != 0 {
		t.Errorf("EmptyLibrary().Names() = %v", empty.Names())
	}

	// Without a linebreak primitive a break marker cannot be resolved.
	_, err = Compile(context.Background(), `a \ b`, WithLibrary(empty))
	if !errors.Is(err, ErrUnboundName) {
		t.Errorf("got %v, want %v", err, ErrUnboundName)
	}
}
