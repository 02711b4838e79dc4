package lang

import (
	"context"
	"errors"
	"testing"
)

// FuzzCompile checks that compilation never panics, that failures are always
// reported as *Error, and that successful output has no empty paragraphs.
func FuzzCompile(f *testing.F) {
	for _, seed := range []string{
		`Line\ Break`,
		`A \ B \ C \`,
		"Trailing 1 \\\n\nTrailing 2",
		"#let linebreak() = [(\\ )]\nA \\ B",
		"#par(leading: 1)[x\n\ny] #parbreak()",
		"#emph[#strong[#text(1)]]",
		"#(",
		"#let f(a,",
		"#x[",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		doc, err := Compile(context.Background(), src,
			WithLibrary(NewLibrary()), WithMaxDepth(16))
		if err != nil {
			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("error %T %v is not *Error", err, err)
			}

			return
		}

		for _, n := range doc.Nodes {
			if n.Kind == ParagraphNode && len(n.Children) == 0 {
				t.Fatalf("empty paragraph in %s", doc)
			}
		}
	})
}

func BenchmarkCompile(b *testing.B) {
	const src = `#let linebreak() = [ / \ ]
#let name = "World"
Hello, #name! This line \ breaks twice \ and ends here. \

#par(leading: 1.5)[A paragraph with #emph[emphasis] and #strong[weight].]
The sum is #(1 + 2 + 3).`

	lib := NewLibrary()
	ctx := context.Background()

	b.ReportAllocs()

	for b.Loop() {
		_, err := Compile(ctx, src, WithLibrary(lib))
		if err != nil {
			b.Fatal(err)
		}
	}
}
