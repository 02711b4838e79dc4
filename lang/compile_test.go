package lang

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/typeline/lang/token"
	"github.com/ardnew/typeline/pkg"
)

func TestCompileCache(t *testing.T) {
	ClearCache()

	ctx := context.Background()
	src := "cache " + t.Name()

	first, err := Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("identical sources were compiled twice")
	}

	other, err := Compile(ctx, src, WithMaxDepth(DefaultMaxDepth+1))
	if err != nil {
		t.Fatal(err)
	}

	if other == first {
		t.Error("different options shared a cache entry")
	}

	custom, err := Compile(ctx, src, WithLibrary(NewLibrary()))
	if err != nil {
		t.Fatal(err)
	}

	if custom == first {
		t.Error("custom library used the cache")
	}

	ClearCache()

	third, err := Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}

	if third == first {
		t.Error("ClearCache kept the cached document")
	}
}

func TestCompileCacheConcurrent(t *testing.T) {
	ClearCache()

	const n = 16

	var (
		wg   sync.WaitGroup
		docs [n]*Document
	)

	for i := range n {
		wg.Go(func() {
			docs[i], _ = Compile(context.Background(), `concurrent \ cache`)
		})
	}

	wg.Wait()

	for i := range n {
		if docs[i] == nil || docs[i] != docs[0] {
			t.Fatalf("document %d differs from document 0", i)
		}
	}
}

func TestCompileFailureNotCached(t *testing.T) {
	ClearCache()

	for range 2 {
		_, err := Compile(context.Background(), "#unbound")
		if !errors.Is(err, ErrUnboundName) {
			t.Fatalf("got %v, want %v", err, ErrUnboundName)
		}
	}
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, "text", WithLibrary(NewLibrary()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want %v", err, context.Canceled)
	}
}

// seedCanceled stores a finished cache entry for src that failed with the
// cancellation of another caller.
func seedCanceled(src string) *entry {
	e := &entry{err: context.Canceled}
	e.once.Do(func() {})

	globalCache.Store(cacheKey(src, makeOptions()), e)

	return e
}

func TestCompileCacheIgnoresOtherCancellation(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	src := "retry " + t.Name()
	seeded := seedCanceled(src)

	doc, err := Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile with live context: %v", err)
	}

	if got := doc.PlainText(); got != src {
		t.Errorf("PlainText() = %q, want %q", got, src)
	}

	value, ok := globalCache.Load(cacheKey(src, makeOptions()))
	if !ok || value == seeded {
		t.Error("canceled entry was kept in the cache")
	}
}

func TestCompileCacheCanceledCaller(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	src := "retry " + t.Name()
	seedCanceled(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Compile(ctx, src); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want %v", err, context.Canceled)
	}
}

func TestCompileReader(t *testing.T) {
	doc, err := CompileReader(context.Background(),
		strings.NewReader("Line \\ Break\n\nnext"))
	if err != nil {
		t.Fatal(err)
	}

	assertParagraphs(t, doc,
		[]*Node{Text("Line"), LineBreak(), Text("Break")},
		[]*Node{Text("next")},
	)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestCompileReaderError(t *testing.T) {
	_, err := CompileReader(context.Background(), failingReader{})
	if !errors.Is(err, ErrReadInput) {
		t.Fatalf("got %v, want %v", err, ErrReadInput)
	}
}

func TestNormalize(t *testing.T) {
	const decomposed = "Cafe\u0301"

	doc := compileDoc(t, decomposed)
	assertParagraphs(t, doc, []*Node{Text("Caf\u00e9")})

	raw := compileDoc(t, decomposed, WithNormalize(false))
	assertParagraphs(t, raw, []*Node{Text(decomposed)})
}

func TestCompileAll(t *testing.T) {
	sources := []Source{
		{Name: "a.tl", Text: `A \ B`},
		{Name: "b.tl", Text: "#nope"},
		{Name: "c.tl", Text: "C"},
		{Name: "d.tl", Text: "#(1 +)"},
	}

	docs, err := CompileAll(context.Background(), sources, WithJobs(2))
	if err == nil {
		t.Fatal("expected an error")
	}

	if !errors.Is(err, ErrUnboundName) || !errors.Is(err, ErrExprCompile) {
		t.Errorf("error %v does not hold both failures", err)
	}

	var agg pkg.Errors
	if !errors.As(err, &agg) || len(agg) != 2 {
		t.Fatalf("error %T %v, want pkg.Errors of 2", err, err)
	}

	if !strings.HasPrefix(agg[0].Error(), "b.tl: ") ||
		!strings.HasPrefix(agg[1].Error(), "d.tl: ") {
		t.Errorf("errors not in source order: %v", agg)
	}

	if docs[0] == nil || docs[2] == nil || docs[1] != nil || docs[3] != nil {
		t.Errorf("docs = %v", docs)
	}

	assertParagraphs(t, docs[0], []*Node{Text("A"), LineBreak(), Text("B")})
}

func TestCompileAllIndependentScopes(t *testing.T) {
	sources := []Source{
		{Name: "def", Text: "#let x = 1"},
		{Name: "use", Text: "#x"},
	}

	_, err := CompileAll(context.Background(), sources)
	if !errors.Is(err, ErrUnboundName) {
		t.Fatalf("got %v, want %v", err, ErrUnboundName)
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		caret string
	}{
		{"ascii", "a #nope b", strings.Repeat(" ", 8) + "^"},
		{"wide runes", "日本 #nope", strings.Repeat(" ", 11) + "^"},
		{"second line", "ok\n  #nope", strings.Repeat(" ", 8) + "^"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected an error")
			}

			out := FormatError(err, tt.input)
			lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

			if len(lines) != 3 {
				t.Fatalf("FormatError output:\n%s", out)
			}

			if lines[2] != tt.caret {
				t.Errorf("caret line = %q, want %q", lines[2], tt.caret)
			}
		})
	}

	if got := FormatError(errors.New("plain"), "src"); got != "plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}

	if got := FormatError(nil, "src"); got != "" {
		t.Errorf("FormatError(nil) = %q", got)
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrArgCount.WithPosition(token.Start).With()

	if !errors.Is(err, ErrArgCount) {
		t.Error("derived error does not match its sentinel")
	}

	if errors.Is(err, ErrArgType) {
		t.Error("derived error matches an unrelated sentinel")
	}

	wrapped := ErrExprEvaluate.Wrap(err)
	if !errors.Is(wrapped, ErrExprEvaluate) || !errors.Is(wrapped, ErrArgCount) {
		t.Error("wrapped error lost its chain")
	}
}
