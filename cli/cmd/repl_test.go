package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/pkg"
)

func newRepl(t *testing.T) *Repl {
	t.Helper()

	return &Repl{
		Format:    "text",
		History:   filepath.Join(t.TempDir(), "history"),
		MaxDepth:  lang.DefaultMaxDepth,
		Normalize: true,
	}
}

func TestReplLines(t *testing.T) {
	ctx, out, _ := testContext(t, "#let who = [world]\nHello, #who!\n#nobody\n:quit\nnever read\n")

	if err := newRepl(t).Run(ctx); err != nil {
		t.Fatal(err)
	}

	got := out.String()

	for _, want := range []string{"Hello, world!", "unbound name"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	if strings.Contains(got, "never read") {
		t.Errorf("input after :quit was handled:\n%s", got)
	}
}

func TestReplLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "defs.tl", "#let greet(x) = [Hi #x]")
	ctx, out, _ := testContext(t, "#greet([there])\n")

	r := newRepl(t)
	r.Load = path

	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "Hi there") {
		t.Errorf("output = %q, want loaded definition applied", out)
	}
}

func TestReplLoadError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.tl", "#undefined")
	ctx, _, _ := testContext(t, "")

	r := newRepl(t)
	r.Load = path

	if err := r.Run(ctx); !errors.Is(err, lang.ErrUnboundName) {
		t.Fatalf("Run() = %v, want %v", err, lang.ErrUnboundName)
	}
}

func TestReplInvalidFormat(t *testing.T) {
	ctx, _, _ := testContext(t, "")

	r := newRepl(t)
	r.Format = "pdf"

	if err := r.Run(ctx); !errors.Is(err, pkg.ErrInvalidFormat[0]) {
		t.Fatalf("Run() = %v, want %v", err, pkg.ErrInvalidFormat)
	}
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if isTerminal(f) || isTerminal(strings.NewReader("")) {
		t.Error("isTerminal() = true for a regular file or reader")
	}
}
