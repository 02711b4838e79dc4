package repl

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
	"github.com/ardnew/typeline/pkg"
)

func newSession(t *testing.T) *Session {
	t.Helper()

	s, err := NewSession(lang.NewLibrary(), "text", log.Logger{})
	if err != nil {
		t.Fatal(err)
	}

	return s
}

func TestSessionKeepsBindings(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	steps := []struct {
		line string
		want string
	}{
		{"#let who = [world]", ""},
		{"hello #who", "hello world"},
		{"#let linebreak() = [ / ]", ""},
		{`a \ b`, "a/b"},
	}

	for _, step := range steps {
		got, err := s.Eval(ctx, step.line)
		if err != nil {
			t.Fatalf("Eval(%q): %v", step.line, err)
		}

		if step.want != "" && got != step.want {
			t.Errorf("Eval(%q) = %q, want %q", step.line, got, step.want)
		}
	}

	if !slices.Contains(s.Names(), "who") {
		t.Errorf("Names() = %v, missing %q", s.Names(), "who")
	}

	if got := strings.Count(s.Source(), "\n\n"); got != len(steps)-1 {
		t.Errorf("Source() has %d separators, want %d", got, len(steps)-1)
	}
}

func TestSessionFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	if _, err := s.Eval(ctx, "#let x = 1"); err != nil {
		t.Fatal(err)
	}

	_, err := s.Eval(ctx, "#let y = 2\n#missing")
	if !errors.Is(err, lang.ErrUnboundName) {
		t.Fatalf("Eval = %v, want %v", err, lang.ErrUnboundName)
	}

	if _, ok := s.Lookup("y"); ok {
		t.Error("binding from failed line is visible")
	}

	if got := s.Source(); got != "#let x = 1" {
		t.Errorf("Source() = %q", got)
	}
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	if _, err := s.Eval(ctx, "#let x = 1"); err != nil {
		t.Fatal(err)
	}

	s.Reset()

	if _, ok := s.Lookup("x"); ok {
		t.Error("binding survived Reset")
	}

	if _, ok := s.Lookup(lang.NamePar); !ok {
		t.Errorf("primitive %q missing after Reset", lang.NamePar)
	}

	if s.Source() != "" {
		t.Errorf("Source() = %q after Reset", s.Source())
	}
}

func TestSessionLoad(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	if _, err := s.Eval(ctx, "#let old = 1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Load(ctx, "#let x = 2\n#let f(a) = a"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Lookup("old"); ok {
		t.Error("Load kept a binding from before")
	}

	for _, name := range []string{"x", "f"} {
		if _, ok := s.Lookup(name); !ok {
			t.Errorf("Load did not bind %q", name)
		}
	}

	if err := s.Load(ctx, "#nope"); err == nil {
		t.Fatal("Load accepted an unbound name")
	}

	if _, ok := s.Lookup("x"); !ok {
		t.Error("failed Load changed the session")
	}
}

func TestSessionHandle(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	tests := []struct {
		line    string
		action  action
		output  string
		wantErr error
	}{
		{line: ":quit", action: actionQuit},
		{line: ":q", action: actionQuit},
		{line: ":clear", action: actionClear},
		{line: ":edit", action: actionEdit},
		{line: ":format", output: "text"},
		{line: ":format tree", output: "format tree"},
		{line: ":format nope", wantErr: pkg.ErrInvalidFormat[0]},
		{line: ":bogus", wantErr: ErrUnknownCommand},
		{line: ":reset", output: "scope reset"},
		{line: "plain words", output: `Text "plain words"`},
	}

	for _, tt := range tests {
		res := s.Handle(ctx, tt.line)

		if tt.wantErr != nil {
			if !errors.Is(res.err, tt.wantErr) {
				t.Errorf("Handle(%q) error = %v, want %v", tt.line, res.err, tt.wantErr)
			}

			continue
		}

		if res.err != nil {
			t.Errorf("Handle(%q): %v", tt.line, res.err)

			continue
		}

		if res.action != tt.action {
			t.Errorf("Handle(%q) action = %d, want %d", tt.line, res.action, tt.action)
		}

		if tt.output != "" && !strings.Contains(res.output, tt.output) {
			t.Errorf("Handle(%q) output = %q, want it to contain %q", tt.line, res.output, tt.output)
		}
	}
}

func TestSessionDescribeScope(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	for _, line := range []string{"#let pair(a, b) = [#a #b]", "#let n = 6 * 7"} {
		if _, err := s.Eval(ctx, line); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Handle(ctx, ":scope").output

	for _, want := range []string{"let(a, b)", `data "42"`, "primitive"} {
		if !strings.Contains(got, want) {
			t.Errorf(":scope output missing %q:\n%s", want, got)
		}
	}
}

func TestNewSessionInvalidFormat(t *testing.T) {
	if _, err := NewSession(lang.NewLibrary(), "pdf", log.Logger{}); err == nil {
		t.Fatal("NewSession accepted an unknown format")
	}
}
