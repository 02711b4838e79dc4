package cmd

import (
	"strings"
	"testing"
)

func TestScope(t *testing.T) {
	const src = "#let greet = [Hello]\n#let twice(x) = x * 2\n#let greet = [Hi]"

	tests := []struct {
		name    string
		all     bool
		want    []string
		notWant []string
	}{
		{
			name:    "definitions only",
			want:    []string{"NAME", "greet", "3:6", `content "Hi"`, "twice", "let(x)"},
			notWant: []string{"linebreak", `"Hello"`},
		},
		{
			name: "with primitives",
			all:  true,
			want: []string{"greet", "twice", "linebreak", "strong", "primitive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, _ := testContext(t, src)

			s := &Scope{All: tt.all, Normalize: true, File: stdinSource}
			if err := s.Run(ctx); err != nil {
				t.Fatal(err)
			}

			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}

			for _, w := range tt.notWant {
				if strings.Contains(out.String(), w) {
					t.Errorf("output contains %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestScopeCompileError(t *testing.T) {
	ctx, out, _ := testContext(t, "#missing")

	if err := (&Scope{File: stdinSource}).Run(ctx); err == nil {
		t.Fatalf("Run() succeeded with output:\n%s", out)
	}
}
