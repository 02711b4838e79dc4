package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMakeDefaults(t *testing.T) {
	l := Make(nil)

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("Make(nil) = %v/%v, want %v/%v",
			l.Level(), l.Format(), DefaultLevel, DefaultFormat)
	}

	if l.caller != DefaultCaller || l.pretty != DefaultPretty {
		t.Errorf("caller=%v pretty=%v", l.caller, l.pretty)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at debug", Logger.Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min)), "message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestLevelNames(t *testing.T) {
	tests := []struct {
		log  func(Logger, string, ...slog.Attr)
		want string
	}{
		{Logger.Trace, "TRACE"},
		{Logger.Debug, "DEBUG"},
		{Logger.Info, "INFO"},
		{Logger.Warn, "WARN"},
		{Logger.Error, "ERROR"},
	}

	for _, pretty := range []bool{false, true} {
		for _, tt := range tests {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatText), WithPretty(pretty))
			tt.log(l, "message")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("pretty=%v: output %q lacks level %q", pretty, buf.String(), tt.want)
			}
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithPretty(false)).
		With(slog.String("component", "lexer"))
	l.Info("token", slog.Int("offset", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}

	for key, want := range map[string]any{
		"msg":       "token",
		"level":     "INFO",
		"component": "lexer",
		"offset":    3.0,
	} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %v", key, rec[key], want)
		}
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithPretty(false)).
		Warn("unbound", slog.String("name", "x"))

	if out := buf.String(); !strings.Contains(out, "msg=unbound") ||
		!strings.Contains(out, "name=x") {
		t.Errorf("text output = %q", out)
	}
}

type valuer struct{}

func (valuer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("pos", "1:2"), slog.String("reason", "bad"))
}

func TestPrettyKeepsAttrs(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithFormat(format), WithTimeLayout("none")).
				With(slog.String("source", "a.tl"))
			l.Error("failed",
				slog.Any("error", valuer{}),
				slog.Any("cause", errors.New("boom")))

			out := buf.String()
			for _, want := range []string{"source", "a.tl", "error.pos", "1:2", "error.reason", "boom"} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q lacks %q", out, want)
				}
			}

			if strings.Contains(out, slog.TimeKey) {
				t.Errorf("output %q has a time with layout none", out)
			}
		})
	}
}

func TestCaller(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		Make(&buf, WithCaller(true), WithPretty(pretty)).Info("here")

		if !strings.Contains(buf.String(), "log_test.go") {
			t.Errorf("pretty=%v: caller missing from %q", pretty, buf.String())
		}
	}

	var buf bytes.Buffer

	Make(&buf, WithCaller(false), WithPretty(false)).Info("here")

	if strings.Contains(buf.String(), slog.SourceKey) {
		t.Errorf("caller present when disabled: %q", buf.String())
	}
}

func TestWrapKeepsConfig(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelWarn), WithFormat(FormatText))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if wrapped.Format() != FormatText || wrapped.Level() != LevelDebug {
		t.Errorf("wrapped = %v/%v", wrapped.Format(), wrapped.Level())
	}

	if base.Level() != LevelWarn {
		t.Error("Wrap modified the original logger")
	}
}

func TestZeroValue(t *testing.T) {
	var l Logger

	l.Trace("x")
	l.Info("x")
	l.Error("x")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on zero Logger allocated a logger")
	}

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero Logger is enabled")
	}

	if l.Wrap(WithLevel(LevelDebug)).Logger == nil {
		t.Error("Wrap on zero Logger returned a zero Logger")
	}
}

func TestConcurrentLogging(t *testing.T) {
	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithPretty(false))

	for i := range 100 {
		wg.Go(func() { l.Info("concurrent", slog.Int("id", i)) })
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 100 {
		t.Errorf("got %d records, want 100", n)
	}
}

func TestDefaultLogger(t *testing.T) {
	original := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelTrace), WithPretty(false))

	tests := []struct {
		log   func(string, ...slog.Attr)
		level string
	}{
		{Trace, "TRACE"},
		{Debug, "DEBUG"},
		{Info, "INFO"},
		{Warn, "WARN"},
		{Error, "ERROR"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.log("package message", slog.String("key", "value"))

		out := buf.String()
		if !strings.Contains(out, "package message") ||
			!strings.Contains(out, tt.level) ||
			!strings.Contains(out, `"key":"value"`) {
			t.Errorf("%s: output %q", tt.level, out)
		}
	}

	buf.Reset()
	InfoContext(t.Context(), "with context")

	if !strings.Contains(buf.String(), "with context") {
		t.Errorf("InfoContext output %q", buf.String())
	}
}

func BenchmarkInfo(b *testing.B) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false))

	for b.Loop() {
		l.Info("benchmark", slog.Int("n", 1))
	}
}

func BenchmarkInfoPretty(b *testing.B) {
	var buf bytes.Buffer

	l := Make(&buf, WithCaller(true))

	for b.Loop() {
		l.Info("benchmark", slog.Int("n", 1))
	}
}

func BenchmarkTraceDisabled(b *testing.B) {
	l := Make(nil)

	for b.Loop() {
		l.Trace("skipped", slog.Int("n", 1))
	}
}
