package log

import (
	"slices"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(config) bool
	}{
		{"level", WithLevel(LevelWarn), func(c config) bool { return c.level == LevelWarn }},
		{"trace level", WithLevel(LevelTrace), func(c config) bool { return c.level == LevelTrace }},
		{"text format", WithFormat(FormatText), func(c config) bool { return c.format == FormatText }},
		{"caller", WithCaller(true), func(c config) bool { return c.caller }},
		{"plain", WithPretty(false), func(c config) bool { return !c.pretty }},
		{"nil output", WithOutput(nil), func(c config) bool { return c.output != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := makeConfig(nil, tt.opt); !tt.check(c) {
				t.Errorf("option not applied: %+v", c)
			}
		})
	}
}

func TestOptionsApplyInOrder(t *testing.T) {
	c := makeConfig(nil, WithLevel(LevelDebug), nil, WithLevel(LevelError))

	if c.level != LevelError {
		t.Errorf("level = %v, want %v", c.level, LevelError)
	}
}

func TestTimeLayout(t *testing.T) {
	ts := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc-3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"ms", "Oct 15 14:30:45.123"},
		{"2006/01/02", "2023/10/15"},
		{"UNKNOWN_FORMAT", "UNKNOWN_FORMAT"},
		{"none", ""},
		{"", ""},
		{" \t ", ""},
	}

	for _, tt := range tests {
		if got := WithTimeLayout(tt.layout)(config{}).formatTime(ts); got != tt.want {
			t.Errorf("layout %q: got %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func BenchmarkFormatTime(b *testing.B) {
	for _, layout := range []string{"RFC3339", "RFC3339Nano"} {
		b.Run(layout, func(b *testing.B) {
			c := WithTimeLayout(layout)(config{})
			ts := time.Now()

			for b.Loop() {
				_ = c.formatTime(ts)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"trace":   LevelTrace,
		" TRACE ": LevelTrace,
		"debug":   LevelDebug,
		"Info":    LevelInfo,
		"warn":    LevelWarn,
		"ERROR":   LevelError,
		"info+2":  LevelInfo + 2,
		"bogus":   DefaultLevel,
		"":        DefaultLevel,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":   FormatJSON,
		" TEXT ": FormatText,
		"yaml":   DefaultFormat,
	}

	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNames(t *testing.T) {
	if got := slices.Collect(Levels()); !slices.Equal(got,
		[]string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %v", got)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "text"}) {
		t.Errorf("Formats() = %v", got)
	}
}
