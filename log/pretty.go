package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records, either as key=value text on one
// line or as an indented object with one field per line.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	attrs  []slog.Attr
	json   bool
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	json bool,
) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, json: json}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Concat(h.attrs, h.qualify(attrs))

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if h.json {
		buf.WriteString("{\n")
	}

	n := 0
	emit := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Equal(slog.Attr{}) {
			return
		}

		h.writeAttr(&buf, a, n)
		n++
	}

	if !r.Time.IsZero() {
		emit(slog.Time(slog.TimeKey, r.Time))
	}

	emit(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			emit(slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	emit(slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		emit(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		emit(slog.Attr{Key: h.prefix + a.Key, Value: a.Value})

		return true
	})

	if h.json {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr, n int) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			h.writeAttr(buf, slog.Attr{Key: a.Key + "." + g.Key, Value: g.Value}, n)
			n++
		}

		return
	}

	switch {
	case h.json && n > 0:
		buf.WriteString(",\n  ")

	case h.json:
		buf.WriteString("  ")

	case n > 0:
		buf.WriteByte(' ')
	}

	buf.WriteString(colorGray)
	buf.WriteString(a.Key)
	buf.WriteString(colorReset)

	if h.json {
		buf.WriteString(": ")
	} else {
		buf.WriteByte('=')
	}

	writeValue(buf, a.Key, a.Value)
}

func writeValue(buf *bytes.Buffer, key string, v slog.Value) {
	color, text := colorCyan, ""

	switch v.Kind() {
	case slog.KindString:
		text = v.String()
		if key == slog.LevelKey {
			color = levelColor(ParseLevel(text))
		}

	case slog.KindInt64:
		color, text = colorYellow, strconv.FormatInt(v.Int64(), 10)

	case slog.KindUint64:
		color, text = colorYellow, strconv.FormatUint(v.Uint64(), 10)

	case slog.KindFloat64:
		color, text = colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)

	case slog.KindBool:
		color, text = colorRed, "false"
		if v.Bool() {
			color, text = colorGreen, "true"
		}

	case slog.KindDuration:
		color, text = colorMagenta, v.Duration().String()

	case slog.KindTime:
		color, text = colorBlue, v.Time().Format(time.RFC3339)

	default:
		switch x := v.Any().(type) {
		case slog.Level:
			color, text = levelColor(Level(x)), strings.ToUpper(Level(x).String())

		case error:
			color, text = colorRed, x.Error()

		case nil:
			color, text = colorGray, "null"

		default:
			text = fmt.Sprint(x)
		}
	}

	buf.WriteString(color)
	buf.WriteString(text)
	buf.WriteString(colorReset)
}

func levelColor(l Level) string {
	switch {
	case l >= LevelError:
		return colorRed

	case l >= LevelWarn:
		return colorYellow

	case l >= LevelInfo:
		return colorGreen

	case l >= LevelDebug:
		return colorBlue

	default:
		return colorGray
	}
}
