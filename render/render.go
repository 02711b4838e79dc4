// Package render turns a compiled [lang.Document] into output bytes.
//
// Each output format is a [Renderer]. The structured formats (JSON, YAML,
// MessagePack) share one wire form, [Node], so a document encoded in one of
// them decodes to the same tree from any other.
package render

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/pkg"
)

// Renderer writes a document to w.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, doc *lang.Document) error
}

// Func adapts a function to the [Renderer] interface.
type Func func(ctx context.Context, w io.Writer, doc *lang.Document) error

// Render calls f.
func (f Func) Render(ctx context.Context, w io.Writer, doc *lang.Document) error {
	return f(ctx, w, doc)
}

// DefaultIndent is the indent width used by the tree and structured formats.
const DefaultIndent = 2

type options struct {
	indent int
}

// Option configures a renderer returned by [Lookup].
type Option func(*options)

// WithIndent sets the indent width. Zero selects the compact form of each
// format: single-line JSON and flow-style YAML.
func WithIndent(n int) Option {
	return func(o *options) { o.indent = max(n, 0) }
}

func makeOptions(opts ...Option) options {
	o := options{indent: DefaultIndent}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

var formats = map[string]func(options) Renderer{
	"text":    func(options) Renderer { return Text() },
	"tree":    func(o options) Renderer { return Tree(o.indent) },
	"json":    func(o options) Renderer { return JSON(o.indent) },
	"yaml":    func(o options) Renderer { return YAML(o.indent) },
	"msgpack": func(options) Renderer { return MsgPack() },
}

// Formats returns the names accepted by [Lookup] in sorted order.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Lookup returns the renderer registered under name, compared
// case-insensitively.
func Lookup(name string, opts ...Option) (Renderer, error) {
	mk, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, pkg.ErrInvalidFormat.Wrapf("%q (valid: %s)",
			name, strings.Join(Formats(), ", "))
	}

	return mk(makeOptions(opts...)), nil
}

// Text returns a renderer that writes the plain text of a document: line
// breaks become newlines and paragraphs are separated by a blank line.
func Text() Renderer {
	return Func(func(_ context.Context, w io.Writer, doc *lang.Document) error {
		if len(doc.Nodes) == 0 {
			return nil
		}

		_, err := fmt.Fprintln(w, doc.PlainText())

		return wrap(err)
	})
}

func wrap(err error) error {
	if err == nil {
		return nil
	}

	return pkg.ErrRender.Wrap(err)
}
