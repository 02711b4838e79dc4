package render

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ardnew/typeline/lang"
)

// JSON returns a renderer that writes the wire form as JSON, indented by
// indent spaces, or on one line if indent is zero.
func JSON(indent int) Renderer {
	return Func(func(_ context.Context, w io.Writer, doc *lang.Document) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		if indent > 0 {
			enc.SetIndent("", strings.Repeat(" ", indent))
		}

		return wrap(enc.Encode(Wire(doc)))
	})
}

// YAML returns a renderer that writes the wire form as block-style YAML
// indented by indent spaces, or in flow style if indent is zero.
func YAML(indent int) Renderer {
	opts := []yaml.EncodeOption{yaml.Flow(true)}
	if indent > 0 {
		opts = []yaml.EncodeOption{yaml.Indent(indent), yaml.IndentSequence(true)}
	}

	return Func(func(ctx context.Context, w io.Writer, doc *lang.Document) error {
		buf, err := yaml.MarshalContext(ctx, Wire(doc), opts...)
		if err != nil {
			return wrap(err)
		}

		_, err = w.Write(buf)

		return wrap(err)
	})
}

// MsgPack returns a renderer that writes the wire form as MessagePack with
// map keys in sorted order.
func MsgPack() Renderer {
	return Func(func(_ context.Context, w io.Writer, doc *lang.Document) error {
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)

		return wrap(enc.Encode(Wire(doc)))
	})
}

// DecodeMsgPack reads a document written by [MsgPack].
func DecodeMsgPack(r io.Reader) (*Document, error) {
	var doc Document

	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, wrap(err)
	}

	return &doc, nil
}
