package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// Library is a set of primitives used to build the root scope of a
// compilation. A Library must not be modified once handed to [Compile].
type Library struct {
	prims map[string]*Value
}

// Names of the built-in primitives.
const (
	NameLinebreak = "linebreak"
	NameParbreak  = "parbreak"
	NamePar       = "par"
	NameEmph      = "emph"
	NameStrong    = "strong"
	NameText      = "text"
)

// Paragraph settings accepted by par.
var parSettings = []string{"spacing", "leading", "word-spacing"}

// defaultLibrary is shared by every compilation that does not use
// [WithLibrary].
var defaultLibrary = NewLibrary()

// NewLibrary returns a library holding the built-in primitives.
func NewLibrary() *Library {
	return EmptyLibrary().
		Register(NameLinebreak, linebreak).
		Register(NameParbreak, parbreak).
		Register(NamePar, par).
		Register(NameEmph, element(NameEmph)).
		Register(NameStrong, element(NameStrong)).
		Register(NameText, text)
}

// EmptyLibrary returns a library without any primitives.
func EmptyLibrary() *Library {
	return &Library{prims: make(map[string]*Value)}
}

// Register adds or replaces the primitive name and returns l.
func (l *Library) Register(name string, fn Primitive) *Library {
	l.prims[name] = NewPrimitive(name, fn)

	return l
}

// Names returns the sorted names of the primitives in l.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.prims))
}

// Scope returns a new root frame holding the primitives of l.
func (l *Library) Scope() *Scope {
	bindings := make([]*Binding, 0, len(l.prims))

	for name, v := range l.prims {
		bindings = append(bindings, &Binding{Name: name, Value: v})
	}

	return NewScope(bindings...)
}

func linebreak(_ context.Context, call *Call) (*Value, error) {
	if err := call.Expect(0, 0); err != nil {
		return nil, err
	}

	return NewContent(LineBreak()), nil
}

// parbreak yields an empty paragraph, which closes the open paragraph where
// it is inserted.
func parbreak(_ context.Context, call *Call) (*Value, error) {
	if err := call.Expect(0, 0); err != nil {
		return nil, err
	}

	return NewContent(Paragraph()), nil
}

// par applies paragraph settings. With a content body, the settings apply to
// the body's paragraphs only. Without one, it ends the open paragraph and the
// settings apply to the rest of the enclosing block.
func par(_ context.Context, call *Call) (*Value, error) {
	if err := call.Expect(0, 1, parSettings...); err != nil {
		return nil, err
	}

	attrs := make(map[string]any)

	for _, key := range parSettings {
		n, ok, err := call.Number(key)
		if err != nil {
			return nil, err
		}

		if ok {
			attrs[key] = n
		}
	}

	body := call.Arg(0)
	if body == nil {
		return NewContent(&Node{Kind: ParagraphNode, Attrs: attrs}), nil
	}

	if body.Kind != ContentValue {
		return nil, ErrArgType.WithPosition(call.Pos).With(
			slog.String("name", call.Name),
			slog.String("want", "content"),
			slog.String("got", body.Kind.String()),
		)
	}

	children := make([]*Node, 0, len(body.Content))

	for _, n := range body.Content {
		if n.Kind == ParagraphNode {
			n = n.withAttrs(attrs)
		}

		children = append(children, n)
	}

	return NewContent(Element(NamePar, attrs, children...)), nil
}

// element returns a primitive wrapping its content argument in an element.
func element(name string) Primitive {
	return func(_ context.Context, call *Call) (*Value, error) {
		if err := call.Expect(1, 1); err != nil {
			return nil, err
		}

		body := call.Arg(0)

		var children []*Node

		switch body.Kind {
		case ContentValue:
			children = inline(body.Content)

		case DataValue:
			children = []*Node{Text(body.Text())}

		default:
			return nil, ErrArgType.WithPosition(call.Pos).With(
				slog.String("name", name),
				slog.String("want", "content"),
				slog.String("got", body.Kind.String()),
			)
		}

		return NewContent(Element(name, nil, children...)), nil
	}
}

func text(_ context.Context, call *Call) (*Value, error) {
	if err := call.Expect(1, 1); err != nil {
		return nil, err
	}

	return NewContent(Text(call.Arg(0).Text())), nil
}

// inline unwraps content made of a single plain, non-empty paragraph into
// that paragraph's children.
func inline(nodes []*Node) []*Node {
	if len(nodes) == 1 && nodes[0].Kind == ParagraphNode &&
		len(nodes[0].Attrs) == 0 && len(nodes[0].Children) > 0 {
		return nodes[0].Children
	}

	return nodes
}
