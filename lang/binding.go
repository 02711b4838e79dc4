package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/typeline/lang/token"
)

// ValueKind identifies the variant of a [Value].
type ValueKind int

const (
	// PrimitiveValue is a built-in function implemented in Go.
	PrimitiveValue ValueKind = iota

	// ClosureValue is a user function defined with let.
	ClosureValue

	// ContentValue is a sequence of document nodes.
	ContentValue

	// DataValue is the result of an expression.
	DataValue
)

// String returns the name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case PrimitiveValue:
		return "primitive"

	case ClosureValue:
		return "closure"

	case ContentValue:
		return "content"

	case DataValue:
		return "data"

	default:
		return "ValueKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Primitive implements a built-in function.
type Primitive func(ctx context.Context, call *Call) (*Value, error)

// Call holds the arguments of one function invocation.
type Call struct {
	Named map[string]*Value
	Name  string
	Args  []*Value
	Pos   token.Position
}

// Closure is a user function. Its free names resolve in Captured, the scope
// in effect immediately before the function's own binding was introduced.
type Closure struct {
	Captured *Scope
	Name     string
	Body     string
	Params   []string
	BodyPos  token.Position
	Markup   bool // Body is markup rather than an expression
}

// Value is the value bound to a name.
type Value struct {
	Data      any
	Primitive Primitive
	Closure   *Closure
	Name      string
	Content   []*Node
	Kind      ValueKind
}

// NewPrimitive returns a primitive function value.
func NewPrimitive(name string, fn Primitive) *Value {
	return &Value{Kind: PrimitiveValue, Name: name, Primitive: fn}
}

// NewContent returns a content value.
func NewContent(nodes ...*Node) *Value {
	return &Value{Kind: ContentValue, Content: nodes}
}

// NewData returns a data value.
func NewData(v any) *Value {
	return &Value{Kind: DataValue, Data: v}
}

// Callable reports whether v can be invoked.
func (v *Value) Callable() bool {
	return v != nil && (v.Kind == PrimitiveValue || v.Kind == ClosureValue)
}

// Text returns the plain-text form of v.
func (v *Value) Text() string {
	if v == nil {
		return ""
	}

	switch v.Kind {
	case ContentValue:
		return NodesText(v.Content)

	case DataValue:
		return formatData(v.Data)

	default:
		return ""
	}
}

// Interface returns v as an expression operand: data as is and content as
// its plain text. Functions have no operand form.
func (v *Value) Interface() any {
	switch v.Kind {
	case ContentValue:
		return v.Text()

	case DataValue:
		return v.Data

	default:
		return nil
	}
}

// String describes v for diagnostics.
func (v *Value) String() string {
	switch v.Kind {
	case PrimitiveValue:
		return "primitive " + v.Name

	case ClosureValue:
		return fmt.Sprintf("closure %s(%d)", v.Closure.Name, len(v.Closure.Params))

	case ContentValue:
		return "content " + NodesString(v.Content)

	case DataValue:
		return fmt.Sprintf("data %T %s", v.Data, formatData(v.Data))

	default:
		return v.Kind.String()
	}
}

// Summary describes v on one line for listings: a function's parameters,
// or the kind and shortened text of a value.
func (v *Value) Summary() string {
	const limit = 40

	switch v.Kind {
	case PrimitiveValue:
		return "primitive"

	case ClosureValue:
		return "let(" + strings.Join(v.Closure.Params, ", ") + ")"

	default:
		s := []rune(v.Text())
		if len(s) > limit {
			s = append(s[:limit-3], []rune("...")...)
		}

		return v.Kind.String() + " " + strconv.Quote(string(s))
	}
}

func formatData(d any) string {
	switch d := d.(type) {
	case nil:
		return ""

	case string:
		return d

	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)

	default:
		return fmt.Sprint(d)
	}
}

// Binding is an immutable association of a name with a value.
type Binding struct {
	Value *Value
	Name  string
	Pos   token.Position
}

// LogValue implements slog.LogValuer.
func (b *Binding) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", b.Name),
		slog.String("kind", b.Value.Kind.String()),
		slog.String("pos", b.Pos.String()),
	)
}
