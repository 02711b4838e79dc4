package lang

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// NodeKind identifies the variant of a document [Node].
type NodeKind int

const (
	// TextNode is a run of literal text.
	TextNode NodeKind = iota

	// LineBreakNode starts a new visual line within a paragraph.
	LineBreakNode

	// ParagraphNode is a block of inline children in reading order.
	ParagraphNode

	// ElementNode is a named custom element produced by a primitive.
	ElementNode
)

// String returns the name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case TextNode:
		return "Text"

	case LineBreakNode:
		return "LineBreak"

	case ParagraphNode:
		return "Paragraph"

	case ElementNode:
		return "Element"

	default:
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a document node. Which fields are meaningful depends on Kind:
// Text for TextNode, Children for ParagraphNode and ElementNode, Name for
// ElementNode, and Attrs for ParagraphNode and ElementNode.
//
// Nodes handed out in a [Document] must not be modified.
type Node struct {
	Attrs    map[string]any
	Text     string
	Name     string
	Children []*Node
	Kind     NodeKind
}

// Text returns a new text run.
func Text(s string) *Node { return &Node{Kind: TextNode, Text: s} }

// LineBreak returns a new line break.
func LineBreak() *Node { return &Node{Kind: LineBreakNode} }

// Paragraph returns a new paragraph holding children.
func Paragraph(children ...*Node) *Node {
	return &Node{Kind: ParagraphNode, Children: children}
}

// Element returns a new custom element.
func Element(name string, attrs map[string]any, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs, Children: children}
}

// IsBlock reports whether n must stand at block level, outside any
// paragraph. Paragraphs are block nodes, and so is any element that
// contains a paragraph.
func (n *Node) IsBlock() bool {
	switch n.Kind {
	case ParagraphNode:
		return true

	case ElementNode:
		return slices.ContainsFunc(n.Children, (*Node).IsBlock)

	default:
		return false
	}
}

// PlainText returns the concatenated text of n and its descendants.
// Line breaks become newlines and paragraphs are separated by blank lines.
func (n *Node) PlainText() string {
	var sb strings.Builder

	n.writeText(&sb)

	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	switch n.Kind {
	case TextNode:
		sb.WriteString(n.Text)

	case LineBreakNode:
		sb.WriteByte('\n')

	default:
		writeNodesText(sb, n.Children)
	}
}

func writeNodesText(sb *strings.Builder, nodes []*Node) {
	for i, c := range nodes {
		if i > 0 && c.Kind == ParagraphNode {
			sb.WriteString("\n\n")
		}

		c.writeText(sb)
	}
}

// NodesText returns the plain text of a node sequence.
func NodesText(nodes []*Node) string {
	var sb strings.Builder

	writeNodesText(&sb, nodes)

	return sb.String()
}

// String returns a compact debugging form, e.g. Text("Line") or
// Paragraph[Text("a"), LineBreak].
func (n *Node) String() string {
	switch n.Kind {
	case TextNode:
		return "Text(" + strconv.Quote(n.Text) + ")"

	case LineBreakNode:
		return "LineBreak"

	case ParagraphNode:
		return "Paragraph" + NodesString(n.Children)

	case ElementNode:
		return "Element(" + n.Name + ")" + NodesString(n.Children)

	default:
		return n.Kind.String()
	}
}

// NodesString formats a node sequence as "[a, b, c]".
func NodesString(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal reports whether n and o are structurally identical.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}

	return n.Kind == o.Kind &&
		n.Text == o.Text &&
		n.Name == o.Name &&
		maps.EqualFunc(n.Attrs, o.Attrs, func(a, b any) bool { return a == b }) &&
		slices.EqualFunc(n.Children, o.Children, (*Node).Equal)
}

// withAttrs returns a shallow copy of n whose Attrs are attrs overlaid with
// n's own.
func (n *Node) withAttrs(attrs map[string]any) *Node {
	if len(attrs) == 0 {
		return n
	}

	c := *n
	c.Attrs = maps.Clone(attrs)
	maps.Copy(c.Attrs, n.Attrs)

	return &c
}

// Document is the result of compiling one source.
type Document struct {
	// Nodes holds the block-level nodes in reading order.
	Nodes []*Node

	// Scope is the scope in effect at the end of the source.
	Scope *Scope
}

// Paragraphs returns the top-level paragraphs of d.
func (d *Document) Paragraphs() []*Node {
	var ps []*Node

	for _, n := range d.Nodes {
		if n.Kind == ParagraphNode {
			ps = append(ps, n)
		}
	}

	return ps
}

// PlainText returns the text content of d.
func (d *Document) PlainText() string { return NodesText(d.Nodes) }

// String returns the debugging form of the document nodes.
func (d *Document) String() string { return NodesString(d.Nodes) }
