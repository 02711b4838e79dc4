package render

import (
	"maps"

	"github.com/ardnew/typeline/lang"
)

// Node is the wire form of a [lang.Node]. Kind holds the name of the node
// kind ("Text", "LineBreak", "Paragraph", or "Element").
type Node struct {
	Attrs    map[string]any `json:"attrs,omitempty"    msgpack:"attrs,omitempty"    yaml:"attrs,omitempty"`
	Kind     string         `json:"kind"               msgpack:"kind"               yaml:"kind"`
	Text     string         `json:"text,omitempty"     msgpack:"text,omitempty"     yaml:"text,omitempty"`
	Name     string         `json:"name,omitempty"     msgpack:"name,omitempty"     yaml:"name,omitempty"`
	Children []*Node        `json:"children,omitempty" msgpack:"children,omitempty" yaml:"children,omitempty"`
}

// Document is the wire form of a [lang.Document].
type Document struct {
	Nodes []*Node `json:"nodes" msgpack:"nodes" yaml:"nodes"`
}

// Wire converts doc to its wire form.
func Wire(doc *lang.Document) *Document {
	return &Document{Nodes: wireNodes(doc.Nodes)}
}

func wireNodes(nodes []*lang.Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{
			Kind:     n.Kind.String(),
			Text:     n.Text,
			Name:     n.Name,
			Attrs:    maps.Clone(n.Attrs),
			Children: wireNodes(n.Children),
		}
	}

	return out
}

var kinds = map[string]lang.NodeKind{
	lang.TextNode.String():      lang.TextNode,
	lang.LineBreakNode.String(): lang.LineBreakNode,
	lang.ParagraphNode.String(): lang.ParagraphNode,
	lang.ElementNode.String():   lang.ElementNode,
}

// Decode converts d back to document nodes. Nodes of unknown kind are
// dropped along with their children.
func (d *Document) Decode() []*lang.Node { return langNodes(d.Nodes) }

func langNodes(nodes []*Node) []*lang.Node {
	out := make([]*lang.Node, 0, len(nodes))

	for _, n := range nodes {
		kind, ok := kinds[n.Kind]
		if !ok {
			continue
		}

		out = append(out, &lang.Node{
			Kind:     kind,
			Text:     n.Text,
			Name:     n.Name,
			Attrs:    n.Attrs,
			Children: langNodes(n.Children),
		})
	}

	return out
}
