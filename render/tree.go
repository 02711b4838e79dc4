package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/typeline/lang"
)

// Tree returns a renderer that writes one node per line, children indented
// by indent spaces below their parent:
//
//	Paragraph
//	  Text "Line"
//	  LineBreak
//	  Text "Break"
func Tree(indent int) Renderer {
	return Func(func(_ context.Context, w io.Writer, doc *lang.Document) error {
		bw := bufio.NewWriter(w)

		for _, n := range doc.Nodes {
			writeTree(bw, n, strings.Repeat(" ", indent), 0)
		}

		return wrap(bw.Flush())
	})
}

func writeTree(w *bufio.Writer, n *lang.Node, unit string, depth int) {
	for range depth {
		w.WriteString(unit)
	}

	w.WriteString(n.Kind.String())

	switch n.Kind {
	case lang.TextNode:
		w.WriteByte(' ')
		w.WriteString(strconv.Quote(n.Text))

	case lang.ElementNode:
		w.WriteByte(' ')
		w.WriteString(n.Name)
	}

	if len(n.Attrs) > 0 {
		w.WriteString(" {")

		for i, k := range slices.Sorted(maps.Keys(n.Attrs)) {
			if i > 0 {
				w.WriteString(", ")
			}

			fmt.Fprintf(w, "%s: %v", k, n.Attrs[k])
		}

		w.WriteByte('}')
	}

	w.WriteByte('\n')

	for _, c := range n.Children {
		writeTree(w, c, unit, depth+1)
	}
}
