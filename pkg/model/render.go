package model

import (
	"fmt"
	"strings"
)

// RenderOptions controls the textual tree rendering.
type RenderOptions struct {
	ShowKind bool // append the variant tag in parentheses
	ShowID   bool // append the node identifier
}

// Render returns a human-readable, indented rendering of the subtree
// rooted at n, one node per line with branching-line prefixes. It is an
// inspection aid only and plays no part in the exported documents.
func (n *Node) Render() string {
	return n.RenderWith(RenderOptions{ShowKind: true})
}

// RenderWith renders the subtree with explicit options.
func (n *Node) RenderWith(opts RenderOptions) string {
	var b strings.Builder
	renderNode(&b, n, "", true, true, opts)
	return b.String()
}

func renderNode(b *strings.Builder, n *Node, prefix string, isRoot, isLast bool, opts RenderOptions) {
	if !isRoot {
		branch := "├"
		if isLast {
			branch = "└"
		}
		b.WriteString(prefix + branch + "──")
	}
	b.WriteString(n.Name)
	if opts.ShowKind {
		fmt.Fprintf(b, " (%s)", n.Kind)
	}
	if opts.ShowID {
		fmt.Fprintf(b, " (ID: %s)", n.ID)
	}
	b.WriteByte('\n')

	childPrefix := prefix + "    "
	if !isLast {
		childPrefix = prefix + "│   "
	}
	for i, c := range n.children {
		renderNode(b, c, childPrefix, false, i == len(n.children)-1, opts)
	}
}
