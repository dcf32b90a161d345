package plan

import "strings"

// Format renders the plan tree rooted at n, one operator per line, children
// indented under their parent. Binary operators render left input first.
func Format(n Node) string {
	var b strings.Builder
	formatNode(&b, n, 0)
	return b.String()
}

func formatNode(b *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Describe())
	b.WriteString("\n")
	for _, in := range n.Inputs() {
		formatNode(b, in, depth+1)
	}
}
