package cmd

import (
	"fmt"
	"io"
	"strings"

	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/tree"
)

// RunShow decodes src and prints the tree as an indented outline.
func RunShow(w io.Writer, src Source) error {
	root, err := src.Decode()
	if err != nil {
		return err
	}
	if root == nil {
		Printer.Fprintln(w, Printer.Sprintf(i18n.MsgNoConfig))
		return nil
	}
	printOutline(w, root, "", 0)
	return nil
}

func printOutline(w io.Writer, n *tree.Node, label string, depth int) {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(label)
	if label != "" {
		b.WriteString(" ")
	}
	b.WriteString(StyleKind.Render(n.Kind.String()))
	b.WriteString(" ")
	b.WriteString(styleValue(n))
	fmt.Fprintln(w, b.String())

	for i, c := range n.Children {
		childLabel := StyleKey.Render(c.Key)
		if n.Kind == tree.KindArray {
			childLabel = StyleIndex.Render(fmt.Sprintf("[%d]", i))
		}
		printOutline(w, c, childLabel, depth+1)
	}
}

func styleValue(n *tree.Node) string {
	v := n.ValueString()
	switch n.Kind {
	case tree.KindString:
		return StyleString.Render(v)
	case tree.KindArray, tree.KindObject:
		return StyleContainer.Render(v)
	case tree.KindBool:
		return v
	}
	return StyleNumber.Render(v)
}
