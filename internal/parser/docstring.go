package parser

import "strings"

// DocString returns the doc comment immediately associated with node,
// dispatching on the node's language docStyle. Returns "" when none is
// found; callers treat that as "no docstring", not an error.
func DocString(t *Tree, node *Node) string {
	if t == nil || node == nil || node.lang == nil {
		return ""
	}
	switch node.lang.docStyle {
	case docStylePythonExpr:
		return pythonExprDoc(node)
	case docStyleJSDoc:
		return precedingBlockComment(node, "/**", "*/")
	case docStyleBlockOnly:
		return precedingBlockComment(node, "/*", "*/")
	default: // docStyleLineBlock
		return precedingLineBlock(node)
	}
}

// pythonExprDoc returns the text of the first string-expression statement
// in node's body, if its body starts with one.
func pythonExprDoc(node *Node) string {
	body := node.ChildByField("body")
	if body == nil {
		return ""
	}
	children := body.Children()
	if len(children) == 0 {
		return ""
	}
	first := children[0]
	if first.Kind() != "expression_statement" {
		return ""
	}
	exprChildren := first.Children()
	if len(exprChildren) == 0 || exprChildren[0].Kind() != "string" {
		return ""
	}
	return unquotePythonString(exprChildren[0].Text())
}

func unquotePythonString(s string) string {
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

// precedingBlockComment returns the text of node's immediately preceding
// sibling comment node if it looks like a block comment bounded by open/
// close markers (JSDoc's /** */ or C-style /* */).
func precedingBlockComment(node *Node, open, close string) string {
	prev := precedingSibling(node)
	if prev == nil || !node.lang.commentNodeTypes[prev.Kind()] {
		return ""
	}
	text := prev.Text()
	if !strings.HasPrefix(text, open) {
		return ""
	}
	text = strings.TrimPrefix(text, open)
	text = strings.TrimSuffix(text, close)
	return cleanBlockLines(text)
}

// precedingLineBlock returns the contiguous run of line (or single block)
// comments directly above node, joined with newlines, for languages whose
// doc convention is a run of `//` / `#` lines rather than a delimited block.
func precedingLineBlock(node *Node) string {
	var lines []string
	cur := node
	for {
		prev := precedingSibling(cur)
		if prev == nil || !node.lang.commentNodeTypes[prev.Kind()] {
			break
		}
		// Require adjacency: no blank line between the comment and what
		// follows it (including the previously collected comment).
		if cur.StartLine()-prev.EndLine() > 1 {
			break
		}
		lines = append([]string{cleanLineComment(prev.Text())}, lines...)
		cur = prev
	}
	return strings.Join(lines, "\n")
}

func precedingSibling(n *Node) *Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	children := parent.Children()
	for i, c := range children {
		if c.Raw() == n.Raw() && i > 0 {
			return children[i-1]
		}
	}
	return nil
}

func cleanLineComment(s string) string {
	s = strings.TrimPrefix(s, "///")
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "#")
	return strings.TrimSpace(s)
}

func cleanBlockLines(s string) string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		out = append(out, strings.TrimSpace(l))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
