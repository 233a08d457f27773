// Package sanitize cleans evidence snippets before gating and
// classification: retrieval-stage snippets frequently carry markup.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Snippet strips HTML markup from a snippet, skipping script and style
// subtrees, and collapses whitespace. Plain text passes through unchanged
// apart from whitespace normalization.
func Snippet(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsRune(raw, '<') {
		return collapseWhitespace(raw)
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return collapseWhitespace(sb.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
