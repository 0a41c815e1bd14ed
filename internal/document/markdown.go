package document

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// loadMarkdown parses the file and flattens the AST back into plain
// text. Pipe tables and code blocks keep their raw lines so the table
// detector still sees them; heading markers and list bullets are
// normalized away.
func (l *Loader) loadMarkdown(path string, data []byte) ([]RawDocument, error) {
	doc := l.md.Parser().Parse(text.NewReader(data))

	title := markdownTitle(doc, data)
	if title == "" {
		title = defaultTitle(path)
	}

	return []RawDocument{{
		Text:  renderPlain(doc, data),
		Title: title,
		Meta:  baseMeta(path),
	}}, nil
}

// markdownTitle returns the document's first heading, if any.
func markdownTitle(doc ast.Node, source []byte) string {
	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(6),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

// renderPlain walks the top-level blocks and joins them with blank
// lines, which is what the chunker treats as paragraph boundaries.
func renderPlain(doc ast.Node, source []byte) string {
	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if b := renderBlock(node, source); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderBlock(node ast.Node, source []byte) string {
	switch node.Kind() {
	case ast.KindList:
		return renderList(node.(*ast.List), source)
	case ast.KindBlockquote:
		var parts []string
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if b := renderBlock(child, source); b != "" {
				parts = append(parts, b)
			}
		}
		return strings.Join(parts, "\n")
	case ast.KindThematicBreak:
		return ""
	default:
		// Headings, paragraphs, and code blocks all carry their raw
		// lines; paragraphs holding pipe tables stay verbatim.
		return rawLines(node, source)
	}
}

// renderList flattens list items to "- " bullets. Nested lists come out
// at the same level; indentation would look like an aligned table to
// the chunker.
func renderList(list *ast.List, source []byte) string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if child.Kind() == ast.KindList {
				if b := renderList(child.(*ast.List), source); b != "" {
					items = append(items, strings.Split(b, "\n")...)
				}
				continue
			}
			if b := rawLines(child, source); b != "" {
				parts = append(parts, b)
			}
		}
		if len(parts) > 0 {
			items = append(items, "- "+strings.Join(parts, " "))
		}
	}
	return strings.Join(items, "\n")
}

// rawLines reassembles a block node's source lines.
func rawLines(node ast.Node, source []byte) string {
	lines := node.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(source)), "\n"))
	}
	return strings.Join(parts, "\n")
}
