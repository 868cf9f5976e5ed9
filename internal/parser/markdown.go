package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docsumm/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	title := titleFromFilename(filename)
	titleFromHeading := false

	var b textBuilder
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := string(node.Text(src))
			// The first top-level heading doubles as the document title.
			if node.Level == 1 && !titleFromHeading {
				title = heading
				titleFromHeading = true
			}
			b.addHeading(heading)
		default:
			b.addParagraph(blockText(n, src))
		}
	}

	return &document.Document{
		Name:  filename,
		Title: title,
		Text:  b.String(),
	}, nil
}

// blockText gets the text content of a goldmark AST node, including nested
// inlines and raw block lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	// Raw block lines only when there are no inline children, otherwise the
	// same source segments would be written twice.
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
