package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docsumm/internal/document"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b textBuilder
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			b.addParagraph(current.String())
			current.Reset()
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	b.addParagraph(current.String())

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &document.Document{
		Name:  filename,
		Title: titleFromFilename(filename),
		Text:  b.String(),
	}, nil
}
