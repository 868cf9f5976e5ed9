package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_FlattensWithHeadings(t *testing.T) {
	input := `# Annual Report

Intro paragraph.

## Revenue

Revenue grew by 10%.

- item one
- item two

## Outlook

Steady.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Annual Report" {
		t.Errorf("expected title from first heading, got %q", doc.Title)
	}
	for _, want := range []string{"Annual Report", "Intro paragraph.", "Revenue", "Revenue grew by 10%.", "item one", "Outlook", "Steady."} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("flattened text missing %q:\n%s", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "##") {
		t.Errorf("heading markers should not survive flattening:\n%s", doc.Text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader("Just a paragraph.\n"), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "plain" {
		t.Errorf("expected filename title fallback, got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Just a paragraph.") {
		t.Errorf("text missing content: %q", doc.Text)
	}
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "Intro.\n\n```\nfunc main() {}\n```\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "code.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Text, "func main() {}") {
		t.Errorf("code block content should be kept: %q", doc.Text)
	}
}

func TestHTMLParser_FlattensBody(t *testing.T) {
	input := `<html><head><title>Q4 Results</title><style>.x{}</style></head>
<body>
<nav>skip this</nav>
<h1>Results</h1>
<p>Revenue was up.</p>
<ul><li>First point</li></ul>
<script>ignore()</script>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "q4.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Q4 Results" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	for _, want := range []string{"Results", "Revenue was up.", "First point"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("text missing %q:\n%s", want, doc.Text)
		}
	}
	for _, dontWant := range []string{"skip this", "ignore()"} {
		if strings.Contains(doc.Text, dontWant) {
			t.Errorf("text should not contain %q:\n%s", dontWant, doc.Text)
		}
	}
}

func TestCSVParser_HeadersAndRows(t *testing.T) {
	input := "name,age\nalice,30\nbob,25\n"
	doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Columns: name, age", "name: alice, age: 30", "name: bob, age: 25"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("text missing %q:\n%s", want, doc.Text)
		}
	}
}

func TestCSVParser_Empty(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}
