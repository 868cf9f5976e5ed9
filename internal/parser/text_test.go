package parser

import (
	"strings"
	"testing"
)

func TestTextParser_Paragraphs(t *testing.T) {
	input := "First paragraph line one.\nLine two.\n\nSecond paragraph.\n\n\nThird paragraph.\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Name != "notes.txt" {
		t.Errorf("expected name notes.txt, got %q", doc.Name)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title from filename, got %q", doc.Title)
	}

	paras := strings.Split(doc.Text, "\n\n")
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %q", len(paras), doc.Text)
	}
	if !strings.Contains(paras[0], "Line two.") {
		t.Errorf("first paragraph should keep its internal line break, got %q", paras[0])
	}
	if paras[1] != "Second paragraph." {
		t.Errorf("unexpected second paragraph: %q", paras[1])
	}
}

func TestTextParser_Empty(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestForFile(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"doc.txt", false},
		{"doc.md", false},
		{"doc.markdown", false},
		{"doc.csv", false},
		{"doc.html", false},
		{"doc.HTM", false},
		{"doc.pdf", false},
		{"doc.docx", false},
		{"doc.xlsx", true},
		{"doc", true},
	}
	for _, tc := range cases {
		_, err := ForFile(tc.filename)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.filename)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.filename, err)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("report.PDF") {
		t.Error("extension check should be case-insensitive")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("zip should not be supported")
	}
}
