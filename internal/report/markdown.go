package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docsumm/internal/document"
	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/session"
)

const (
	maxEntitiesShown = 20
	maxFactsShown    = 15
)

// Render produces the human-readable markdown rendering of an analysis
// report. This is the terminal artifact of a run.
func Render(r *llm.AnalysisReport, sess *session.Session, doc *document.Document, generated time.Time) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Document Analysis Report\n\n")
	if doc.Title != "" && doc.Title != doc.Name {
		fmt.Fprintf(&b, "**Document:** %s (%s)\n\n", doc.Title, doc.Name)
	} else {
		fmt.Fprintf(&b, "**Document:** %s\n\n", doc.Name)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Session ID:** %s\n\n", sess.ID)
	fmt.Fprintf(&b, "---\n\n")

	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", r.ExecutiveSummary)

	fmt.Fprintf(&b, "## Main Conclusions\n\n")
	writeNumbered(&b, r.MainConclusions)

	fmt.Fprintf(&b, "## Key Insights\n\n")
	writeNumbered(&b, r.KeyInsights)

	fmt.Fprintf(&b, "## Key Entities\n\n")
	for _, e := range head(r.EntitiesSummary, maxEntitiesShown) {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", e.Name, e.Type, e.Description)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Critical Facts\n\n")
	for _, f := range head(r.CriticalFacts, maxFactsShown) {
		fmt.Fprintf(&b, "- [%s] **%s**: %s\n", f.Importance, f.Category, f.Fact)
	}
	b.WriteString("\n")

	if len(r.KnowledgeGaps) > 0 {
		fmt.Fprintf(&b, "## Knowledge Gaps & Uncertainties\n\n")
		for _, g := range r.KnowledgeGaps {
			fmt.Fprintf(&b, "- %s\n", g.Statement)
			if g.Reason != "" {
				fmt.Fprintf(&b, "  - *Reason:* %s\n", g.Reason)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&b, "## Recommendations\n\n")
		writeNumbered(&b, r.Recommendations)
	}

	fmt.Fprintf(&b, "## Analysis Metadata\n\n")
	fmt.Fprintf(&b, "- **Chunks Processed:** %d\n", r.Metadata.TotalChunksProcessed)
	fmt.Fprintf(&b, "- **Model Used:** %s\n", r.Metadata.ModelUsed)
	fmt.Fprintf(&b, "- **Confidence Level:** %s\n", r.ConfidenceLevel)
	fmt.Fprintf(&b, "- **Estimated Word Count:** %d\n", r.Metadata.WordCountEstimate)
	fmt.Fprintf(&b, "\n---\n\n*Generated by docsumm*\n")

	return []byte(b.String())
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
