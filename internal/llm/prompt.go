package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const summarySchemaHint = `Return a single JSON object with these fields:

- "summary": cohesive prose summary of the content (string)
- "entities": list of {"name", "type", "description"} objects
- "key_facts": list of {"fact", "category", "importance"} objects
- "themes": list of theme strings
- "open_questions": list of unresolved questions raised by the text

Respond with ONLY the JSON object, no other text.`

const summarizePrompt = `You are summarizing one section of a long document. Earlier sections have already been summarized; their rolling summary is given below so you can resolve references and continuations.

Fold the new section into an updated summary. Carry forward still-relevant entities, facts and themes from the rolling summary; drop what the new section supersedes.

` + summarySchemaHint

const mergePrompt = `You are consolidating several partial summaries of one document into a single summary. Deduplicate entities and facts, reconcile conflicts in favor of the more specific statement, and keep the union of themes and open questions.

` + summarySchemaHint

const analyzePrompt = `You are writing the final analysis of a document from its consolidated summary and processing metadata.

Return a single JSON object with these fields:

- "executive_summary": 2-3 paragraph overview (string)
- "main_conclusions": list of conclusion strings
- "key_insights": list of insight strings
- "entities_summary": list of {"name", "type", "description"} objects
- "critical_facts": list of {"fact", "category", "importance"} objects
- "knowledge_gaps": list of {"statement", "reason"} objects
- "recommendations": list of recommendation strings
- "confidence_level": "high", "medium" or "low"
- "metadata": {"total_chunks_processed", "model_used", "word_count_estimate"}

Respond with ONLY the JSON object, no other text.`

// BuildSummarizePrompt assembles the prompt for one chunk, with the previous
// summary rendered compactly as rolling context.
func BuildSummarizePrompt(prev *Summary, chunkText string) string {
	var sb strings.Builder
	sb.WriteString(summarizePrompt)
	sb.WriteString("\n\n--- ROLLING SUMMARY ---\n")
	sb.WriteString(FormatContext(prev))
	sb.WriteString("\n--- NEW SECTION ---\n")
	sb.WriteString(chunkText)
	return sb.String()
}

// FormatContext renders a summary as the compact context block passed into
// the next summarize call. A nil summary marks the first chunk.
func FormatContext(prev *Summary) string {
	if prev == nil {
		return "No previous context. This is the first section."
	}

	names := make([]string, 0, len(prev.Entities))
	for _, e := range prev.Entities[:min(10, len(prev.Entities))] {
		names = append(names, fmt.Sprintf("%s (%s)", e.Name, e.Type))
	}
	facts := make([]string, 0, len(prev.KeyFacts))
	for _, f := range prev.KeyFacts[:min(10, len(prev.KeyFacts))] {
		facts = append(facts, f.Fact)
	}

	var sb strings.Builder
	sb.WriteString("SUMMARY: ")
	sb.WriteString(prev.Summary)
	sb.WriteString("\nKEY ENTITIES: ")
	sb.WriteString(strings.Join(names, "; "))
	sb.WriteString("\nKEY FACTS: ")
	sb.WriteString(strings.Join(facts, "; "))
	sb.WriteString("\nTHEMES: ")
	sb.WriteString(strings.Join(prev.Themes, ", "))
	return sb.String()
}

// BuildMergePrompt assembles the prompt for merging a batch of summaries.
func BuildMergePrompt(batch []*Summary) (string, error) {
	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal merge batch: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(mergePrompt)
	sb.WriteString("\n\n--- PARTIAL SUMMARIES ---\n")
	sb.Write(payload)
	return sb.String(), nil
}

// BuildAnalyzePrompt assembles the final-analysis prompt.
func BuildAnalyzePrompt(final *Summary, meta Metadata) (string, error) {
	summaryJSON, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal final summary: %w", err)
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(analyzePrompt)
	sb.WriteString("\n\n--- CONSOLIDATED SUMMARY ---\n")
	sb.Write(summaryJSON)
	sb.WriteString("\n--- PROCESSING METADATA ---\n")
	sb.Write(metaJSON)
	return sb.String(), nil
}
