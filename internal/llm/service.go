package llm

import "context"

// Entity is a named thing surfaced by summarization.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Fact is a single extracted statement with its weight.
type Fact struct {
	Fact       string `json:"fact"`
	Category   string `json:"category,omitempty"`
	Importance string `json:"importance,omitempty"`
}

// KnowledgeGap records something the document left unresolved.
type KnowledgeGap struct {
	Statement string `json:"statement"`
	Reason    string `json:"reason,omitempty"`
}

// Summary is the structured output of one summarize or merge call. The
// pipeline treats it as an opaque mergeable value: it produces one from
// (context, chunk), merges several into one, and attaches provenance, but
// never interprets the content fields.
type Summary struct {
	Summary       string   `json:"summary"`
	Entities      []Entity `json:"entities"`
	KeyFacts      []Fact   `json:"key_facts"`
	Themes        []string `json:"themes"`
	OpenQuestions []string `json:"open_questions,omitempty"`

	// SourceChunks lists the chunk indices that contributed, directly or
	// through earlier merges. Maintained by the pipeline, not the service.
	SourceChunks []int `json:"source_chunks,omitempty"`
}

// ReportMetadata carries run statistics into the final report.
type ReportMetadata struct {
	TotalChunksProcessed int    `json:"total_chunks_processed"`
	ModelUsed            string `json:"model_used"`
	WordCountEstimate    int    `json:"word_count_estimate"`
}

// AnalysisReport is the final analysis produced from the consolidated summary.
type AnalysisReport struct {
	ExecutiveSummary string         `json:"executive_summary"`
	MainConclusions  []string       `json:"main_conclusions"`
	KeyInsights      []string       `json:"key_insights"`
	EntitiesSummary  []Entity       `json:"entities_summary"`
	CriticalFacts    []Fact         `json:"critical_facts"`
	KnowledgeGaps    []KnowledgeGap `json:"knowledge_gaps,omitempty"`
	Recommendations  []string       `json:"recommendations,omitempty"`
	ConfidenceLevel  string         `json:"confidence_level"`
	Metadata         ReportMetadata `json:"metadata"`
}

// Metadata is run metadata handed to the final analysis call.
type Metadata map[string]any

// Service is the transformation backend the pipeline drives. Implementations
// perform the three model calls; the pipeline owns chunking, ordering, retry
// and persistence around them.
type Service interface {
	// Summarize produces a summary of chunkText. prev is the summary of the
	// preceding chunk, or nil for the first chunk.
	Summarize(ctx context.Context, prev *Summary, chunkText string) (*Summary, error)

	// Merge consolidates a batch of summaries into one.
	Merge(ctx context.Context, batch []*Summary) (*Summary, error)

	// Analyze turns the single consolidated summary plus run metadata into
	// the final report.
	Analyze(ctx context.Context, final *Summary, meta Metadata) (*AnalysisReport, error)
}
