package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/docsumm/internal/chunker"
	"github.com/dgallion1/docsumm/internal/document"
	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/report"
	"github.com/dgallion1/docsumm/internal/session"
	"github.com/dgallion1/docsumm/internal/token"
)

// Stage is a pipeline state. Transitions run strictly forward; any terminal
// failure moves to StageFailed and halts, leaving artifacts written so far
// intact for diagnosis.
type Stage string

const (
	StageLoaded     Stage = "loaded"
	StageChunked    Stage = "chunked"
	StageSummarized Stage = "summarized"
	StageMerged     Stage = "merged"
	StageAnalyzed   Stage = "analyzed"
	StageReported   Stage = "reported"
	StageFailed     Stage = "failed"
)

// StageError reports which stage a run died in and where its partial
// artifacts live.
type StageError struct {
	Stage       Stage
	ArtifactDir string
	Err         error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %s (artifacts in %s): %s", e.Stage, e.ArtifactDir, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures one Orchestrator.
type Options struct {
	DataDir          string
	Chunking         chunker.Config
	MergeBatchSize   int
	MergeParallelism int // Workers per merge level; <=1 runs batches sequentially.
	Retry            RetryPolicy
}

// Hooks observe pipeline progress. All fields optional.
type Hooks struct {
	OnStage func(Stage)
	OnChunk func(done, total int)
}

// Result is the outcome of a completed run.
type Result struct {
	Session    *session.Session
	Report     *llm.AnalysisReport
	Markdown   []byte
	ChunkCount int
	Duration   time.Duration
}

// Orchestrator sequences chunking, iterative summarization, hierarchical
// merging and final analysis, persisting every intermediate artifact under a
// per-run session.
type Orchestrator struct {
	svc   llm.Service
	codec token.Codec
	opts  Options
	log   *slog.Logger
}

func NewOrchestrator(svc llm.Service, codec token.Codec, opts Options, log *slog.Logger) *Orchestrator {
	if opts.MergeBatchSize <= 0 {
		opts.MergeBatchSize = 4
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	return &Orchestrator{
		svc:   svc,
		codec: token.Default(codec),
		opts:  opts,
		log:   log,
	}
}

// ProcessDocument runs the full pipeline for one document. Configuration
// errors are rejected before any session is created or any external call is
// made. After that, every stage's output is durable before the next stage
// starts, so a failed or cancelled run can be audited from disk.
func (o *Orchestrator) ProcessDocument(ctx context.Context, doc *document.Document, hooks *Hooks) (*Result, error) {
	start := time.Now()

	if err := o.opts.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk configuration: %w", err)
	}
	if o.opts.MergeBatchSize < 2 {
		return nil, fmt.Errorf("merge batch size must be at least 2, got %d", o.opts.MergeBatchSize)
	}

	sess, err := session.New(o.opts.DataDir)
	if err != nil {
		return nil, err
	}
	log, logCloser, err := sess.OpenLog(o.log)
	if err != nil {
		return nil, err
	}
	defer logCloser.Close()
	store := session.NewStore(sess)

	fail := func(stage Stage, err error) (*Result, error) {
		o.notify(hooks, StageFailed)
		log.Error("pipeline failed", "stage", string(stage), "error", err, "artifacts", sess.Dir)
		return nil, &StageError{Stage: stage, ArtifactDir: sess.Dir, Err: err}
	}

	// Load.
	doc.Tokens = o.codec.Count(doc.Text)
	o.notify(hooks, StageLoaded)
	log.Info("document loaded", "name", doc.Name, "tokens", doc.Tokens)

	// Chunk.
	chunks, err := chunker.Chunk(doc, o.codec, o.opts.Chunking)
	if err != nil {
		return fail(StageChunked, err)
	}
	if len(chunks) == 0 {
		return fail(StageChunked, fmt.Errorf("document %q has no extractable content", doc.Name))
	}
	if err := store.Save("chunks", 0, chunks); err != nil {
		return fail(StageChunked, err)
	}
	o.notify(hooks, StageChunked)
	if hooks != nil && hooks.OnChunk != nil {
		hooks.OnChunk(0, len(chunks))
	}
	log.Info("document chunked",
		"chunks", len(chunks),
		"size", o.opts.Chunking.ChunkSize,
		"overlap", o.opts.Chunking.ChunkOverlap,
	)

	// Summarize sequentially, carrying rolling context.
	summ := &summarizer{svc: o.svc, store: store, log: log, retry: o.opts.Retry}
	partials, err := summ.run(ctx, chunks)
	if err != nil {
		return fail(StageSummarized, err)
	}
	o.notify(hooks, StageSummarized)
	if hooks != nil && hooks.OnChunk != nil {
		hooks.OnChunk(len(chunks), len(chunks))
	}

	// Merge hierarchically.
	mrg := &merger{
		svc:         o.svc,
		store:       store,
		log:         log,
		retry:       o.opts.Retry,
		batchSize:   o.opts.MergeBatchSize,
		parallelism: o.opts.MergeParallelism,
	}
	consolidated, err := mrg.mergeToOne(ctx, partials)
	if err != nil {
		return fail(StageMerged, err)
	}
	o.notify(hooks, StageMerged)

	// Final analysis.
	meta := llm.Metadata{
		"document_name":  doc.Name,
		"document_title": doc.Title,
		"total_chunks":   len(chunks),
		"token_count":    doc.Tokens,
		"chunk_size":     o.opts.Chunking.ChunkSize,
		"chunk_overlap":  o.opts.Chunking.ChunkOverlap,
		"session_id":     sess.ID,
	}
	analysis, err := retryCall(ctx, log, o.opts.Retry, "analyze", func(ctx context.Context) (*llm.AnalysisReport, error) {
		return o.svc.Analyze(ctx, consolidated, meta)
	})
	if err != nil {
		return fail(StageAnalyzed, err)
	}
	if err := store.Save(session.KindAnalysis, 0, analysis); err != nil {
		return fail(StageAnalyzed, err)
	}
	o.notify(hooks, StageAnalyzed)
	log.Info("analysis complete",
		"conclusions", len(analysis.MainConclusions),
		"insights", len(analysis.KeyInsights),
	)

	// Render the human-readable report.
	markdown := report.Render(analysis, sess, doc, time.Now())
	if err := store.SaveRendered(markdown); err != nil {
		return fail(StageReported, err)
	}
	o.notify(hooks, StageReported)
	log.Info("pipeline complete", "duration", time.Since(start).String(), "artifacts", sess.Dir)

	return &Result{
		Session:    sess,
		Report:     analysis,
		Markdown:   markdown,
		ChunkCount: len(chunks),
		Duration:   time.Since(start),
	}, nil
}

func (o *Orchestrator) notify(hooks *Hooks, stage Stage) {
	if hooks != nil && hooks.OnStage != nil {
		hooks.OnStage(stage)
	}
}

// WriteReport copies the rendered report to path, for callers that want it
// outside the session directory.
func WriteReport(path string, markdown []byte) error {
	return os.WriteFile(path, markdown, 0o644)
}
