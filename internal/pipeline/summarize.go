package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docsumm/internal/document"
	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/session"
)

// summarizer runs the sequential summarization fold: each chunk is
// transformed with the previous chunk's summary as rolling context, so later
// chunks can resolve references established earlier. This chain is the one
// genuinely order-dependent part of the pipeline and must not be
// parallelized.
type summarizer struct {
	svc   llm.Service
	store *session.Store
	log   *slog.Logger
	retry RetryPolicy
}

// run returns one summary per chunk, in chunk order. Every summary is
// persisted before the next call starts, so a terminal failure at step i
// leaves steps 0..i-1 on disk.
func (s *summarizer) run(ctx context.Context, chunks []document.Chunk) ([]*llm.Summary, error) {
	results := make([]*llm.Summary, 0, len(chunks))
	var prev *llm.Summary

	for _, chunk := range chunks {
		s.log.Info("summarizing chunk",
			"chunk", chunk.Index,
			"of", len(chunks),
			"tokens", chunk.Span(),
		)

		op := fmt.Sprintf("summarize chunk %d", chunk.Index)
		summary, err := retryCall(ctx, s.log, s.retry, op, func(ctx context.Context) (*llm.Summary, error) {
			return s.svc.Summarize(ctx, prev, chunk.Text)
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}

		summary.SourceChunks = []int{chunk.Index}
		if err := s.store.Save(session.KindChunk, chunk.Index, summary); err != nil {
			return nil, err
		}

		s.log.Info("chunk summarized",
			"chunk", chunk.Index,
			"entities", len(summary.Entities),
			"facts", len(summary.KeyFacts),
			"themes", len(summary.Themes),
		)

		results = append(results, summary)
		prev = summary
	}

	return results, nil
}
