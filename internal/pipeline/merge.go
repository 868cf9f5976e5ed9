package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/session"
	"github.com/panjf2000/ants/v2"
)

// merger folds many partial summaries into one by repeated batch reduction.
// Level k is built by merging consecutive batches of level k−1; the loop ends
// when a single summary remains. Batches within one level have no data
// dependency on each other and may run on a worker pool, but results are
// always collected in original batch order so artifact numbering and
// provenance stay deterministic.
type merger struct {
	svc         llm.Service
	store       *session.Store
	log         *slog.Logger
	retry       RetryPolicy
	batchSize   int
	parallelism int
}

func (m *merger) mergeToOne(ctx context.Context, partials []*llm.Summary) (*llm.Summary, error) {
	if len(partials) == 0 {
		return nil, errors.New("no partial results to merge")
	}
	if len(partials) > 1 && m.batchSize < 2 {
		return nil, fmt.Errorf("merge batch size must be at least 2 to make progress, got %d", m.batchSize)
	}

	current := partials
	level := 0

	for len(current) > 1 {
		level++
		batches := partition(current, m.batchSize)
		m.log.Info("merging level", "level", level, "inputs", len(current), "batches", len(batches))

		next := make([]*llm.Summary, len(batches))
		errs := make([]error, len(batches))

		if m.parallelism > 1 && len(batches) > 1 {
			pool, err := ants.NewPool(m.parallelism)
			if err != nil {
				return nil, fmt.Errorf("create merge worker pool: %w", err)
			}
			var wg sync.WaitGroup
			for i, batch := range batches {
				wg.Add(1)
				submitErr := pool.Submit(func() {
					defer wg.Done()
					next[i], errs[i] = m.mergeBatch(ctx, level, i, batch)
				})
				if submitErr != nil {
					errs[i] = submitErr
					wg.Done()
				}
			}
			wg.Wait()
			pool.Release()
		} else {
			for i, batch := range batches {
				next[i], errs[i] = m.mergeBatch(ctx, level, i, batch)
			}
		}

		for i, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("merge level %d batch %d: %w", level, i, err)
			}
		}
		current = next
	}

	return current[0], nil
}

// mergeBatch runs one merge call and persists its artifact. A lone leftover
// batch still goes through the service, collapsing it to itself, so every
// level is validated and recorded uniformly.
func (m *merger) mergeBatch(ctx context.Context, level, index int, batch []*llm.Summary) (*llm.Summary, error) {
	op := fmt.Sprintf("merge level %d batch %d", level, index)
	merged, err := retryCall(ctx, m.log, m.retry, op, func(ctx context.Context) (*llm.Summary, error) {
		return m.svc.Merge(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	merged.SourceChunks = unionProvenance(batch)
	if err := m.store.Save(session.MergeLevelKind(level), index, merged); err != nil {
		return nil, err
	}

	m.log.Info("batch merged",
		"level", level,
		"batch", index,
		"inputs", len(batch),
		"entities", len(merged.Entities),
		"facts", len(merged.KeyFacts),
	)
	return merged, nil
}

// partition splits items into consecutive groups of up to size elements.
// The last group may be smaller but is never empty or dropped.
func partition(items []*llm.Summary, size int) [][]*llm.Summary {
	if size < 1 {
		size = 1
	}
	var groups [][]*llm.Summary
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end])
	}
	return groups
}

// unionProvenance merges the source chunk indices of a batch, sorted and
// deduplicated.
func unionProvenance(batch []*llm.Summary) []int {
	var union []int
	for _, s := range batch {
		union = append(union, s.SourceChunks...)
	}
	slices.Sort(union)
	return slices.Compact(union)
}
