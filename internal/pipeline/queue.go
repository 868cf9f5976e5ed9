package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docsumm/internal/parser"
)

// QueueConfig sizes the async job queue.
type QueueConfig struct {
	Workers  int
	Capacity int
	JobTTL   time.Duration
}

// Queue accepts document jobs over the API surface and drains them through
// the orchestrator with a fixed worker pool.
type Queue struct {
	orch  *Orchestrator
	jobs  *JobStore
	queue chan *Job
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQueue(orch *Orchestrator, cfg QueueConfig, log *slog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	q := &Queue{
		orch:  orch,
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.Capacity),
		log:   log,
	}
	q.start(cfg.Workers, cfg.JobTTL)
	return q
}

func (q *Queue) start(workers int, ttl time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for range workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-q.queue:
					if !ok {
						return
					}
					q.process(ctx, job)
				}
			}
		}()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				q.jobs.Cleanup()
			}
		}
	}()
}

// Stop drains the workers and shuts the queue down.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	close(q.queue)
	q.wg.Wait()
}

// Submit registers a job and enqueues it for processing.
func (q *Queue) Submit(job *Job) error {
	q.jobs.Put(job)
	select {
	case q.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed)
		job.AddError("queue full")
		return fmt.Errorf("job queue is full (%d)", cap(q.queue))
	}
}

// Get returns a job by ID, or nil.
func (q *Queue) Get(id string) *Job {
	return q.jobs.Get(id)
}

// Depth returns the current queue depth.
func (q *Queue) Depth() int {
	return len(q.queue)
}

// process parses the upload and runs the full pipeline for one job.
func (q *Queue) process(ctx context.Context, job *Job) {
	log := q.log.With("job_id", job.ID, "filename", job.Filename)

	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed)
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed)
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	hooks := &Hooks{
		OnStage: func(stage Stage) {
			if st, ok := stageStatus[stage]; ok {
				job.SetStatus(st)
			}
		},
		OnChunk: job.SetChunkProgress,
	}

	result, err := q.orch.ProcessDocument(ctx, doc, hooks)
	if err != nil {
		log.Error("pipeline failed", "error", err)
		job.AddError(err.Error())
		if se, ok := asStageError(err); ok {
			job.SetSession("", se.ArtifactDir)
		}
		job.SetStatus(StatusFailed)
		return
	}

	job.SetSession(result.Session.ID, result.Session.Dir)
	job.SetReport(result.Markdown)
	job.SetStatus(StatusCompleted)
	log.Info("job completed",
		"session_id", result.Session.ID,
		"chunks", result.ChunkCount,
		"duration", result.Duration.String(),
	)
}

// stageStatus maps pipeline stages to the job status shown while the next
// stage's work is in flight.
var stageStatus = map[Stage]JobStatus{
	StageLoaded:     StatusChunking,
	StageChunked:    StatusSummarizing,
	StageSummarized: StatusMerging,
	StageMerged:     StatusAnalyzing,
	StageAnalyzed:   StatusReporting,
	StageReported:   StatusCompleted,
	StageFailed:     StatusFailed,
}

func asStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
