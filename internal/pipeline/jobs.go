package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a summarization job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusChunking    JobStatus = "chunking"
	StatusSummarizing JobStatus = "summarizing"
	StatusMerging     JobStatus = "merging"
	StatusAnalyzing   JobStatus = "analyzing"
	StatusReporting   JobStatus = "reporting"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Progress tracks how far a job has advanced.
type Progress struct {
	TotalChunks      int      `json:"total_chunks"`
	ChunksSummarized int      `json:"chunks_summarized"`
	Errors           []string `json:"errors"`
}

// Job tracks the state of one queued document summarization.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`

	Status   JobStatus `json:"status"`
	Progress Progress  `json:"progress"`

	SessionID   string `json:"session_id,omitempty"`
	ArtifactDir string `json:"artifact_dir,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	markdown []byte
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// SetChunkProgress records summarization progress.
func (j *Job) SetChunkProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = total
	j.Progress.ChunksSummarized = done
	j.UpdatedAt = time.Now()
}

// AddError records an error message.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, msg)
	j.UpdatedAt = time.Now()
}

// SetSession records where the run's artifacts live.
func (j *Job) SetSession(sessionID, dir string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.SessionID = sessionID
	j.ArtifactDir = dir
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetReport stores the rendered report for later retrieval; the raw upload
// is dropped at the same time since processing is over.
func (j *Job) SetReport(markdown []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.markdown = markdown
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Report returns the rendered report, or nil if the job has not completed.
func (j *Job) Report() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.markdown
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Status      JobStatus `json:"status"`
	Progress    Progress  `json:"progress"`
	SessionID   string    `json:"session_id,omitempty"`
	ArtifactDir string    `json:"artifact_dir,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		Title:    j.Title,
		Status:   j.Status,
		Progress: Progress{
			TotalChunks:      j.Progress.TotalChunks,
			ChunksSummarized: j.Progress.ChunksSummarized,
			Errors:           errs,
		},
		SessionID:   j.SessionID,
		ArtifactDir: j.ArtifactDir,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}
