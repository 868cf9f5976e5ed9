package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docsumm/internal/parser"
	"github.com/dgallion1/docsumm/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
)

// handleSummarize accepts a multipart document upload and queues it for
// summarization. Responds 202 with a job ID to poll.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %s", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		jsonError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusBadRequest, "empty file")
		return
	}

	job := &pipeline.Job{
		ID:        ulid.Make().String(),
		Filename:  filename,
		Title:     r.FormValue("title"),
		Status:    pipeline.StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData(data)

	if err := s.queue.Submit(job); err != nil {
		jsonError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.log.Info("job queued", "job_id", job.ID, "filename", filename, "bytes", len(data))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"job_id":     job.ID,
		"status":     string(pipeline.StatusQueued),
		"status_url": "/api/jobs/" + job.ID,
		"report_url": "/api/jobs/" + job.ID + "/report",
	})
}

// handleJobStatus returns the current state of a job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.queue.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, http.StatusNotFound, "job not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleJobReport returns the rendered markdown report for a completed job.
func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job := s.queue.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, http.StatusNotFound, "job not found")
		return
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		jsonError(w, http.StatusConflict, "job failed; no report available")
		return
	default:
		jsonError(w, http.StatusConflict,
			fmt.Sprintf("job not finished (status: %s)", snap.Status))
		return
	}
	report := job.Report()
	if report == nil {
		jsonError(w, http.StatusNotFound, "report not found")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(report)
}

// handleLLMStats reports model call latency percentiles.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	snap := s.client.Stats().Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model":       s.client.Model(),
		"queue_depth": s.queue.Depth(),
		"latency":     snap,
	})
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename strips path components and rejects hidden files.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}
