package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session identifies one end-to-end processing run and owns its artifact
// directory. Created once at pipeline start, read-only afterwards, never
// reused across runs.
type Session struct {
	ID        string
	CreatedAt time.Time
	Dir       string
}

// New creates a session directory under baseDir.
func New(baseDir string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        ulid.Make().String(),
		CreatedAt: now,
	}
	s.Dir = filepath.Join(baseDir, "sessions", s.ID)
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, &PersistenceError{Path: s.Dir, Err: err}
	}
	return s, nil
}

// OpenLog opens the per-session log file and returns a logger writing to it.
// When base is non-nil every record is also forwarded to base's handler, so
// the run shows up in the process log and in the session's own audit trail.
// The returned closer must be closed when the run ends.
func (s *Session) OpenLog(base *slog.Logger) (*slog.Logger, io.Closer, error) {
	path := filepath.Join(s.Dir, "session.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, &PersistenceError{Path: path, Err: err}
	}
	var h slog.Handler = slog.NewTextHandler(f, nil)
	if base != nil {
		h = teeHandler{h, base.Handler()}
	}
	log := slog.New(h).With("session_id", s.ID)
	return log, f, nil
}

// teeHandler forwards every record to all underlying handlers.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// PersistenceError is an artifact store write failure. Always fatal: losing
// the audit trail is itself a failure the pipeline cannot continue past.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure at %s: %s", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
