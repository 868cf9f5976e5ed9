package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact kinds. Merge levels use MergeLevelKind.
const (
	KindChunk    = "chunk"
	KindAnalysis = "final_analysis"
)

// MergeLevelKind names the artifact kind for one merge-tree level.
func MergeLevelKind(level int) string {
	return fmt.Sprintf("merge_level%d", level)
}

// Artifact is the self-describing envelope every stored record is wrapped in.
type Artifact struct {
	SessionID string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Index     int             `json:"index"`
	SavedAt   time.Time       `json:"saved_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store persists pipeline artifacts under one session directory. Writes of
// distinct (kind, index) keys are safe concurrently; writing the same key
// twice is a programming error and fails.
type Store struct {
	session *Session
}

func NewStore(s *Session) *Store {
	return &Store{session: s}
}

// Save durably writes one artifact. The payload is marshaled to JSON inside
// a self-describing envelope. The write is atomic: the final name never holds
// a partially written file.
func (st *Store) Save(kind string, index int, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", kind, err)
	}
	data, err := json.MarshalIndent(Artifact{
		SessionID: st.session.ID,
		Kind:      kind,
		Index:     index,
		SavedAt:   time.Now(),
		Payload:   raw,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", kind, err)
	}

	final := st.path(kind, index)
	return st.writeAtomic(final, data)
}

// SaveRendered writes the human-readable report rendering.
func (st *Store) SaveRendered(markdown []byte) error {
	return st.writeAtomic(filepath.Join(st.session.Dir, "final_report.md"), markdown)
}

// writeAtomic writes to a temp file, syncs, and hard-links into place. The
// link step fails if the destination already exists, so a duplicate
// (kind, index) surfaces as an error instead of silently clobbering.
func (st *Store) writeAtomic(final string, data []byte) error {
	tmp, err := os.CreateTemp(st.session.Dir, ".tmp-artifact-*")
	if err != nil {
		return &PersistenceError{Path: final, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Path: final, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Path: final, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Path: final, Err: err}
	}

	if err := os.Link(tmpName, final); err != nil {
		if os.IsExist(err) {
			return &PersistenceError{Path: final, Err: fmt.Errorf("artifact already exists: %w", err)}
		}
		return &PersistenceError{Path: final, Err: err}
	}
	return nil
}

// Exists reports whether an artifact for (kind, index) has been written.
func (st *Store) Exists(kind string, index int) bool {
	_, err := os.Stat(st.path(kind, index))
	return err == nil
}

// Load reads an artifact back and unmarshals its payload into out.
func (st *Store) Load(kind string, index int, out any) error {
	path := st.path(kind, index)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(a.Payload, out); err != nil {
		return fmt.Errorf("decode payload of %s: %w", path, err)
	}
	return nil
}

// Dir returns the session's artifact directory.
func (st *Store) Dir() string {
	return st.session.Dir
}

func (st *Store) path(kind string, index int) string {
	return filepath.Join(st.session.Dir, fmt.Sprintf("%s_%04d.json", kind, index))
}
