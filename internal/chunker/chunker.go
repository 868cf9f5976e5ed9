package chunker

import (
	"fmt"

	"github.com/dgallion1/docsumm/internal/document"
	"github.com/dgallion1/docsumm/internal/token"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Window size in tokens.
	ChunkOverlap int // Overlap between consecutive windows in tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    2000,
		ChunkOverlap: 200,
	}
}

// Validate rejects parameter combinations that cannot make progress.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Chunk splits a document into overlapping windows of bounded token length.
// The window advances by ChunkSize−ChunkOverlap tokens per step, so the
// emitted ranges cover [0, total) with no gap; the final chunk ends exactly
// at the document end and may be shorter than ChunkSize. A document shorter
// than ChunkSize yields a single chunk.
func Chunk(doc *document.Document, codec token.Codec, cfg Config) ([]document.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec = token.Default(codec)

	units := codec.Encode(doc.Text)
	total := len(units)
	if total == 0 {
		return nil, nil
	}

	stride := cfg.ChunkSize - cfg.ChunkOverlap
	var chunks []document.Chunk

	for start := 0; ; start += stride {
		end := min(start+cfg.ChunkSize, total)
		chunks = append(chunks, document.Chunk{
			Index:      len(chunks),
			Text:       codec.Decode(units[start:end]),
			TokenStart: start,
			TokenEnd:   end,
		})
		if end >= total {
			break
		}
	}

	return chunks, nil
}
