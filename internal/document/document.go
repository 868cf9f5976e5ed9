package document

// Document is a loaded source document, ready for chunking.
// Immutable once built by a parser.
type Document struct {
	Name   string // Source filename
	Title  string // Document title (from metadata or filename)
	Text   string // Full flattened text content
	Tokens int    // Unit length under the pipeline's token codec
}

// Chunk is a contiguous window of the document's token stream.
type Chunk struct {
	Index      int    `json:"index"`       // Sequence number within document
	Text       string `json:"text"`        // Chunk text content
	TokenStart int    `json:"token_start"` // Inclusive token offset
	TokenEnd   int    `json:"token_end"`   // Exclusive token offset
}

// Span returns the chunk's length in tokens.
func (c Chunk) Span() int {
	return c.TokenEnd - c.TokenStart
}
