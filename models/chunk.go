package models

import (
	"github.com/google/uuid"
)

// Chunk represents a retrievable unit of document text.
// Index is zero-based and monotonic within a document; it is preserved
// through storage so provenance can be reconstructed after retrieval.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float64 `json:"-"`
}

// RetrievedChunk is a chunk returned by vector search, annotated with
// its source filename and similarity distance
type RetrievedChunk struct {
	Chunk
	SourceFilename string  `json:"source_filename"`
	Distance       float64 `json:"distance"`
}
