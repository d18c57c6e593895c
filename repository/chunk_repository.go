package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/F0xhopper/Cogno-MVP/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimension = 768

// ChunkRepository handles database operations for document chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// InsertBatch stores a document's chunks with their embeddings in one
// transaction. Chunk order within the document is preserved via chunk_index.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO document_chunks (
			id, document_id, chunk_index, chunk_text, embedding
		) VALUES ($1, $2, $3, $4, $5::vector)`

	for _, chunk := range chunks {
		if len(chunk.Embedding) != embeddingDimension {
			return fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDimension, len(chunk.Embedding))
		}
		_, err := tx.Exec(ctx, query,
			chunk.ID,
			chunk.DocumentID,
			chunk.Index,
			chunk.Text,
			formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk batch: %w", err)
	}

	return nil
}

// Search returns the chunks nearest to the query embedding by cosine
// distance, best match first
func (r *ChunkRepository) Search(
	ctx context.Context,
	embedding []float64,
	limit int,
) ([]models.RetrievedChunk, error) {
	if len(embedding) != embeddingDimension {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDimension, len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			c.id,
			c.document_id,
			c.chunk_index,
			c.chunk_text,
			d.filename,
			c.embedding <=> $1::vector AS distance
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.status = 'ready'
		ORDER BY
			c.embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, vectorStr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.RetrievedChunk
	for rows.Next() {
		var chunk models.RetrievedChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Text,
			&chunk.SourceFilename,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return chunks, nil
}

// ListByDocumentID returns all chunks of a document in original order
func (r *ChunkRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]models.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, chunk_text
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// DeleteByDocumentID removes all chunks belonging to a document
func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}
