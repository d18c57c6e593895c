package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/models"
	"github.com/F0xhopper/Cogno-MVP/repository"
	"github.com/F0xhopper/Cogno-MVP/storage"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyDocument    = errors.New("document contains no extractable text")
	ErrEmbeddingFailed  = errors.New("failed to embed document chunks")
)

// IngestService turns uploaded files into retrievable chunks: archive
// the raw bytes, extract text, chunk, embed, persist
type IngestService struct {
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	store     storage.Storage
	embedder  llm.Embedder

	chunkSize    int
	chunkOverlap int
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// IngestWithDocumentRepository sets the document repository
func IngestWithDocumentRepository(repo *repository.DocumentRepository) IngestServiceOption {
	return func(s *IngestService) {
		s.docRepo = repo
	}
}

// IngestWithChunkRepository sets the chunk repository
func IngestWithChunkRepository(repo *repository.ChunkRepository) IngestServiceOption {
	return func(s *IngestService) {
		s.chunkRepo = repo
	}
}

// IngestWithStorage sets the document archive
func IngestWithStorage(store storage.Storage) IngestServiceOption {
	return func(s *IngestService) {
		s.store = store
	}
}

// IngestWithEmbedder sets the embedder
func IngestWithEmbedder(embedder llm.Embedder) IngestServiceOption {
	return func(s *IngestService) {
		s.embedder = embedder
	}
}

// IngestWithChunking sets the chunk size and overlap
func IngestWithChunking(chunkSize, chunkOverlap int) IngestServiceOption {
	return func(s *IngestService) {
		s.chunkSize = chunkSize
		s.chunkOverlap = chunkOverlap
	}
}

// NewIngestService creates a new ingestion service
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	s := &IngestService{
		chunkSize:    1200,
		chunkOverlap: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadDocument archives the raw file and registers a document in
// processing state. It must return quickly; the heavy work happens in
// ProcessDocument.
func (s *IngestService) UploadDocument(
	ctx context.Context,
	filename string,
	mimeType string,
	size int64,
	data io.Reader,
) (*models.Document, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	if s.store == nil {
		return nil, errors.New("storage not set")
	}

	docID := uuid.New()
	storagePath, err := s.store.Upload(ctx, docID, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to archive document: %w", err)
	}

	doc := &models.Document{
		ID:          docID,
		Filename:    filename,
		MimeType:    mimeType,
		Size:        size,
		StoragePath: storagePath,
		Status:      models.DocumentStatusProcessing,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	return doc, nil
}

// ProcessDocument performs the extraction, chunking and embedding work
// for an uploaded document. It runs in a goroutine after upload and can
// take a while for large files; failures are recorded on the document.
func (s *IngestService) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	if s.docRepo == nil || s.chunkRepo == nil {
		return errors.New("repositories not set")
	}
	if s.store == nil {
		return errors.New("storage not set")
	}
	if s.embedder == nil {
		return errors.New("embedder not set")
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return ErrDocumentNotFound
	}

	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		s.markFailed(ctx, documentID, "failed to read archived document: "+err.Error())
		return err
	}
	defer reader.Close()

	text, err := ExtractText(reader, doc.Filename)
	if err != nil {
		s.markFailed(ctx, documentID, "failed to extract text: "+err.Error())
		return err
	}

	texts := ChunkText(text, s.chunkSize, s.chunkOverlap)
	if len(texts) == 0 {
		s.markFailed(ctx, documentID, ErrEmptyDocument.Error())
		return ErrEmptyDocument
	}

	chunks := make([]models.Chunk, 0, len(texts))
	for i, chunkText := range texts {
		embedding, err := s.embedder.Embed(ctx, chunkText)
		if err != nil {
			s.markFailed(ctx, documentID, fmt.Sprintf("failed to embed chunk %d: %v", i, err))
			return fmt.Errorf("%w: chunk %d: %v", ErrEmbeddingFailed, i, err)
		}
		chunks = append(chunks, models.Chunk{
			ID:         uuid.New(),
			DocumentID: documentID,
			Index:      i,
			Text:       chunkText,
			Embedding:  embedding,
		})
	}

	if err := s.chunkRepo.InsertBatch(ctx, chunks); err != nil {
		s.markFailed(ctx, documentID, "failed to store chunks: "+err.Error())
		return err
	}

	if err := s.docRepo.Complete(ctx, documentID, len(chunks)); err != nil {
		return fmt.Errorf("failed to complete document: %w", err)
	}

	return nil
}

// GetDocument returns a document's current state
func (s *IngestService) GetDocument(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// ListDocuments returns all documents, newest first
func (s *IngestService) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	return s.docRepo.List(ctx)
}

// ListChunks returns a document's chunks in index order
func (s *IngestService) ListChunks(ctx context.Context, documentID uuid.UUID) ([]models.Chunk, error) {
	if s.docRepo == nil || s.chunkRepo == nil {
		return nil, errors.New("repositories not set")
	}
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, ErrDocumentNotFound
	}
	return s.chunkRepo.ListByDocumentID(ctx, documentID)
}

// DeleteDocument removes a document, its chunks and its archived file.
// A failure to remove the archived bytes is logged but does not block
// the database deletion.
func (s *IngestService) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	if s.docRepo == nil || s.chunkRepo == nil {
		return errors.New("repositories not set")
	}
	if s.store == nil {
		return errors.New("storage not set")
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return ErrDocumentNotFound
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		log.Printf("Warning: Failed to delete archived file for document %s: %v", documentID, err)
	}

	if err := s.chunkRepo.DeleteByDocumentID(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// markFailed records an ingestion failure on the document
func (s *IngestService) markFailed(ctx context.Context, documentID uuid.UUID, errorMessage string) {
	if err := s.docRepo.Fail(ctx, documentID, errorMessage); err != nil {
		log.Printf("Warning: Failed to mark document %s as failed: %v", documentID, err)
	}
}
