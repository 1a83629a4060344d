package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mostashar/internal/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// DocumentStore persists document records and their status transitions.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	SetProcessing(ctx context.Context, id uuid.UUID) error
	SetFailed(ctx context.Context, id uuid.UUID, processingError string) error
	SetCompleted(ctx context.Context, id uuid.UUID, language models.Language, chunkCount int) error
}

// ChunkStore persists and clears chunk rows.
type ChunkStore interface {
	CreateBatch(ctx context.Context, chunks []models.Chunk) error
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

// ChunkEmbedder produces chunk vectors.
type ChunkEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Enqueuer schedules background processing, serialized per document.
type Enqueuer interface {
	Enqueue(documentID uuid.UUID) error
}

// IngestService owns the document ingestion path: the upload call creates the
// record in processing state and returns immediately; extraction, chunking,
// embedding and indexing run on the job queue.
type IngestService struct {
	docs      DocumentStore
	chunks    ChunkStore
	extractor *Extractor
	detector  *LanguageDetector
	chunker   *Chunker
	embedder  ChunkEmbedder
	queue     Enqueuer
	uploadDir string
	logger    *zap.Logger
}

func NewIngestService(
	docs DocumentStore,
	chunks ChunkStore,
	extractor *Extractor,
	detector *LanguageDetector,
	chunker *Chunker,
	embedder ChunkEmbedder,
	queue Enqueuer,
	uploadDir string,
	logger *zap.Logger,
) *IngestService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		extractor: extractor,
		detector:  detector,
		chunker:   chunker,
		embedder:  embedder,
		queue:     queue,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

type IngestRequest struct {
	OrganizationID uuid.UUID
	Title          string
	FileName       string
	MimeType       string
	Tags           []string
	Data           []byte
}

// Ingest stores the upload, creates the document in processing state and
// schedules the background pipeline. The caller polls the document status.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*models.Document, error) {
	if len(req.Data) == 0 {
		return nil, &models.ValidationError{Field: "file", Reason: "must not be empty"}
	}
	if req.OrganizationID == uuid.Nil {
		return nil, &models.ValidationError{Field: "organization_id", Reason: "must be set"}
	}

	id := uuid.New()
	filePath := filepath.Join(s.uploadDir, id.String()+filepath.Ext(req.FileName))
	if err := os.WriteFile(filePath, req.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.FileName
	}

	now := time.Now()
	doc := &models.Document{
		ID:             id,
		OrganizationID: req.OrganizationID,
		Title:          title,
		FileName:       req.FileName,
		FileSize:       int64(len(req.Data)),
		MimeType:       req.MimeType,
		FilePath:       filePath,
		Language:       models.LanguageEnglish,
		Status:         models.DocumentStatusProcessing,
		Tags:           req.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	if err := s.queue.Enqueue(doc.ID); err != nil {
		if failErr := s.docs.SetFailed(ctx, doc.ID, err.Error()); failErr != nil {
			s.logger.Error("Failed to mark document failed", zap.Error(failErr))
		}
		return nil, fmt.Errorf("failed to schedule ingestion: %w", err)
	}

	s.logger.Info("Document ingestion scheduled",
		zap.String("document_id", doc.ID.String()),
		zap.String("organization_id", req.OrganizationID.String()),
		zap.String("mime_type", req.MimeType),
	)

	return doc, nil
}

// Reprocess clears and rebuilds a document's chunks. The per-document queue
// lock rejects the request while an earlier job for the same document is
// still running.
func (s *IngestService) Reprocess(ctx context.Context, documentID, organizationID uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document not found: %w", err)
	}
	if doc.OrganizationID != organizationID {
		return &models.ValidationError{Field: "document_id", Reason: "not found in organization"}
	}
	if doc.Status == models.DocumentStatusArchived {
		return &models.ValidationError{Field: "document_id", Reason: "document is archived"}
	}

	if err := s.queue.Enqueue(documentID); err != nil {
		return err
	}

	s.logger.Info("Document reprocess scheduled", zap.String("document_id", documentID.String()))
	return nil
}

// Process is the job-queue handler: extract, detect language, chunk, embed,
// index. Any stage error marks the document failed with its message. The
// status flip to processing happens here, inside the per-document lock, so a
// completed result can never be overwritten by a stale transition.
func (s *IngestService) Process(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := s.docs.SetProcessing(ctx, documentID); err != nil {
		return fmt.Errorf("move document to processing: %w", err)
	}

	if err := s.process(ctx, doc); err != nil {
		if failErr := s.docs.SetFailed(ctx, documentID, err.Error()); failErr != nil {
			s.logger.Error("Failed to mark document failed", zap.Error(failErr))
		}
		return err
	}
	return nil
}

func (s *IngestService) process(ctx context.Context, doc *models.Document) error {
	// Reprocess destroys and regenerates chunks wholesale.
	if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear existing chunks: %w", err)
	}

	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return fmt.Errorf("read stored file: %w", err)
	}

	extracted, err := s.extractor.Extract(data, doc.MimeType)
	if err != nil {
		return err
	}

	language := s.detector.Detect(extracted.Text)
	textChunks := s.chunker.Split(extracted, language)

	if len(textChunks) == 0 {
		return s.docs.SetCompleted(ctx, doc.ID, language, 0)
	}

	now := time.Now()
	chunks := make([]models.Chunk, 0, len(textChunks))
	for _, tc := range textChunks {
		embedding, err := s.embedder.Embed(ctx, tc.Text)
		if err != nil {
			return err
		}
		chunks = append(chunks, models.Chunk{
			ID:             uuid.New(),
			DocumentID:     doc.ID,
			OrganizationID: doc.OrganizationID,
			ChunkIndex:     tc.Index,
			Text:           tc.Text,
			Type:           tc.Type,
			PageNumber:     tc.PageNumber,
			SectionTitle:   tc.SectionTitle,
			Language:       language,
			Embedding:      pgvector.NewVector(embedding),
			CreatedAt:      now,
		})
	}

	if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	if err := s.docs.SetCompleted(ctx, doc.ID, language, len(chunks)); err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}

	s.logger.Info("Document processed",
		zap.String("document_id", doc.ID.String()),
		zap.String("language", string(language)),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}
