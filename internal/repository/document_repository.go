package repository

import (
	"context"

	"mostashar/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

var documentColumns = []string{
	"id", "organization_id", "title", "file_name", "file_size", "mime_type",
	"file_path", "language", "status", "processing_error", "chunk_count",
	"tags", "created_at", "updated_at",
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.OrganizationID, doc.Title, doc.FileName, doc.FileSize,
			doc.MimeType, doc.FilePath, doc.Language, doc.Status, doc.ProcessingError,
			doc.ChunkCount, doc.Tags, doc.CreatedAt, doc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.OrganizationID, &doc.Title, &doc.FileName, &doc.FileSize,
		&doc.MimeType, &doc.FilePath, &doc.Language, &doc.Status, &doc.ProcessingError,
		&doc.ChunkCount, &doc.Tags, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// SetProcessing moves a document back to processing and clears the previous
// error payload. Used on reprocess.
func (r *DocumentRepository) SetProcessing(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, models.DocumentStatusProcessing, "")
}

func (r *DocumentRepository) SetFailed(ctx context.Context, id uuid.UUID, processingError string) error {
	return r.updateStatus(ctx, id, models.DocumentStatusFailed, processingError)
}

func (r *DocumentRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, models.DocumentStatusArchived, "")
}

func (r *DocumentRepository) updateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus, processingError string) error {
	query := squirrel.Update("documents").
		Set("status", status).
		Set("processing_error", processingError).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// SetCompleted records the detected language and final chunk count together
// with the completed status, so a polling caller never observes a completed
// document with stale metadata.
func (r *DocumentRepository) SetCompleted(ctx context.Context, id uuid.UUID, language models.Language, chunkCount int) error {
	query := squirrel.Update("documents").
		Set("status", models.DocumentStatusCompleted).
		Set("processing_error", "").
		Set("language", language).
		Set("chunk_count", chunkCount).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"organization_id": organizationID}).
		Where(squirrel.NotEq{"status": models.DocumentStatusArchived}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.OrganizationID, &doc.Title, &doc.FileName, &doc.FileSize,
			&doc.MimeType, &doc.FilePath, &doc.Language, &doc.Status, &doc.ProcessingError,
			&doc.ChunkCount, &doc.Tags, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}

	return documents, rows.Err()
}
