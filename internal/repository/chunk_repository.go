package repository

import (
	"context"
	"fmt"

	"mostashar/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// ChunkRepository is the similarity index over organization-document chunks.
// Tenant and language are hard filters on every search, never relaxed.
type ChunkRepository struct {
	db        *pgxpool.Pool
	batchSize int
	logger    *zap.Logger
}

func NewChunkRepository(db *pgxpool.Pool, batchSize int, logger *zap.Logger) *ChunkRepository {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ChunkRepository{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
	}
}

// CreateBatch inserts chunks in fixed-size batches. Batching bounds statement
// size only; a failure mid-way can leave a partial set, which the ingestion
// pipeline reports through the document's failed status.
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += r.batchSize {
		end := start + r.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		query := squirrel.Insert("chunks").
			Columns("id", "document_id", "organization_id", "chunk_index", "text",
				"type", "page_number", "section_title", "language", "embedding", "created_at").
			PlaceholderFormat(squirrel.Dollar)

		for _, c := range chunks[start:end] {
			query = query.Values(c.ID, c.DocumentID, c.OrganizationID, c.ChunkIndex, c.Text,
				c.Type, c.PageNumber, c.SectionTitle, c.Language, c.Embedding, c.CreatedAt)
		}

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}

		if _, err := r.db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert chunk batch [%d:%d]: %w", start, end, err)
		}
	}

	return nil
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	query := squirrel.Delete("chunks").
		Where(squirrel.Eq{"document_id": documentID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	query := squirrel.Select("COUNT(*)").
		From("chunks").
		Where(squirrel.Eq{"document_id": documentID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilar returns chunks whose cosine similarity to the query vector
// exceeds minSimilarity, ordered descending. Archived and unfinished documents
// never surface.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, organizationID uuid.UUID, language models.Language, limit int, minSimilarity float64) ([]models.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	query := squirrel.Select("c.id", "c.document_id", "c.text", "c.page_number", "c.section_title", "d.title").
		Column(squirrel.Expr("1 - (c.embedding <=> ?) AS similarity", vec)).
		From("chunks c").
		Join("documents d ON d.id = c.document_id").
		Where(squirrel.Eq{"c.organization_id": organizationID}).
		Where(squirrel.Eq{"c.language": language}).
		Where(squirrel.Eq{"d.status": models.DocumentStatusCompleted}).
		Where(squirrel.Expr("1 - (c.embedding <=> ?) >= ?", vec, minSimilarity)).
		OrderBy("similarity DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &models.SearchError{Corpus: "document", Err: err}
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		res := models.SearchResult{SourceType: models.SourceTypeDocument}
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.Text, &res.PageNumber,
			&res.SectionTitle, &res.Title, &res.RelevanceScore); err != nil {
			return nil, &models.SearchError{Corpus: "document", Err: err}
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// KeywordSearch matches chunk text against the extracted query words with an
// OR-combined full-text filter. Keyword matches are not comparable to cosine
// similarity, so every hit gets a fixed 0.5 relevance.
func (r *ChunkRepository) KeywordSearch(ctx context.Context, words []string, organizationID uuid.UUID, language models.Language, limit int) ([]models.SearchResult, error) {
	if len(words) == 0 {
		return nil, nil
	}

	match := squirrel.Or{}
	for _, w := range words {
		match = append(match, squirrel.ILike{"c.text": "%" + w + "%"})
	}

	query := squirrel.Select("c.id", "c.document_id", "c.text", "c.page_number", "c.section_title", "d.title").
		From("chunks c").
		Join("documents d ON d.id = c.document_id").
		Where(squirrel.Eq{"c.organization_id": organizationID}).
		Where(squirrel.Eq{"c.language": language}).
		Where(squirrel.Eq{"d.status": models.DocumentStatusCompleted}).
		Where(match).
		OrderBy("c.document_id", "c.chunk_index").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &models.SearchError{Corpus: "document", Err: err}
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		res := models.SearchResult{
			SourceType:     models.SourceTypeDocument,
			RelevanceScore: keywordRelevance,
		}
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.Text, &res.PageNumber,
			&res.SectionTitle, &res.Title); err != nil {
			return nil, &models.SearchError{Corpus: "document", Err: err}
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Fixed relevance assigned to keyword hits.
const keywordRelevance = 0.5
