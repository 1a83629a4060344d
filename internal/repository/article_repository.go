package repository

import (
	"context"
	"fmt"

	"mostashar/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// ArticleRepository is the similarity index over the tenant-independent
// regulatory knowledge base. Each article carries parallel Arabic and English
// text and one embedding per language.
type ArticleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewArticleRepository(db *pgxpool.Pool, logger *zap.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts an article or refreshes it in place, keyed by article number.
// Used by the seed tool only; the query pipeline treats articles as read-only.
func (r *ArticleRepository) Upsert(ctx context.Context, article *models.RegulatoryArticle) error {
	query := squirrel.Insert("regulatory_articles").
		Columns("id", "article_number", "category", "title_ar", "title_en",
			"content_ar", "content_en", "summary_ar", "summary_en",
			"embedding_ar", "embedding_en", "created_at", "updated_at").
		Values(article.ID, article.ArticleNumber, article.Category,
			article.TitleAr, article.TitleEn, article.ContentAr, article.ContentEn,
			article.SummaryAr, article.SummaryEn, article.EmbeddingAr, article.EmbeddingEn,
			article.CreatedAt, article.UpdatedAt).
		Suffix(`ON CONFLICT (article_number) DO UPDATE SET
			category = EXCLUDED.category,
			title_ar = EXCLUDED.title_ar,
			title_en = EXCLUDED.title_en,
			content_ar = EXCLUDED.content_ar,
			content_en = EXCLUDED.content_en,
			summary_ar = EXCLUDED.summary_ar,
			summary_en = EXCLUDED.summary_en,
			embedding_ar = EXCLUDED.embedding_ar,
			embedding_en = EXCLUDED.embedding_en,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func articleLanguageColumns(language models.Language) (title, content, embedding string) {
	if language == models.LanguageArabic {
		return "title_ar", "content_ar", "embedding_ar"
	}
	return "title_en", "content_en", "embedding_en"
}

// SearchSimilar returns articles whose cosine similarity to the query vector
// exceeds minSimilarity, ordered descending, in the requested language.
func (r *ArticleRepository) SearchSimilar(ctx context.Context, embedding []float32, language models.Language, limit int, minSimilarity float64) ([]models.SearchResult, error) {
	vec := pgvector.NewVector(embedding)
	titleCol, contentCol, embCol := articleLanguageColumns(language)

	query := squirrel.Select("id", "article_number", titleCol, contentCol).
		Column(squirrel.Expr(fmt.Sprintf("1 - (%s <=> ?) AS similarity", embCol), vec)).
		From("regulatory_articles").
		Where(squirrel.Expr(fmt.Sprintf("1 - (%s <=> ?) >= ?", embCol), vec, minSimilarity)).
		OrderBy("similarity DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, &models.SearchError{Corpus: "regulatory", Err: err}
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		res := models.SearchResult{SourceType: models.SourceTypeLaborLaw}
		if err := rows.Scan(&res.ArticleID, &res.ArticleNumber, &res.Title, &res.Text,
			&res.RelevanceScore); err != nil {
			return nil, &models.SearchError{Corpus: "regulatory", Err: err}
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// SearchTitles matches article titles against a query fragment, for the
// suggestion endpoint.
func (r *ArticleRepository) SearchTitles(ctx context.Context, fragment string, language models.Language, limit int) ([]string, error) {
	titleCol, _, _ := articleLanguageColumns(language)

	query := squirrel.Select(titleCol).
		From("regulatory_articles").
		Where(squirrel.ILike{titleCol: "%" + fragment + "%"}).
		OrderBy("article_number").
		Limit(uint64(limit)).
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

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}
