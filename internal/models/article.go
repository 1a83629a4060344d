package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// RegulatoryArticle is a pre-indexed labor-law article shared by all tenants.
// Titles, contents and summaries are stored per language with an embedding
// per language column. Read-only from the retrieval pipeline's perspective.
type RegulatoryArticle struct {
	ID            uuid.UUID       `db:"id"`
	ArticleNumber string          `db:"article_number"`
	Category      string          `db:"category"`
	TitleAr       string          `db:"title_ar"`
	TitleEn       string          `db:"title_en"`
	ContentAr     string          `db:"content_ar"`
	ContentEn     string          `db:"content_en"`
	SummaryAr     string          `db:"summary_ar"`
	SummaryEn     string          `db:"summary_en"`
	EmbeddingAr   pgvector.Vector `db:"embedding_ar"`
	EmbeddingEn   pgvector.Vector `db:"embedding_en"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (a *RegulatoryArticle) Title(lang Language) string {
	if lang == LanguageArabic {
		return a.TitleAr
	}
	return a.TitleEn
}

func (a *RegulatoryArticle) Content(lang Language) string {
	if lang == LanguageArabic {
		return a.ContentAr
	}
	return a.ContentEn
}
