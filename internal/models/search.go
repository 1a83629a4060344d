package models

import (
	"time"

	"github.com/google/uuid"
)

type SourceType string

const (
	SourceTypeDocument SourceType = "document"
	SourceTypeLaborLaw SourceType = "labor_law"
)

// SearchResult is a single retrieval hit from either corpus. Ephemeral:
// produced per query and discarded after response formatting.
type SearchResult struct {
	SourceType     SourceType
	ChunkID        uuid.UUID
	DocumentID     uuid.UUID
	ArticleID      uuid.UUID
	ArticleNumber  string
	Title          string
	Text           string
	PageNumber     int
	SectionTitle   string
	RelevanceScore float64
}

// SourceAttribution maps a generated answer back to a specific piece of
// evidence. Regulatory sources carry an article number instead of a page.
type SourceAttribution struct {
	Title          string     `json:"title"`
	Excerpt        string     `json:"excerpt"`
	RelevanceScore float64    `json:"relevance_score"`
	SourceType     SourceType `json:"source_type"`
	PageNumber     int        `json:"page_number,omitempty"`
	ArticleNumber  string     `json:"article_number,omitempty"`
}

// RAGResponse is the full answer to a query: generated text, ranked source
// attributions, a derived confidence estimate and usage accounting.
type RAGResponse struct {
	Answer                string              `json:"answer"`
	Sources               []SourceAttribution `json:"sources"`
	Confidence            float64             `json:"confidence"`
	TokensUsed            int                 `json:"tokens_used"`
	ResponseTimeMs        int64               `json:"response_time_ms"`
	DocumentResultCount   int                 `json:"document_result_count"`
	RegulatoryResultCount int                 `json:"regulatory_result_count"`
}

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is persisted by the surrounding application and read here
// only to enhance follow-up queries.
type ConversationTurn struct {
	Role      TurnRole  `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
