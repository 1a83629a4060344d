package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type ChunkType string

const (
	ChunkTypeTitle     ChunkType = "title"
	ChunkTypeParagraph ChunkType = "paragraph"
	ChunkTypeTable     ChunkType = "table"
	ChunkTypeList      ChunkType = "list"
)

// Chunk is an ordered fragment of a document, the unit of indexing and
// retrieval. ChunkIndex is 0-based and contiguous per document; the chunk
// language always matches the parent document's detected language.
// Chunks are immutable once written.
type Chunk struct {
	ID             uuid.UUID       `db:"id"`
	DocumentID     uuid.UUID       `db:"document_id"`
	OrganizationID uuid.UUID       `db:"organization_id"`
	ChunkIndex     int             `db:"chunk_index"`
	Text           string          `db:"text"`
	Type           ChunkType       `db:"type"`
	PageNumber     int             `db:"page_number"`
	SectionTitle   string          `db:"section_title"`
	Language       Language        `db:"language"`
	Embedding      pgvector.Vector `db:"embedding"`
	CreatedAt      time.Time       `db:"created_at"`
}
