package models

import (
	"time"

	"github.com/google/uuid"
)

type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
	DocumentStatusArchived   DocumentStatus = "archived"
)

// Document is a tenant-scoped uploaded asset. Its chunks are created during
// ingestion and destroyed wholesale on reprocess.
type Document struct {
	ID              uuid.UUID      `db:"id"`
	OrganizationID  uuid.UUID      `db:"organization_id"`
	Title           string         `db:"title"`
	FileName        string         `db:"file_name"`
	FileSize        int64          `db:"file_size"`
	MimeType        string         `db:"mime_type"`
	FilePath        string         `db:"file_path"`
	Language        Language       `db:"language"`
	Status          DocumentStatus `db:"status"`
	ProcessingError string         `db:"processing_error"`
	ChunkCount      int            `db:"chunk_count"`
	Tags            []string       `db:"tags"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}
