package dto

import "mostashar/internal/models"

type DocumentResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	FileName        string   `json:"file_name"`
	FileSize        int64    `json:"file_size"`
	Language        string   `json:"language"`
	Status          string   `json:"status"`
	ProcessingError string   `json:"processing_error,omitempty"`
	ChunkCount      int      `json:"chunk_count"`
	Tags            []string `json:"tags,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func NewDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:              doc.ID.String(),
		Title:           doc.Title,
		FileName:        doc.FileName,
		FileSize:        doc.FileSize,
		Language:        string(doc.Language),
		Status:          string(doc.Status),
		ProcessingError: doc.ProcessingError,
		ChunkCount:      doc.ChunkCount,
		Tags:            doc.Tags,
		CreatedAt:       doc.CreatedAt.Format(timeFormat),
		UpdatedAt:       doc.UpdatedAt.Format(timeFormat),
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
