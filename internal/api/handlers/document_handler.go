package handlers

import (
	"errors"
	"io"
	"strings"

	"mostashar/internal/dto"
	"mostashar/internal/jobs"
	"mostashar/internal/models"
	"mostashar/internal/repository"
	"mostashar/internal/service"
	"mostashar/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	ingest  *service.IngestService
	docRepo *repository.DocumentRepository
	logger  *zap.Logger
}

func NewDocumentHandler(ingest *service.IngestService, docRepo *repository.DocumentRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingest:  ingest,
		docRepo: docRepo,
		logger:  logger,
	}
}

// Upload accepts a multipart file and schedules background ingestion. The
// response carries the document in processing state; callers poll Get for the
// final status.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read file"})
	}

	mimeType := file.Header.Get("Content-Type")
	var tags []string
	if raw := strings.TrimSpace(c.FormValue("tags")); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	doc, err := h.ingest.Ingest(c.Context(), service.IngestRequest{
		OrganizationID: organizationID,
		Title:          c.FormValue("title"),
		FileName:       file.Filename,
		MimeType:       mimeType,
		Tags:           tags,
		Data:           data,
	})
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
		}
		h.logger.Error("Failed to ingest document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to ingest document"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewDocumentResponse(doc))
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	doc, err := h.docRepo.GetByID(c.Context(), documentID)
	if err != nil || doc.OrganizationID != organizationID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}

	return c.JSON(dto.NewDocumentResponse(doc))
}

func (h *DocumentHandler) List(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	docs, err := h.docRepo.ListByOrganization(c.Context(), organizationID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list documents"})
	}

	responses := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = dto.NewDocumentResponse(doc)
	}

	return c.JSON(responses)
}

// Reprocess clears and rebuilds a document's chunks. Returns 409 while an
// earlier job for the same document is still running.
func (h *DocumentHandler) Reprocess(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	if err := h.ingest.Reprocess(c.Context(), documentID, organizationID); err != nil {
		switch {
		case errors.Is(err, jobs.ErrAlreadyInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Document is already being processed"})
		case errors.Is(err, jobs.ErrQueueFull):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Ingestion queue is full, try again later"})
		}
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
		}
		h.logger.Error("Failed to reprocess document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reprocess document"})
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *DocumentHandler) Archive(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	doc, err := h.docRepo.GetByID(c.Context(), documentID)
	if err != nil || doc.OrganizationID != organizationID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}

	if err := h.docRepo.Archive(c.Context(), documentID); err != nil {
		h.logger.Error("Failed to archive document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to archive document"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
