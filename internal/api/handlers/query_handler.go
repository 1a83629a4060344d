package handlers

import (
	"errors"

	"mostashar/internal/dto"
	"mostashar/internal/models"
	"mostashar/internal/service"
	"mostashar/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QueryHandler struct {
	rag     *service.RAGService
	suggest *service.SuggestService
	logger  *zap.Logger
}

func NewQueryHandler(rag *service.RAGService, suggest *service.SuggestService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		rag:     rag,
		suggest: suggest,
		logger:  logger,
	}
}

// Query answers a natural-language HR or labor-law question from the
// organization's documents and the regulatory knowledge base.
func (h *QueryHandler) Query(c *fiber.Ctx) error {
	organizationID, err := middleware.OrganizationID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	queryReq := service.QueryRequest{
		Text:             req.Text,
		OrganizationID:   organizationID,
		OrganizationName: req.OrganizationName,
		Language:         models.Language(req.Language),
		MaxSources:       req.MaxSources,
	}
	if req.ConversationID != "" {
		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
		}
		queryReq.ConversationID = &conversationID
	}

	resp, err := h.rag.Query(c.Context(), queryReq)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
		}
		var embeddingErr *models.EmbeddingError
		if errors.As(err, &embeddingErr) {
			h.logger.Error("Query embedding failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Search is temporarily unavailable"})
		}
		h.logger.Error("Query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to answer query"})
	}

	return c.JSON(dto.NewQueryResponse(resp))
}

func (h *QueryHandler) Suggest(c *fiber.Ctx) error {
	if _, err := middleware.OrganizationID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	fragment := c.Query("q")
	language := models.Language(c.Query("language", string(models.LanguageEnglish)))
	limit := c.QueryInt("limit", 5)

	suggestions, err := h.suggest.Suggest(c.Context(), fragment, language, limit)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
		}
		h.logger.Error("Suggest failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build suggestions"})
	}

	return c.JSON(dto.SuggestResponse{Suggestions: suggestions})
}
