package dto

import "mostashar/internal/models"

type QueryRequest struct {
	Text             string `json:"text"`
	OrganizationName string `json:"organization_name"`
	Language         string `json:"language,omitempty"`
	ConversationID   string `json:"conversation_id,omitempty"`
	MaxSources       int    `json:"max_sources,omitempty"`
}

type QueryResponse struct {
	Answer                string                     `json:"answer"`
	Sources               []models.SourceAttribution `json:"sources"`
	Confidence            float64                    `json:"confidence"`
	TokensUsed            int                        `json:"tokens_used"`
	ResponseTimeMs        int64                      `json:"response_time_ms"`
	DocumentResultCount   int                        `json:"document_result_count"`
	RegulatoryResultCount int                        `json:"regulatory_result_count"`
}

func NewQueryResponse(resp *models.RAGResponse) QueryResponse {
	return QueryResponse{
		Answer:                resp.Answer,
		Sources:               resp.Sources,
		Confidence:            resp.Confidence,
		TokensUsed:            resp.TokensUsed,
		ResponseTimeMs:        resp.ResponseTimeMs,
		DocumentResultCount:   resp.DocumentResultCount,
		RegulatoryResultCount: resp.RegulatoryResultCount,
	}
}

type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}
