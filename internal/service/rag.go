package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Completer is the external language model.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts GenerateOptions) (*Completion, error)
}

// ConversationStore reads history persisted outside the core.
type ConversationStore interface {
	GetRecentTurns(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.ConversationTurn, error)
}

// HybridSearcher runs the two-corpus retrieval.
type HybridSearcher interface {
	Search(ctx context.Context, query string, organizationID uuid.UUID, language models.Language, limit int) (*HybridResult, error)
}

// RAGService is the query-time pipeline: validate, enhance with conversation
// context, search both corpora, build the prompt, synthesize the answer, and
// score it. Stateless; safe for concurrent queries.
type RAGService struct {
	search        HybridSearcher
	llm           Completer
	conversations ConversationStore
	prompts       *PromptBuilder
	detector      *LanguageDetector
	cfg           *config.RAGConfig
	logger        *zap.Logger
}

func NewRAGService(
	search HybridSearcher,
	llm Completer,
	conversations ConversationStore,
	prompts *PromptBuilder,
	detector *LanguageDetector,
	cfg *config.RAGConfig,
	logger *zap.Logger,
) *RAGService {
	return &RAGService{
		search:        search,
		llm:           llm,
		conversations: conversations,
		prompts:       prompts,
		detector:      detector,
		cfg:           cfg,
		logger:        logger,
	}
}

type QueryRequest struct {
	Text             string
	OrganizationID   uuid.UUID
	OrganizationName string
	Language         models.Language
	ConversationID   *uuid.UUID
	MaxSources       int
}

const (
	// Generated answers under this length are rejected as a quality gate.
	minAnswerLength = 50
	// How many trailing turns feed the context enhancer and how much of
	// each survives.
	historyTurns       = 4
	historyTurnMaxLen  = 100
	excerptMaxLen      = 200
	fallbackAnswerEn   = "I apologize, I could not generate an answer right now. Please try again, or consult the cited sources directly."
	fallbackAnswerAr   = "أعتذر، لم أتمكن من توليد إجابة في الوقت الحالي. يرجى المحاولة مرة أخرى أو الرجوع مباشرة إلى المصادر المذكورة."
	regulatoryBonus    = 0.1
	relevanceWeight    = 0.4
	sourceCountWeight  = 0.3
	answerLengthWeight = 0.2
)

// Query answers a natural-language question from the two corpora.
func (s *RAGService) Query(ctx context.Context, req QueryRequest) (*models.RAGResponse, error) {
	started := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if req.OrganizationID == uuid.Nil {
		return nil, &models.ValidationError{Field: "organization_id", Reason: "must be set"}
	}

	language := req.Language
	if language == "" {
		language = s.detector.Detect(text)
	}

	maxSources := req.MaxSources
	if maxSources <= 0 {
		maxSources = s.cfg.TopK
	}

	searchText := s.enhanceWithHistory(ctx, text, req.ConversationID)

	result, err := s.search.Search(ctx, searchText, req.OrganizationID, language, maxSources)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Build(PromptInput{
		Query:             searchText,
		OrganizationName:  req.OrganizationName,
		Language:          language,
		DocumentResults:   result.DocumentResults,
		RegulatoryResults: result.RegulatoryResults,
	})

	answer, tokensUsed := s.synthesize(ctx, prompt, language)

	response := &models.RAGResponse{
		Answer:                answer,
		Sources:               buildAttributions(result),
		Confidence:            confidence(result, answer),
		TokensUsed:            tokensUsed,
		ResponseTimeMs:        time.Since(started).Milliseconds(),
		DocumentResultCount:   len(result.DocumentResults),
		RegulatoryResultCount: len(result.RegulatoryResults),
	}

	s.logger.Info("Query answered",
		zap.String("organization_id", req.OrganizationID.String()),
		zap.String("language", string(language)),
		zap.Float64("confidence", response.Confidence),
		zap.Int("tokens_used", tokensUsed),
		zap.Int64("response_time_ms", response.ResponseTimeMs),
	)

	return response, nil
}

// enhanceWithHistory rewrites a follow-up query with a prefix built from the
// user's recent turns. This is a truncation heuristic, not semantic
// co-reference resolution; with no history the query passes through unchanged.
func (s *RAGService) enhanceWithHistory(ctx context.Context, query string, conversationID *uuid.UUID) string {
	if conversationID == nil {
		return query
	}

	turns, err := s.conversations.GetRecentTurns(ctx, *conversationID, historyTurns)
	if err != nil {
		s.logger.Warn("Failed to load conversation history", zap.Error(err))
		return query
	}

	var previous []string
	for _, turn := range turns {
		if turn.Role != models.TurnRoleUser {
			continue
		}
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		previous = append(previous, truncateRunes(content, historyTurnMaxLen))
	}
	if len(previous) == 0 {
		return query
	}

	return "Previous conversation: " + strings.Join(previous, " | ") + "\n\n" + query
}

// synthesize calls the model and degrades to the fixed apology text on any
// failure, including answers below the quality gate. Search and attribution
// results stay valid either way.
func (s *RAGService) synthesize(ctx context.Context, prompt string, language models.Language) (string, int) {
	completion, err := s.llm.Complete(ctx, []Message{{Role: "system", Content: prompt}}, GenerateOptions{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxAnswerTokens,
	})
	if err != nil {
		s.logger.Warn("Answer generation failed, using fallback text", zap.Error(err))
		return fallbackAnswer(language), 0
	}

	answer := strings.TrimSpace(completion.Text)
	if len([]rune(answer)) < minAnswerLength {
		s.logger.Warn("Generated answer below quality gate, using fallback text",
			zap.Int("length", len([]rune(answer))),
		)
		return fallbackAnswer(language), 0
	}

	return answer, completion.TokensUsed
}

func fallbackAnswer(language models.Language) string {
	if language == models.LanguageArabic {
		return fallbackAnswerAr
	}
	return fallbackAnswerEn
}

// confidence is a weighted sum over retrieval quality and answer shape,
// clamped to [0,1]. The weights are tunable constants, not calibrated
// probabilities.
func confidence(result *HybridResult, answer string) float64 {
	totalSources := len(result.DocumentResults) + len(result.RegulatoryResults)

	score := relevanceWeight * result.CombinedRelevance
	score += sourceCountWeight * min1(float64(totalSources)/5)
	score += answerLengthWeight * min1(float64(len([]rune(answer)))/500)
	if len(result.RegulatoryResults) > 0 {
		score += regulatoryBonus
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// buildAttributions converts every search result from both corpora into a
// citation and sorts the combined list by relevance. Near-duplicate excerpts
// from a document and an article are both kept.
func buildAttributions(result *HybridResult) []models.SourceAttribution {
	attributions := make([]models.SourceAttribution, 0, len(result.DocumentResults)+len(result.RegulatoryResults))

	for _, r := range result.DocumentResults {
		attributions = append(attributions, models.SourceAttribution{
			Title:          r.Title,
			Excerpt:        truncateRunes(r.Text, excerptMaxLen),
			RelevanceScore: r.RelevanceScore,
			SourceType:     models.SourceTypeDocument,
			PageNumber:     r.PageNumber,
		})
	}
	for _, r := range result.RegulatoryResults {
		attributions = append(attributions, models.SourceAttribution{
			Title:          r.Title,
			Excerpt:        truncateRunes(r.Text, excerptMaxLen),
			RelevanceScore: r.RelevanceScore,
			SourceType:     models.SourceTypeLaborLaw,
			ArticleNumber:  r.ArticleNumber,
		})
	}

	sort.SliceStable(attributions, func(i, j int) bool {
		return attributions[i].RelevanceScore > attributions[j].RelevanceScore
	})

	return attributions
}
