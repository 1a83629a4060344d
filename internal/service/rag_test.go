package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mostashar/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHybridSearcher struct {
	result *HybridResult
	err    error

	calls        int
	lastQuery    string
	lastLanguage models.Language
}

func (f *fakeHybridSearcher) Search(_ context.Context, query string, _ uuid.UUID, language models.Language, _ int) (*HybridResult, error) {
	f.calls++
	f.lastQuery = query
	f.lastLanguage = language
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCompleter struct {
	completion *Completion
	err        error

	calls      int
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message, _ GenerateOptions) (*Completion, error) {
	f.calls++
	if len(messages) > 0 {
		f.lastPrompt = messages[0].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

type fakeConversationStore struct {
	turns []models.ConversationTurn
	err   error
	calls int
}

func (f *fakeConversationStore) GetRecentTurns(_ context.Context, _ uuid.UUID, _ int) ([]models.ConversationTurn, error) {
	f.calls++
	return f.turns, f.err
}

func newTestRAGService(search *fakeHybridSearcher, llm *fakeCompleter, conversations *fakeConversationStore) *RAGService {
	return NewRAGService(search, llm, conversations, NewPromptBuilder(), NewLanguageDetector(), testRAGConfig(), zap.NewNop())
}

func goodAnswer() string {
	return strings.TrimSpace(strings.Repeat("Employees are entitled to twenty-one days of paid annual leave per year. ", 4))
}

func hybridFixture() *HybridResult {
	docs := []models.SearchResult{docResult(0.8)}
	regs := []models.SearchResult{regResult(0.6)}
	return &HybridResult{
		DocumentResults:   docs,
		RegulatoryResults: regs,
		CombinedRelevance: combinedRelevance(docs, regs),
	}
}

func TestQuery_EmptyTextRejectedWithoutSideEffects(t *testing.T) {
	search := &fakeHybridSearcher{}
	llm := &fakeCompleter{}
	conversations := &fakeConversationStore{}
	svc := newTestRAGService(search, llm, conversations)

	for _, text := range []string{"", "   ", "\n\t"} {
		resp, err := svc.Query(context.Background(), QueryRequest{Text: text, OrganizationID: uuid.New()})
		require.Error(t, err)
		assert.Nil(t, resp)

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "query", validationErr.Field)
	}

	assert.Zero(t, search.calls)
	assert.Zero(t, llm.calls)
	assert.Zero(t, conversations.calls)
}

func TestQuery_MissingOrganizationRejected(t *testing.T) {
	svc := newTestRAGService(&fakeHybridSearcher{}, &fakeCompleter{}, &fakeConversationStore{})

	_, err := svc.Query(context.Background(), QueryRequest{Text: "annual leave"})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "organization_id", validationErr.Field)
}

func TestQuery_Success(t *testing.T) {
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: goodAnswer(), TokensUsed: 321}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:             "What is the annual leave policy?",
		OrganizationID:   uuid.New(),
		OrganizationName: "Acme Trading",
		Language:         models.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Equal(t, goodAnswer(), resp.Answer)
	assert.Equal(t, 321, resp.TokensUsed)
	assert.Equal(t, 1, resp.DocumentResultCount)
	assert.Equal(t, 1, resp.RegulatoryResultCount)
	assert.Len(t, resp.Sources, 2)
	assert.GreaterOrEqual(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
	assert.Contains(t, llm.lastPrompt, "Acme Trading")
}

func TestQuery_ConfidenceWeights(t *testing.T) {
	answer := strings.Repeat("a", 500)
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: answer, TokensUsed: 100}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "annual leave",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)

	// 0.4*0.7 relevance + 0.3*(2/5) sources + 0.2*1 length + 0.1 regulatory bonus.
	expected := relevanceWeight*0.7 + sourceCountWeight*(2.0/5.0) + answerLengthWeight*1.0 + regulatoryBonus
	assert.InDelta(t, expected, resp.Confidence, 1e-9)
}

func TestQuery_ConfidenceZeroWithoutSources(t *testing.T) {
	search := &fakeHybridSearcher{result: &HybridResult{}}
	llm := &fakeCompleter{err: &models.GenerationError{Err: errors.New("model down")}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "annual leave",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
	assert.Empty(t, resp.Sources)
}

func TestQuery_FallbackOnGenerationFailure(t *testing.T) {
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{err: &models.GenerationError{Err: errors.New("model down")}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "What is the annual leave policy?",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Equal(t, fallbackAnswerEn, resp.Answer)
	assert.Zero(t, resp.TokensUsed)
	// Retrieval results survive the generation failure.
	assert.Len(t, resp.Sources, 2)
}

func TestQuery_FallbackOnShortAnswer(t *testing.T) {
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: "Yes.", TokensUsed: 12}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "Is annual leave paid?",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Equal(t, fallbackAnswerEn, resp.Answer)
	assert.Zero(t, resp.TokensUsed)
}

func TestQuery_ArabicFallbackText(t *testing.T) {
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{err: &models.GenerationError{Err: errors.New("model down")}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "ما هي أحكام الإجازة السنوية؟",
		OrganizationID: uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.LanguageArabic, search.lastLanguage)
	assert.Equal(t, fallbackAnswerAr, resp.Answer)
}

func TestQuery_SearchErrorPropagates(t *testing.T) {
	searchErr := &models.SearchError{Corpus: "document", Err: errors.New("index down")}
	search := &fakeHybridSearcher{err: searchErr}
	llm := &fakeCompleter{}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	_, err := svc.Query(context.Background(), QueryRequest{
		Text:           "annual leave",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.Error(t, err)
	assert.Zero(t, llm.calls)
}

func TestQuery_AttributionsSortedAndTruncated(t *testing.T) {
	longText := strings.Repeat("x", 300)
	docs := []models.SearchResult{{
		SourceType:     models.SourceTypeDocument,
		Title:          "Employee Handbook",
		Text:           longText,
		PageNumber:     4,
		RelevanceScore: 0.5,
	}}
	regs := []models.SearchResult{{
		SourceType:     models.SourceTypeLaborLaw,
		Title:          "Annual Leave",
		ArticleNumber:  "109",
		Text:           "The worker is entitled to paid annual leave.",
		RelevanceScore: 0.9,
	}}
	search := &fakeHybridSearcher{result: &HybridResult{
		DocumentResults:   docs,
		RegulatoryResults: regs,
		CombinedRelevance: combinedRelevance(docs, regs),
	}}
	llm := &fakeCompleter{completion: &Completion{Text: goodAnswer(), TokensUsed: 50}}
	svc := newTestRAGService(search, llm, &fakeConversationStore{})

	resp, err := svc.Query(context.Background(), QueryRequest{
		Text:           "annual leave",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 2)

	assert.Equal(t, models.SourceTypeLaborLaw, resp.Sources[0].SourceType)
	assert.Equal(t, "109", resp.Sources[0].ArticleNumber)
	assert.Zero(t, resp.Sources[0].PageNumber)

	assert.Equal(t, models.SourceTypeDocument, resp.Sources[1].SourceType)
	assert.Equal(t, 4, resp.Sources[1].PageNumber)
	assert.Len(t, []rune(resp.Sources[1].Excerpt), excerptMaxLen)
}

func TestQuery_HistoryEnhancement(t *testing.T) {
	longTurn := strings.Repeat("overtime ", 20)
	conversations := &fakeConversationStore{turns: []models.ConversationTurn{
		{Role: models.TurnRoleUser, Content: "What is the overtime policy?"},
		{Role: models.TurnRoleAssistant, Content: "Overtime is paid at 150 percent."},
		{Role: models.TurnRoleUser, Content: longTurn},
	}}
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: goodAnswer(), TokensUsed: 10}}
	svc := newTestRAGService(search, llm, conversations)

	conversationID := uuid.New()
	_, err := svc.Query(context.Background(), QueryRequest{
		Text:           "And does it apply on weekends?",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)

	expected := "Previous conversation: What is the overtime policy? | " +
		truncateRunes(longTurn, historyTurnMaxLen) +
		"\n\nAnd does it apply on weekends?"
	assert.Equal(t, expected, search.lastQuery)
	assert.NotContains(t, search.lastQuery, "150 percent")
}

func TestQuery_NoConversationPassesQueryThrough(t *testing.T) {
	conversations := &fakeConversationStore{}
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: goodAnswer(), TokensUsed: 10}}
	svc := newTestRAGService(search, llm, conversations)

	_, err := svc.Query(context.Background(), QueryRequest{
		Text:           "What is the annual leave policy?",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Zero(t, conversations.calls)
	assert.Equal(t, "What is the annual leave policy?", search.lastQuery)
}

func TestQuery_HistoryErrorDegradesToPlainQuery(t *testing.T) {
	conversations := &fakeConversationStore{err: errors.New("db down")}
	search := &fakeHybridSearcher{result: hybridFixture()}
	llm := &fakeCompleter{completion: &Completion{Text: goodAnswer(), TokensUsed: 10}}
	svc := newTestRAGService(search, llm, conversations)

	conversationID := uuid.New()
	_, err := svc.Query(context.Background(), QueryRequest{
		Text:           "What is the annual leave policy?",
		OrganizationID: uuid.New(),
		Language:       models.LanguageEnglish,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, "What is the annual leave policy?", search.lastQuery)
}
