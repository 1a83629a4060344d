package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChunkSearcher is the similarity index plus keyword fallback over the
// organization-document corpus.
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, organizationID uuid.UUID, language models.Language, limit int, minSimilarity float64) ([]models.SearchResult, error)
	KeywordSearch(ctx context.Context, words []string, organizationID uuid.UUID, language models.Language, limit int) ([]models.SearchResult, error)
}

// ArticleSearcher is the similarity index over the regulatory corpus.
type ArticleSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, language models.Language, limit int, minSimilarity float64) ([]models.SearchResult, error)
}

// QueryEmbedder produces domain-biased query vectors.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string, language models.Language) ([]float32, error)
}

// HybridResult keeps the two corpora separate so the prompt builder and the
// attribution formatter can treat them differently.
type HybridResult struct {
	DocumentResults   []models.SearchResult
	RegulatoryResults []models.SearchResult
	CombinedRelevance float64
}

// SearchService fans a query out to both corpora and merges the results.
type SearchService struct {
	chunks   ChunkSearcher
	articles ArticleSearcher
	embedder QueryEmbedder
	cfg      *config.RAGConfig
	logger   *zap.Logger
}

func NewSearchService(chunks ChunkSearcher, articles ArticleSearcher, embedder QueryEmbedder, cfg *config.RAGConfig, logger *zap.Logger) *SearchService {
	return &SearchService{
		chunks:   chunks,
		articles: articles,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search runs the hybrid retrieval: the result budget is split between the
// document corpus and the regulatory corpus, each queried independently. An
// embedding failure aborts the whole search; a corpus failure degrades that
// corpus only. Results are merged only after both corpora completed.
func (s *SearchService) Search(ctx context.Context, query string, organizationID uuid.UUID, language models.Language, limit int) (*HybridResult, error) {
	if limit <= 0 {
		limit = s.cfg.TopK
	}
	docLimit := int(math.Ceil(float64(limit) * s.cfg.DocShare))
	regLimit := limit - docLimit
	// The regulatory corpus keeps a minimum slot when rounding leaves it
	// empty, taken out of the document share so the budget holds. A budget
	// of one goes entirely to the document corpus.
	if regLimit < 1 && s.cfg.DocShare < 1 && limit > 1 {
		regLimit = 1
		docLimit = limit - 1
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query, language)
	if err != nil {
		// No silent empty result on a query-time embedding failure.
		return nil, err
	}

	docResults := s.searchDocuments(ctx, query, embedding, organizationID, language, docLimit)
	regResults := s.searchRegulatory(ctx, embedding, language, regLimit)

	result := &HybridResult{
		DocumentResults:   docResults,
		RegulatoryResults: regResults,
		CombinedRelevance: combinedRelevance(docResults, regResults),
	}

	s.logger.Info("Hybrid search completed",
		zap.String("organization_id", organizationID.String()),
		zap.String("language", string(language)),
		zap.Int("document_results", len(docResults)),
		zap.Int("regulatory_results", len(regResults)),
		zap.Float64("combined_relevance", result.CombinedRelevance),
	)

	return result, nil
}

// searchDocuments tries the similarity index first and falls back to keyword
// search when the index fails or returns nothing above threshold.
func (s *SearchService) searchDocuments(ctx context.Context, query string, embedding []float32, organizationID uuid.UUID, language models.Language, limit int) []models.SearchResult {
	results, err := s.chunks.SearchSimilar(ctx, embedding, organizationID, language, limit, s.cfg.MinSimilarity)
	if err == nil && len(results) > 0 {
		return results
	}

	if err != nil {
		s.logger.Warn("Document similarity search failed, falling back to keywords", zap.Error(err))
	}

	words := ExtractKeywords(query, language, maxKeywords)
	fallback, fbErr := s.chunks.KeywordSearch(ctx, words, organizationID, language, limit)
	if fbErr != nil {
		s.logger.Warn("Keyword fallback failed", zap.Error(fbErr))
		return nil
	}
	if len(fallback) > 0 {
		s.logger.Info("Keyword fallback used",
			zap.Strings("keywords", words),
			zap.Int("results", len(fallback)),
		)
	}
	return fallback
}

// searchRegulatory has no fallback: an unreachable regulatory index simply
// contributes zero results.
func (s *SearchService) searchRegulatory(ctx context.Context, embedding []float32, language models.Language, limit int) []models.SearchResult {
	if limit <= 0 {
		return nil
	}
	results, err := s.articles.SearchSimilar(ctx, embedding, language, limit, s.cfg.MinSimilarity)
	if err != nil {
		s.logger.Warn("Regulatory search failed", zap.Error(err))
		return nil
	}
	return results
}

// combinedRelevance averages the two corpora's mean relevances. When one
// corpus is empty the other's mean stands alone rather than being halved, so
// a tenant with no regulatory overlap is not penalized.
func combinedRelevance(docResults, regResults []models.SearchResult) float64 {
	docMean := meanRelevance(docResults)
	regMean := meanRelevance(regResults)

	switch {
	case len(docResults) == 0 && len(regResults) == 0:
		return 0
	case len(docResults) == 0:
		return regMean
	case len(regResults) == 0:
		return docMean
	default:
		return (docMean + regMean) / 2
	}
}

func meanRelevance(results []models.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.RelevanceScore
	}
	return sum / float64(len(results))
}

const maxKeywords = 5

var arabicStopWords = map[string]struct{}{
	"في": {}, "من": {}, "على": {}, "إلى": {}, "الى": {}, "عن": {},
	"ما": {}, "هل": {}, "هذا": {}, "هذه": {}, "التي": {}, "الذي": {},
	"هي": {}, "هو": {}, "مع": {}, "أو": {}, "و": {}, "ان": {}, "أن": {},
	"كل": {}, "عند": {},
}

var englishStopWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "of": {}, "to": {}, "and": {},
	"what": {}, "how": {}, "for": {}, "in": {}, "on": {}, "a": {},
	"an": {}, "with": {}, "that": {}, "this": {}, "be": {}, "it": {},
	"do": {}, "does": {}, "can": {}, "my": {}, "i": {},
}

// ExtractKeywords returns up to max content words from the query after
// stop-word removal, most frequent first with first-seen order breaking ties.
func ExtractKeywords(query string, language models.Language, max int) []string {
	stopWords := englishStopWords
	if language == models.LanguageArabic {
		stopWords = arabicStopWords
	}

	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for i, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = i
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	return order
}
