package service

import (
	"context"
	"fmt"
	"strings"

	"mostashar/internal/models"
	"mostashar/pkg/cache"

	"go.uber.org/zap"
)

// TitleSearcher matches regulatory article titles against a query fragment.
type TitleSearcher interface {
	SearchTitles(ctx context.Context, fragment string, language models.Language, limit int) ([]string, error)
}

// SuggestService serves query suggestions from regulatory article titles.
// Results are cached in a bounded TTL LRU keyed by query plus options; the
// titles change only when the knowledge base is reseeded, so a short TTL is
// plenty.
type SuggestService struct {
	articles TitleSearcher
	cache    *cache.Cache[[]string]
	logger   *zap.Logger
}

func NewSuggestService(articles TitleSearcher, cache *cache.Cache[[]string], logger *zap.Logger) *SuggestService {
	return &SuggestService{
		articles: articles,
		cache:    cache,
		logger:   logger,
	}
}

const defaultSuggestLimit = 5

func (s *SuggestService) Suggest(ctx context.Context, fragment string, language models.Language, limit int) ([]string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	key := fmt.Sprintf("%s|%s|%d", strings.ToLower(fragment), language, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	titles, err := s.articles.SearchTitles(ctx, fragment, language, limit)
	if err != nil {
		return nil, fmt.Errorf("search article titles: %w", err)
	}

	s.cache.Set(key, titles)
	return titles, nil
}
