// Seeds the regulatory knowledge base from a JSON file of labor-law articles,
// embedding the Arabic and English text of each article.
//
// Usage: seed -file articles.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"mostashar/internal/models"
	"mostashar/internal/repository"
	"mostashar/internal/service"
	"mostashar/pkg/config"
	"mostashar/pkg/logger"
	"mostashar/pkg/postgres"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type seedArticle struct {
	ArticleNumber string `json:"article_number"`
	Category      string `json:"category"`
	TitleAr       string `json:"title_ar"`
	TitleEn       string `json:"title_en"`
	ContentAr     string `json:"content_ar"`
	ContentEn     string `json:"content_en"`
	SummaryAr     string `json:"summary_ar"`
	SummaryEn     string `json:"summary_en"`
}

func main() {
	filePath := flag.String("file", "articles.json", "path to the articles JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	articleRepo := repository.NewArticleRepository(db, appLogger)
	embedder := service.NewEmbeddingClient(&cfg.OpenAI, appLogger)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		appLogger.Fatal("Failed to read articles file", zap.String("file", *filePath), zap.Error(err))
	}

	var articles []seedArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		appLogger.Fatal("Failed to parse articles file", zap.Error(err))
	}

	appLogger.Info("Seeding regulatory knowledge base", zap.Int("articles", len(articles)))

	seeded := 0
	for _, a := range articles {
		embeddingAr, err := embedder.Embed(ctx, a.TitleAr+"\n"+a.ContentAr)
		if err != nil {
			appLogger.Error("Failed to embed Arabic text",
				zap.String("article_number", a.ArticleNumber), zap.Error(err))
			continue
		}
		embeddingEn, err := embedder.Embed(ctx, a.TitleEn+"\n"+a.ContentEn)
		if err != nil {
			appLogger.Error("Failed to embed English text",
				zap.String("article_number", a.ArticleNumber), zap.Error(err))
			continue
		}

		now := time.Now()
		article := &models.RegulatoryArticle{
			ID:            uuid.New(),
			ArticleNumber: a.ArticleNumber,
			Category:      a.Category,
			TitleAr:       a.TitleAr,
			TitleEn:       a.TitleEn,
			ContentAr:     a.ContentAr,
			ContentEn:     a.ContentEn,
			SummaryAr:     a.SummaryAr,
			SummaryEn:     a.SummaryEn,
			EmbeddingAr:   pgvector.NewVector(embeddingAr),
			EmbeddingEn:   pgvector.NewVector(embeddingEn),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := articleRepo.Upsert(ctx, article); err != nil {
			appLogger.Error("Failed to upsert article",
				zap.String("article_number", a.ArticleNumber), zap.Error(err))
			continue
		}
		seeded++
	}

	appLogger.Info("Seeding finished",
		zap.Int("seeded", seeded),
		zap.Int("skipped", len(articles)-seeded),
	)
}
