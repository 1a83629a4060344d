package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mostashar/internal/api"
	"mostashar/internal/api/handlers"
	"mostashar/internal/jobs"
	"mostashar/internal/repository"
	"mostashar/internal/service"
	"mostashar/pkg/cache"
	"mostashar/pkg/config"
	"mostashar/pkg/logger"
	"mostashar/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting mostashar service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	docRepo := repository.NewDocumentRepository(db, appLogger)
	chunkRepo := repository.NewChunkRepository(db, cfg.Ingest.BatchSize, appLogger)
	articleRepo := repository.NewArticleRepository(db, appLogger)
	conversationRepo := repository.NewConversationRepository(db, appLogger)

	// External model clients
	embedder := service.NewEmbeddingClient(&cfg.OpenAI, appLogger)
	llm := service.NewLLMClient(&cfg.OpenAI, appLogger)

	// Ingestion pipeline
	extractor := service.NewExtractor(appLogger)
	detector := service.NewLanguageDetector()
	chunker := service.NewChunker()

	var ingestService *service.IngestService
	queue := jobs.NewQueue(cfg.Ingest.Workers, cfg.Ingest.QueueSize, cfg.Ingest.MaxAttempts,
		func(ctx context.Context, documentID uuid.UUID) error {
			return ingestService.Process(ctx, documentID)
		}, appLogger)
	ingestService = service.NewIngestService(docRepo, chunkRepo, extractor, detector, chunker,
		embedder, queue, cfg.Ingest.UploadDir, appLogger)
	queue.Start(ctx)
	defer queue.Stop()

	// Query pipeline
	searchService := service.NewSearchService(chunkRepo, articleRepo, embedder, &cfg.RAG, appLogger)
	ragService := service.NewRAGService(searchService, llm, conversationRepo,
		service.NewPromptBuilder(), detector, &cfg.RAG, appLogger)

	suggestCache := cache.New[[]string](cfg.Suggest.CacheSize, cfg.Suggest.CacheTTL)
	suggestService := service.NewSuggestService(articleRepo, suggestCache, appLogger)

	// HTTP surface
	docHandler := handlers.NewDocumentHandler(ingestService, docRepo, appLogger)
	queryHandler := handlers.NewQueryHandler(ragService, suggestService, appLogger)
	app := api.SetupRouter(docHandler, queryHandler, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
