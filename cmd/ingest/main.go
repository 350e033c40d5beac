package main

import (
	"context"
	"flag"
	"log"

	"ng12-assistant-be/internal/config"
	"ng12-assistant-be/internal/ingest"
	"ng12-assistant-be/internal/model"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/implementation"
	"ng12-assistant-be/pkg/database"
	"ng12-assistant-be/pkg/embedding"
)

// Standalone corpus indexer. Embeds every chunk in the corpus file and
// replaces the vector store contents, without starting the HTTP server.
func main() {
	cfg := config.Load()

	chunksPath := flag.String("chunks", cfg.Corpus.ChunksPath, "path to the corpus JSON file")
	flag.Parse()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.EnsureExtensions(gormDB); err != nil {
		log.Fatalf("Unable to install database extensions: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.GuidelineChunk{}); err != nil {
		log.Fatalf("Unable to migrate schema: %v", err)
	}

	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("Unable to initialize embedding provider: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	chunkRepo := implementation.NewGuidelineChunkRepository(gormDB)
	ingester := ingest.NewIngester(chunkRepo, embeddingProvider, sysLogger)

	count, err := ingester.Run(context.Background(), *chunksPath)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
	log.Printf("✅ Indexed %d guideline chunks from %s", count, *chunksPath)
}
