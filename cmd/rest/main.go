package main

import (
	"context"
	"log"

	"ng12-assistant-be/internal/bootstrap"
	"ng12-assistant-be/internal/config"
	"ng12-assistant-be/internal/model"
	"ng12-assistant-be/internal/server"
	"ng12-assistant-be/internal/tracer"
	"ng12-assistant-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.TracingEnabled)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.EnsureExtensions(gormDB); err != nil {
		log.Panicf("Unable to install database extensions: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.GuidelineChunk{}); err != nil {
		log.Panicf("Unable to migrate schema: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Auto-ingest when the index is empty, so a fresh deployment
	// answers questions without a manual refresh.
	ctx := context.Background()
	count, err := container.ChunkRepo.Count(ctx)
	if err != nil {
		log.Panicf("Unable to inspect corpus: %v", err)
	}
	if count == 0 {
		log.Println("Corpus is empty. Running initial ingestion...")
		indexed, err := container.Ingester.Run(ctx, cfg.Corpus.ChunksPath)
		if err != nil {
			log.Printf("Warning: initial ingestion failed: %v (chat will refuse until refreshed)", err)
		} else {
			log.Printf("Indexed %d guideline chunks", indexed)
		}
	} else {
		log.Printf("Corpus ready: %d guideline chunks", count)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
