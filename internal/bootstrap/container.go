package bootstrap

import (
	"log"

	"ng12-assistant-be/internal/config"
	"ng12-assistant-be/internal/controller"
	"ng12-assistant-be/internal/ingest"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/pkg/serverutils"
	"ng12-assistant-be/internal/repository/contract"
	"ng12-assistant-be/internal/repository/file"
	"ng12-assistant-be/internal/repository/implementation"
	"ng12-assistant-be/internal/repository/memory"
	"ng12-assistant-be/internal/service"
	"ng12-assistant-be/pkg/embedding"
	"ng12-assistant-be/pkg/llm/factory"
	"ng12-assistant-be/pkg/rag/search"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController       controller.IChatController
	AssessmentController controller.IAssessmentController
	AdminController      controller.IAdminController

	// Middleware
	JwtMiddleware fiber.Handler

	// Exposed for cmd/ingest and startup checks
	Ingester  *ingest.Ingester
	ChunkRepo contract.GuidelineChunkRepository

	SysLogger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Embedding provider
	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Repositories
	chunkRepo := implementation.NewGuidelineChunkRepository(db)
	sessionRepo := memory.NewSessionRepository(cfg.Corpus.SessionTTL)
	patientRepo := file.NewPatientRepository(cfg.Corpus.PatientsPath)

	// Retrieval
	orchestrator := search.NewOrchestrator(embeddingProvider, chunkRepo)

	// Ingestion
	ingester := ingest.NewIngester(chunkRepo, embeddingProvider, sysLogger)

	// Services
	chatService := service.NewChatService(llmProvider, orchestrator, sessionRepo, sysLogger)
	assessmentService := service.NewAssessmentService(patientRepo, orchestrator, llmProvider, sysLogger)
	adminService := service.NewAdminService(chunkRepo, ingester, sessionRepo, cfg.Corpus.ChunksPath, sysLogger)

	return &Container{
		ChatController:       controller.NewChatController(chatService),
		AssessmentController: controller.NewAssessmentController(assessmentService),
		AdminController:      controller.NewAdminController(adminService),
		JwtMiddleware:        serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret),
		Ingester:             ingester,
		ChunkRepo:            chunkRepo,
		SysLogger:            sysLogger,
	}
}
