package service

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"ng12-assistant-be/internal/dto"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/memory"
	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/rag/classify"
	"ng12-assistant-be/pkg/rag/executor"
	"ng12-assistant-be/pkg/rag/search"
	"ng12-assistant-be/pkg/store"
)

// IChatService defines the conversational guideline Q&A surface.
type IChatService interface {
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error)
	ClearHistory(ctx context.Context, sessionId string) (*dto.ClearChatHistoryResponse, error)
}

type chatService struct {
	turnExecutor *executor.TurnExecutor
	sessionRepo  *memory.SessionRepository
	sysLogger    logger.ILogger
}

func NewChatService(
	llmProvider llm.LLMProvider,
	retriever search.Retriever,
	sessionRepo *memory.SessionRepository,
	sysLogger logger.ILogger,
) IChatService {
	llmLogger := initLLMLogger()
	return &chatService{
		turnExecutor: executor.NewTurnExecutor(llmProvider, retriever, sessionRepo, llmLogger),
		sessionRepo:  sessionRepo,
		sysLogger:    sysLogger,
	}
}

// initLLMLogger writes the verbose pipeline trace to its own file so the
// main log stays readable.
func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	result, err := cs.turnExecutor.Execute(ctx, request.SessionId, request.Message)
	if err != nil {
		cs.sysLogger.Error("chat", "Turn execution failed", map[string]interface{}{
			"session_id": request.SessionId,
			"error":      err.Error(),
		})
		return nil, err
	}

	cs.sysLogger.Info("chat", "Turn completed", map[string]interface{}{
		"session_id":     request.SessionId,
		"classification": string(result.Classification),
		"strategy":       result.Strategy,
		"verdict":        string(result.Verdict),
		"citations":      result.CitationCount,
	})

	debug := dto.ChatDebugDTO{
		InputClassification: string(result.Classification),
		QueryStrategy:       result.Strategy,
		SearchQuery:         result.SearchQuery,
		GuardrailResult:     string(result.Verdict),
		CitationCount:       result.CitationCount,
		QuerySummary:        result.QuerySummary,
	}
	// Whenever retrieval ran the scores are reported, even for turns the
	// gate sends out of scope.
	if result.Classification == classify.Proceed {
		breakdown := dto.ScoreBreakdownDTO(result.ScoreBreakdown)
		debug.ScoreBreakdown = &breakdown
	}

	return &dto.SendChatResponse{
		SessionId: request.SessionId,
		Answer:    result.Answer,
		Citations: toCitationDTOs(result.Citations),
		Debug:     debug,
	}, nil
}

func (cs *chatService) GetHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error) {
	history := cs.sessionRepo.History(sessionId)
	messages := make([]dto.ChatMessageDTO, len(history))
	for i, msg := range history {
		messages[i] = dto.ChatMessageDTO{Role: msg.Role, Content: msg.Content}
	}

	return &dto.GetChatHistoryResponse{
		SessionId: sessionId,
		History:   messages,
		Topic:     cs.sessionRepo.Topic(sessionId),
	}, nil
}

func (cs *chatService) ClearHistory(ctx context.Context, sessionId string) (*dto.ClearChatHistoryResponse, error) {
	cs.sessionRepo.Clear(sessionId)
	cs.sysLogger.Info("chat", "Session cleared", map[string]interface{}{
		"session_id": sessionId,
	})
	return &dto.ClearChatHistoryResponse{
		Status:    "cleared",
		SessionId: sessionId,
	}, nil
}

func toCitationDTOs(citations []store.Citation) []dto.CitationDTO {
	out := make([]dto.CitationDTO, len(citations))
	for i, c := range citations {
		out[i] = dto.CitationDTO{
			Source:  c.Source,
			Section: c.Section,
			Page:    c.Page,
			ChunkId: c.ChunkID,
			Excerpt: c.Excerpt,
		}
	}
	return out
}
