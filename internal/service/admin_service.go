package service

import (
	"context"

	"ng12-assistant-be/internal/dto"
	"ng12-assistant-be/internal/ingest"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/contract"
	"ng12-assistant-be/internal/repository/memory"
)

// IAdminService exposes corpus management and inspection operations.
type IAdminService interface {
	Refresh(ctx context.Context) (*dto.RefreshCorpusResponse, error)
	Stats(ctx context.Context) (*dto.CorpusStatsResponse, error)
	ListChunks(ctx context.Context, request *dto.ListChunksRequest) (*dto.ListChunksResponse, error)
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type adminService struct {
	chunkRepo   contract.GuidelineChunkRepository
	ingester    *ingest.Ingester
	sessionRepo *memory.SessionRepository
	chunksPath  string
	sysLogger   logger.ILogger
}

func NewAdminService(
	chunkRepo contract.GuidelineChunkRepository,
	ingester *ingest.Ingester,
	sessionRepo *memory.SessionRepository,
	chunksPath string,
	sysLogger logger.ILogger,
) IAdminService {
	return &adminService{
		chunkRepo:   chunkRepo,
		ingester:    ingester,
		sessionRepo: sessionRepo,
		chunksPath:  chunksPath,
		sysLogger:   sysLogger,
	}
}

// Refresh re-indexes the corpus and clears all chat sessions. Stored topics
// reference chunk content, so they cannot survive a corpus swap.
func (s *adminService) Refresh(ctx context.Context) (*dto.RefreshCorpusResponse, error) {
	count, err := s.ingester.Run(ctx, s.chunksPath)
	if err != nil {
		s.sysLogger.Error("admin", "Corpus refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	s.sessionRepo.ClearAll()
	s.sysLogger.Info("admin", "Corpus refreshed", map[string]interface{}{
		"chunks_indexed": count,
	})

	return &dto.RefreshCorpusResponse{
		Status:          "success",
		ChunksIndexed:   count,
		SessionsCleared: true,
	}, nil
}

func (s *adminService) Stats(ctx context.Context) (*dto.CorpusStatsResponse, error) {
	stats, err := s.chunkRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.CorpusStatsResponse{
		TotalChunks:            stats.TotalChunks,
		DocTypeDistribution:    stats.ByDocType,
		CancerTypeDistribution: stats.ByCancerType,
		ActionTypeDistribution: stats.ByActionType,
		UrgencyDistribution:    stats.ByUrgency,
		ActiveSessions:         s.sessionRepo.Count(),
	}, nil
}

func (s *adminService) ListChunks(ctx context.Context, request *dto.ListChunksRequest) (*dto.ListChunksResponse, error) {
	page := request.Page
	if page < 1 {
		page = 1
	}
	pageSize := request.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := contract.ChunkFilter{
		DocType:    request.DocType,
		CancerType: request.CancerType,
		ActionType: request.ActionType,
		Search:     request.Search,
	}

	entities, total, err := s.chunkRepo.List(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]dto.AdminChunkDTO, len(entities))
	for i, e := range entities {
		preview := e.Text
		if len(preview) > 150 {
			preview = preview[:150]
		}
		chunks[i] = dto.AdminChunkDTO{
			ChunkId:     e.ChunkId,
			DocType:     e.DocType,
			Section:     e.Section,
			CancerType:  e.CancerType,
			ActionType:  e.ActionType,
			Urgency:     e.Urgency,
			Page:        e.Page,
			AgeMin:      e.AgeMin,
			AgeMax:      e.AgeMax,
			Symptoms:    e.SymptomKeywords,
			TextPreview: preview,
		}
	}

	return &dto.ListChunksResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Chunks:   chunks,
	}, nil
}

func (s *adminService) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	if limit < 1 {
		limit = 50
	}
	return s.sysLogger.GetLogs(level, limit, offset)
}
