// Package ingest loads the pre-chunked NG12 corpus from JSON, embeds each
// passage, and replaces the vector store contents in one pass.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ng12-assistant-be/internal/apperr"
	"ng12-assistant-be/internal/entity"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/contract"
	"ng12-assistant-be/pkg/embedding"
)

// ChunkRecord is one corpus entry as serialized by the chunking step.
type ChunkRecord struct {
	ChunkId           string   `json:"chunk_id"`
	Text              string   `json:"text"`
	Section           string   `json:"section"`
	Page              int      `json:"page"`
	DocType           string   `json:"doc_type"`
	CancerType        string   `json:"cancer_type"`
	ActionType        string   `json:"action_type"`
	Urgency           string   `json:"urgency"`
	AgeMin            *int     `json:"age_min"`
	AgeMax            *int     `json:"age_max"`
	GenderSpecific    string   `json:"gender_specific"`
	RiskFactorSmoking bool     `json:"risk_factor_smoking"`
	SymptomKeywords   []string `json:"symptom_keywords"`
}

type Ingester struct {
	repo     contract.GuidelineChunkRepository
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
}

func NewIngester(repo contract.GuidelineChunkRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) *Ingester {
	return &Ingester{
		repo:     repo,
		embedder: embedder,
		logger:   log,
	}
}

// LoadFile parses the corpus JSON. Records without a chunk_id or text are
// rejected: they would be unciteable or unsearchable respectively.
func LoadFile(path string) ([]ChunkRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var records []ChunkRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}

	for i, rec := range records {
		if rec.ChunkId == "" {
			return nil, fmt.Errorf("corpus record %d: missing chunk_id", i)
		}
		if rec.Text == "" {
			return nil, fmt.Errorf("corpus record %d (%s): empty text", i, rec.ChunkId)
		}
	}
	return records, nil
}

// Run replaces the indexed corpus with the contents of the given file.
// Returns the number of chunks indexed.
func (ing *Ingester) Run(ctx context.Context, path string) (int, error) {
	records, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	ing.logger.Info("ingest", "Corpus file loaded", map[string]interface{}{
		"path":   path,
		"chunks": len(records),
	})

	entities := make([]*entity.GuidelineChunk, 0, len(records))
	for _, rec := range records {
		resp, err := ing.embedder.Generate(rec.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			// Ingestion has no fallback without the embedding backend.
			return 0, fmt.Errorf("embed chunk %s (%v): %w", rec.ChunkId, err, apperr.ErrCollaboratorUnavailable)
		}
		entities = append(entities, &entity.GuidelineChunk{
			ChunkId:           rec.ChunkId,
			Text:              rec.Text,
			EmbeddingValue:    resp.Embedding.Values,
			Section:           rec.Section,
			Page:              rec.Page,
			DocType:           rec.DocType,
			CancerType:        rec.CancerType,
			ActionType:        rec.ActionType,
			Urgency:           rec.Urgency,
			AgeMin:            rec.AgeMin,
			AgeMax:            rec.AgeMax,
			GenderSpecific:    rec.GenderSpecific,
			RiskFactorSmoking: rec.RiskFactorSmoking,
			SymptomKeywords:   rec.SymptomKeywords,
		})
	}

	// Truncate only after every embedding succeeded, so a failed run
	// leaves the previous index intact.
	if err := ing.repo.Truncate(ctx); err != nil {
		return 0, fmt.Errorf("truncate corpus: %w", err)
	}
	if err := ing.repo.CreateBulk(ctx, entities); err != nil {
		return 0, fmt.Errorf("index corpus: %w", err)
	}

	ing.logger.Info("ingest", "Corpus indexed", map[string]interface{}{
		"chunks": len(entities),
	})
	return len(entities), nil
}
