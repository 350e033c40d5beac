package mapper

import (
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"ng12-assistant-be/internal/entity"
	"ng12-assistant-be/internal/model"
	"ng12-assistant-be/pkg/store"
)

type GuidelineChunkMapper struct{}

func NewGuidelineChunkMapper() *GuidelineChunkMapper {
	return &GuidelineChunkMapper{}
}

func (m *GuidelineChunkMapper) ToModel(e *entity.GuidelineChunk) *model.GuidelineChunk {
	var keywords datatypes.JSON
	if len(e.SymptomKeywords) > 0 {
		if raw, err := json.Marshal(e.SymptomKeywords); err == nil {
			keywords = raw
		}
	}
	return &model.GuidelineChunk{
		Id:                e.Id,
		ChunkId:           e.ChunkId,
		Text:              e.Text,
		EmbeddingValue:    pgvector.NewVector(e.EmbeddingValue),
		Section:           e.Section,
		Page:              e.Page,
		DocType:           e.DocType,
		CancerType:        e.CancerType,
		ActionType:        e.ActionType,
		Urgency:           e.Urgency,
		AgeMin:            e.AgeMin,
		AgeMax:            e.AgeMax,
		GenderSpecific:    e.GenderSpecific,
		RiskFactorSmoking: e.RiskFactorSmoking,
		SymptomKeywords:   keywords,
	}
}

func (m *GuidelineChunkMapper) ToEntity(mo *model.GuidelineChunk) *entity.GuidelineChunk {
	var keywords []string
	if len(mo.SymptomKeywords) > 0 {
		// Malformed metadata degrades to no keywords rather than failing the read
		_ = json.Unmarshal(mo.SymptomKeywords, &keywords)
	}
	return &entity.GuidelineChunk{
		Id:                mo.Id,
		ChunkId:           mo.ChunkId,
		Text:              mo.Text,
		EmbeddingValue:    mo.EmbeddingValue.Slice(),
		Section:           mo.Section,
		Page:              mo.Page,
		DocType:           mo.DocType,
		CancerType:        mo.CancerType,
		ActionType:        mo.ActionType,
		Urgency:           mo.Urgency,
		AgeMin:            mo.AgeMin,
		AgeMax:            mo.AgeMax,
		GenderSpecific:    mo.GenderSpecific,
		RiskFactorSmoking: mo.RiskFactorSmoking,
		SymptomKeywords:   keywords,
	}
}

// ToStoreChunk converts a scored entity into the retrieval result shape the
// pipeline works with.
func (m *GuidelineChunkMapper) ToStoreChunk(e *entity.GuidelineChunk, score float64) store.Chunk {
	return store.Chunk{
		ID:    e.ChunkId,
		Text:  e.Text,
		Score: score,
		Metadata: store.ChunkMetadata{
			ChunkID:           e.ChunkId,
			Section:           e.Section,
			Page:              e.Page,
			DocType:           e.DocType,
			CancerType:        e.CancerType,
			ActionType:        e.ActionType,
			Urgency:           e.Urgency,
			AgeMin:            e.AgeMin,
			AgeMax:            e.AgeMax,
			GenderSpecific:    e.GenderSpecific,
			SymptomKeywords:   e.SymptomKeywords,
			RiskFactorSmoking: e.RiskFactorSmoking,
		},
	}
}
