package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type GuidelineChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChunkId        string          `gorm:"uniqueIndex;not null"`
	Text           string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text / text-embedding-004 use 768 dimensions

	// Structured NG12 attributes extracted at ingestion time
	Section           string         `gorm:"index"`
	Page              int            `gorm:"default:0"`
	DocType           string         `gorm:"index"`
	CancerType        string         `gorm:"index"`
	ActionType        string         ``
	Urgency           string         ``
	AgeMin            *int           ``
	AgeMax            *int           ``
	GenderSpecific    string         ``
	RiskFactorSmoking bool           `gorm:"default:false"`
	SymptomKeywords   datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (GuidelineChunk) TableName() string {
	return "guideline_chunks"
}
