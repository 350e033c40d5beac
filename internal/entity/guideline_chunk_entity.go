package entity

import (
	"github.com/google/uuid"
)

// GuidelineChunk is the domain representation of one ingested NG12 passage
// together with its embedding and structured metadata.
type GuidelineChunk struct {
	Id             uuid.UUID
	ChunkId        string
	Text           string
	EmbeddingValue []float32

	Section           string
	Page              int
	DocType           string
	CancerType        string
	ActionType        string
	Urgency           string
	AgeMin            *int
	AgeMax            *int
	GenderSpecific    string
	RiskFactorSmoking bool
	SymptomKeywords   []string
}
