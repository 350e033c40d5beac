package contract

import (
	"context"

	"ng12-assistant-be/internal/entity"
	"ng12-assistant-be/pkg/store"
)

// CorpusStats summarizes the indexed guideline corpus.
type CorpusStats struct {
	TotalChunks  int64
	ByDocType    map[string]int64
	ByCancerType map[string]int64
	ByActionType map[string]int64
	ByUrgency    map[string]int64
}

// ChunkFilter narrows the admin chunk listing. Zero values mean no filter.
type ChunkFilter struct {
	DocType    string
	CancerType string
	ActionType string
	Search     string
}

type GuidelineChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.GuidelineChunk) error
	Truncate(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*CorpusStats, error)
	List(ctx context.Context, filter ChunkFilter, offset, limit int) ([]*entity.GuidelineChunk, int64, error)

	// SearchSimilarWithScore returns the closest chunks by cosine
	// similarity, best first, with scores in [0, 1].
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]store.Chunk, error)
}
