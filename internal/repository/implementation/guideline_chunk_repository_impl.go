package implementation

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ng12-assistant-be/internal/entity"
	"ng12-assistant-be/internal/mapper"
	"ng12-assistant-be/internal/model"
	"ng12-assistant-be/internal/repository/contract"
	"ng12-assistant-be/pkg/store"
)

type GuidelineChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GuidelineChunkMapper
}

func NewGuidelineChunkRepository(db *gorm.DB) contract.GuidelineChunkRepository {
	return &GuidelineChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewGuidelineChunkMapper(),
	}
}

func (r *GuidelineChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.GuidelineChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.GuidelineChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	// Batched insert keeps the statement size bounded for large corpora
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *GuidelineChunkRepositoryImpl) Truncate(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.GuidelineChunk{}).Error
}

func (r *GuidelineChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GuidelineChunk{}).Count(&count).Error
	return count, err
}

func (r *GuidelineChunkRepositoryImpl) Stats(ctx context.Context) (*contract.CorpusStats, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &contract.CorpusStats{TotalChunks: total}

	for _, agg := range []struct {
		column string
		dest   *map[string]int64
	}{
		{"doc_type", &stats.ByDocType},
		{"cancer_type", &stats.ByCancerType},
		{"action_type", &stats.ByActionType},
		{"urgency", &stats.ByUrgency},
	} {
		counts, err := r.countByColumn(ctx, agg.column)
		if err != nil {
			return nil, err
		}
		*agg.dest = counts
	}
	return stats, nil
}

func (r *GuidelineChunkRepositoryImpl) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	type bucket struct {
		Key   string
		Count int64
	}

	var buckets []bucket
	if err := r.db.WithContext(ctx).
		Model(&model.GuidelineChunk{}).
		Select(column + " as key, count(*) as count").
		Group(column).
		Scan(&buckets).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}
	return counts, nil
}

func (r *GuidelineChunkRepositoryImpl) List(ctx context.Context, filter contract.ChunkFilter, offset, limit int) ([]*entity.GuidelineChunk, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.GuidelineChunk{})

	if filter.DocType != "" {
		query = query.Where("doc_type = ?", filter.DocType)
	}
	if filter.CancerType != "" {
		query = query.Where("cancer_type = ?", filter.CancerType)
	}
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.Search != "" {
		query = query.Where("text ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*model.GuidelineChunk
	if err := query.Order("chunk_id").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	entities := make([]*entity.GuidelineChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, total, nil
}

// SearchSimilarWithScore computes cosine similarity in the database.
// pgvector's <=> operator yields cosine distance, so similarity is
// 1 - (embedding_value <=> query_vector).
func (r *GuidelineChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]store.Chunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.GuidelineChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("guideline_chunks").
		Select("guideline_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, len(results))
	for i, res := range results {
		e := r.mapper.ToEntity(&res.GuidelineChunk)
		chunks[i] = r.mapper.ToStoreChunk(e, res.Similarity)
	}
	return chunks, nil
}
