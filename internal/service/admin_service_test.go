package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ng12-assistant-be/internal/apperr"
	"ng12-assistant-be/internal/dto"
	"ng12-assistant-be/internal/entity"
	"ng12-assistant-be/internal/ingest"
	"ng12-assistant-be/internal/repository/contract"
	"ng12-assistant-be/internal/repository/memory"
	"ng12-assistant-be/pkg/embedding"
	"ng12-assistant-be/pkg/store"
)

// fakeChunkRepo is an in-memory stand-in for the pgvector-backed repository.
type fakeChunkRepo struct {
	chunks []*entity.GuidelineChunk
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.GuidelineChunk) error {
	r.chunks = append(r.chunks, chunks...)
	return nil
}

func (r *fakeChunkRepo) Truncate(ctx context.Context) error {
	r.chunks = nil
	return nil
}

func (r *fakeChunkRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.chunks)), nil
}

func (r *fakeChunkRepo) Stats(ctx context.Context) (*contract.CorpusStats, error) {
	stats := &contract.CorpusStats{
		TotalChunks:  int64(len(r.chunks)),
		ByDocType:    map[string]int64{},
		ByCancerType: map[string]int64{},
		ByActionType: map[string]int64{},
		ByUrgency:    map[string]int64{},
	}
	for _, c := range r.chunks {
		stats.ByDocType[c.DocType]++
		stats.ByCancerType[c.CancerType]++
		stats.ByActionType[c.ActionType]++
		stats.ByUrgency[c.Urgency]++
	}
	return stats, nil
}

func (r *fakeChunkRepo) List(ctx context.Context, filter contract.ChunkFilter, offset, limit int) ([]*entity.GuidelineChunk, int64, error) {
	var matched []*entity.GuidelineChunk
	for _, c := range r.chunks {
		if filter.DocType != "" && c.DocType != filter.DocType {
			continue
		}
		if filter.CancerType != "" && c.CancerType != filter.CancerType {
			continue
		}
		matched = append(matched, c)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, vector []float32, limit int) ([]store.Chunk, error) {
	return nil, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return nil, errors.New("connection refused")
}

const adminCorpusFixture = `[
  {"chunk_id": "rule_1.1.1", "text": "Lung referral rule.", "section": "1.1.1", "page": 9, "doc_type": "rule_search", "cancer_type": "Lung", "action_type": "referral", "urgency": "urgent"},
  {"chunk_id": "rule_1.3.1", "text": "Colorectal referral rule.", "section": "1.3.1", "page": 15, "doc_type": "rule_search", "cancer_type": "Colorectal"},
  {"chunk_id": "index_haemoptysis", "text": "Haemoptysis index entry.", "page": 43, "doc_type": "symptom_index"}
]`

func newAdminService(t *testing.T) (IAdminService, *fakeChunkRepo, *memory.SessionRepository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, os.WriteFile(path, []byte(adminCorpusFixture), 0644))

	repo := &fakeChunkRepo{}
	sessions := memory.NewSessionRepository(0)
	ingester := ingest.NewIngester(repo, fakeEmbedder{}, nopLogger{})
	return NewAdminService(repo, ingester, sessions, path, nopLogger{}), repo, sessions
}

func TestAdminRefresh(t *testing.T) {
	svc, repo, sessions := newAdminService(t)
	sessions.Append("s1", store.RoleUser, "hello")

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 3, res.ChunksIndexed)
	assert.True(t, res.SessionsCleared)
	assert.Len(t, repo.chunks, 3)
	assert.Equal(t, 0, sessions.Count())
}

func TestAdminRefreshEmbeddingBackendDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, os.WriteFile(path, []byte(adminCorpusFixture), 0644))

	repo := &fakeChunkRepo{chunks: []*entity.GuidelineChunk{{ChunkId: "rule_old"}}}
	ingester := ingest.NewIngester(repo, failingEmbedder{}, nopLogger{})
	svc := NewAdminService(repo, ingester, memory.NewSessionRepository(0), path, nopLogger{})

	_, err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, apperr.ErrCollaboratorUnavailable)
	assert.Len(t, repo.chunks, 1, "failed refresh must leave the previous index intact")
}

func TestAdminStats(t *testing.T) {
	svc, _, sessions := newAdminService(t)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	sessions.Append("s1", store.RoleUser, "hello")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalChunks)
	assert.Equal(t, int64(2), stats.DocTypeDistribution["rule_search"])
	assert.Equal(t, int64(1), stats.DocTypeDistribution["symptom_index"])
	assert.Equal(t, int64(1), stats.CancerTypeDistribution["Lung"])
	assert.Equal(t, int64(1), stats.ActionTypeDistribution["referral"])
	assert.Equal(t, int64(1), stats.UrgencyDistribution["urgent"])
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestAdminGetLogs(t *testing.T) {
	svc, _, _ := newAdminService(t)

	logs, err := svc.GetLogs("", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAdminListChunks(t *testing.T) {
	svc, _, _ := newAdminService(t)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		res, err := svc.ListChunks(context.Background(), &dto.ListChunksRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 20, res.PageSize)
		assert.Len(t, res.Chunks, 3)
	})

	t.Run("doc type filter", func(t *testing.T) {
		res, err := svc.ListChunks(context.Background(), &dto.ListChunksRequest{DocType: "rule_search"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		res, err := svc.ListChunks(context.Background(), &dto.ListChunksRequest{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Total)
		assert.Len(t, res.Chunks, 1)
	})
}
