package gate

import (
	"context"
	"errors"
	"testing"

	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/store"
)

func chunksWithScores(scores ...float64) []store.Chunk {
	chunks := make([]store.Chunk, len(scores))
	for i, s := range scores {
		chunks[i] = store.Chunk{
			ID:    "c",
			Text:  "referral for unexplained haemoptysis in people aged 40 and over",
			Score: s,
		}
	}
	return chunks
}

func TestAssessChunkQuality(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		scores []float64
		want   Verdict
	}{
		{"empty set", nil, VerdictNone},
		{"all below floor", []float64{0.24, 0.1, 0.05}, VerdictNone},
		{"no good chunk and best below weak floor", []float64{0.3, 0.28}, VerdictNone},
		{"no good chunk but best usable", []float64{0.38, 0.3}, VerdictWeak},
		{"few good chunks with modest best", []float64{0.45, 0.42, 0.2}, VerdictWeak},
		{"few good chunks with strong best", []float64{0.55, 0.45, 0.2}, VerdictSufficient},
		{"many good chunks", []float64{0.45, 0.44, 0.43, 0.42}, VerdictSufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.AssessChunkQuality(chunksWithScores(tt.scores...))
			if got != tt.want {
				t.Errorf("AssessChunkQuality(%v) = %q, want %q", tt.scores, got, tt.want)
			}
		})
	}
}

func TestAssessChunkQualityMonotonic(t *testing.T) {
	// Raising every score never lowers the verdict tier.
	cfg := DefaultConfig()
	rank := map[Verdict]int{VerdictNone: 0, VerdictWeak: 1, VerdictSufficient: 2}

	base := []float64{0.3, 0.28, 0.2}
	prev := cfg.AssessChunkQuality(chunksWithScores(base...))
	for _, delta := range []float64{0.05, 0.1, 0.15, 0.2, 0.25} {
		raised := make([]float64, len(base))
		for i, s := range base {
			raised[i] = s + delta
		}
		got := cfg.AssessChunkQuality(chunksWithScores(raised...))
		if rank[got] < rank[prev] {
			t.Fatalf("verdict degraded from %q to %q after raising scores by %v", prev, got, delta)
		}
		prev = got
	}
}

func TestHasLexicalOverlap(t *testing.T) {
	chunks := chunksWithScores(0.5)

	if !HasLexicalOverlap("haemoptysis referral", chunks) {
		t.Error("expected overlap for matching clinical term")
	}
	if HasLexicalOverlap("quantum physics entanglement", chunks) {
		t.Error("did not expect overlap for unrelated query")
	}
	// Only stop-words: nothing meaningful to check, assume OK.
	if !HasLexicalOverlap("what about it", chunks) {
		t.Error("expected vacuous pass for stop-word-only message")
	}
}

type stubRetriever struct {
	chunks []store.Chunk
	err    error
	calls  int
}

func (s *stubRetriever) Retrieve(ctx context.Context, q string, topK int) ([]store.Chunk, error) {
	s.calls++
	return s.chunks, s.err
}

type stubProvider struct {
	available bool
	response  string
	err       error
	calls     int
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubProvider) Available(ctx context.Context) bool {
	return s.available
}

func TestCheckOutOfScope(t *testing.T) {
	g := NewGate(DefaultConfig(), &stubRetriever{}, &stubProvider{}, 6)

	res := g.Check(context.Background(), "what chemotherapy should be given?", "what chemotherapy should be given?", "direct", chunksWithScores(0.6, 0.5), nil)
	if res.Verdict != VerdictOutOfScope {
		t.Fatalf("verdict = %q, want %q", res.Verdict, VerdictOutOfScope)
	}

	// In-scope keyword overrides the out-of-scope screen.
	res = g.Check(context.Background(), "does chemotherapy affect referral criteria?", "does chemotherapy affect referral criteria?", "direct", chunksWithScores(0.6, 0.5), nil)
	if res.Verdict != VerdictSufficient {
		t.Fatalf("verdict = %q, want %q", res.Verdict, VerdictSufficient)
	}
}

func TestCheckOverlapGuardUsesSearchQuery(t *testing.T) {
	g := NewGate(DefaultConfig(), &stubRetriever{}, &stubProvider{}, 6)

	// The enriched query contains "haemoptysis" even though the raw message
	// does not, so the overlap guard passes on the query.
	res := g.Check(context.Background(), "and over 50?", "lung haemoptysis and over 50?", "topic_enriched", chunksWithScores(0.6, 0.5), nil)
	if res.Verdict != VerdictSufficient {
		t.Fatalf("verdict = %q, want %q", res.Verdict, VerdictSufficient)
	}

	// An unrelated query is downgraded regardless of cosine score.
	res = g.Check(context.Background(), "quantum entanglement basics", "quantum entanglement basics", "direct", chunksWithScores(0.6, 0.5), nil)
	if res.Verdict != VerdictNone {
		t.Fatalf("verdict = %q, want %q", res.Verdict, VerdictNone)
	}
}

func TestCheckRetryWithRewrite(t *testing.T) {
	retriever := &stubRetriever{chunks: chunksWithScores(0.6, 0.5, 0.45)}
	provider := &stubProvider{available: true, response: "haemoptysis referral criteria"}
	g := NewGate(DefaultConfig(), retriever, provider, 6)

	history := []store.Message{{Role: store.RoleUser, Content: "tell me about haemoptysis"}}

	res := g.Check(context.Background(), "anything else?", "anything else?", "direct", chunksWithScores(0.1, 0.05), history)
	if res.Verdict != VerdictSufficient {
		t.Fatalf("verdict = %q, want %q after retry", res.Verdict, VerdictSufficient)
	}
	if res.Strategy != "llm_rewrite" {
		t.Errorf("strategy = %q, want llm_rewrite", res.Strategy)
	}
	if res.SearchQuery != "haemoptysis referral criteria" {
		t.Errorf("search query = %q, want rewritten query", res.SearchQuery)
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}
}

func TestCheckNoRetryConditions(t *testing.T) {
	ctx := context.Background()
	weakChunks := chunksWithScores(0.1)
	history := []store.Message{{Role: store.RoleUser, Content: "earlier question"}}

	t.Run("already rewritten", func(t *testing.T) {
		retriever := &stubRetriever{chunks: chunksWithScores(0.9)}
		provider := &stubProvider{available: true, response: "better query"}
		g := NewGate(DefaultConfig(), retriever, provider, 6)

		res := g.Check(ctx, "anything else?", "anything else?", "llm_rewrite", weakChunks, history)
		if res.Verdict != VerdictNone {
			t.Errorf("verdict = %q, want none", res.Verdict)
		}
		if retriever.calls != 0 {
			t.Errorf("retriever should not be called again, got %d calls", retriever.calls)
		}
	})

	t.Run("provider unavailable", func(t *testing.T) {
		retriever := &stubRetriever{chunks: chunksWithScores(0.9)}
		g := NewGate(DefaultConfig(), retriever, &stubProvider{available: false}, 6)

		res := g.Check(ctx, "anything else?", "anything else?", "direct", weakChunks, history)
		if res.Verdict != VerdictNone {
			t.Errorf("verdict = %q, want none", res.Verdict)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		retriever := &stubRetriever{chunks: chunksWithScores(0.9)}
		provider := &stubProvider{available: true, response: "better query"}
		g := NewGate(DefaultConfig(), retriever, provider, 6)

		res := g.Check(ctx, "anything else?", "anything else?", "direct", weakChunks, nil)
		if res.Verdict != VerdictNone {
			t.Errorf("verdict = %q, want none", res.Verdict)
		}
		if provider.calls != 0 {
			t.Errorf("provider should not be asked for a rewrite, got %d calls", provider.calls)
		}
	})

	t.Run("rewrite fails", func(t *testing.T) {
		retriever := &stubRetriever{chunks: chunksWithScores(0.9)}
		provider := &stubProvider{available: true, err: errors.New("boom")}
		g := NewGate(DefaultConfig(), retriever, provider, 6)

		res := g.Check(ctx, "anything else?", "anything else?", "direct", weakChunks, history)
		if res.Verdict != VerdictNone {
			t.Errorf("verdict = %q, want none", res.Verdict)
		}
	})
}

func TestBuildScoreBreakdown(t *testing.T) {
	breakdown := BuildScoreBreakdown(chunksWithScores(0.6, 0.4, 0.2))
	if breakdown.Top1Score != 0.6 {
		t.Errorf("Top1Score = %v, want 0.6", breakdown.Top1Score)
	}
	if breakdown.MeanScore != 0.4 {
		t.Errorf("MeanScore = %v, want 0.4", breakdown.MeanScore)
	}
	if breakdown.Above035Count != 2 {
		t.Errorf("Above035Count = %d, want 2", breakdown.Above035Count)
	}
	if breakdown.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d, want 3", breakdown.TotalChunks)
	}

	empty := BuildScoreBreakdown(nil)
	if empty.TotalChunks != 0 || empty.Top1Score != 0 {
		t.Errorf("expected zero breakdown for empty set, got %+v", empty)
	}
}
