package memory

import (
	"fmt"
	"sync"
	"testing"

	"ng12-assistant-be/pkg/store"
)

func TestHistoryRoundTrip(t *testing.T) {
	repo := NewSessionRepository(0)

	if got := repo.History("missing"); len(got) != 0 {
		t.Fatalf("expected empty history for unknown session, got %d messages", len(got))
	}

	repo.Append("s1", store.RoleUser, "hello")
	repo.Append("s1", store.RoleAssistant, "hi there")

	history := repo.History("s1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != store.RoleUser || history[0].Content != "hello" {
		t.Errorf("unexpected first message: %+v", history[0])
	}
	if history[1].Role != store.RoleAssistant {
		t.Errorf("unexpected second message role: %q", history[1].Role)
	}
}

func TestClear(t *testing.T) {
	repo := NewSessionRepository(0)
	repo.Append("s1", store.RoleUser, "hello")
	repo.UpdateTopic("s1", []store.Chunk{{
		Text:     "haemoptysis referral",
		Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.1"},
	}})

	repo.Clear("s1")

	if got := repo.History("s1"); len(got) != 0 {
		t.Errorf("history not cleared, got %d messages", len(got))
	}
	if got := repo.Topic("s1"); got != "" {
		t.Errorf("topic not cleared, got %q", got)
	}
}

func TestDeriveTopic(t *testing.T) {
	tests := []struct {
		name   string
		chunks []store.Chunk
		want   string
	}{
		{
			name: "cancer type with clinical terms",
			chunks: []store.Chunk{
				{
					Text:     "Refer people using a suspected cancer pathway referral for lung cancer if they have unexplained haemoptysis.",
					Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.1"},
				},
			},
			want: "Lung haemoptysis referral",
		},
		{
			name: "most common cancer type wins",
			chunks: []store.Chunk{
				{Text: "x", Metadata: store.ChunkMetadata{CancerType: "Breast", Section: "1.4.1"}},
				{Text: "y", Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.1"}},
				{Text: "z", Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.2"}},
			},
			want: "Lung",
		},
		{
			name: "generic chunks fall back to general",
			chunks: []store.Chunk{
				{Text: "see your GP", Metadata: store.ChunkMetadata{CancerType: "General", Section: "general"}},
			},
			want: "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTopic(tt.chunks); got != tt.want {
				t.Errorf("DeriveTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateTopicIgnoresEmptyChunks(t *testing.T) {
	repo := NewSessionRepository(0)
	repo.UpdateTopic("s1", []store.Chunk{{
		Text:     "haemoptysis",
		Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.1"},
	}})
	before := repo.Topic("s1")

	repo.UpdateTopic("s1", nil)

	if got := repo.Topic("s1"); got != before {
		t.Errorf("topic changed on empty update: %q -> %q", before, got)
	}
}

func TestAppendTurnUpdatesTopicOnlyWithCitedChunks(t *testing.T) {
	repo := NewSessionRepository(0)

	repo.AppendTurn("s1", "hello", "hi", nil)
	if got := repo.Topic("s1"); got != "" {
		t.Errorf("topic = %q, want empty after uncited turn", got)
	}

	repo.AppendTurn("s1", "haemoptysis?", "see §1.1.1", []store.Chunk{{
		Text:     "unexplained haemoptysis",
		Metadata: store.ChunkMetadata{CancerType: "Lung", Section: "1.1.1"},
	}})
	if got := repo.Topic("s1"); got != "Lung haemoptysis" {
		t.Errorf("topic = %q, want %q", got, "Lung haemoptysis")
	}

	if got := repo.History("s1"); len(got) != 4 {
		t.Errorf("history length = %d, want 4", len(got))
	}
}

func TestConcurrentAppends(t *testing.T) {
	repo := NewSessionRepository(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			repo.AppendTurn("s1", fmt.Sprintf("q%d", n), fmt.Sprintf("a%d", n), nil)
		}(i)
	}
	wg.Wait()

	history := repo.History("s1")
	if len(history) != 40 {
		t.Fatalf("history length = %d, want 40", len(history))
	}
	// Each turn's user/assistant pair must be adjacent.
	for i := 0; i < len(history); i += 2 {
		if history[i].Role != store.RoleUser || history[i+1].Role != store.RoleAssistant {
			t.Fatalf("turn %d interleaved: %q then %q", i/2, history[i].Role, history[i+1].Role)
		}
	}
}
