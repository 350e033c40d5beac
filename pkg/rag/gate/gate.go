// Package gate decides whether retrieved guideline chunks are strong enough
// evidence to answer from. It scores the retrieved set into a verdict,
// applies a lexical overlap guard, screens for out-of-scope questions, and
// retries once with an LLM-rewritten query when nothing useful came back.
package gate

import (
	"context"
	"math"
	"strings"

	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/rag/prompt"
	"ng12-assistant-be/pkg/rag/query"
	"ng12-assistant-be/pkg/store"
)

// Verdict is the evidence-quality tier for a retrieved chunk set.
type Verdict string

const (
	VerdictSufficient Verdict = "sufficient"
	VerdictWeak       Verdict = "weak"
	VerdictNone       Verdict = "none"
	VerdictOutOfScope Verdict = "out_of_scope"
)

// Config holds the score thresholds. The defaults match the tuned values
// for normalized cosine similarity against the NG12 corpus.
type Config struct {
	FloorScore   float64 // below this every chunk is noise
	GoodScore    float64 // a chunk above this counts as good
	WeakBest     float64 // best score below this with zero good chunks -> none
	StrongBest   float64 // few good chunks need the best above this
	GoodCountMin int     // good chunks above this always sufficient
}

func DefaultConfig() Config {
	return Config{
		FloorScore:   0.25,
		GoodScore:    0.4,
		WeakBest:     0.35,
		StrongBest:   0.5,
		GoodCountMin: 2,
	}
}

// Keywords indicating the question is about topics NG12 does NOT cover
var outOfScopeKeywords = []string{
	"treatment", "chemotherapy", "prognosis", "survival rate",
	"medication", "drug", "cure", "surgery", "radiotherapy",
	"immunotherapy", "dosage", "side effect", "stage", "staging",
	"metastasis", "palliative",
}

// Keywords indicating the question IS about NG12 scope (recognition & referral)
var inScopeKeywords = []string{
	"referral", "refer", "investigation", "symptom", "recognition",
	"criteria", "threshold", "age", "guideline", "ng12",
	"suspected cancer", "pathway", "urgent", "safety net",
}

// Common stop-words excluded from the lexical overlap check
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "and": {},
	"or": {}, "with": {}, "what": {}, "how": {}, "does": {}, "do": {},
	"can": {}, "about": {}, "tell": {}, "me": {}, "that": {}, "this": {},
	"it": {}, "be": {}, "not": {}, "no": {}, "by": {}, "from": {}, "but": {},
	"if": {}, "so": {}, "my": {}, "you": {}, "your": {}, "i": {}, "we": {},
	"they": {}, "he": {}, "she": {},
}

// ScoreBreakdown summarizes retrieval scores for debugging surfaces.
type ScoreBreakdown struct {
	Top1Score     float64 `json:"top1_score"`
	MeanScore     float64 `json:"mean_score"`
	Above035Count int     `json:"above_035_count"`
	TotalChunks   int     `json:"total_chunks"`
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// BuildScoreBreakdown computes score metrics over a chunk set. Top1 assumes
// the chunks arrive in descending score order, as the retriever returns them.
func BuildScoreBreakdown(chunks []store.Chunk) ScoreBreakdown {
	if len(chunks) == 0 {
		return ScoreBreakdown{}
	}
	var sum float64
	above := 0
	for _, c := range chunks {
		sum += c.Score
		if c.Score > 0.35 {
			above++
		}
	}
	return ScoreBreakdown{
		Top1Score:     round3(chunks[0].Score),
		MeanScore:     round3(sum / float64(len(chunks))),
		Above035Count: above,
		TotalChunks:   len(chunks),
	}
}

// AssessChunkQuality rates a retrieved chunk set as sufficient, weak, or none.
func (c Config) AssessChunkQuality(chunks []store.Chunk) Verdict {
	if len(chunks) == 0 {
		return VerdictNone
	}

	best := chunks[0].Score
	allBelowFloor := true
	goodChunks := 0
	for _, chunk := range chunks {
		if chunk.Score > best {
			best = chunk.Score
		}
		if chunk.Score >= c.FloorScore {
			allBelowFloor = false
		}
		if chunk.Score > c.GoodScore {
			goodChunks++
		}
	}

	if allBelowFloor {
		return VerdictNone
	}

	if goodChunks == 0 {
		if best < c.WeakBest {
			return VerdictNone
		}
		return VerdictWeak
	}

	if goodChunks <= c.GoodCountMin && best < c.StrongBest {
		return VerdictWeak
	}

	return VerdictSufficient
}

// HasLexicalOverlap reports whether any meaningful word of the message
// appears in any chunk text. False means the query is completely unrelated
// to every chunk (e.g. "quantum physics" against clinical guideline text).
// A message with no meaningful words passes vacuously.
func HasLexicalOverlap(message string, chunks []store.Chunk) bool {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(message)) {
		if _, stop := stopWords[w]; !stop {
			words[w] = struct{}{}
		}
	}
	if len(words) == 0 {
		return true
	}

	for _, chunk := range chunks {
		chunkLower := strings.ToLower(chunk.Text)
		for w := range words {
			if strings.Contains(chunkLower, w) {
				return true
			}
		}
	}
	return false
}

// Retriever fetches guideline chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, q string, topK int) ([]store.Chunk, error)
}

// Gate runs the full quality check with a single rewrite-and-retry.
type Gate struct {
	config    Config
	retriever Retriever
	provider  llm.LLMProvider
	topK      int
}

func NewGate(config Config, retriever Retriever, provider llm.LLMProvider, topK int) *Gate {
	return &Gate{
		config:    config,
		retriever: retriever,
		provider:  provider,
		topK:      topK,
	}
}

// Result carries the gate verdict together with the possibly-replaced
// chunk set and query after a rewrite retry.
type Result struct {
	Verdict     Verdict
	Chunks      []store.Chunk
	SearchQuery string
	Strategy    string
	Breakdown   ScoreBreakdown
}

// Check runs three steps in order:
//  1. Out-of-scope detection on the raw message, independent of chunks.
//  2. Chunk quality assessment plus the lexical overlap guard. The overlap
//     check runs against the search query rather than the raw message, so
//     topic enrichment words like "lung" count as overlap.
//  3. One retry with an LLM-rewritten query when the verdict is none, the
//     query was not already an LLM rewrite, and history exists to rewrite
//     from. The overlap guard is not reapplied to the retry result.
func (g *Gate) Check(ctx context.Context, message, searchQuery, strategy string, chunks []store.Chunk, history []store.Message) Result {
	msgLower := strings.ToLower(message)

	hasOOS := false
	for _, kw := range outOfScopeKeywords {
		if strings.Contains(msgLower, kw) {
			hasOOS = true
			break
		}
	}
	hasInScope := false
	for _, kw := range inScopeKeywords {
		if strings.Contains(msgLower, kw) {
			hasInScope = true
			break
		}
	}

	if hasOOS && !hasInScope {
		return Result{
			Verdict:     VerdictOutOfScope,
			Chunks:      chunks,
			SearchQuery: searchQuery,
			Strategy:    strategy,
			Breakdown:   BuildScoreBreakdown(chunks),
		}
	}

	verdict := g.config.AssessChunkQuality(chunks)

	overlapText := searchQuery
	if overlapText == "" {
		overlapText = message
	}
	if (verdict == VerdictSufficient || verdict == VerdictWeak) && !HasLexicalOverlap(overlapText, chunks) {
		verdict = VerdictNone
	}

	if verdict == VerdictNone && strategy != query.StrategyLLMRewrite && g.provider != nil && g.provider.Available(ctx) && len(history) > 0 {
		rewritePrompt := prompt.FormatRewritePrompt(history, message)
		newQuery, err := g.provider.Generate(ctx, rewritePrompt, llm.WithTemperature(0.1))
		if err == nil && strings.TrimSpace(newQuery) != "" {
			newQuery = strings.TrimSpace(newQuery)
			retried, retrieveErr := g.retriever.Retrieve(ctx, newQuery, g.topK)
			if retrieveErr == nil {
				chunks = retried
				verdict = g.config.AssessChunkQuality(chunks)
				searchQuery = newQuery
				strategy = query.StrategyLLMRewrite
			}
		}
	}

	return Result{
		Verdict:     verdict,
		Chunks:      chunks,
		SearchQuery: searchQuery,
		Strategy:    strategy,
		Breakdown:   BuildScoreBreakdown(chunks),
	}
}
