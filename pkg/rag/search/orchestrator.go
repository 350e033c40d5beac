// Package search turns a text query into a ranked set of guideline chunks.
// It embeds the query, pulls a 3x candidate pool from the vector store, and
// reranks it: query-aware boosts for chat retrieval, patient-aware boosts
// for the assessment flow.
package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ng12-assistant-be/pkg/embedding"
	"ng12-assistant-be/pkg/store"
)

// ChunkSearcher is the vector-store side of retrieval.
type ChunkSearcher interface {
	SearchSimilarWithScore(ctx context.Context, vector []float32, limit int) ([]store.Chunk, error)
}

// Retriever is what downstream consumers (gate, executor, assessment)
// depend on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]store.Chunk, error)
}

type Orchestrator struct {
	embedder embedding.EmbeddingProvider
	searcher ChunkSearcher
}

var _ Retriever = &Orchestrator{}

func NewOrchestrator(embedder embedding.EmbeddingProvider, searcher ChunkSearcher) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		searcher: searcher,
	}
}

// Query-intent signals for chat-mode reranking.
var (
	urgencyRe  = regexp.MustCompile(`(?i)urgent|red\s*flag|emergency|immediate`)
	ageRe      = regexp.MustCompile(`(?i)age|under\s+\d|over\s+\d|years?\s*old|\byo\b|\byrs?\b`)
	durationRe = regexp.MustCompile(`(?i)weeks?|months?|persistent|duration|lasting`)
	exactRe    = regexp.MustCompile(`(?i)quote|exact|wording|verbatim`)
)

// Urgency metadata values that warrant a boost.
var urgencyValues = map[string]struct{}{
	"immediate":   {},
	"very_urgent": {},
	"urgent":      {},
}

func (o *Orchestrator) fetchCandidates(ctx context.Context, query string, fetchK int) ([]store.Chunk, error) {
	resp, err := o.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	chunks, err := o.searcher.SearchSimilarWithScore(ctx, resp.Embedding.Values, fetchK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return chunks, nil
}

// Retrieve runs chat-mode retrieval: fetch a 3x candidate pool, apply
// query-aware boosts, and return the top topK by adjusted score.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, topK int) ([]store.Chunk, error) {
	chunks, err := o.fetchCandidates(ctx, query, topK*3)
	if err != nil {
		return nil, err
	}

	chunks = ChatRerank(query, chunks)
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// RetrieveForPatient runs assessment-mode retrieval: fetch a 3x candidate
// pool and rerank it with deterministic patient-data boosts.
func (o *Orchestrator) RetrieveForPatient(ctx context.Context, query string, topK int, patient store.Patient) ([]store.Chunk, error) {
	chunks, err := o.fetchCandidates(ctx, query, topK*3)
	if err != nil {
		return nil, err
	}

	chunks = PatientRerank(patient, chunks)
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// ChatRerank applies lightweight query-aware boosts and re-sorts:
//
//	urgency intent + urgent chunk       +0.10
//	age intent + chunk age threshold    +0.10
//	duration intent + duration wording  +0.10
//	exact-wording intent + rule chunk   +0.15
func ChatRerank(query string, chunks []store.Chunk) []store.Chunk {
	qUrgency := urgencyRe.MatchString(query)
	qAge := ageRe.MatchString(query)
	qDuration := durationRe.MatchString(query)
	qExact := exactRe.MatchString(query)

	for i := range chunks {
		meta := chunks[i].Metadata
		boost := 0.0

		if qUrgency {
			if _, ok := urgencyValues[strings.ToLower(meta.Urgency)]; ok {
				boost += 0.1
			}
		}

		if qAge && (meta.AgeMin != nil || meta.AgeMax != nil) {
			boost += 0.1
		}

		if qDuration && durationRe.MatchString(strings.ToLower(chunks[i].Text)) {
			boost += 0.1
		}

		if qExact && meta.DocType == "rule_search" {
			boost += 0.15
		}

		chunks[i].Score += boost
	}

	sort.SliceStable(chunks, func(a, b int) bool {
		return chunks[a].Score > chunks[b].Score
	})
	return chunks
}

// PatientRerank applies deterministic patient-data boosts and re-sorts:
//
//	patient age >= chunk age_min          +0.15
//	patient age <  chunk age_max          +0.15
//	per overlapping symptom keyword       +0.10
//	smoker + smoking risk factor chunk    +0.10
//	gender matches gender_specific        +0.05
//	gender clashes with gender_specific   -0.30
func PatientRerank(patient store.Patient, chunks []store.Chunk) []store.Chunk {
	patientSymptoms := make([]string, 0, len(patient.Symptoms))
	for _, s := range patient.Symptoms {
		patientSymptoms = append(patientSymptoms, strings.ToLower(s))
	}

	for i := range chunks {
		meta := chunks[i].Metadata
		boost := 0.0

		if meta.AgeMin != nil && patient.Age >= *meta.AgeMin {
			boost += 0.15
		}
		if meta.AgeMax != nil && patient.Age < *meta.AgeMax {
			boost += 0.15
		}

		for _, ps := range patientSymptoms {
			for _, cs := range meta.SymptomKeywords {
				if strings.Contains(ps, cs) || strings.Contains(cs, ps) {
					boost += 0.1
					break
				}
			}
		}

		if patient.SmokingHistory != "" && patient.SmokingHistory != "Never Smoked" && meta.RiskFactorSmoking {
			boost += 0.1
		}

		if meta.GenderSpecific != "" {
			if meta.GenderSpecific == patient.Gender {
				boost += 0.05
			} else if patient.Gender == "Male" || patient.Gender == "Female" {
				boost -= 0.3
			}
		}

		chunks[i].Score += boost
	}

	sort.SliceStable(chunks, func(a, b int) bool {
		return chunks[a].Score > chunks[b].Score
	})
	return chunks
}
