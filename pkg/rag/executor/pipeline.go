// Package executor orchestrates a full chat turn: deterministic input
// classification, tiered query building, retrieval, the evidence gate, and
// grounded generation, with the session commit as the single final step.
package executor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ng12-assistant-be/internal/repository/memory"
	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/rag/classify"
	"ng12-assistant-be/pkg/rag/gate"
	"ng12-assistant-be/pkg/rag/prompt"
	"ng12-assistant-be/pkg/rag/query"
	"ng12-assistant-be/pkg/rag/search"
	"ng12-assistant-be/pkg/store"
)

const chatTopK = 6

// TurnExecutor runs the chat pipeline for one message.
type TurnExecutor struct {
	builder   *query.Builder
	retriever search.Retriever
	gate      *gate.Gate
	provider  llm.LLMProvider
	sessions  *memory.SessionRepository
	logger    *log.Logger
}

func NewTurnExecutor(
	provider llm.LLMProvider,
	retriever search.Retriever,
	sessions *memory.SessionRepository,
	logger *log.Logger,
) *TurnExecutor {
	return &TurnExecutor{
		builder:   query.NewBuilder(sessions, provider),
		retriever: retriever,
		gate:      gate.NewGate(gate.DefaultConfig(), retriever, provider, chatTopK),
		provider:  provider,
		sessions:  sessions,
		logger:    logger,
	}
}

// TurnResult is the outcome of one executed chat turn.
type TurnResult struct {
	Answer         string
	Citations      []store.Citation
	Classification classify.Classification
	SearchQuery    string
	Strategy       string
	Verdict        gate.Verdict
	CitationCount  int
	ScoreBreakdown gate.ScoreBreakdown
	QuerySummary   string
}

// Execute runs the full turn and commits it to the session store.
func (e *TurnExecutor) Execute(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	history := e.sessions.History(sessionID)

	// ═══════════════════════════════════════════════════════════════
	// PHASE 1: INPUT CLASSIFICATION (deterministic, no LLM)
	// ═══════════════════════════════════════════════════════════════
	classification := classify.Classify(message)
	e.logger.Printf("[PHASE 1] Classification: %s", classification)

	if classification != classify.Proceed {
		result := &TurnResult{
			Answer:         shortCircuitAnswer(classification),
			Citations:      []store.Citation{},
			Classification: classification,
		}
		e.sessions.AppendTurn(sessionID, message, result.Answer, nil)
		return result, nil
	}

	// ═══════════════════════════════════════════════════════════════
	// PHASE 2: QUERY BUILDING + RETRIEVAL
	// ═══════════════════════════════════════════════════════════════
	searchQuery, strategy := e.builder.Build(ctx, sessionID, message)
	e.logger.Printf("[PHASE 2] Query strategy: %s, query: %s", strategy, truncate(searchQuery, 80))

	// A retrieval outage degrades to an evidence-free turn rather than an
	// error: the gate sees zero chunks and the canned refusal goes out.
	chunks, err := e.retriever.Retrieve(ctx, searchQuery, chatTopK)
	if err != nil {
		e.logger.Printf("[PHASE 2] WARN retrieval unavailable, continuing without evidence: %v", err)
		chunks = nil
	}

	// ═══════════════════════════════════════════════════════════════
	// PHASE 3: EVIDENCE GATE (with one rewrite retry)
	// ═══════════════════════════════════════════════════════════════
	gateRes := e.gate.Check(ctx, message, searchQuery, strategy, chunks, history)
	e.logger.Printf("[PHASE 3] Gate verdict: %s (top1=%.3f, chunks=%d)",
		gateRes.Verdict, gateRes.Breakdown.Top1Score, gateRes.Breakdown.TotalChunks)

	result := &TurnResult{
		Classification: classification,
		SearchQuery:    gateRes.SearchQuery,
		Strategy:       gateRes.Strategy,
		Verdict:        gateRes.Verdict,
		ScoreBreakdown: gateRes.Breakdown,
		Citations:      []store.Citation{},
	}

	switch gateRes.Verdict {
	case gate.VerdictOutOfScope:
		result.Answer = prompt.OutOfScopeResponse
	case gate.VerdictNone:
		result.Answer = prompt.RefuseResponse
	default:
		// ═══════════════════════════════════════════════════════════
		// PHASE 4: GENERATION (sufficient -> full, weak -> qualified)
		// ═══════════════════════════════════════════════════════════
		result.QuerySummary = e.summarizeQuery(ctx, message, history)

		answer := e.generateAnswer(ctx, message, gateRes.Chunks, history)
		citations := prompt.BuildCitations(gateRes.Chunks, answer)
		answer = prompt.CleanAnswerSources(answer, gateRes.Chunks)

		if gateRes.Verdict == gate.VerdictWeak {
			answer = fmt.Sprintf(prompt.QualifyTemplate, answer)
		}

		if result.QuerySummary != "" {
			answer = "📋 **Understanding your question:**\n" + result.QuerySummary + "\n\n---\n\n" + answer
		}

		// Transparency note when an LLM answer carries no citations.
		if e.provider.Available(ctx) && len(citations) == 0 && len(answer) > 50 {
			answer += "\n\n_Note: I was unable to provide specific guideline " +
				"citations for this response. Please verify this information " +
				"against the NG12 guideline directly._"
		}

		result.Answer = answer
		result.Citations = citations
		result.CitationCount = len(citations)
	}

	// ═══════════════════════════════════════════════════════════════
	// PHASE 5: PERSIST (single commit point for history + topic)
	// ═══════════════════════════════════════════════════════════════
	var citedChunks []store.Chunk
	if len(result.Citations) > 0 && (gateRes.Verdict == gate.VerdictSufficient || gateRes.Verdict == gate.VerdictWeak) {
		citedIDs := map[string]struct{}{}
		for _, c := range result.Citations {
			citedIDs[c.ChunkID] = struct{}{}
		}
		for _, chunk := range gateRes.Chunks {
			if _, ok := citedIDs[chunk.Metadata.ChunkID]; ok {
				citedChunks = append(citedChunks, chunk)
			}
		}
	}
	e.sessions.AppendTurn(sessionID, message, result.Answer, citedChunks)
	e.logger.Printf("[PHASE 5] Topic after update: %q", e.sessions.Topic(sessionID))

	return result, nil
}

func shortCircuitAnswer(classification classify.Classification) string {
	switch classification {
	case classify.Meta:
		return prompt.MetaResponse
	case classify.ChitchatRedirect:
		return prompt.NonMedicalRedirectResponse
	case classify.SafetyUrgent:
		return prompt.SafetyResponse
	case classify.NeedsClarification:
		return prompt.ClarifyResponse
	case classify.MedicalOutOfScope:
		return prompt.OutOfScopeResponse
	default:
		return prompt.SmalltalkResponse
	}
}

// generateAnswer asks the LLM for a grounded answer, degrading to a demo
// listing of the retrieved passages when the provider is unavailable.
func (e *TurnExecutor) generateAnswer(ctx context.Context, message string, chunks []store.Chunk, history []store.Message) string {
	if e.provider.Available(ctx) {
		userPrompt := prompt.FormatChatPrompt(message, chunks, history)
		answer, err := e.provider.Chat(ctx, []llm.Message{
			{Role: store.RoleSystem, Content: prompt.ChatSystemPrompt},
			{Role: store.RoleUser, Content: userPrompt},
		}, llm.WithTemperature(0.1))
		if err != nil {
			e.logger.Printf("[WARN] Generation failed, using demo answer: %v", err)
		} else if answer != "" {
			return answer
		}
	}

	var b strings.Builder
	b.WriteString("Demo mode - LLM provider not configured.\n\nRelevant guidelines found:\n")
	for i, chunk := range chunks {
		section := chunk.Metadata.Section
		if section == "" {
			section = "N/A"
		}
		actionType := chunk.Metadata.ActionType
		if actionType == "" {
			actionType = "N/A"
		}
		fmt.Fprintf(&b, "\n[Source %d] Section %s (%s): %s...\n",
			i+1, section, actionType, truncate(chunk.Text, 150))
	}
	return b.String()
}

// summarizeQuery extracts key clinical information for display only. It has
// no effect on retrieval; failures simply drop the summary.
func (e *TurnExecutor) summarizeQuery(ctx context.Context, message string, history []store.Message) string {
	if !e.provider.Available(ctx) {
		return ""
	}

	// Only recent USER messages are included. Assistant responses quote
	// guideline thresholds (e.g. "45 or over") that the LLM can wrongly
	// extract as patient details.
	var historyContext string
	recent := history
	if len(recent) > 8 {
		recent = recent[len(recent)-8:]
	}
	var userMsgs []string
	for _, msg := range recent {
		if msg.Role == store.RoleUser {
			userMsgs = append(userMsgs, truncateWithEllipsis(msg.Content, 200))
		}
	}
	if len(userMsgs) > 0 {
		historyContext = "Previous user messages:\n"
		for _, m := range userMsgs {
			historyContext += "- " + m + "\n"
		}
		historyContext += "\n"
	}

	extractPrompt := "Extract key clinical information from the conversation below.\n" +
		"Include details from BOTH the previous conversation AND the current question.\n" +
		"If the user mentioned age, gender, or symptoms in an earlier message, carry those forward.\n\n" +
		"STRICT RULES:\n" +
		"- ONLY include information explicitly stated by the user somewhere in this conversation\n" +
		"- Do NOT infer, guess, or hallucinate details never mentioned\n" +
		"- Do NOT use general medical knowledge to fill gaps\n" +
		"- If a field was NOT mentioned anywhere in the conversation, write [None]\n" +
		"- Include symptoms or conditions the user is ASKING ABOUT, not only symptoms they claim to have personally\n" +
		"- Include hypothetical ages or scenarios the user mentions (e.g. 'under 40', 'if I'm a smoker')\n\n" +
		historyContext +
		"Current question: " + message + "\n\n" +
		"Return a brief structured summary in this exact format:\n\n" +
		"Patient details: [any age, gender, or risk factors mentioned or asked about, otherwise None]\n" +
		"Symptoms: [any symptoms or conditions mentioned or asked about, otherwise None]\n" +
		"Duration/timing: [if mentioned anywhere in conversation, otherwise None]\n" +
		"Question: [what they're asking now]\n\n" +
		"Keep each field to one line, under 20 words.\n\n" +
		"Summary:"

	systemPrompt := "You extract clinical information from conversations. " +
		"Carry forward details from earlier messages. " +
		"ONLY report what was explicitly stated by the user. " +
		"Never infer or hallucinate details not mentioned. " +
		"Use [None] for fields not mentioned anywhere."

	summary, err := e.provider.Chat(ctx, []llm.Message{
		{Role: store.RoleSystem, Content: systemPrompt},
		{Role: store.RoleUser, Content: extractPrompt},
	}, llm.WithTemperature(0.1))
	if err != nil {
		e.logger.Printf("[WARN] Query summarization failed: %v", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func truncateWithEllipsis(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
