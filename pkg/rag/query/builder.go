// Package query builds the retrieval query for a chat turn using a tiered
// strategy: use the raw message when it stands alone, prepend the session
// topic when the message is a follow-up, and fall back to an LLM rewrite
// when a follow-up arrives with no topic to lean on.
package query

import (
	"context"
	"regexp"
	"strings"

	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/rag/prompt"
	"ng12-assistant-be/pkg/store"
)

// Strategy names reported alongside the built query.
const (
	StrategyDirect        = "direct"
	StrategyTopicEnriched = "topic_enriched"
	StrategyLLMRewrite    = "llm_rewrite"
)

// Phrases that typically start a follow-up / context-dependent message
var followupStarters = []string{
	"what about",
	"and if",
	"how about",
	"what if",
	"and for",
	"but what",
	"also",
	"same for",
	"does that",
	"is that",
	"can you",
	"could you",
	"what's the",
	"how does",
	"earlier",
	"you mentioned",
	"you said",
	"go back",
	"going back",
}

// Pronouns that signal the message depends on earlier context
var contextPronouns = map[string]struct{}{
	"it": {}, "that": {}, "they": {}, "this": {}, "them": {}, "those": {}, "same": {},
}

// Strips punctuation, keeping letters, digits, spaces, and hyphens.
var stripPunctRe = regexp.MustCompile(`[^\w\s-]`)

// IsFollowup detects whether a message is a short follow-up that needs
// context enrichment. A message is a follow-up if ANY of the following holds:
//  1. It contains 3 words or fewer (after stripping punctuation).
//  2. It starts with a known follow-up phrase.
//  3. It is shorter than 12 words AND contains a context-dependent pronoun.
func IsFollowup(message string) bool {
	msgLower := strings.ToLower(strings.TrimSpace(message))

	// Strip punctuation before splitting so a trailing "?" does not
	// inflate the word count ("smokers?" -> "smokers").
	words := strings.Fields(stripPunctRe.ReplaceAllString(msgLower, ""))

	veryShort := len(words) <= 3

	startsWithFollowup := false
	for _, s := range followupStarters {
		if strings.HasPrefix(msgLower, s) {
			startsWithFollowup = true
			break
		}
	}

	hasPronoun := false
	for _, w := range words {
		if _, ok := contextPronouns[w]; ok {
			hasPronoun = true
			break
		}
	}

	return veryShort || startsWithFollowup || (len(words) < 12 && hasPronoun)
}

// SessionState is the slice of the session store the builder needs.
type SessionState interface {
	Topic(sessionID string) string
	History(sessionID string) []store.Message
}

// Builder assembles retrieval queries. The LLM is optional; when it is nil
// or unavailable the rewrite tier degrades to the raw message.
type Builder struct {
	sessions SessionState
	provider llm.LLMProvider
}

func NewBuilder(sessions SessionState, provider llm.LLMProvider) *Builder {
	return &Builder{
		sessions: sessions,
		provider: provider,
	}
}

// Build returns the retrieval query and the strategy that produced it.
func (b *Builder) Build(ctx context.Context, sessionID, message string) (string, string) {
	followup := IsFollowup(message)
	topic := b.sessions.Topic(sessionID)

	if !followup {
		// Short messages (<=5 words) with an active topic are likely
		// context-dependent even without explicit follow-up markers,
		// e.g. bare symptom additions like "headache for two days".
		msgCleaned := stripPunctRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(message)), "")
		if topic != "" && len(strings.Fields(msgCleaned)) <= 5 {
			return topic + " " + message, StrategyTopicEnriched
		}
		return message, StrategyDirect
	}

	// Follow-up with a known topic: prepend the topic keyword.
	if topic != "" {
		return topic + " " + message, StrategyTopicEnriched
	}

	// Follow-up with no topic: ask the LLM for a standalone rewrite.
	if b.provider != nil && b.provider.Available(ctx) {
		history := b.sessions.History(sessionID)
		if len(history) > 0 {
			rewritePrompt := prompt.FormatRewritePrompt(history, message)
			rewritten, err := b.provider.Generate(ctx, rewritePrompt, llm.WithTemperature(0.1))
			if err == nil && strings.TrimSpace(rewritten) != "" {
				return strings.TrimSpace(rewritten), StrategyLLMRewrite
			}
		}
	}

	return message, StrategyDirect
}
