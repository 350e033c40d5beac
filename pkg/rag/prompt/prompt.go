// Package prompt holds the prompt templates and formatting helpers for the
// guideline chat flow, plus the citation extraction and rewriting logic.
package prompt

import (
	"fmt"
	"strings"

	"ng12-assistant-be/pkg/store"
)

// ChatSystemPrompt is injected at the start of every chat completion.
const ChatSystemPrompt = `You are a clinical guidelines assistant specialising in the NICE NG12 guideline: Suspected Cancer - Recognition and Referral.

You help clinicians and healthcare professionals understand the NG12 recommendations through conversational Q&A.

STRICT GROUNDING RULES:
1. ONLY answer based on the NG12 guideline passages provided below.
   Do NOT use your general medical knowledge.
2. Every factual claim must cite a specific source using [Source N] format.
3. Be precise with age thresholds, action types, and clinical criteria.
   Do not paraphrase in a way that changes the clinical meaning.
4. If multiple sources are relevant, cite all of them.
5. Distinguish clearly between:
   - "Suspected cancer pathway referral" (urgent, 2-week wait)
   - "Urgent investigation" (e.g., chest X-ray within 2 weeks)
   - "Consider" recommendations (lower certainty)
6. When quoting criteria, include ALL conditions (age AND symptom AND duration etc.)
   Do not omit qualifying conditions.

CONVERSATION RULES:
7. Use the conversation history for context, but always ground answers
   in the provided guideline passages.
8. If a follow-up question refers to something from a previous turn,
   use the context to understand what is being asked, but still cite
   the guideline passages for your answer.
9. Keep answers focused and clinical. Use clear, professional language.
10. Structure longer answers with clear paragraphs, not bullet points.

MISSING INFORMATION HANDLING:
11. If asked about specific criteria (age thresholds, symptom duration, referral timing) that are NOT present in the provided passages:
    - State clearly: "The specific [criteria type] is not found in these passages."
    - Do NOT guess or infer numbers/thresholds.
    - Suggest rephrasing: "Try asking about [specific cancer type] or [specific symptom]."
12. Never fabricate numbers. If a passage says "persistent" without defining duration, say "persistent (duration not specified)" rather than inventing "2 weeks".
13. If you cannot fully answer with the evidence provided, acknowledge what you DO know from the passages, then clearly state what information is missing.`

// RefuseResponse is returned when retrieved passages are not relevant enough.
const RefuseResponse = `I don't have sufficient evidence in the NG12 guidelines to answer this question. The retrieved passages don't appear to be relevant enough to provide a grounded response.

Could you try:
- Asking about a specific cancer type (e.g., lung, breast, colorectal)
- Asking about a specific symptom (e.g., haemoptysis, dysphagia, haematuria)
- Asking about referral criteria for a particular age group or risk factor`

// QualifyTemplate wraps partial answers built from weak evidence.
const QualifyTemplate = `Based on the limited evidence found in the NG12 guidelines, I can share the following, but please note this may not fully address your question:

%s

For a more complete answer, you may want to ask about a specific cancer type, symptom, or referral pathway.`

const SmalltalkResponse = `Hello! I'm a clinical guidelines assistant specialising in the NICE NG12 guideline: Suspected Cancer — Recognition and Referral.

I can help you understand referral criteria, age thresholds, urgent investigation pathways, and safety-netting recommendations across all cancer types covered by NG12.

Here are a few things you could ask me:
- "Does unexplained haemoptysis require an urgent referral?"
- "What are the criteria for a 2-week-wait referral for breast cancer?"
- "What safety-netting advice does NG12 recommend?"

How can I help you today?`

const MetaResponse = `I'm a clinical guidelines assistant specialising in the NICE NG12 guideline: Suspected Cancer — Recognition and Referral.

I can answer questions about:
- Which symptoms and risk factors trigger urgent referral for specific cancers
- Age thresholds, investigation pathways, and referral timeframes
- Safety-netting recommendations from the guideline

Important: I am **not** a doctor and I cannot provide a diagnosis or treatment advice. My answers are based solely on the published NG12 guideline content.

What would you like to know?`

const NonMedicalRedirectResponse = `That's outside what I can help with — I'm designed to answer questions about the NICE NG12 guideline for suspected cancer recognition and referral.

Try asking something like: "What symptoms warrant an urgent referral for lung cancer?".`

const OutOfScopeResponse = `This question appears to fall outside the scope of the NG12 Suspected Cancer: Recognition and Referral guideline. NG12 covers criteria for referring patients with suspected cancer symptoms for urgent investigation or specialist assessment.

I can help with questions about:
- Which symptoms trigger urgent referral for specific cancer types
- Age thresholds and risk factors for referral criteria
- The difference between urgent referral and urgent investigation
- Safety netting recommendations`

const SafetyResponse = `I understand your concern, but I'm not able to provide emergency medical advice, confirm or rule out a cancer diagnosis, or advise you to skip professional medical care.

**If you are experiencing severe, sudden, or worsening symptoms, please contact emergency services (999/911) or go to your nearest A&E immediately.**

What I *can* help with is explaining the NG12 guideline criteria for referral and investigation. To do that, I'd need:
- Your age and sex
- Specific symptoms you're experiencing
- How long the symptoms have lasted

Would you like to ask about a specific symptom or referral pathway?`

const ClarifyResponse = `To help you find the right information in the NG12 guideline, I need a bit more detail. Could you tell me:

1. **Age** — many referral thresholds are age-specific
2. **Sex** — some criteria differ by sex
3. **Key symptoms** — e.g. unexplained bleeding, persistent cough, lump, weight loss, difficulty swallowing, blood in urine
4. **Duration** — how long have the symptoms been present?
5. **Smoking history** — relevant for lung cancer referral criteria
6. **Any red-flag signs?** — unexplained weight loss, persistent bleeding, night sweats, new lumps

The more specific you can be, the better I can match your question to the NG12 referral and investigation criteria.`

// rewriteTemplate asks the LLM to turn a follow-up into a standalone query.
const rewriteTemplate = `Rewrite this message into a standalone search query for NICE NG12 guidelines.

RULES:
1. Do NOT add facts (ages, durations, symptoms) not in the conversation
2. Keep the user's exact medical terms (e.g., "haemoptysis" not "coughing blood")
3. If information is missing, keep the query general - do not guess
4. Under 20 words
5. Do NOT answer - only rewrite for search

Conversation:
%s

Message: %s

Query:`

// chatUserTemplate is the main user-turn template sent with the system prompt.
const chatUserTemplate = `NG12 Guideline Passages:

%s

---

Conversation History:
%s

---

Current Question: %s

---

Instructions:
- Answer using ONLY the guideline passages above
- Cite using [Source N] format for EVERY factual claim
- If the passages don't contain enough evidence, say so explicitly
- Be precise with clinical criteria (age, symptoms, action types)`

// FormatChatContext renders retrieved chunks as numbered context blocks.
// Each chunk carries a header with source index, section, page, cancer type,
// and action type so the model can cite precisely.
func FormatChatContext(chunks []store.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		section := chunk.Metadata.Section
		if section == "" {
			section = "Part B"
		}
		cancerType := chunk.Metadata.CancerType
		if cancerType == "" {
			cancerType = "N/A"
		}
		actionType := chunk.Metadata.ActionType
		if actionType == "" {
			actionType = "N/A"
		}
		header := fmt.Sprintf(
			"[Source %d | Section %s | Page %d | %s | %s]",
			i+1, section, chunk.Metadata.Page, cancerType, actionType,
		)
		parts = append(parts, header+"\n"+chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FormatHistory renders the most recent maxTurns messages. Assistant
// messages are truncated to 200 characters to save prompt space.
func FormatHistory(history []store.Message, maxTurns int) string {
	recent := history
	if len(history) > maxTurns {
		recent = history[len(history)-maxTurns:]
	}
	if len(recent) == 0 {
		return "(No previous conversation)"
	}

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		role := "Assistant"
		if msg.Role == store.RoleUser {
			role = "User"
		}
		content := msg.Content
		if msg.Role == store.RoleAssistant && len(content) > 200 {
			content = content[:200] + "..."
		}
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n")
}

// FormatChatPrompt assembles the full user prompt from the message,
// retrieved chunks, and history.
func FormatChatPrompt(message string, chunks []store.Chunk, history []store.Message) string {
	return fmt.Sprintf(
		chatUserTemplate,
		FormatChatContext(chunks),
		FormatHistory(history, 6),
		message,
	)
}

// FormatRewritePrompt builds the follow-up rewrite prompt from the last
// six history messages and the current message.
func FormatRewritePrompt(history []store.Message, message string) string {
	return fmt.Sprintf(rewriteTemplate, FormatHistory(history, 6), message)
}
