package prompt

import (
	"strings"
	"testing"

	"ng12-assistant-be/pkg/store"
)

func TestFormatChatContext(t *testing.T) {
	got := FormatChatContext(sampleChunks())

	if !strings.Contains(got, "[Source 1 | Section 1.1.1 | Page 9 | Lung | Urgent Referral]") {
		t.Errorf("missing first header:\n%s", got)
	}
	if !strings.Contains(got, "[Source 3 | Section Part B | Page 43 | N/A | N/A]") {
		t.Errorf("missing index header with fallbacks:\n%s", got)
	}
	if !strings.Contains(got, "unexplained haemoptysis") {
		t.Errorf("chunk text missing:\n%s", got)
	}
	if strings.Count(got, "\n\n---\n\n") != 2 {
		t.Errorf("blocks not separated:\n%s", got)
	}
}

func TestFormatHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := FormatHistory(nil, 6); got != "(No previous conversation)" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("roles and order", func(t *testing.T) {
		history := []store.Message{
			{Role: store.RoleUser, Content: "first question"},
			{Role: store.RoleAssistant, Content: "first answer"},
		}
		got := FormatHistory(history, 6)
		want := "User: first question\nAssistant: first answer"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps only the most recent turns", func(t *testing.T) {
		history := []store.Message{
			{Role: store.RoleUser, Content: "old"},
			{Role: store.RoleAssistant, Content: "old reply"},
			{Role: store.RoleUser, Content: "recent"},
		}
		got := FormatHistory(history, 2)
		if strings.Contains(got, "old") {
			t.Errorf("stale turns leaked into prompt: %q", got)
		}
		if !strings.Contains(got, "recent") {
			t.Errorf("recent turn missing: %q", got)
		}
	})

	t.Run("assistant messages truncated", func(t *testing.T) {
		history := []store.Message{
			{Role: store.RoleAssistant, Content: strings.Repeat("x", 300)},
		}
		got := FormatHistory(history, 6)
		if !strings.HasSuffix(got, "...") {
			t.Errorf("long assistant message not truncated: %q", got)
		}
		if len(got) > len("Assistant: ")+203 {
			t.Errorf("truncated message too long: %d chars", len(got))
		}
	})

	t.Run("user messages kept whole", func(t *testing.T) {
		history := []store.Message{
			{Role: store.RoleUser, Content: strings.Repeat("y", 300)},
		}
		got := FormatHistory(history, 6)
		if strings.Contains(got, "...") {
			t.Errorf("user message should not be truncated: %q", got)
		}
	})
}

func TestFormatChatPrompt(t *testing.T) {
	chunks := sampleChunks()
	history := []store.Message{
		{Role: store.RoleUser, Content: "tell me about lung cancer referral"},
	}
	got := FormatChatPrompt("what about age 45?", chunks, history)

	for _, want := range []string{
		"NG12 Guideline Passages:",
		"[Source 1 | Section 1.1.1 | Page 9 | Lung | Urgent Referral]",
		"Conversation History:",
		"User: tell me about lung cancer referral",
		"Current Question: what about age 45?",
		"Cite using [Source N] format",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFormatRewritePrompt(t *testing.T) {
	history := []store.Message{
		{Role: store.RoleUser, Content: "haemoptysis referral criteria"},
		{Role: store.RoleAssistant, Content: "Refer people aged 40 and over."},
	}
	got := FormatRewritePrompt(history, "and for smokers?")

	if !strings.Contains(got, "User: haemoptysis referral criteria") {
		t.Errorf("history missing from rewrite prompt:\n%s", got)
	}
	if !strings.Contains(got, "Message: and for smokers?") {
		t.Errorf("current message missing:\n%s", got)
	}
	if !strings.Contains(got, "Do NOT add facts") {
		t.Errorf("rewrite rules missing:\n%s", got)
	}
	if !strings.HasSuffix(strings.TrimSpace(got), "Query:") {
		t.Errorf("rewrite prompt should end with the query cue:\n%s", got)
	}
}
