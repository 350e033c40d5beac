// Package memory holds the in-process session store. Sessions live in a
// go-cache instance with a sliding TTL; a per-repository mutex serializes
// the append-and-update-topic commit so concurrent turns on one session
// interleave at turn granularity rather than corrupting history.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"ng12-assistant-be/pkg/store"
)

// Clinical terms used for topic extraction from chunk text. Covers
// symptoms, investigation types, and cancer-type names so the topic string
// is maximally useful when prepended to a follow-up query.
var clinicalTerms = []string{
	// Symptoms
	"haemoptysis", "hemoptysis", "dysphagia", "haematuria", "hematuria",
	"lymphadenopathy", "hoarseness", "breast lump", "weight loss",
	"chest x-ray", "referral", "investigation", "endoscopy",
	"ultrasound", "anaemia", "jaundice",
	// Cancer-type keywords
	"lung", "breast", "colorectal", "prostate", "skin", "melanoma",
	"sarcoma", "leukaemia", "lymphoma", "myeloma", "pancreatic",
	"ovarian", "bladder", "renal", "testicular", "thyroid", "brain",
}

// cancer_type metadata values that are NOT actual cancer types. These
// appear on support/preamble/general sections and are excluded when
// building the topic string.
var nonCancerTypes = map[string]struct{}{
	"General":                         {},
	"Patient information and support": {},
	"Safety netting":                  {},
	"Overview":                        {},
	"Introduction":                    {},
	"N/A":                             {},
	"":                                {},
}

type SessionRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) get(sessionID string) *store.Session {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session)
	}
	return nil
}

// History returns a copy of the conversation history for a session.
// Missing sessions yield an empty history.
func (r *SessionRepository) History(sessionID string) []store.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.get(sessionID)
	if session == nil {
		return nil
	}
	history := make([]store.Message, len(session.History))
	copy(history, session.History)
	return history
}

// Topic returns the current topic for a session, or "" when unset.
func (r *SessionRepository) Topic(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session := r.get(sessionID); session != nil {
		return session.Topic
	}
	return ""
}

// Append adds one message to the session history, creating the session on
// first use.
func (r *SessionRepository) Append(sessionID, role, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.get(sessionID)
	if session == nil {
		session = &store.Session{ID: sessionID}
	}
	session.History = append(session.History, store.Message{Role: role, Content: content})
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
}

// AppendTurn commits a full user/assistant exchange and, when cited chunks
// are provided, refreshes the session topic in the same critical section.
func (r *SessionRepository) AppendTurn(sessionID, userMessage, answer string, citedChunks []store.Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.get(sessionID)
	if session == nil {
		session = &store.Session{ID: sessionID}
	}
	session.History = append(session.History,
		store.Message{Role: store.RoleUser, Content: userMessage},
		store.Message{Role: store.RoleAssistant, Content: answer},
	)
	if len(citedChunks) > 0 {
		session.Topic = DeriveTopic(citedChunks)
	}
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
}

// UpdateTopic recomputes the session topic from retrieved chunks.
func (r *SessionRepository) UpdateTopic(sessionID string, chunks []store.Chunk) {
	if len(chunks) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.get(sessionID)
	if session == nil {
		session = &store.Session{ID: sessionID}
	}
	session.Topic = DeriveTopic(chunks)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
}

// Clear removes a single session's history and topic.
func (r *SessionRepository) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionID)
}

// ClearAll drops every session.
func (r *SessionRepository) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Flush()
}

// Count returns the number of live sessions.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// DeriveTopic builds a space-separated topic string from retrieved chunks,
// suitable for prepending to a follow-up query. Only cancer-specific chunks
// are considered so generic preamble/support sections do not pollute the
// topic. The topic combines the most common cancer type with up to two
// clinical terms found in chunk text, falling back to "general" when
// nothing specific is present.
func DeriveTopic(chunks []store.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	relevant := make([]store.Chunk, 0, len(chunks))
	for _, c := range chunks {
		cancerType := c.Metadata.CancerType
		if cancerType == "" {
			cancerType = "General"
		}
		if _, generic := nonCancerTypes[cancerType]; generic {
			continue
		}
		if c.Metadata.Section == "" || c.Metadata.Section == "general" {
			continue
		}
		relevant = append(relevant, c)
	}
	if len(relevant) == 0 {
		// Fallback: use all chunks but still try to extract useful info
		relevant = chunks
	}

	// Most common cancer_type among relevant chunks
	counts := map[string]int{}
	order := []string{}
	for _, c := range relevant {
		ct := c.Metadata.CancerType
		if _, generic := nonCancerTypes[ct]; generic {
			continue
		}
		if _, seen := counts[ct]; !seen {
			order = append(order, ct)
		}
		counts[ct]++
	}
	topCancer := ""
	best := 0
	for _, ct := range order {
		if counts[ct] > best {
			best = counts[ct]
			topCancer = ct
		}
	}

	// Clinical terms from chunk text (up to 2 in the final topic)
	keywords := []string{}
	for _, c := range relevant {
		textLower := strings.ToLower(c.Text)
		for _, term := range clinicalTerms {
			if strings.Contains(textLower, term) && !containsString(keywords, term) {
				keywords = append(keywords, term)
				if len(keywords) >= 3 {
					break
				}
			}
		}
		if len(keywords) >= 3 {
			break
		}
	}

	parts := []string{}
	if topCancer != "" {
		parts = append(parts, topCancer)
	}
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	parts = append(parts, keywords...)

	if len(parts) == 0 {
		return store.TopicGeneral
	}
	return strings.Join(parts, " ")
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
