package store

// ChunkMetadata carries the structured NG12 attributes attached to a
// guideline chunk at ingestion time. Zero values mean "not annotated".
type ChunkMetadata struct {
	ChunkID           string   `json:"chunk_id"`
	Section           string   `json:"section"`
	Page              int      `json:"page"`
	DocType           string   `json:"doc_type"`
	CancerType        string   `json:"cancer_type"`
	ActionType        string   `json:"action_type"`
	Urgency           string   `json:"urgency"`
	AgeMin            *int     `json:"age_min,omitempty"`
	AgeMax            *int     `json:"age_max,omitempty"`
	GenderSpecific    string   `json:"gender_specific,omitempty"`
	SymptomKeywords   []string `json:"symptom_keywords,omitempty"`
	RiskFactorSmoking bool     `json:"risk_factor_smoking,omitempty"`
}

// Chunk is a retrieved guideline passage with its similarity score.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Message is a single conversational turn kept in session history.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Session represents the active chat session state in memory.
type Session struct {
	ID      string    `json:"id"`
	History []Message `json:"history"`

	// Topic is the running clinical focus of the conversation, e.g.
	// "lung haemoptysis". "general" means nothing specific was grounded yet.
	Topic string `json:"topic"`
}

// Citation is a rewritten source reference attached to an answer.
type Citation struct {
	Source  string `json:"source"`
	Section string `json:"section"`
	Page    int    `json:"page"`
	ChunkID string `json:"chunk_id"`
	Excerpt string `json:"excerpt"`
}

// Patient is a demo patient record used by the risk assessment flow.
type Patient struct {
	PatientID           string   `json:"patient_id"`
	Name                string   `json:"name"`
	Age                 int      `json:"age"`
	Gender              string   `json:"gender"`
	SmokingHistory      string   `json:"smoking_history"`
	Symptoms            []string `json:"symptoms"`
	SymptomDurationDays int      `json:"symptom_duration_days"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	TopicGeneral = "general"
)
