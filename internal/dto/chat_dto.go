package dto

type SendChatRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required,max=2000"`
}

type CitationDTO struct {
	Source  string `json:"source"`
	Section string `json:"section"`
	Page    int    `json:"page"`
	ChunkId string `json:"chunk_id"`
	Excerpt string `json:"excerpt"`
}

type ScoreBreakdownDTO struct {
	Top1Score     float64 `json:"top1_score"`
	MeanScore     float64 `json:"mean_score"`
	Above035Count int     `json:"above_035_count"`
	TotalChunks   int     `json:"total_chunks"`
}

// ChatDebugDTO surfaces pipeline internals for the UI debug panel.
type ChatDebugDTO struct {
	InputClassification string             `json:"input_classification"`
	QueryStrategy       string             `json:"query_strategy,omitempty"`
	SearchQuery         string             `json:"search_query,omitempty"`
	GuardrailResult     string             `json:"guardrail_result,omitempty"`
	CitationCount       int                `json:"citation_count"`
	ScoreBreakdown      *ScoreBreakdownDTO `json:"score_breakdown,omitempty"`
	QuerySummary        string             `json:"query_summary,omitempty"`
}

type SendChatResponse struct {
	SessionId string        `json:"session_id"`
	Answer    string        `json:"answer"`
	Citations []CitationDTO `json:"citations"`
	Debug     ChatDebugDTO  `json:"debug"`
}

type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GetChatHistoryResponse struct {
	SessionId string           `json:"session_id"`
	History   []ChatMessageDTO `json:"history"`
	Topic     string           `json:"topic"`
}

type ClearChatHistoryResponse struct {
	Status    string `json:"status"`
	SessionId string `json:"session_id"`
}
