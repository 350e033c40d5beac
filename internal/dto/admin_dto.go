package dto

type RefreshCorpusResponse struct {
	Status          string `json:"status"`
	ChunksIndexed   int    `json:"chunks_indexed"`
	SessionsCleared bool   `json:"sessions_cleared"`
}

type CorpusStatsResponse struct {
	TotalChunks            int64            `json:"total_chunks"`
	DocTypeDistribution    map[string]int64 `json:"doc_type_distribution"`
	CancerTypeDistribution map[string]int64 `json:"cancer_type_distribution"`
	ActionTypeDistribution map[string]int64 `json:"action_type_distribution"`
	UrgencyDistribution    map[string]int64 `json:"urgency_distribution"`
	ActiveSessions         int              `json:"active_sessions"`
}

type AdminChunkDTO struct {
	ChunkId     string   `json:"chunk_id"`
	DocType     string   `json:"doc_type"`
	Section     string   `json:"section"`
	CancerType  string   `json:"cancer_type"`
	ActionType  string   `json:"action_type"`
	Urgency     string   `json:"urgency"`
	Page        int      `json:"page"`
	AgeMin      *int     `json:"age_min"`
	AgeMax      *int     `json:"age_max"`
	Symptoms    []string `json:"symptom_keywords"`
	TextPreview string   `json:"text_preview"`
}

type ListChunksRequest struct {
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
	DocType    string `query:"doc_type"`
	CancerType string `query:"cancer_type"`
	ActionType string `query:"action_type"`
	Search     string `query:"search"`
}

type ListChunksResponse struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Chunks   []AdminChunkDTO `json:"chunks"`
}
