package dto

type PatientSummaryDTO struct {
	PatientId       string `json:"patient_id"`
	Name            string `json:"name"`
	SymptomsSummary string `json:"symptoms_summary"`
}

type PatientDataDTO struct {
	PatientId           string   `json:"patient_id"`
	Name                string   `json:"name"`
	Age                 int      `json:"age"`
	Gender              string   `json:"gender"`
	SmokingHistory      string   `json:"smoking_history"`
	Symptoms            []string `json:"symptoms"`
	SymptomDurationDays int      `json:"symptom_duration_days"`
}

type MatchedRecommendationDTO struct {
	Section               string `json:"section"`
	ActionType            string `json:"action_type"`
	CriteriaMet           string `json:"criteria_met"`
	CriteriaFromGuideline string `json:"criteria_from_guideline"`
}

// AssessmentResultDTO mirrors the strict JSON contract the LLM responds with.
type AssessmentResultDTO struct {
	RiskLevel              string                     `json:"risk_level"`
	CancerType             string                     `json:"cancer_type"`
	RecommendedAction      string                     `json:"recommended_action"`
	Reasoning              string                     `json:"reasoning"`
	MatchedRecommendations []MatchedRecommendationDTO `json:"matched_recommendations"`
}

type AssessPatientResponse struct {
	Patient    PatientDataDTO      `json:"patient"`
	Assessment AssessmentResultDTO `json:"assessment"`
	Citations  []CitationDTO       `json:"citations"`
}
