package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ng12-assistant-be/internal/apperr"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/file"
	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/store"
)

const patientsFixture = `[
  {
    "patient_id": "PT-101",
    "name": "Arthur Benson",
    "age": 55,
    "gender": "Male",
    "smoking_history": "Current Smoker",
    "symptoms": ["Haemoptysis", "Unexplained weight loss", "Persistent cough", "Fatigue"],
    "symptom_duration_days": 21
  }
]`

type stubPatientRetriever struct {
	chunks    []store.Chunk
	lastQuery string
}

func (r *stubPatientRetriever) RetrieveForPatient(ctx context.Context, query string, topK int, patient store.Patient) ([]store.Chunk, error) {
	r.lastQuery = query
	return r.chunks, nil
}

type stubLLM struct {
	available bool
	response  string
	err       error
}

func (p *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, p.err
}

func (p *stubLLM) Generate(ctx context.Context, promptText string, options ...llm.Option) (string, error) {
	return p.response, p.err
}

func (p *stubLLM) Available(ctx context.Context) bool { return p.available }

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}

func newPatientRepo(t *testing.T) *file.PatientRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patients.json")
	require.NoError(t, os.WriteFile(path, []byte(patientsFixture), 0644))
	return file.NewPatientRepository(path)
}

func lungChunks() []store.Chunk {
	return []store.Chunk{
		{
			ID:    "rule_1.1.1",
			Text:  "Refer people using a suspected cancer pathway referral for lung cancer if aged 40 and over with unexplained haemoptysis.",
			Score: 0.9,
			Metadata: store.ChunkMetadata{
				ChunkID: "rule_1.1.1", Section: "1.1.1", Page: 9,
				CancerType: "Lung", ActionType: "Urgent Referral",
			},
		},
		{
			ID:    "index_haemoptysis",
			Text:  "Haemoptysis: see lung cancer, mesothelioma.",
			Score: 0.7,
			Metadata: store.ChunkMetadata{
				ChunkID: "index_haemoptysis", Page: 43, DocType: "symptom_index",
			},
		},
	}
}

func TestListPatientsSummary(t *testing.T) {
	svc := NewAssessmentService(newPatientRepo(t), &stubPatientRetriever{}, &stubLLM{}, nopLogger{})

	patients, err := svc.ListPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)

	assert.Equal(t, "PT-101", patients[0].PatientId)
	// Summary caps at the first three symptoms.
	assert.Equal(t, "Haemoptysis, Unexplained weight loss, Persistent cough", patients[0].SymptomsSummary)
}

func TestAssessPatientDemoFallback(t *testing.T) {
	retriever := &stubPatientRetriever{chunks: lungChunks()}
	svc := NewAssessmentService(newPatientRepo(t), retriever, &stubLLM{available: false}, nopLogger{})

	res, err := svc.AssessPatient(context.Background(), "PT-101")
	require.NoError(t, err)

	assert.Contains(t, res.Assessment.RiskLevel, "Demo Mode")
	assert.Empty(t, res.Assessment.MatchedRecommendations)
	// Citations cover every retrieved passage even without an LLM.
	require.Len(t, res.Citations, 2)
	assert.Equal(t, "1.1.1", res.Citations[0].Section)
	assert.Equal(t, "Part B", res.Citations[1].Section)

	assert.Contains(t, retriever.lastQuery, "Haemoptysis")
	assert.Contains(t, retriever.lastQuery, "age 55")
	assert.Contains(t, retriever.lastQuery, "Current Smoker")
}

func TestAssessPatientParsesFencedJSON(t *testing.T) {
	response := "```json\n{\n  \"risk_level\": \"Urgent Referral\",\n  \"cancer_type\": \"Lung\",\n  \"recommended_action\": \"Suspected cancer pathway referral within 2 weeks\",\n  \"reasoning\": \"Patient aged 55 with unexplained haemoptysis meets 1.1.1.\",\n  \"matched_recommendations\": [\n    {\n      \"section\": \"1.1.1\",\n      \"action_type\": \"Urgent Referral\",\n      \"criteria_met\": \"Aged 55 (>=40) with unexplained haemoptysis\",\n      \"criteria_from_guideline\": \"aged 40 and over with unexplained haemoptysis\"\n    }\n  ]\n}\n```"
	retriever := &stubPatientRetriever{chunks: lungChunks()}
	svc := NewAssessmentService(newPatientRepo(t), retriever, &stubLLM{available: true, response: response}, nopLogger{})

	res, err := svc.AssessPatient(context.Background(), "PT-101")
	require.NoError(t, err)

	assert.Equal(t, "Urgent Referral", res.Assessment.RiskLevel)
	assert.Equal(t, "Lung", res.Assessment.CancerType)
	require.Len(t, res.Assessment.MatchedRecommendations, 1)
	assert.Equal(t, "1.1.1", res.Assessment.MatchedRecommendations[0].Section)
	assert.Equal(t, 55, res.Patient.Age)
}

func TestAssessPatientMalformedJSON(t *testing.T) {
	retriever := &stubPatientRetriever{chunks: lungChunks()}
	svc := NewAssessmentService(newPatientRepo(t), retriever, &stubLLM{available: true, response: "I think the patient should be referred."}, nopLogger{})

	_, err := svc.AssessPatient(context.Background(), "PT-101")
	assert.ErrorIs(t, err, apperr.ErrMalformedOutput)
}

func TestAssessPatientUnknownPatient(t *testing.T) {
	svc := NewAssessmentService(newPatientRepo(t), &stubPatientRetriever{}, &stubLLM{}, nopLogger{})

	_, err := svc.AssessPatient(context.Background(), "PT-999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssessPatientNoEvidence(t *testing.T) {
	svc := NewAssessmentService(newPatientRepo(t), &stubPatientRetriever{}, &stubLLM{available: true}, nopLogger{})

	_, err := svc.AssessPatient(context.Background(), "PT-101")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCleanJSONText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONText(tt.in))
		})
	}
}
