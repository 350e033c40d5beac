package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ng12-assistant-be/internal/apperr"
	"ng12-assistant-be/internal/dto"
	"ng12-assistant-be/internal/pkg/logger"
	"ng12-assistant-be/internal/repository/file"
	"ng12-assistant-be/pkg/llm"
	"ng12-assistant-be/pkg/rag/prompt"
	"ng12-assistant-be/pkg/store"
)

const assessTopK = 8

// PatientRetriever is assessment-mode retrieval with patient-aware boosts.
type PatientRetriever interface {
	RetrieveForPatient(ctx context.Context, query string, topK int, patient store.Patient) ([]store.Chunk, error)
}

// IAssessmentService runs the one-shot patient risk assessment flow.
type IAssessmentService interface {
	ListPatients(ctx context.Context) ([]*dto.PatientSummaryDTO, error)
	AssessPatient(ctx context.Context, patientId string) (*dto.AssessPatientResponse, error)
}

type assessmentService struct {
	patientRepo *file.PatientRepository
	retriever   PatientRetriever
	llmProvider llm.LLMProvider
	sysLogger   logger.ILogger
}

func NewAssessmentService(
	patientRepo *file.PatientRepository,
	retriever PatientRetriever,
	llmProvider llm.LLMProvider,
	sysLogger logger.ILogger,
) IAssessmentService {
	return &assessmentService{
		patientRepo: patientRepo,
		retriever:   retriever,
		llmProvider: llmProvider,
		sysLogger:   sysLogger,
	}
}

func (as *assessmentService) ListPatients(ctx context.Context) ([]*dto.PatientSummaryDTO, error) {
	patients, err := as.patientRepo.List()
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.PatientSummaryDTO, len(patients))
	for i, p := range patients {
		symptoms := p.Symptoms
		if len(symptoms) > 3 {
			symptoms = symptoms[:3]
		}
		summaries[i] = &dto.PatientSummaryDTO{
			PatientId:       p.PatientID,
			Name:            p.Name,
			SymptomsSummary: strings.Join(symptoms, ", "),
		}
	}
	return summaries, nil
}

func (as *assessmentService) AssessPatient(ctx context.Context, patientId string) (*dto.AssessPatientResponse, error) {
	patient, err := as.patientRepo.Get(patientId)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("%s age %d %s %s",
		strings.Join(patient.Symptoms, " "),
		patient.Age,
		patient.Gender,
		patient.SmokingHistory,
	)

	chunks, err := as.retriever.RetrieveForPatient(ctx, query, assessTopK, *patient)
	if err != nil {
		return nil, fmt.Errorf("retrieve guidelines: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no relevant guideline passages found: %w", apperr.ErrNotFound)
	}

	as.sysLogger.Info("assess", "Guidelines retrieved", map[string]interface{}{
		"patient_id": patientId,
		"chunks":     len(chunks),
	})

	assessment, err := as.assessRisk(ctx, patient, chunks)
	if err != nil {
		return nil, err
	}

	return &dto.AssessPatientResponse{
		Patient: dto.PatientDataDTO{
			PatientId:           patient.PatientID,
			Name:                patient.Name,
			Age:                 patient.Age,
			Gender:              patient.Gender,
			SmokingHistory:      patient.SmokingHistory,
			Symptoms:            patient.Symptoms,
			SymptomDurationDays: patient.SymptomDurationDays,
		},
		Assessment: *assessment,
		// Every retrieved passage is cited: the clinician reviewing the
		// assessment needs the full evidence set, not just matched rules.
		Citations: toCitationDTOs(buildAssessmentCitations(chunks)),
	}, nil
}

var demoAssessment = dto.AssessmentResultDTO{
	RiskLevel:              "Demo Mode - LLM provider not configured",
	CancerType:             "N/A",
	RecommendedAction:      "Configure LLM_PROVIDER in .env to enable assessments",
	Reasoning:              "This is a demo response. Configure LLM provider credentials to get real assessments.",
	MatchedRecommendations: []dto.MatchedRecommendationDTO{},
}

func (as *assessmentService) assessRisk(ctx context.Context, patient *store.Patient, chunks []store.Chunk) (*dto.AssessmentResultDTO, error) {
	if !as.llmProvider.Available(ctx) {
		as.sysLogger.Info("assess", "LLM unavailable, returning demo result", nil)
		result := demoAssessment
		return &result, nil
	}

	userPrompt := prompt.FormatAssessmentPrompt(patient, chunks)
	raw, err := as.llmProvider.Chat(ctx, []llm.Message{
		{Role: store.RoleSystem, Content: prompt.AssessmentSystemPrompt},
		{Role: store.RoleUser, Content: userPrompt},
	}, llm.WithTemperature(0.1), llm.WithMaxTokens(2048))
	if err != nil {
		as.sysLogger.Error("assess", "LLM call failed, returning demo result", map[string]interface{}{
			"patient_id": patient.PatientID,
			"error":      err.Error(),
		})
		result := demoAssessment
		return &result, nil
	}
	if raw == "" {
		result := demoAssessment
		return &result, nil
	}

	var assessment dto.AssessmentResultDTO
	if err := json.Unmarshal([]byte(CleanJSONText(raw)), &assessment); err != nil {
		as.sysLogger.Error("assess", "Failed to parse assessment JSON", map[string]interface{}{
			"patient_id": patient.PatientID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("parse assessment response: %v: %w", err, apperr.ErrMalformedOutput)
	}
	if assessment.MatchedRecommendations == nil {
		assessment.MatchedRecommendations = []dto.MatchedRecommendationDTO{}
	}
	return &assessment, nil
}

func buildAssessmentCitations(chunks []store.Chunk) []store.Citation {
	citations := make([]store.Citation, len(chunks))
	for i, chunk := range chunks {
		section := chunk.Metadata.Section
		if section == "" {
			section = "Part B"
		}
		excerpt := chunk.Text
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		chunkID := chunk.Metadata.ChunkID
		if chunkID == "" {
			chunkID = fmt.Sprintf("chunk_%d", i)
		}
		citations[i] = store.Citation{
			Source:  "NG12 PDF",
			Section: section,
			Page:    chunk.Metadata.Page,
			ChunkID: chunkID,
			Excerpt: excerpt,
		}
	}
	return citations
}

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// CleanJSONText strips markdown code fences the model sometimes wraps its
// JSON output in, despite being told not to.
func CleanJSONText(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
