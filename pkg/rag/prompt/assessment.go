package prompt

import (
	"fmt"
	"strings"

	"ng12-assistant-be/pkg/store"
)

// AssessmentSystemPrompt instructs the LLM to evaluate a patient against
// guideline passages and respond in strict JSON.
const AssessmentSystemPrompt = `You are a clinical decision support agent specializing in the NICE NG12 guideline: Suspected Cancer - Recognition and Referral.

Your role is to assess whether a patient's presentation meets criteria for:
- Suspected cancer pathway referral (urgent, 2-week wait)
- Urgent investigation (e.g., chest X-ray, ultrasound, endoscopy)
- Consider referral or investigation
- No NG12 criteria met

STRICT RULES:
1. Base your assessment ONLY on the NG12 guideline passages provided below.
2. Do NOT use general medical knowledge beyond what is in the passages.
3. Match the patient's age, symptoms, duration, and risk factors against the specific criteria in each guideline passage.
4. If multiple recommendations apply, list ALL of them (a patient may qualify for both urgent referral AND urgent investigation).
5. Be precise with age thresholds - "aged 40 and over" means >= 40.
6. "Unexplained" symptoms means not attributable to another known cause.
7. If no guideline passage matches the patient's presentation, say so explicitly.

You must respond in valid JSON format only, no other text.`

const assessmentUserTemplate = `NG12 Guideline Passages:

%s

---

Patient Data:
- Patient ID: %s
- Name: %s
- Age: %d
- Gender: %s
- Smoking History: %s
- Symptoms: %s
- Symptom Duration: %d days

---

Based on the guideline passages above, assess this patient.

Respond with ONLY this JSON structure (no markdown, no backticks, no explanation outside JSON):
{
  "risk_level": "Urgent Referral" | "Urgent Investigation" | "Consider Referral" | "No NG12 Criteria Met",
  "cancer_type": "the cancer type if identified, or 'None identified'",
  "recommended_action": "specific action from the guideline",
  "reasoning": "step-by-step explanation of how patient data matches guideline criteria, citing specific section numbers",
  "matched_recommendations": [
    {
      "section": "1.1.1",
      "action_type": "Urgent Referral",
      "criteria_met": "Patient aged 55 (>=40) with unexplained haemoptysis",
      "criteria_from_guideline": "exact text from the guideline passage"
    }
  ]
}

If multiple recommendations apply, include all in matched_recommendations.
The risk_level should reflect the HIGHEST priority recommendation matched.
Priority order: Urgent Referral > Urgent Investigation > Consider Referral > No NG12 Criteria Met.`

// FormatAssessmentContext renders chunks for the assessment prompt. Unlike
// the chat context, headers omit the action type: the model is asked to
// read it from the passage text itself.
func FormatAssessmentContext(chunks []store.Chunk) string {
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
		header := fmt.Sprintf(
			"[Source %d | Section %s | Page %d | %s]",
			i+1, section, chunk.Metadata.Page, cancerType,
		)
		parts = append(parts, header+"\n"+chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FormatAssessmentPrompt assembles the full assessment user prompt.
func FormatAssessmentPrompt(patient *store.Patient, chunks []store.Chunk) string {
	return fmt.Sprintf(
		assessmentUserTemplate,
		FormatAssessmentContext(chunks),
		patient.PatientID,
		patient.Name,
		patient.Age,
		patient.Gender,
		patient.SmokingHistory,
		strings.Join(patient.Symptoms, ", "),
		patient.SymptomDurationDays,
	)
}
