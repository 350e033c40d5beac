// Package classify implements the deterministic input guardrail that runs
// before any retrieval. It buckets a raw user message into one of seven
// classifications using keyword and regex matching only, so the hot path
// never spends an LLM call on a greeting or a joke request.
package classify

import (
	"regexp"
	"strings"
)

// Classification is the guardrail bucket assigned to an incoming message.
type Classification string

const (
	Smalltalk          Classification = "smalltalk"
	Meta               Classification = "meta"
	ChitchatRedirect   Classification = "chitchat_redirect"
	SafetyUrgent       Classification = "safety_urgent"
	MedicalOutOfScope  Classification = "medical_out_of_scope"
	NeedsClarification Classification = "needs_clarification"
	Proceed            Classification = "proceed"
)

// Patterns for greeting / farewell / pleasantries
var smalltalkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|howdy|hiya|yo)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(hi|hello|hey)\s+there[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^good\s+(morning|afternoon|evening|day)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(thanks|thank\s*you|cheers|ta)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(bye|goodbye|see\s*you|farewell)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(ok|okay|sure|great|nice|cool|got\s*it)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^how\s+are\s+you(\s+doing)?[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^how\s+are\s+you\s+today[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(are\s+)?you\s+there[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^what'?s\s+up[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^sup[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(good|fine|great)\s+thanks[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(lol|haha|hehe|😂|🤣)[\s!.,?]*$`),
}

// Patterns for questions about the assistant itself
var metaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)who\s+are\s+you`),
	regexp.MustCompile(`(?i)what\s+are\s+you`),
	regexp.MustCompile(`(?i)what\s+can\s+you\s+do`),
	regexp.MustCompile(`(?i)how\s+do(es)?\s+(this|you)\s+work`),
	regexp.MustCompile(`(?i)what\s+is\s+this(\s+tool|\s+system|\s+assistant)?[\s?]*$`),
	regexp.MustCompile(`(?i)tell\s+me\s+about\s+(yourself|this\s+system)`),
	regexp.MustCompile(`(?i)what\s+do\s+you\s+know`),
	regexp.MustCompile(`(?i)^help[\s!?]*$`),
	regexp.MustCompile(`(?i)are\s+you\s+a\s+doctor`),
	regexp.MustCompile(`(?i)can\s+you\s+diagnose`),
}

// Patterns for non-medical chitchat (jokes, weather, time, sports, etc.)
var chitchatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tell\s+me\s+a\s+joke`),
	regexp.MustCompile(`(?i)joke`),
	regexp.MustCompile(`(?i)weather`),
	regexp.MustCompile(`(?i)what\s*time\s+is\s+it`),
	regexp.MustCompile(`(?i)time\s+now`),
	regexp.MustCompile(`(?i)what('?s| is)\s+the\s+date`),
	regexp.MustCompile(`(?i)(sports?|football|soccer)\s+score`),
	regexp.MustCompile(`(?i)(remember|know)\s+my\s+name`),
	regexp.MustCompile(`(?i)what\s+(kind|type)\s+of\s+(ai|model|llm)`),
	regexp.MustCompile(`(?i)how\s+(were|are)\s+you\s+(built|made|created|trained)`),
	regexp.MustCompile(`(?i)explain\s+how\s+you\s+(were|are)\s+(built|made|created)`),
	regexp.MustCompile(`(?i)can\s+you\s+(explain|tell)\s+how\s+you\s+(were|are)\s+(built|made)`),
}

// Patterns for safety-critical queries (ER, self-diagnosis, self-treatment)
var safetyUrgentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bemergency\s+(room|department)\b`),
	regexp.MustCompile(`(?i)\bgo\s+to\s+(the\s+)?(er|a&e)\b`),
	regexp.MustCompile(`(?i)\bshould\s+i\s+(go\s+to|visit)\s+(the\s+)?(er|a&e|emergency)\b`),
	regexp.MustCompile(`(?i)\bcall\s+(911|999|an?\s+ambulance)\b`),
	regexp.MustCompile(`(?i)\bskip\s+(seeing\s+)?(a\s+)?doctor\b`),
	regexp.MustCompile(`(?i)\bdefinitely\b.{0,20}\bcancer\b`),
	regexp.MustCompile(`(?i)\bconfirm\b.{0,30}\bcancer\b`),
	regexp.MustCompile(`(?i)\bcancer\b.{0,30}\bnot\s+(just\s+)?anxiety\b`),
	regexp.MustCompile(`(?i)\b(treat|manage)\b.{0,15}\b(myself|at\s+home|on\s+my\s+own)\b`),
	regexp.MustCompile(`(?i)\bself[\s-]?treat\b`),
}

// Vague symptom patterns that need clarification before retrieval
var vagueSymptomPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(feel(ing)?|felt)\s+(unwell|sick|ill|bad|off|wrong|funny|strange)\b`),
	regexp.MustCompile(`(?i)\bsomething\s+(is\s+|feels?\s+)?(wrong|off)\b`),
	regexp.MustCompile(`(?i)\bnot\s+feeling\s+(well|right|good|myself|great)\b`),
	regexp.MustCompile(`(?i)\b(been|feeling|very|so|really|quite)\s+(tired|exhausted|fatigued)\b`),
	regexp.MustCompile(`(?i)\b(tired|exhausted|fatigued)\s+(lately|recently|all\s+the\s+time)\b`),
	regexp.MustCompile(`(?i)\bis\s+(that|this|it)\s+cancer\b`),
	regexp.MustCompile(`(?i)\bwhat\s+should\s+i\s+do\b`),
}

// Treatment-related queries outside guideline scope
var treatmentKeywords = []string{
	"chemotherapy", "radiotherapy", "immunotherapy", "surgery",
	"medication", "drug", "cure", "therapy", "treat",
}

// Prognosis-related queries outside guideline scope
var prognosisKeywords = []string{
	"prognosis", "survival rate", "life expectancy", "outcome",
	"mortality", "survive",
}

// Self-diagnosis phrasings outside guideline scope
var diagnosisPhrases = []string{
	"do i have cancer", "diagnose me", "is this cancer",
	"could this be cancer",
}

// Referral-context keywords that override out-of-scope classification
var referralContextKeywords = []string{
	"referral", "refer", "investigation", "criteria", "symptom", "sign",
}

// Specific NG12 symptoms. If present, skip needs_clarification.
var specificSymptoms = []string{
	"haematuria", "hematuria", "dysphagia", "haemoptysis", "hemoptysis",
	"lymphadenopathy", "hoarseness", "jaundice", "anaemia", "anemia",
	"dyspepsia", "night sweats", "rectal bleeding", "breast lump",
	"weight loss", "abdominal mass", "abdominal pain", "chest pain",
	"haematemesis", "mole", "lesion", "ulcer",
	"bruising", "petechiae", "hepatomegaly", "splenomegaly",
	"ascites", "pleural effusion", "bone pain", "lump",
}

// Medical signal words. If present, skip smalltalk/chitchat classification.
var medicalSignalWords = []string{
	"referral", "refer", "urgent", "symptom", "cancer",
	"haemoptysis", "dysphagia", "haematuria", "lump",
	"hoarseness", "mole", "bleeding", "weight loss",
	"investigation", "pathway", "guideline", "ng12",
	"suspected", "criteria", "threshold", "safety net",
	"age", "diagnosis", "rectal", "breast", "lung",
	"colorectal", "prostate", "ovarian", "pancreatic",
	"oesophageal", "bladder", "renal", "melanoma",
}

// HasMedicalSignal reports whether the message contains NG12-relevant
// medical terms. It keeps smalltalk/chitchat patterns from capturing
// messages that are actually clinical questions, e.g.
// "hi, does haemoptysis require urgent referral?".
func HasMedicalSignal(textLower string) bool {
	for _, kw := range medicalSignalWords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

func containsAny(textLower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify buckets a user message before it enters the retrieval pipeline.
//
// Priority order:
//  1. smalltalk (greetings, thanks, farewells), only when no medical signal
//  2. meta (questions about the assistant)
//  3. chitchat_redirect (jokes, weather, time, sports), only when no medical signal
//  4. safety_urgent (ER, self-diagnosis confirmation, self-treatment)
//  5. medical_out_of_scope (treatment, prognosis, self-diagnosis)
//  6. needs_clarification (vague symptoms without specifics)
//  7. proceed (everything else)
func Classify(message string) Classification {
	text := strings.TrimSpace(message)
	textLower := strings.ToLower(text)
	hasMedical := HasMedicalSignal(textLower)

	if !hasMedical && matchesAny(text, smalltalkPatterns) {
		return Smalltalk
	}

	if matchesAny(text, metaPatterns) {
		return Meta
	}

	if !hasMedical && matchesAny(text, chitchatPatterns) {
		return ChitchatRedirect
	}

	if matchesAny(text, safetyUrgentPatterns) {
		return SafetyUrgent
	}

	// Treatment/prognosis/self-diagnosis questions are out of scope unless
	// the message also carries referral context, in which case it is likely
	// an in-scope recognition-and-referral question.
	hasTreatment := containsAny(textLower, treatmentKeywords)
	hasPrognosis := containsAny(textLower, prognosisKeywords)
	hasDiagnosis := containsAny(textLower, diagnosisPhrases)
	hasReferralContext := containsAny(textLower, referralContextKeywords)

	if (hasTreatment || hasPrognosis || hasDiagnosis) && !hasReferralContext {
		return MedicalOutOfScope
	}

	hasVague := matchesAny(text, vagueSymptomPatterns)
	hasSpecific := containsAny(textLower, specificSymptoms)
	if hasVague && !hasSpecific {
		return NeedsClarification
	}

	return Proceed
}
