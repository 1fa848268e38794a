package geminiservice

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"PawTriage/internal/analysis"
)

/* =================================================================================
							GENERATION CONFIGURATION
	Sampling parameters sent with every request, chosen by flow
=================================================================================*/

// GenerationConfig maps to the "generationConfig" object of a generateContent
// request. The OpenAI client reuses the same values.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

var (
	clinicalConfig = GenerationConfig{Temperature: 0.4, TopP: 0.8, TopK: 40, MaxOutputTokens: 1024}
	genericConfig  = GenerationConfig{Temperature: 0.7, TopP: 0.9, TopK: 40, MaxOutputTokens: 4096}
)

// ConfigFor returns the sampling parameters of a flow. The clinical flow asks
// for a tighter, shorter answer.
func ConfigFor(flow analysis.Flow) GenerationConfig {
	if flow == analysis.FlowClinical {
		return clinicalConfig
	}
	return genericConfig
}

/* =================================================================================
								PROMPT TEMPLATES
=================================================================================*/

// Input limits. The short fields match the pet_analyses column widths.
const (
	MaxSymptomsLength = 4000
	MaxSpeciesLength  = 64
	MaxFieldLength    = 64 // age, weight
	MaxBreedLength    = 128
)

// SymptomInput is what the owner tells us about the pet. Species and Symptoms
// are required; the rest is optional and left out of the prompt when blank.
type SymptomInput struct {
	Species  string `json:"species"`
	Age      string `json:"age,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Breed    string `json:"breed,omitempty"`
	Symptoms string `json:"symptoms"`
}

// Validate rejects input that must never reach the model.
func (in SymptomInput) Validate() error {
	if strings.TrimSpace(in.Species) == "" {
		return fmt.Errorf("%w: species is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Symptoms) == "" {
		return fmt.Errorf("%w: symptoms are required", ErrInvalidInput)
	}
	if len(in.Symptoms) > MaxSymptomsLength {
		return fmt.Errorf("%w: symptoms must be at most %d characters", ErrInvalidInput, MaxSymptomsLength)
	}

	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"species", in.Species, MaxSpeciesLength},
		{"age", in.Age, MaxFieldLength},
		{"weight", in.Weight, MaxFieldLength},
		{"breed", in.Breed, MaxBreedLength},
	} {
		if utf8.RuneCountInString(strings.TrimSpace(f.value)) > f.max {
			return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, f.name, f.max)
		}
	}
	return nil
}

// ClinicalPromptTemplate asks for the five-section answer tagged
// Mild/Moderate/Serious/Emergency.
const ClinicalPromptTemplate = `You are an experienced veterinary triage assistant. A pet owner describes the following case:

%s
Respond in plain text using exactly these section headings, in this order:

POSSIBLE CONDITIONS:
List up to five likely conditions, one per line, in the form "1. Condition Name - Severity" where Severity is one of Mild, Moderate, Serious or Emergency.

CLINICAL ASSESSMENT:
Explain briefly why these conditions fit the signs described.

RECOMMENDED DIAGNOSTICS:
List the tests a veterinarian would most likely run, one per line.

HOME CARE RECOMMENDATIONS:
List what the owner can safely do at home while waiting for an appointment.

VETERINARY CARE INDICATORS:
Describe the signs that mean the pet must be seen immediately.

Keep the answer concise and do not add any other sections.`

// GenericPromptTemplate asks for the longer answer tagged High/Medium/Low.
const GenericPromptTemplate = `You are a knowledgeable veterinary assistant helping a pet owner understand what might be wrong with their pet.

%s
Structure your answer with the following headings:

POSSIBLE CONDITIONS:
List every plausible condition, one per line, as "Condition Name (Probability)" where Probability is High, Medium or Low.

DESCRIPTION:
For each condition write "Condition Name: short explanation" in plain language.

RECOMMENDATIONS:
Give practical home care advice.

DIAGNOSTIC TESTS:
List the tests a veterinarian may suggest.

LONG-TERM MANAGEMENT:
Describe ongoing care and prevention.

WHEN TO SEEK IMMEDIATE CARE:
List the warning signs that need an emergency visit.

DISCLAIMER:
Remind the owner that this is not a substitute for a veterinary examination.`

// BuildPrompt formats the owner's input into the instruction for flow.
func BuildPrompt(in SymptomInput, flow analysis.Flow) string {
	tmpl := GenericPromptTemplate
	if flow == analysis.FlowClinical {
		tmpl = ClinicalPromptTemplate
	}
	return fmt.Sprintf(tmpl, describePet(in))
}

// describePet renders the case block, skipping optional fields left blank.
func describePet(in SymptomInput) string {
	var b strings.Builder

	fields := []struct{ label, value string }{
		{"Species", in.Species},
		{"Breed", in.Breed},
		{"Age", in.Age},
		{"Weight", in.Weight},
	}
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			b.WriteString(fmt.Sprintf("%s: %s\n", f.label, v))
		}
	}
	b.WriteString(fmt.Sprintf("Symptoms: %s\n", strings.TrimSpace(in.Symptoms)))
	return b.String()
}
