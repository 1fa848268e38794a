/*
Package analysis turns the free-text answer of a generative model into a
structured triage record. Parsing never fails: unexpected formatting degrades
to fixed fallback values and the raw text is always kept.
*/
package analysis

// Flow selects the prompt/response schema a raw answer was generated under.
type Flow string

const (
	// FlowClinical is the 5-section schema tagged Mild/Moderate/Serious/Emergency.
	FlowClinical Flow = "clinical"

	// FlowGeneric is the longer 4-section schema tagged High/Medium/Low.
	FlowGeneric Flow = "generic"
)

// Valid reports whether f is a known flow.
func (f Flow) Valid() bool {
	return f == FlowClinical || f == FlowGeneric
}

// ParseFlow maps user input onto a Flow, defaulting to the generic flow.
func ParseFlow(s string) Flow {
	if f := Flow(s); f.Valid() {
		return f
	}
	return FlowGeneric
}

// Condition is one candidate diagnosis extracted from the answer.
type Condition struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Analysis is the parsed form of a single model answer.
type Analysis struct {
	Flow            Flow        `json:"flow"`
	Conditions      []Condition `json:"conditions"`
	AssessmentText  string      `json:"assessment_text"`
	DiagnosticsText string      `json:"diagnostics_text"`
	CareText        string      `json:"care_text"`
	EscalationText  string      `json:"escalation_text"`
	LongTermText    string      `json:"long_term_text"`
	RawResponse     string      `json:"raw_response"`
}

// Severity labels that are not part of either vocabulary.
const (
	SeverityNotSpecified = "Not specified"
	SeverityDefault      = "Medium"
)

// Sentinel condition and fallback sentences.
const (
	UnspecifiedConditionName = "Unspecified Condition"

	FallbackConditionDescription = "The response did not list specific conditions. Please review the full analysis below or consult your veterinarian."
	FallbackAssessment           = "No clinical assessment was provided. Please review the full response below."
	FallbackDiagnostics          = "No specific diagnostic tests were suggested. Your veterinarian can recommend appropriate tests after an examination."
	FallbackCare                 = "No specific recommendations provided. Please consult your veterinarian for advice tailored to your pet."
	FallbackEscalation           = "Seek immediate veterinary care if symptoms worsen or persist for more than 24 hours, or if your pet has difficulty breathing, collapses, or has a seizure."
	FallbackLongTerm             = "No long-term management considerations were provided."
)

func unspecifiedCondition() Condition {
	return Condition{
		Name:        UnspecifiedConditionName,
		Severity:    SeverityDefault,
		Description: FallbackConditionDescription,
	}
}
