package pet

import (
	"encoding/json"
	"time"

	"PawTriage/internal/analysis"
	"PawTriage/internal/clinics"
	"PawTriage/internal/database"
	"PawTriage/internal/utility"
	"github.com/rs/zerolog"
)

/* ====================================================================
                    		Request DTOs
==================================================================== */

type AnalyzeRequest struct {
	Species  string `json:"species"`
	Age      string `json:"age"`
	Weight   string `json:"weight"`
	Breed    string `json:"breed"`
	Symptoms string `json:"symptoms"`
	Flow     string `json:"flow"` // "clinical" or "generic" (default)
}

type FeedbackRequest struct {
	Rating int    `json:"rating"` // 1-5
	Notes  string `json:"notes"`
}

/* ====================================================================
                    		Response DTOs
==================================================================== */

type AnalyzeResponse struct {
	// AnalysisID is empty when the record could not be saved.
	AnalysisID string            `json:"analysis_id,omitempty"`
	Analysis   analysis.Analysis `json:"analysis"`
}

type Feedback struct {
	Rating      int32      `json:"rating"`
	Notes       string     `json:"notes,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type AnalysisRecord struct {
	AnalysisID string            `json:"analysis_id"`
	Species    string            `json:"species"`
	Age        string            `json:"age,omitempty"`
	Weight     string            `json:"weight,omitempty"`
	Breed      string            `json:"breed,omitempty"`
	Symptoms   string            `json:"symptoms"`
	Analysis   analysis.Analysis `json:"analysis"`
	Feedback   *Feedback         `json:"feedback,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`

	// RawHTML is the model answer rendered from markdown, on request.
	RawHTML string `json:"raw_html,omitempty"`
}

type AnalysisHistoryItem struct {
	AnalysisID     string    `json:"analysis_id"`
	Flow           string    `json:"flow"`
	Species        string    `json:"species"`
	Symptoms       string    `json:"symptoms"`
	TopCondition   string    `json:"top_condition,omitempty"`
	TopSeverity    string    `json:"top_severity,omitempty"`
	ConditionCount int       `json:"condition_count"`
	FeedbackRating *int32    `json:"feedback_rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type AnalysisHistoryResponse struct {
	Items    []AnalysisHistoryItem `json:"items"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Total    int64                 `json:"total"`
}

type NearbyClinicsResponse struct {
	Clinics      []clinics.Clinic `json:"clinics"`
	Count        int              `json:"count"`
	RadiusMeters int              `json:"radius_meters"`
}

/* ====================================================================
                    		Mapping helpers
==================================================================== */

func decodeConditions(raw []byte, log *zerolog.Logger) []analysis.Condition {
	conditions := []analysis.Condition{}
	if len(raw) == 0 {
		return conditions
	}
	if err := json.Unmarshal(raw, &conditions); err != nil {
		log.Warn().Err(err).Msg("Stored conditions are not valid JSON")
		return []analysis.Condition{}
	}
	return conditions
}

func toRecord(row database.PetAnalysis, log *zerolog.Logger) AnalysisRecord {
	id, _ := utility.PgtypeUUIDToString(row.AnalysisID)

	rec := AnalysisRecord{
		AnalysisID: id,
		Species:    row.Species,
		Age:        row.Age.String,
		Weight:     row.Weight.String,
		Breed:      row.Breed.String,
		Symptoms:   row.Symptoms,
		Analysis: analysis.Analysis{
			Flow:            analysis.ParseFlow(row.Flow),
			Conditions:      decodeConditions(row.Conditions, log),
			AssessmentText:  row.AssessmentText,
			DiagnosticsText: row.DiagnosticsText,
			CareText:        row.CareText,
			EscalationText:  row.EscalationText,
			LongTermText:    row.LongTermText,
			RawResponse:     row.RawResponse,
		},
		CreatedAt: row.CreatedAt.Time,
	}

	if row.FeedbackRating.Valid {
		fb := &Feedback{Rating: row.FeedbackRating.Int32, Notes: row.FeedbackNotes.String}
		if row.FeedbackAt.Valid {
			at := row.FeedbackAt.Time
			fb.SubmittedAt = &at
		}
		rec.Feedback = fb
	}
	return rec
}

func toHistoryItem(row database.PetAnalysis, log *zerolog.Logger) AnalysisHistoryItem {
	id, _ := utility.PgtypeUUIDToString(row.AnalysisID)
	conditions := decodeConditions(row.Conditions, log)

	item := AnalysisHistoryItem{
		AnalysisID:     id,
		Flow:           row.Flow,
		Species:        row.Species,
		Symptoms:       row.Symptoms,
		ConditionCount: len(conditions),
		CreatedAt:      row.CreatedAt.Time,
	}
	if len(conditions) > 0 {
		item.TopCondition = conditions[0].Name
		item.TopSeverity = conditions[0].Severity
	}
	if row.FeedbackRating.Valid {
		r := row.FeedbackRating.Int32
		item.FeedbackRating = &r
	}
	return item
}
