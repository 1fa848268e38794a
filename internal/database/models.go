package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type PetAnalysis struct {
	AnalysisID      pgtype.UUID        `json:"analysis_id"`
	UserID          string             `json:"user_id"`
	Flow            string             `json:"flow"`
	Species         string             `json:"species"`
	Age             pgtype.Text        `json:"age"`
	Weight          pgtype.Text        `json:"weight"`
	Breed           pgtype.Text        `json:"breed"`
	Symptoms        string             `json:"symptoms"`
	Conditions      []byte             `json:"conditions"`
	AssessmentText  string             `json:"assessment_text"`
	DiagnosticsText string             `json:"diagnostics_text"`
	CareText        string             `json:"care_text"`
	EscalationText  string             `json:"escalation_text"`
	LongTermText    string             `json:"long_term_text"`
	RawResponse     string             `json:"raw_response"`
	FeedbackRating  pgtype.Int4        `json:"feedback_rating"`
	FeedbackNotes   pgtype.Text        `json:"feedback_notes"`
	FeedbackAt      pgtype.Timestamptz `json:"feedback_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}
