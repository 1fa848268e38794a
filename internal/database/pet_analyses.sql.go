package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const petAnalysisColumns = `analysis_id, user_id, flow, species, age, weight, breed, symptoms, conditions,
    assessment_text, diagnostics_text, care_text, escalation_text, long_term_text, raw_response,
    feedback_rating, feedback_notes, feedback_at, created_at`

func scanPetAnalysis(row interface{ Scan(...interface{}) error }) (PetAnalysis, error) {
	var i PetAnalysis
	err := row.Scan(
		&i.AnalysisID,
		&i.UserID,
		&i.Flow,
		&i.Species,
		&i.Age,
		&i.Weight,
		&i.Breed,
		&i.Symptoms,
		&i.Conditions,
		&i.AssessmentText,
		&i.DiagnosticsText,
		&i.CareText,
		&i.EscalationText,
		&i.LongTermText,
		&i.RawResponse,
		&i.FeedbackRating,
		&i.FeedbackNotes,
		&i.FeedbackAt,
		&i.CreatedAt,
	)
	return i, err
}

const createPetAnalysis = `-- name: CreatePetAnalysis :one
INSERT INTO pet_analyses (
    user_id, flow, species, age, weight, breed, symptoms, conditions,
    assessment_text, diagnostics_text, care_text, escalation_text, long_term_text, raw_response
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING ` + petAnalysisColumns

type CreatePetAnalysisParams struct {
	UserID          string      `json:"user_id"`
	Flow            string      `json:"flow"`
	Species         string      `json:"species"`
	Age             pgtype.Text `json:"age"`
	Weight          pgtype.Text `json:"weight"`
	Breed           pgtype.Text `json:"breed"`
	Symptoms        string      `json:"symptoms"`
	Conditions      []byte      `json:"conditions"`
	AssessmentText  string      `json:"assessment_text"`
	DiagnosticsText string      `json:"diagnostics_text"`
	CareText        string      `json:"care_text"`
	EscalationText  string      `json:"escalation_text"`
	LongTermText    string      `json:"long_term_text"`
	RawResponse     string      `json:"raw_response"`
}

func (q *Queries) CreatePetAnalysis(ctx context.Context, arg CreatePetAnalysisParams) (PetAnalysis, error) {
	row := q.db.QueryRow(ctx, createPetAnalysis,
		arg.UserID,
		arg.Flow,
		arg.Species,
		arg.Age,
		arg.Weight,
		arg.Breed,
		arg.Symptoms,
		arg.Conditions,
		arg.AssessmentText,
		arg.DiagnosticsText,
		arg.CareText,
		arg.EscalationText,
		arg.LongTermText,
		arg.RawResponse,
	)
	return scanPetAnalysis(row)
}

const getPetAnalysis = `-- name: GetPetAnalysis :one
SELECT ` + petAnalysisColumns + `
FROM pet_analyses
WHERE analysis_id = $1 AND user_id = $2`

type GetPetAnalysisParams struct {
	AnalysisID pgtype.UUID `json:"analysis_id"`
	UserID     string      `json:"user_id"`
}

func (q *Queries) GetPetAnalysis(ctx context.Context, arg GetPetAnalysisParams) (PetAnalysis, error) {
	row := q.db.QueryRow(ctx, getPetAnalysis, arg.AnalysisID, arg.UserID)
	return scanPetAnalysis(row)
}

const listPetAnalyses = `-- name: ListPetAnalyses :many
SELECT ` + petAnalysisColumns + `
FROM pet_analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListPetAnalysesParams struct {
	UserID string `json:"user_id"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListPetAnalyses(ctx context.Context, arg ListPetAnalysesParams) ([]PetAnalysis, error) {
	rows, err := q.db.Query(ctx, listPetAnalyses, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PetAnalysis{}
	for rows.Next() {
		i, err := scanPetAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPetAnalyses = `-- name: CountPetAnalyses :one
SELECT COUNT(*) FROM pet_analyses WHERE user_id = $1`

func (q *Queries) CountPetAnalyses(ctx context.Context, userID string) (int64, error) {
	row := q.db.QueryRow(ctx, countPetAnalyses, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updatePetAnalysisFeedback = `-- name: UpdatePetAnalysisFeedback :one
UPDATE pet_analyses
SET feedback_rating = $3,
    feedback_notes  = $4,
    feedback_at     = NOW()
WHERE analysis_id = $1 AND user_id = $2
RETURNING ` + petAnalysisColumns

type UpdatePetAnalysisFeedbackParams struct {
	AnalysisID     pgtype.UUID `json:"analysis_id"`
	UserID         string      `json:"user_id"`
	FeedbackRating pgtype.Int4 `json:"feedback_rating"`
	FeedbackNotes  pgtype.Text `json:"feedback_notes"`
}

func (q *Queries) UpdatePetAnalysisFeedback(ctx context.Context, arg UpdatePetAnalysisFeedbackParams) (PetAnalysis, error) {
	row := q.db.QueryRow(ctx, updatePetAnalysisFeedback,
		arg.AnalysisID,
		arg.UserID,
		arg.FeedbackRating,
		arg.FeedbackNotes,
	)
	return scanPetAnalysis(row)
}
