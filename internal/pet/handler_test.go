package pet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"PawTriage/internal/clinics"
	"PawTriage/internal/database"
	"PawTriage/internal/geminiservice"
	"PawTriage/internal/utility"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "user-1"
	testAnalysis = "5f0c6e4e-8a7b-4c1d-9e2f-3a4b5c6d7e8f"
)

const genericAnswer = `**Possible Conditions**

| Condition | Likelihood |
|---|---|
| Gastroenteritis | High |

**Home Care Recommendations**
Withhold food for 12 hours.
`

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ geminiservice.GenerationConfig) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	created   []database.CreatePetAnalysisParams
	createErr error
	rows      map[string]database.PetAnalysis
	listErr   error
	listArgs  []database.ListPetAnalysesParams
	feedback  []database.UpdatePetAnalysisFeedbackParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]database.PetAnalysis{}}
}

func (s *fakeStore) CreatePetAnalysis(_ context.Context, arg database.CreatePetAnalysisParams) (database.PetAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return database.PetAnalysis{}, s.createErr
	}
	s.created = append(s.created, arg)
	id, _ := utility.StringToPgtypeUUID(testAnalysis)
	row := database.PetAnalysis{
		AnalysisID: id,
		UserID:     arg.UserID,
		Flow:       arg.Flow,
		Species:    arg.Species,
		Symptoms:   arg.Symptoms,
		Conditions: arg.Conditions,
		CreatedAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	s.rows[arg.UserID+"/"+testAnalysis] = row
	return row, nil
}

func (s *fakeStore) GetPetAnalysis(_ context.Context, arg database.GetPetAnalysisParams) (database.PetAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := utility.PgtypeUUIDToString(arg.AnalysisID)
	row, ok := s.rows[arg.UserID+"/"+id]
	if !ok {
		return database.PetAnalysis{}, pgx.ErrNoRows
	}
	return row, nil
}

func (s *fakeStore) ListPetAnalyses(_ context.Context, arg database.ListPetAnalysesParams) ([]database.PetAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.listArgs = append(s.listArgs, arg)
	out := []database.PetAnalysis{}
	for _, row := range s.rows {
		if row.UserID == arg.UserID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeStore) CountPetAnalyses(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.rows {
		if row.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpdatePetAnalysisFeedback(_ context.Context, arg database.UpdatePetAnalysisFeedbackParams) (database.PetAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := utility.PgtypeUUIDToString(arg.AnalysisID)
	key := arg.UserID + "/" + id
	row, ok := s.rows[key]
	if !ok {
		return database.PetAnalysis{}, pgx.ErrNoRows
	}
	s.feedback = append(s.feedback, arg)
	row.FeedbackRating = arg.FeedbackRating
	row.FeedbackNotes = arg.FeedbackNotes
	row.FeedbackAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	s.rows[key] = row
	return row, nil
}

type fakeFinder struct {
	clinics []clinics.Clinic
	err     error
	radius  int
}

func (f *fakeFinder) FindNearby(_ context.Context, _, _ float64, radiusMeters int) ([]clinics.Clinic, error) {
	f.radius = radiusMeters
	return f.clinics, f.err
}

func newTestServer(h *Handler, userID string) *echo.Echo {
	e := echo.New()
	withUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != "" {
				c.Set("user_id", userID)
			}
			return next(c)
		}
	}
	g := e.Group("/pets", withUser)
	g.POST("/analyze", h.AnalyzeHandler)
	g.GET("/analyses", h.ListAnalysesHandler)
	g.GET("/analyses/:analysis_id", h.GetAnalysisHandler)
	g.POST("/analyses/:analysis_id/feedback", h.FeedbackHandler)
	e.GET("/clinics/nearby", h.NearbyClinicsHandler)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeHandler(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{answer: genericAnswer}
	e := newTestServer(NewHandler(store, gen, &fakeFinder{}, nil), testUser)

	rec := do(e, http.MethodPost, "/pets/analyze",
		`{"species":"Dog","age":"4 years","symptoms":"Vomiting since last night","flow":"generic"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testAnalysis, resp.AnalysisID)
	require.Len(t, resp.Analysis.Conditions, 1)
	assert.Equal(t, "Gastroenteritis", resp.Analysis.Conditions[0].Name)
	assert.Equal(t, "High", resp.Analysis.Conditions[0].Severity)

	require.Len(t, store.created, 1)
	saved := store.created[0]
	assert.Equal(t, testUser, saved.UserID)
	assert.Equal(t, "generic", saved.Flow)
	assert.Equal(t, "4 years", saved.Age.String)
	assert.False(t, saved.Breed.Valid)
	assert.Contains(t, string(saved.Conditions), "Gastroenteritis")
}

func TestAnalyzeHandlerStillAnswersWhenSaveFails(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("db down")
	e := newTestServer(NewHandler(store, &fakeGenerator{answer: genericAnswer}, &fakeFinder{}, nil), testUser)

	rec := do(e, http.MethodPost, "/pets/analyze", `{"species":"Cat","symptoms":"Sneezing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "analysis_id")
	assert.Contains(t, rec.Body.String(), "Gastroenteritis")
}

func TestAnalyzeHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		body   string
		genErr error
		status int
	}{
		{"unauthenticated", "", `{"species":"Dog","symptoms":"x"}`, nil, http.StatusUnauthorized},
		{"bad json", testUser, `{"species":`, nil, http.StatusBadRequest},
		{"missing species", testUser, `{"symptoms":"Limping"}`, nil, http.StatusBadRequest},
		{"missing symptoms", testUser, `{"species":"Dog","symptoms":"  "}`, nil, http.StatusBadRequest},
		{"upstream failure", testUser, `{"species":"Dog","symptoms":"Limping"}`, errors.New("boom"), http.StatusBadGateway},
		{"upstream rate limit", testUser, `{"species":"Dog","symptoms":"Limping"}`, geminiservice.ErrRateLimited, http.StatusTooManyRequests},
		{"not configured", testUser, `{"species":"Dog","symptoms":"Limping"}`, geminiservice.ErrNotConfigured, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			gen := &fakeGenerator{answer: genericAnswer, err: tt.genErr}
			e := newTestServer(NewHandler(store, gen, &fakeFinder{}, nil), tt.userID)

			rec := do(e, http.MethodPost, "/pets/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Empty(t, store.created)
		})
	}
}

func TestAnalyzeHandlerRateLimit(t *testing.T) {
	gen := &fakeGenerator{answer: genericAnswer}
	limiter := utility.NewRateLimiter(time.Minute, 1)
	e := newTestServer(NewHandler(newFakeStore(), gen, &fakeFinder{}, limiter), testUser)

	body := `{"species":"Dog","symptoms":"Coughing"}`
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/pets/analyze", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/pets/analyze", body).Code)
	assert.Equal(t, 1, gen.calls)
}

func TestHistoryFlow(t *testing.T) {
	store := newFakeStore()
	e := newTestServer(NewHandler(store, &fakeGenerator{answer: genericAnswer}, &fakeFinder{}, nil), testUser)

	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/pets/analyze", `{"species":"Dog","symptoms":"Vomiting"}`).Code)

	// List
	rec := do(e, http.MethodGet, "/pets/analyses?page=1&page_size=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list AnalysisHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, MaxPageSize, list.PageSize)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Gastroenteritis", list.Items[0].TopCondition)
	assert.Equal(t, 1, list.Items[0].ConditionCount)

	// Detail
	rec = do(e, http.MethodGet, "/pets/analyses/"+testAnalysis, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Dog", detail.Species)
	assert.Nil(t, detail.Feedback)
	assert.Empty(t, detail.RawHTML)

	// Feedback
	rec = do(e, http.MethodPost, "/pets/analyses/"+testAnalysis+"/feedback", `{"rating":4,"notes":"Helpful"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Feedback)
	assert.Equal(t, int32(4), detail.Feedback.Rating)
	assert.Equal(t, "Helpful", detail.Feedback.Notes)
}

func TestGetAnalysisRendersHTML(t *testing.T) {
	store := newFakeStore()
	id, _ := utility.StringToPgtypeUUID(testAnalysis)
	store.rows[testUser+"/"+testAnalysis] = database.PetAnalysis{
		AnalysisID:  id,
		UserID:      testUser,
		Flow:        "clinical",
		Species:     "Cat",
		RawResponse: "**Assessment**\n\nLikely a hairball.",
	}
	e := newTestServer(NewHandler(store, &fakeGenerator{}, &fakeFinder{}, nil), testUser)

	rec := do(e, http.MethodGet, "/pets/analyses/"+testAnalysis+"?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Contains(t, detail.RawHTML, "<strong>Assessment</strong>")
	assert.Equal(t, "clinical", string(detail.Analysis.Flow))
	assert.NotNil(t, detail.Analysis.Conditions)
}

func TestAnalysisLookupErrors(t *testing.T) {
	store := newFakeStore()
	e := newTestServer(NewHandler(store, &fakeGenerator{}, &fakeFinder{}, nil), testUser)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/pets/analyses/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/pets/analyses/"+testAnalysis, "").Code)
	assert.Equal(t, http.StatusNotFound,
		do(e, http.MethodPost, "/pets/analyses/"+testAnalysis+"/feedback", `{"rating":3}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(e, http.MethodPost, "/pets/analyses/"+testAnalysis+"/feedback", `{"rating":6}`).Code)
	assert.Empty(t, store.feedback)
}

func TestOtherUsersAnalysesAreHidden(t *testing.T) {
	store := newFakeStore()
	owner := newTestServer(NewHandler(store, &fakeGenerator{answer: genericAnswer}, &fakeFinder{}, nil), testUser)
	require.Equal(t, http.StatusOK, do(owner, http.MethodPost, "/pets/analyze", `{"species":"Dog","symptoms":"Itching"}`).Code)

	other := newTestServer(NewHandler(store, &fakeGenerator{}, &fakeFinder{}, nil), "user-2")
	assert.Equal(t, http.StatusNotFound, do(other, http.MethodGet, "/pets/analyses/"+testAnalysis, "").Code)

	rec := do(other, http.MethodGet, "/pets/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestListAnalysesClampsHugePage(t *testing.T) {
	store := newFakeStore()
	e := newTestServer(NewHandler(store, &fakeGenerator{}, &fakeFinder{}, nil), testUser)

	rec := do(e, http.MethodGet, "/pets/analyses?page=99999999999&page_size=50", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list AnalysisHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, MaxPage, list.Page)

	require.Len(t, store.listArgs, 1)
	assert.GreaterOrEqual(t, store.listArgs[0].Offset, int32(0))
	assert.Equal(t, int32((MaxPage-1)*MaxPageSize), store.listArgs[0].Offset)
}

func TestListAnalysesStoreError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db down")
	e := newTestServer(NewHandler(store, &fakeGenerator{}, &fakeFinder{}, nil), testUser)

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/pets/analyses", "").Code)
}

func TestNearbyClinicsHandler(t *testing.T) {
	finder := &fakeFinder{clinics: []clinics.Clinic{{ID: "node/1", Name: "Paws Vet", DistanceKm: 0.4}}}
	e := newTestServer(NewHandler(newFakeStore(), &fakeGenerator{}, finder, nil), "")

	rec := do(e, http.MethodGet, "/clinics/nearby?lat=52.52&lon=13.40", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp NearbyClinicsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, clinics.DefaultRadiusMeters, resp.RadiusMeters)
	assert.Equal(t, "Paws Vet", resp.Clinics[0].Name)

	do(e, http.MethodGet, "/clinics/nearby?lat=52.52&lon=13.40&radius=999999", "")
	assert.Equal(t, clinics.MaxRadiusMeters, finder.radius)
}

func TestNearbyClinicsHandlerErrors(t *testing.T) {
	e := newTestServer(NewHandler(newFakeStore(), &fakeGenerator{}, &fakeFinder{}, nil), "")
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/clinics/nearby?lat=52.52", "").Code)

	invalid := &fakeFinder{err: clinics.ErrInvalidLocation}
	e = newTestServer(NewHandler(newFakeStore(), &fakeGenerator{}, invalid, nil), "")
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/clinics/nearby?lat=95&lon=0", "").Code)

	failing := &fakeFinder{err: clinics.ErrLocationFailed}
	e = newTestServer(NewHandler(newFakeStore(), &fakeGenerator{}, failing, nil), "")
	assert.Equal(t, http.StatusBadGateway, do(e, http.MethodGet, "/clinics/nearby?lat=1&lon=1", "").Code)
}
