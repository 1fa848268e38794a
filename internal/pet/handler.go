/*
Package pet serves the HTTP endpoints of the triage workflow: analysing a
pet's symptoms, browsing past analyses, rating them and finding nearby
veterinary clinics.
*/
package pet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PawTriage/internal/analysis"
	"PawTriage/internal/clinics"
	"PawTriage/internal/database"
	"PawTriage/internal/geminiservice"
	"PawTriage/internal/utility"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// MaxPage keeps the row offset within int32.
	MaxPage = math.MaxInt32/MaxPageSize + 1

	analyzeTimeout = 90 * time.Second
	saveTimeout    = 5 * time.Second
)

// Store is the slice of the generated queries the handlers use.
type Store interface {
	CreatePetAnalysis(ctx context.Context, arg database.CreatePetAnalysisParams) (database.PetAnalysis, error)
	GetPetAnalysis(ctx context.Context, arg database.GetPetAnalysisParams) (database.PetAnalysis, error)
	ListPetAnalyses(ctx context.Context, arg database.ListPetAnalysesParams) ([]database.PetAnalysis, error)
	CountPetAnalyses(ctx context.Context, userID string) (int64, error)
	UpdatePetAnalysisFeedback(ctx context.Context, arg database.UpdatePetAnalysisFeedbackParams) (database.PetAnalysis, error)
}

type ClinicFinder interface {
	FindNearby(ctx context.Context, lat, lon float64, radiusMeters int) ([]clinics.Clinic, error)
}

type Handler struct {
	store    Store
	gen      geminiservice.Generator
	finder   ClinicFinder
	limiter  *utility.RateLimiter
	markdown goldmark.Markdown
}

// NewHandler wires the handler dependencies. limiter may be nil to disable
// the per-user analysis limit.
func NewHandler(store Store, gen geminiservice.Generator, finder ClinicFinder, limiter *utility.RateLimiter) *Handler {
	return &Handler{
		store:    store,
		gen:      gen,
		finder:   finder,
		limiter:  limiter,
		markdown: goldmark.New(),
	}
}

/* ====================================================================
                    		Analysis
==================================================================== */

// AnalyzeHandler runs a symptom analysis and stores it for the caller.
// POST /analyze
func (h *Handler) AnalyzeHandler(c echo.Context) error {
	log := utility.LoggerFromContext(c)

	// 1. Authenticate
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	// 2. Bind
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	input := geminiservice.SymptomInput{
		Species:  req.Species,
		Age:      req.Age,
		Weight:   req.Weight,
		Breed:    req.Breed,
		Symptoms: req.Symptoms,
	}
	if err := input.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	// 3. Per-user limit
	if h.limiter != nil {
		if err := h.limiter.Allow(userID); err != nil {
			log.Warn().Str("user_id", userID).Msg("Analysis rate limit reached")
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		}
	}

	// 4. Analyse
	ctx, cancel := context.WithTimeout(c.Request().Context(), analyzeTimeout)
	defer cancel()

	flow := analysis.ParseFlow(strings.ToLower(strings.TrimSpace(req.Flow)))
	result, err := geminiservice.AnalyzeSymptoms(ctx, h.gen, input, flow)
	if err != nil {
		status, msg := analysisErrorStatus(err)
		log.Error().Err(err).Str("user_id", userID).Int("status", status).Msg("Symptom analysis failed")
		return c.JSON(status, map[string]string{"error": msg})
	}

	// 5. Persist (best effort; the caller still gets the analysis)
	resp := AnalyzeResponse{Analysis: result}
	id, err := h.save(c.Request().Context(), userID, input, result)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save analysis")
	} else {
		resp.AnalysisID = id
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) save(ctx context.Context, userID string, in geminiservice.SymptomInput, result analysis.Analysis) (string, error) {
	conditions, err := json.Marshal(result.Conditions)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	row, err := h.store.CreatePetAnalysis(ctx, database.CreatePetAnalysisParams{
		UserID:          userID,
		Flow:            string(result.Flow),
		Species:         strings.TrimSpace(in.Species),
		Age:             utility.TextOrNull(in.Age),
		Weight:          utility.TextOrNull(in.Weight),
		Breed:           utility.TextOrNull(in.Breed),
		Symptoms:        strings.TrimSpace(in.Symptoms),
		Conditions:      conditions,
		AssessmentText:  result.AssessmentText,
		DiagnosticsText: result.DiagnosticsText,
		CareText:        result.CareText,
		EscalationText:  result.EscalationText,
		LongTermText:    result.LongTermText,
		RawResponse:     result.RawResponse,
	})
	if err != nil {
		return "", err
	}
	return utility.PgtypeUUIDToString(row.AnalysisID)
}

func analysisErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, geminiservice.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, geminiservice.ErrRateLimited):
		return http.StatusTooManyRequests, "Analysis service is busy, please try again shortly"
	case errors.Is(err, geminiservice.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Analysis service is not configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Analysis timed out"
	default:
		return http.StatusBadGateway, "Failed to analyse symptoms"
	}
}

/* ====================================================================
                    		History
==================================================================== */

// ListAnalysesHandler returns the caller's analyses, newest first.
// GET /analyses?page=1&page_size=10
func (h *Handler) ListAnalysesHandler(c echo.Context) error {
	log := utility.LoggerFromContext(c)

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	page := utility.ParseIntParam(c.QueryParam("page"), 1)
	pageSize := utility.ParseIntParam(c.QueryParam("page_size"), DefaultPageSize)
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page > MaxPage {
		page = MaxPage
	}

	ctx := c.Request().Context()
	var (
		rows  []database.PetAnalysis
		total int64
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		rows, err = h.store.ListPetAnalyses(gCtx, database.ListPetAnalysesParams{
			UserID: userID,
			Limit:  int32(pageSize),
			Offset: int32((page - 1) * pageSize),
		})
		return err
	})

	g.Go(func() error {
		var err error
		total, err = h.store.CountPetAnalyses(gCtx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list analyses")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load analyses"})
	}

	items := make([]AnalysisHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toHistoryItem(row, log))
	}

	return c.JSON(http.StatusOK, AnalysisHistoryResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// GetAnalysisHandler returns one stored analysis. With ?format=html the raw
// answer is also rendered from markdown.
// GET /analyses/:analysis_id
func (h *Handler) GetAnalysisHandler(c echo.Context) error {
	log := utility.LoggerFromContext(c)

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	analysisID, err := utility.StringToPgtypeUUID(c.Param("analysis_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid analysis ID"})
	}

	row, err := h.store.GetPetAnalysis(c.Request().Context(), database.GetPetAnalysisParams{
		AnalysisID: analysisID,
		UserID:     userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Analysis not found"})
		}
		log.Error().Err(err).Str("analysis_id", c.Param("analysis_id")).Msg("Failed to load analysis")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load analysis"})
	}

	rec := toRecord(row, log)
	if c.QueryParam("format") == "html" {
		var buf bytes.Buffer
		if err := h.markdown.Convert([]byte(row.RawResponse), &buf); err != nil {
			log.Warn().Err(err).Msg("Failed to render analysis markdown")
		} else {
			rec.RawHTML = buf.String()
		}
	}

	return c.JSON(http.StatusOK, rec)
}

// FeedbackHandler records the caller's rating of an analysis.
// POST /analyses/:analysis_id/feedback
func (h *Handler) FeedbackHandler(c echo.Context) error {
	log := utility.LoggerFromContext(c)

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	analysisID, err := utility.StringToPgtypeUUID(c.Param("analysis_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid analysis ID"})
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Rating must be between 1 and 5"})
	}

	row, err := h.store.UpdatePetAnalysisFeedback(c.Request().Context(), database.UpdatePetAnalysisFeedbackParams{
		AnalysisID:     analysisID,
		UserID:         userID,
		FeedbackRating: pgtype.Int4{Int32: int32(req.Rating), Valid: true},
		FeedbackNotes:  utility.TextOrNull(req.Notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Analysis not found"})
		}
		log.Error().Err(err).Str("analysis_id", c.Param("analysis_id")).Msg("Failed to save feedback")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save feedback"})
	}

	log.Info().Str("analysis_id", c.Param("analysis_id")).Int("rating", req.Rating).Msg("Feedback recorded")
	return c.JSON(http.StatusOK, toRecord(row, log))
}

/* ====================================================================
                    		Clinics
==================================================================== */

// NearbyClinicsHandler lists veterinary clinics around a coordinate.
// GET /clinics/nearby?lat=..&lon=..&radius=5000
func (h *Handler) NearbyClinicsHandler(c echo.Context) error {
	log := utility.LoggerFromContext(c)

	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if errLat != nil || errLon != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lat and lon query parameters are required"})
	}

	radius := utility.ParseIntParam(c.QueryParam("radius"), clinics.DefaultRadiusMeters)
	if radius > clinics.MaxRadiusMeters {
		radius = clinics.MaxRadiusMeters
	}

	found, err := h.finder.FindNearby(c.Request().Context(), lat, lon, radius)
	if err != nil {
		if errors.Is(err, clinics.ErrInvalidLocation) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid location"})
		}
		log.Error().Err(err).Msg("Clinic lookup failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to find nearby clinics"})
	}

	return c.JSON(http.StatusOK, NearbyClinicsResponse{
		Clinics:      found,
		Count:        len(found),
		RadiusMeters: radius,
	})
}
