/*
Package geminiservice turns an owner's description of a sick pet into a
structured triage analysis: it builds the prompt, calls the configured text
generation provider and hands the answer to the parser.
*/
package geminiservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"PawTriage/internal/analysis"
	"PawTriage/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidInput is returned before any upstream call when the input is
	// incomplete.
	ErrInvalidInput = errors.New("invalid symptom input")

	// ErrAnalysisFailed wraps every upstream failure of AnalyzeSymptoms.
	ErrAnalysisFailed = errors.New("analysis failed")

	ErrNotConfigured = errors.New("server is not configured for AI analysis")
	ErrEmptyResponse = errors.New("no content found in model response")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// NewGenerator returns the provider selected by cfg.Provider ("gemini" when
// empty).
func NewGenerator(cfg config.LLMConfig, logger *zerolog.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return NewGeminiClient(cfg, logger), nil
	case "openai":
		return NewOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// AnalyzeSymptoms validates in, asks gen for an answer in the given flow and
// parses it. Parsing never fails, so the only errors are ErrInvalidInput and
// ErrAnalysisFailed.
func AnalyzeSymptoms(ctx context.Context, gen Generator, in SymptomInput, flow analysis.Flow) (analysis.Analysis, error) {
	if err := in.Validate(); err != nil {
		return analysis.Analysis{}, err
	}
	flow = analysis.ParseFlow(string(flow))

	start := time.Now()
	raw, err := gen.Generate(ctx, BuildPrompt(in, flow), ConfigFor(flow))
	if err != nil {
		log.Error().Err(err).Str("flow", string(flow)).Msg("Text generation failed")
		return analysis.Analysis{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return analysis.Analysis{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, ErrEmptyResponse)
	}

	result := analysis.Parse(raw, flow)
	log.Info().
		Str("flow", string(flow)).
		Int("conditions", len(result.Conditions)).
		Dur("took", time.Since(start)).
		Msg("Symptom analysis completed")
	return result, nil
}
