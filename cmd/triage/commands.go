package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"PawTriage/internal/analysis"
	"PawTriage/internal/auth"
	"PawTriage/internal/clinics"
	"PawTriage/internal/config"
	"PawTriage/internal/formatter"
	"PawTriage/internal/geminiservice"
	"PawTriage/internal/utility"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var (
		flow         string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a saved model answer without calling any service",
		Long: `Parse a model answer saved to disk into conditions and advice sections.
Use "-" to read from standard input.

Examples:
  triage parse answer.md --flow clinical
  cat answer.md | triage parse - -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !formatter.ValidFormat(outputFormat) {
				return fmt.Errorf("unknown output format %q", outputFormat)
			}

			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			result := analysis.Parse(string(raw), analysis.ParseFlow(flow))
			return formatter.DisplayAnalysis(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVar(&flow, "flow", string(analysis.FlowGeneric), "Answer schema (clinical, generic)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		in           geminiservice.SymptomInput
		flow         string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the configured model about a pet's symptoms",
		Long: `Send the pet's details to the configured provider (GEMINI_API_KEY or
OPENAI_API_KEY) and print the parsed answer.

Examples:
  triage analyze --species dog --symptoms "vomiting twice since this morning"
  triage analyze --species cat --age "3 years" --symptoms "sneezing" --flow clinical -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !formatter.ValidFormat(outputFormat) {
				return fmt.Errorf("unknown output format %q", outputFormat)
			}
			if err := in.Validate(); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gen, err := geminiservice.NewGenerator(cfg.LLM, &log.Logger)
			if err != nil {
				return err
			}

			s := newSpinner(" Analyzing symptoms...")
			s.Start()
			result, err := geminiservice.AnalyzeSymptoms(cmd.Context(), gen, in, analysis.ParseFlow(flow))
			s.Stop()
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Found %d possible conditions", len(result.Conditions)))

			return formatter.DisplayAnalysis(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVar(&in.Species, "species", "", "Animal type, e.g. dog (required)")
	cmd.Flags().StringVar(&in.Symptoms, "symptoms", "", "Free-text description of the symptoms (required)")
	cmd.Flags().StringVar(&in.Age, "age", "", "Age of the pet")
	cmd.Flags().StringVar(&in.Weight, "weight", "", "Weight of the pet")
	cmd.Flags().StringVar(&in.Breed, "breed", "", "Breed of the pet")
	cmd.Flags().StringVar(&flow, "flow", string(analysis.FlowGeneric), "Answer schema (clinical, generic)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")
	_ = cmd.MarkFlagRequired("species")
	_ = cmd.MarkFlagRequired("symptoms")

	return cmd
}

func newClinicsCmd() *cobra.Command {
	var (
		lat, lon     float64
		radius       int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "clinics",
		Short: "List veterinary clinics near a location",
		Long: `Query OpenStreetMap for veterinary clinics around a coordinate.

Examples:
  triage clinics --lat 52.52 --lon 13.405
  triage clinics --lat 40.71 --lon -74.0 --radius 10000 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !formatter.ValidFormat(outputFormat) {
				return fmt.Errorf("unknown output format %q", outputFormat)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			finder := clinics.NewFinder(cfg.Overpass, &log.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s := newSpinner(" Searching for clinics...")
			s.Start()
			found, err := finder.FindNearby(ctx, lat, lon, radius)
			s.Stop()
			if err != nil {
				return err
			}

			return formatter.DisplayClinics(cmd.OutOrStdout(), found, outputFormat)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude (required)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude (required)")
	cmd.Flags().IntVar(&radius, "radius", clinics.DefaultRadiusMeters, "Search radius in meters")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		Long: `Sign an access token with JWT_SECRET for calling the protected API routes.

Example:
  curl -H "Authorization: Bearer $(triage token --user alice)" localhost:8080/analyses`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := auth.GenerateAccessToken(cfg.Auth.JWTSecret, userID, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id to put in the token (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to the configured token TTL)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	// The CLI keeps stdout for results; logs go to stderr.
	if err := utility.ConfigureLogger(cfg.Log.Level, "console", os.Stderr); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	return s
}

func printSuccess(w io.Writer, msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(w, "✓ %s\n", msg)
}
