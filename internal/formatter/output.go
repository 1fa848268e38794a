// Package formatter renders analyses and clinic lists for the terminal.
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"PawTriage/internal/analysis"
	"PawTriage/internal/clinics"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const lineWidth = 80

// Formats accepted by the -o flag.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormat reports whether format is one of the supported output formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatHuman, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// DisplayAnalysis writes a in the requested format.
func DisplayAnalysis(w io.Writer, a analysis.Analysis, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, a)
	case FormatYAML:
		return writeYAML(w, a)
	default:
		displayAnalysisHuman(w, a)
	}
	return nil
}

// DisplayClinics writes found in the requested format.
func DisplayClinics(w io.Writer, found []clinics.Clinic, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, found)
	case FormatYAML:
		return writeYAML(w, found)
	default:
		displayClinicsHuman(w, found)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func displayAnalysisHuman(w io.Writer, a analysis.Analysis) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Fprintln(w)

	cyan.Fprintf(w, "POSSIBLE CONDITIONS (%s flow)\n", a.Flow)
	if len(a.Conditions) == 0 {
		fmt.Fprintln(w, "   None listed.")
	}
	for i, cond := range a.Conditions {
		fmt.Fprintf(w, "   %d. %s %s\n", i+1, severityColor(cond.Severity).Sprintf("[%s]", cond.Severity), cond.Name)
		if cond.Description != "" {
			fmt.Fprintln(w, wrapText(cond.Description, lineWidth, "      "))
		}
	}
	fmt.Fprintln(w)

	sections := []struct {
		title string
		body  string
		c     *color.Color
	}{
		{"ASSESSMENT", a.AssessmentText, white},
		{"RECOMMENDED DIAGNOSTICS", a.DiagnosticsText, white},
		{"CARE RECOMMENDATIONS", a.CareText, white},
		{"WHEN TO SEEK VETERINARY CARE", a.EscalationText, red},
		{"LONG-TERM MANAGEMENT", a.LongTermText, white},
	}
	for _, s := range sections {
		if strings.TrimSpace(s.body) == "" {
			continue
		}
		s.c.Fprintln(w, s.title)
		fmt.Fprintln(w, wrapText(s.body, lineWidth, "   "))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", lineWidth))
	fmt.Fprintln(w, color.HiBlackString("This is not a diagnosis. Contact a veterinarian if you are worried about your pet."))
}

func displayClinicsHuman(w io.Writer, found []clinics.Clinic) {
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	if len(found) == 0 {
		fmt.Fprintln(w, "No veterinary clinics found in range.")
		return
	}

	cyan.Fprintf(w, "NEARBY CLINICS (%d)\n", len(found))
	for i, c := range found {
		fmt.Fprintf(w, "   %d. %s %s\n", i+1, c.Name, color.GreenString("%.1f km", c.DistanceKm))
		if c.Address != "" {
			fmt.Fprintf(w, "      %s\n", c.Address)
		}
		if c.Phone != "" {
			fmt.Fprintf(w, "      Phone: %s\n", c.Phone)
		}
		if c.OpeningHours != "" {
			fmt.Fprintf(w, "      Hours: %s\n", c.OpeningHours)
		}
	}
	fmt.Fprintln(w)
}

func severityColor(severity string) *color.Color {
	switch strings.ToLower(severity) {
	case "emergency", "high":
		return color.New(color.FgRed, color.Bold)
	case "serious":
		return color.New(color.FgRed)
	case "moderate", "medium":
		return color.New(color.FgYellow)
	case "mild", "low":
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width && currentLine != indent {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}
		result.WriteString(currentLine + "\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
