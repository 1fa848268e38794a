package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"PawTriage/internal/analysis"
	"PawTriage/internal/clinics"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var sample = analysis.Analysis{
	Flow: analysis.FlowClinical,
	Conditions: []analysis.Condition{
		{Name: "Otitis Externa", Severity: "Moderate", Description: "Inflammation of the outer ear canal."},
	},
	AssessmentText: "Head shaking and odour suggest an ear infection.",
	EscalationText: "Seek care if the ear bleeds.",
	RawResponse:    "raw",
}

func TestDisplayAnalysisHuman(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayAnalysis(&buf, sample, FormatHuman))

	out := buf.String()
	assert.Contains(t, out, "POSSIBLE CONDITIONS (clinical flow)")
	assert.Contains(t, out, "1. [Moderate] Otitis Externa")
	assert.Contains(t, out, "ASSESSMENT")
	assert.Contains(t, out, "WHEN TO SEEK VETERINARY CARE")
	assert.NotContains(t, out, "LONG-TERM MANAGEMENT")
}

func TestDisplayAnalysisMachineFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayAnalysis(&buf, sample, FormatJSON))
	var fromJSON analysis.Analysis
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, sample, fromJSON)

	buf.Reset()
	require.NoError(t, DisplayAnalysis(&buf, sample, FormatYAML))
	var fromYAML map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Contains(t, fromYAML, "conditions")
}

func TestDisplayClinics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayClinics(&buf, nil, FormatHuman))
	assert.Contains(t, buf.String(), "No veterinary clinics found")

	buf.Reset()
	found := []clinics.Clinic{{Name: "Paws Vet", Address: "1 Elm St", DistanceKm: 1.2, Phone: "555"}}
	require.NoError(t, DisplayClinics(&buf, found, FormatHuman))
	assert.Contains(t, buf.String(), "1. Paws Vet 1.2 km")
	assert.Contains(t, buf.String(), "Phone: 555")
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("word ", 40)
	for _, line := range strings.Split(wrapText(long, 30, "  "), "\n") {
		assert.LessOrEqual(t, len(line), 30)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
	assert.Equal(t, "  supercalifragilistic", wrapText("supercalifragilistic", 10, "  "))
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("yaml"))
	assert.False(t, ValidFormat("xml"))
}
