package analysis

import "strings"

// Parse converts a raw model answer into an Analysis. It never fails: missing
// sections fall back to fixed sentences and, in the generic flow, an empty
// condition list is replaced by a single "Unspecified Condition".
func Parse(raw string, flow Flow) Analysis {
	p := profileFor(flow)
	lines := segment(raw, p)

	conditions := extractConditions(buffer(lines, sectionConditions), p)
	backfillDescriptions(conditions, lines, p)
	if conditions == nil {
		conditions = []Condition{}
	}
	if len(conditions) == 0 && p.flow == FlowGeneric {
		conditions = append(conditions, unspecifiedCondition())
	}

	return Analysis{
		Flow:            p.flow,
		Conditions:      conditions,
		AssessmentText:  p.freeText(raw, lines, sectionAssessment, FallbackAssessment),
		DiagnosticsText: p.freeText(raw, lines, sectionDiagnostics, FallbackDiagnostics),
		CareText:        p.freeText(raw, lines, sectionCare, FallbackCare),
		EscalationText:  p.freeText(raw, lines, sectionEscalation, FallbackEscalation),
		LongTermText:    p.freeText(raw, lines, sectionLongTerm, FallbackLongTerm),
		RawResponse:     raw,
	}
}

// ParseClinical parses an answer produced by the clinical prompt.
func ParseClinical(raw string) Analysis { return Parse(raw, FlowClinical) }

// ParseGeneric parses an answer produced by the generic prompt.
func ParseGeneric(raw string) Analysis { return Parse(raw, FlowGeneric) }

// freeText resolves one text field: section buffer, then lines carrying an
// embedded cue, then an inline "<phrase>: ..." search, then (assessment only)
// the preamble, then the fallback sentence.
func (p *profile) freeText(raw string, lines []line, sec section, fallback string) string {
	if text := normalizeBlock(buffer(lines, sec)); text != "" {
		return text
	}

	if cues := p.embedded[sec]; len(cues) > 0 {
		if text := normalizeBlock(cueLines(lines, cues)); text != "" {
			return text
		}
	}

	for _, re := range p.inline[sec] {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if text := normalizeBlock(strings.Split(m[1], "\n")); text != "" {
			return text
		}
	}

	if sec == sectionAssessment {
		if text := normalizeBlock(preamble(lines)); text != "" {
			return text
		}
	}
	return fallback
}

// cueLines collects loose lines (outside any section, or trailing the care
// and long-term sections) that contain one of cues.
func cueLines(lines []line, cues []string) []string {
	var out []string
	for _, l := range lines {
		if l.heading || l.text == "" {
			continue
		}
		if l.sec != sectionNone && l.sec != sectionCare && l.sec != sectionLongTerm {
			continue
		}
		lower := strings.ToLower(l.text)
		for _, cue := range cues {
			if strings.Contains(lower, cue) {
				out = append(out, l.text)
				break
			}
		}
	}
	return out
}
