package analysis

import (
	"regexp"
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionConditions
	sectionDescription
	sectionAssessment
	sectionDiagnostics
	sectionLongTerm
	sectionEscalation
	sectionCare
)

// headingRule maps heading phrases onto a section. Rules are tried in order,
// so more specific phrases must come before generic ones ("recommendations").
type headingRule struct {
	section section
	phrases []string
}

// profile is the flow-specific configuration of the parser. Profiles are built
// once at package init and never mutated.
type profile struct {
	flow        Flow
	headings    []headingRule
	terminators []string

	// markdownHeadings ends the active section on any "# Heading" line that
	// does not name a known section.
	markdownHeadings bool

	vocabulary []string

	reDashColon *regexp.Regexp
	reParen     *regexp.Regexp
	reListParen *regexp.Regexp
	reBareTag   *regexp.Regexp

	// inline holds "<phrase>[:\s]+(content)" searches per section, used when
	// a section has no heading of its own.
	inline map[section][]*regexp.Regexp

	// embedded lists cue phrases for sections the model tends to fold into
	// other text instead of giving them a heading.
	embedded map[section][]string
}

var (
	conditionPhrases   = []string{"possible conditions", "potential diagnoses", "possible diagnoses", "potential conditions"}
	descriptionPhrases = []string{"condition descriptions", "descriptions", "description"}
	diagnosticPhrases  = []string{"recommended diagnostics", "diagnostic tests", "potential tests", "recommended tests"}
	longTermPhrases    = []string{"long-term management", "long term management", "ongoing care", "management considerations"}
	carePhrases        = []string{"home care recommendations", "recommendations", "advice for pet owner", "advice to pet owner"}
)

var clinicalProfile = newProfile(profileSpec{
	flow: FlowClinical,
	headings: []headingRule{
		{sectionConditions, conditionPhrases},
		{sectionDescription, descriptionPhrases},
		{sectionAssessment, []string{"clinical assessment"}},
		{sectionDiagnostics, diagnosticPhrases},
		{sectionLongTerm, longTermPhrases},
		{sectionEscalation, []string{"veterinary care indicators", "when to seek"}},
		{sectionCare, carePhrases},
	},
	terminators: []string{"disclaimer"},
	vocabulary:  []string{"Mild", "Moderate", "Serious", "Emergency"},
})

var genericProfile = newProfile(profileSpec{
	flow: FlowGeneric,
	headings: []headingRule{
		{sectionConditions, conditionPhrases},
		{sectionDescription, descriptionPhrases},
		{sectionDiagnostics, diagnosticPhrases},
		{sectionLongTerm, longTermPhrases},
		{sectionEscalation, []string{"when to seek", "seek immediate", "emergency signs", "warning signs"}},
		{sectionCare, carePhrases},
	},
	terminators:      []string{"disclaimer"},
	markdownHeadings: true,
	vocabulary:       []string{"High", "Medium", "Low"},
	embedded: map[section][]string{
		sectionEscalation: {"seek immediate", "seek veterinary", "emergency veterinar", "urgent care", "immediately"},
	},
})

func profileFor(flow Flow) *profile {
	if flow == FlowClinical {
		return clinicalProfile
	}
	return genericProfile
}

type profileSpec struct {
	flow             Flow
	headings         []headingRule
	terminators      []string
	markdownHeadings bool
	vocabulary       []string
	embedded         map[section][]string
}

// tagSuffix swallows the qualifier models like to put after a tag
// ("High probability", "Moderate severity").
const tagSuffix = `(?:\s+(?:probability|severity|likelihood|risk|urgency))?`

func newProfile(s profileSpec) *profile {
	tags := strings.Join(s.vocabulary, "|")

	p := &profile{
		flow:             s.flow,
		headings:         s.headings,
		terminators:      s.terminators,
		markdownHeadings: s.markdownHeadings,
		vocabulary:       s.vocabulary,
		reDashColon: regexp.MustCompile(
			`(?i)^(.+?)\s*(?:-|–|—|:)\s*\(?\s*[*_]*\s*(` + tags + `)\b[*_]*` + tagSuffix + `\s*\)?(.*)$`),
		reParen: regexp.MustCompile(
			`(?i)^(.+?)\s*\(\s*[*_]*(` + tags + `)\b[*_]*` + tagSuffix + `\s*\)(.*)$`),
		reListParen: regexp.MustCompile(
			`(?i)^(?:[•*\-–]|\d+[.)])\s+(.+?)\s*\(\s*[*_]*(` + tags + `)\b[*_]*` + tagSuffix + `\s*\)(.*)$`),
		reBareTag: regexp.MustCompile(`(?i)\b(` + tags + `)\b`),
		inline:    make(map[section][]*regexp.Regexp),
		embedded:  s.embedded,
	}

	for _, h := range s.headings {
		for _, phrase := range h.phrases {
			re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(phrase) + `[:\s]+(.*?)(?:\n[ \t]*\n|\n[ \t]*#|\z)`)
			p.inline[h.section] = append(p.inline[h.section], re)
		}
	}
	return p
}

// canonicalTag returns the vocabulary spelling of tag, or "" if tag is not
// part of the profile's vocabulary.
func (p *profile) canonicalTag(tag string) string {
	tag = strings.TrimSpace(tag)
	for _, v := range p.vocabulary {
		if strings.EqualFold(v, tag) {
			return v
		}
	}
	return ""
}

// matchHeading returns the section a heading label names.
func (p *profile) matchHeading(label string) (section, bool) {
	lower := strings.ToLower(label)
	for _, h := range p.headings {
		for _, phrase := range h.phrases {
			if strings.Contains(lower, phrase) {
				return h.section, true
			}
		}
	}
	return sectionNone, false
}

func (p *profile) isTerminator(label string) bool {
	lower := strings.ToLower(label)
	for _, t := range p.terminators {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
