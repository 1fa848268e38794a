package analysis

import (
	"regexp"
	"strings"
)

var reTagQualifier = regexp.MustCompile(`(?i)\s+(?:probability|severity|likelihood|risk|urgency)$`)

// headerCells are cell texts that mark a markdown table header row.
var headerCells = map[string]bool{
	"condition":           true,
	"conditions":          true,
	"possible condition":  true,
	"possible conditions": true,
	"diagnosis":           true,
	"potential diagnosis": true,
	"name":                true,
	"severity":            true,
	"probability":         true,
	"likelihood":          true,
	"urgency":             true,
	"description":         true,
}

// extractConditions runs the line rules over the conditions section. Strict
// rules are tried first for every line; the aggressive bare-word pass and the
// untagged list pass only run when everything before them found nothing.
func extractConditions(lines []string, p *profile) []Condition {
	var out []Condition
	for _, l := range lines {
		if isTableChrome(l) {
			continue
		}
		if c, ok := p.matchStrict(l); ok {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, l := range lines {
		if isTableChrome(l) {
			continue
		}
		if c, ok := p.matchBareTag(l); ok {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, l := range lines {
		if c, ok := matchUntagged(l); ok {
			out = append(out, c)
		}
	}
	return out
}

// matchStrict tries, in order: table row, "name - TAG" / "name: TAG",
// "name (TAG)" and "1. name (TAG)".
func (p *profile) matchStrict(l string) (Condition, bool) {
	if c, ok := p.matchTableRow(l); ok {
		return c, true
	}
	if m := p.reDashColon.FindStringSubmatch(l); m != nil {
		if c, ok := p.newCondition(m[1], m[2], m[3]); ok {
			return c, true
		}
	}

	re := p.reParen
	if isListItem(l) {
		re = p.reListParen
	}
	if m := re.FindStringSubmatch(l); m != nil {
		return p.newCondition(m[1], m[2], m[3])
	}
	return Condition{}, false
}

func (p *profile) newCondition(name, tag, trailing string) (Condition, bool) {
	name = cleanName(name)
	tag = p.canonicalTag(tag)
	if name == "" || tag == "" {
		return Condition{}, false
	}
	return Condition{Name: name, Severity: tag, Description: cleanSnippet(trailing)}, true
}

func (p *profile) matchTableRow(l string) (Condition, bool) {
	if !strings.HasPrefix(l, "|") {
		return Condition{}, false
	}
	cells := splitCells(l)
	if len(cells) < 2 {
		return Condition{}, false
	}

	tagIdx, tag := -1, ""
	for i := 1; i < len(cells); i++ {
		cell := reTagQualifier.ReplaceAllString(strings.ReplaceAll(cells[i], "*", ""), "")
		if tag = p.canonicalTag(cell); tag != "" {
			tagIdx = i
			break
		}
	}
	name := cleanName(cells[0])
	if tagIdx < 0 || name == "" {
		return Condition{}, false
	}

	c := Condition{Name: name, Severity: tag}
	for i := 1; i < len(cells); i++ {
		if i != tagIdx && cells[i] != "" {
			c.Description = cleanSnippet(cells[i])
			break
		}
	}
	return c, true
}

// matchBareTag splits l at the first vocabulary word.
func (p *profile) matchBareTag(l string) (Condition, bool) {
	loc := p.reBareTag.FindStringSubmatchIndex(l)
	if loc == nil {
		return Condition{}, false
	}
	name := cleanName(l[:loc[0]])
	if name == "" {
		return Condition{}, false
	}
	return Condition{Name: name, Severity: p.canonicalTag(l[loc[2]:loc[3]])}, true
}

func matchUntagged(l string) (Condition, bool) {
	if !isListItem(l) {
		return Condition{}, false
	}
	body := stripListMarker(l)
	name, desc := body, ""
	if i := strings.Index(body, ":"); i >= 0 {
		name, desc = body[:i], body[i+1:]
	}
	name = cleanName(name)
	if name == "" || len(strings.Fields(name)) > maxHeadingWords {
		return Condition{}, false
	}
	return Condition{Name: name, Severity: SeverityNotSpecified, Description: cleanSnippet(desc)}, true
}

func splitCells(l string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(l), "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

// isTableChrome reports whether l is a markdown table separator or header row.
func isTableChrome(l string) bool {
	if !strings.Contains(l, "|") {
		return false
	}
	if strings.Contains(l, "---") {
		return true
	}
	for _, cell := range splitCells(l) {
		key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(cell, "*", "")))
		if headerCells[key] {
			return true
		}
	}
	return false
}
