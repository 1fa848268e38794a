package analysis

import "strings"

// backfillDescriptions fills empty condition descriptions in two passes. The
// first looks for a "Name: ..." paragraph (in a dedicated description section
// when there is one, otherwise anywhere but the condition lines themselves);
// the second, used only when the first filled nothing, takes the line right
// after the name's first mention.
func backfillDescriptions(conditions []Condition, lines []line, p *profile) {
	if len(conditions) == 0 {
		return
	}

	scope := func(l line) bool { return l.sec != sectionConditions || !p.isConditionLine(l.text) }
	if hasSection(lines, sectionDescription) {
		scope = func(l line) bool { return l.sec == sectionDescription }
	}

	filled := 0
	for i := range conditions {
		if conditions[i].Description != "" {
			continue
		}
		if desc := describeFromParagraph(i, conditions, lines, scope); desc != "" {
			conditions[i].Description = desc
			filled++
		}
	}
	if filled > 0 {
		return
	}

	for i := range conditions {
		if conditions[i].Description == "" {
			conditions[i].Description = describeFromNextLine(conditions[i].Name, lines, p)
		}
	}
}

// isConditionLine reports whether t is list or table material of the
// conditions section rather than prose following it.
func (p *profile) isConditionLine(t string) bool {
	if isListItem(t) || isTableChrome(t) {
		return true
	}
	_, ok := p.matchStrict(t)
	return ok
}

func describeFromParagraph(idx int, conditions []Condition, lines []line, scope func(line) bool) string {
	name := strings.ToLower(conditions[idx].Name)

	for j, l := range lines {
		if l.heading || l.text == "" || !scope(l) {
			continue
		}
		body := strings.ToLower(stripListMarker(stripEmphasis(l.text)))
		if !strings.HasPrefix(body, name) && !mentionsEmphasized(l.text, name) {
			continue
		}

		parts := []string{seedDescription(l.text, name)}
		for _, next := range lines[j+1:] {
			if next.text == "" {
				continue
			}
			if next.heading || next.sec != l.sec || endsDescription(next.text, idx, conditions) {
				break
			}
			parts = append(parts, cleanSnippet(next.text))
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return ""
}

// seedDescription returns the text after the first colon, or after the
// condition name when the line has no colon.
func seedDescription(text, lowerName string) string {
	clean := stripEmphasis(stripListMarker(text))
	if i := strings.Index(clean, ":"); i >= 0 {
		return cleanSnippet(clean[i+1:])
	}
	if i := strings.Index(strings.ToLower(clean), lowerName); i >= 0 {
		return cleanSnippet(clean[i+len(lowerName):])
	}
	return ""
}

func mentionsEmphasized(text, lowerName string) bool {
	lower := strings.ToLower(text)
	for _, mark := range []string{"**", "__", "*"} {
		if strings.Contains(lower, mark+lowerName+mark) {
			return true
		}
	}
	return false
}

// endsDescription reports whether t starts something other than the current
// description: a new list item, the recommendations, or another condition.
func endsDescription(t string, idx int, conditions []Condition) bool {
	if isListItem(t) || strings.Contains(strings.ToLower(t), "recommendation") {
		return true
	}
	body := strings.ToLower(stripEmphasis(t))
	for k, c := range conditions {
		if k != idx && strings.HasPrefix(body, strings.ToLower(c.Name)) {
			return true
		}
	}
	return false
}

func describeFromNextLine(name string, lines []line, p *profile) string {
	lowerName := strings.ToLower(name)
	for j, l := range lines {
		if !strings.Contains(strings.ToLower(l.text), lowerName) {
			continue
		}
		for _, next := range lines[j+1:] {
			if next.text == "" {
				continue
			}
			if next.heading || p.reBareTag.MatchString(next.text) {
				return ""
			}
			return cleanSnippet(stripListMarker(next.text))
		}
		return ""
	}
	return ""
}
