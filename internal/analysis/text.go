package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// maxHeadingWords bounds how long a heading label may be; longer lines are
// always treated as prose.
const maxHeadingWords = 8

var (
	reBullet          = regexp.MustCompile(`^(?:[•▪◦]\s*|[*\-–]\s+)(.*)$`)
	reNumbered        = regexp.MustCompile(`^\d+[.)]\s+`)
	reListMarker      = regexp.MustCompile(`^(?:[•▪◦]\s*|[*\-–]\s+|\d+[.)]\s+)`)
	reMarkdownHeading = regexp.MustCompile(`^#+\s+[A-Z]`)
	reHashes          = regexp.MustCompile(`^#+\s*`)
	reSingleEmphasis  = regexp.MustCompile(`\*([^*\s][^*]*?)\*`)

	emphasisReplacer = strings.NewReplacer("**", "", "__", "")
)

// headingLabel reports whether t looks like a section heading and, if so,
// returns its label and any content following the label's colon.
func headingLabel(t string) (label, rest string, ok bool) {
	if strings.HasPrefix(t, "|") || reBullet.MatchString(t) {
		return "", "", false
	}

	hashed := strings.HasPrefix(t, "#")
	emphasized := strings.HasPrefix(t, "**") || strings.HasPrefix(t, "__")

	s := reHashes.ReplaceAllString(t, "")
	numbered := reNumbered.MatchString(s)
	s = reNumbered.ReplaceAllString(s, "")
	s = strings.ReplaceAll(emphasisReplacer.Replace(s), "*", "")
	s = strings.TrimSpace(s)

	label = s
	colon := false
	if i := strings.Index(s, ":"); i >= 0 {
		label = strings.TrimSpace(s[:i])
		rest = strings.TrimSpace(s[i+1:])
		colon = true
	}

	words := len(strings.Fields(label))
	if words == 0 || words > maxHeadingWords {
		return "", "", false
	}

	short := !numbered && !colon && words <= 5 && !strings.ContainsAny(label[len(label)-1:], ".!?")
	if hashed || emphasized || colon || isUpper(label) || short {
		return label, rest, true
	}
	return "", "", false
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isListItem(s string) bool {
	return reListMarker.MatchString(s)
}

func stripListMarker(s string) string {
	return strings.TrimSpace(reListMarker.ReplaceAllString(strings.TrimSpace(s), ""))
}

func stripEmphasis(s string) string {
	s = emphasisReplacer.Replace(s)
	s = reSingleEmphasis.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// cleanName trims list markers, emphasis and dangling separators from a
// condition name.
func cleanName(s string) string {
	s = stripListMarker(s)
	s = strings.ReplaceAll(emphasisReplacer.Replace(s), "*", "")
	s = strings.TrimLeft(s, "#| ")
	return strings.TrimSpace(strings.TrimRight(s, " -–—:(|"))
}

// cleanSnippet prepares a fragment of prose for use as a description.
func cleanSnippet(s string) string {
	s = stripEmphasis(s)
	return strings.TrimSpace(strings.TrimLeft(s, " -–—:;,.)"))
}

// normalizeBlock joins the lines of a free-text section. Bullets are rewritten
// to "• ", numbered lines are kept as they are, lines starting in lower case
// continue the previous line, and a capitalised line after a finished
// sentence or list item opens a new paragraph.
func normalizeBlock(lines []string) string {
	var b strings.Builder
	prevClosed := true

	for _, raw := range lines {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		t = reHashes.ReplaceAllString(t, "")

		switch {
		case reBullet.MatchString(t):
			item := stripEmphasis(reBullet.FindStringSubmatch(t)[1])
			if item == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("• " + item)
			prevClosed = true

		case reNumbered.MatchString(t):
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(stripEmphasis(t))
			prevClosed = true

		default:
			t = stripEmphasis(t)
			if t == "" {
				continue
			}
			first := []rune(t)[0]
			if b.Len() > 0 {
				if unicode.IsUpper(first) && prevClosed {
					b.WriteString("\n\n")
				} else {
					b.WriteString(" ")
				}
			}
			b.WriteString(t)
			prevClosed = strings.ContainsAny(t[len(t)-1:], ".!?:")
		}
	}
	return strings.TrimSpace(b.String())
}
