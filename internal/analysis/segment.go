package analysis

import "strings"

// line is one line of the answer after segmentation.
type line struct {
	text    string  // trimmed source text
	sec     section // owning section; for headings, the section they open
	heading bool
	rest    string // content following a heading's colon
}

// segment tags every line with the section it belongs to. It is a single
// greedy pass: a heading switches the active section until the next heading,
// a terminator, or (in markdown mode) an unrecognised "# Heading".
func segment(raw string, p *profile) []line {
	rawLines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]line, 0, len(rawLines))
	active := sectionNone

	for _, rl := range rawLines {
		t := strings.TrimSpace(rl)
		l := line{text: t, sec: active}
		if t == "" {
			out = append(out, l)
			continue
		}

		if label, rest, ok := headingLabel(t); ok {
			if sec, found := p.matchHeading(label); found {
				active = sec
				l.sec, l.heading, l.rest = sec, true, rest
				out = append(out, l)
				continue
			}
			if p.isTerminator(label) {
				active = sectionNone
				l.sec, l.heading = sectionNone, true
				out = append(out, l)
				continue
			}
		}

		if p.markdownHeadings && reMarkdownHeading.MatchString(t) {
			active = sectionNone
			l.sec, l.heading = sectionNone, true
		}
		out = append(out, l)
	}
	return out
}

// buffer returns the non-blank content lines of sec in document order.
func buffer(lines []line, sec section) []string {
	var out []string
	for _, l := range lines {
		if l.sec != sec {
			continue
		}
		switch {
		case l.heading && l.rest != "":
			out = append(out, l.rest)
		case !l.heading && l.text != "":
			out = append(out, l.text)
		}
	}
	return out
}

// preamble returns the content that precedes the first section heading.
func preamble(lines []line) []string {
	var out []string
	for _, l := range lines {
		if l.heading && l.sec != sectionNone {
			break
		}
		if !l.heading && l.text != "" {
			out = append(out, l.text)
		}
	}
	return out
}

func hasSection(lines []line, sec section) bool {
	for _, l := range lines {
		if l.heading && l.sec == sec {
			return true
		}
	}
	return false
}
