package review

import "strings"

// SectionKind names the parts of a narrative review we recognize.
type SectionKind string

const (
	SectionSummary                 SectionKind = "Summary"
	SectionFeedback                SectionKind = "Feedback"
	SectionAdditionalContextNeeded SectionKind = "Additional Context Needed"
	SectionUnclassified            SectionKind = "Unclassified"
)

// Section is one named part of a narrative review. Bodies are trimmed of
// leading and trailing whitespace.
type Section struct {
	Kind SectionKind
	Body string
}

// ParseSections partitions free-form narrative text into sections by
// splitting on markdown headings whose title matches a recognized
// section name (case-insensitive, any heading level). Text before the
// first recognized heading, and text under unrecognized headings, is
// kept as Unclassified when keepUnclassified is set and dropped
// otherwise. Sections with empty bodies are omitted.
func ParseSections(text string, keepUnclassified bool) []Section {
	var sections []Section
	current := SectionUnclassified
	var body strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(body.String())
		body.Reset()
		if trimmed == "" {
			return
		}
		if current == SectionUnclassified && !keepUnclassified {
			return
		}
		sections = append(sections, Section{Kind: current, Body: trimmed})
	}

	for _, line := range strings.Split(text, "\n") {
		if title, ok := headingTitle(line); ok {
			flush()
			current = classifyHeading(title)
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	return sections
}

// headingTitle extracts the title of a markdown ATX heading, reporting
// false for any other line.
func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	title := strings.TrimLeft(trimmed, "#")
	if title == trimmed {
		return "", false
	}
	return strings.TrimSpace(title), true
}

func classifyHeading(title string) SectionKind {
	switch strings.ToLower(title) {
	case "summary":
		return SectionSummary
	case "feedback":
		return SectionFeedback
	case "additional context needed":
		return SectionAdditionalContextNeeded
	default:
		return SectionUnclassified
	}
}
