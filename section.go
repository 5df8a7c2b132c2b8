package deepcrawl

import "strings"

// ParseSectionList parses a comma-separated list of section keywords
// into lowercase strings. Empty segments are dropped.
func ParseSectionList(csv string) []string {
	if csv == "" {
		return nil
	}

	var sections []string
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sections = append(sections, strings.ToLower(s))
	}
	return sections
}

// FilterSections filters markdown by section. A section starts at a
// header line (any line beginning with '#') and extends to the next
// header line. Keywords are matched as substrings against the lowercased
// header text; a single match is sufficient.
//
// When include is non-empty only matching sections are kept and exclude
// is ignored. When only exclude is non-empty, sections matching any
// exclude keyword are dropped. Content before the first header always
// passes through.
//
// The input is never mutated; a new filtered document is returned.
func FilterSections(markdown string, include, exclude []string) string {
	if markdown == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	filtered := make([]string, 0, len(lines))
	includeCurrent := true

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			headerText := strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "#")))

			switch {
			case len(include) > 0:
				includeCurrent = containsAny(headerText, include)
			case len(exclude) > 0:
				includeCurrent = !containsAny(headerText, exclude)
			default:
				includeCurrent = true
			}
		}

		if includeCurrent {
			filtered = append(filtered, line)
		}
	}

	return strings.Join(filtered, "\n")
}

// containsAny reports whether s contains at least one of the keywords as
// a substring.
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
