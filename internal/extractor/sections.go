package extractor

import "strings"

// FindSection returns the text between the first line containing a header
// keyword and the next line containing a next-header keyword. Matching is a
// case-insensitive substring test; the header line itself is excluded. The
// section runs to the end of the text when no next header follows, and ""
// is returned when no header is found.
func FindSection(text string, headers, next []string) string {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if containsAny(line, headers) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for j := start; j < len(lines); j++ {
		if containsAny(lines[j], next) {
			end = j
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

func containsAny(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
