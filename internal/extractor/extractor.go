package extractor

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

const (
	nameScanLines  = 5
	minPhoneDigits = 9
	maxPhoneDigits = 13
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// a run of digits and same-line separators; digit count is checked separately
	phoneRunRe = regexp.MustCompile(`\+?\(?\d[\d \t().-]*\d`)
	// characters that may appear inside a skill token, e.g. c++, c#, node.js
	tokenSplitRe = regexp.MustCompile(`[^a-z0-9+#.]+`)
)

// Extractor turns resume plain text into ResumeMetadata
type Extractor struct {
	vocab Vocabulary
	now   func() time.Time
}

// Option configures an Extractor
type Option func(*Extractor)

// WithClock overrides the clock used to resolve "present" in date ranges
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an extractor over the given vocabulary
func New(vocab Vocabulary, opts ...Option) *Extractor {
	e := &Extractor{
		vocab: vocab.normalized(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Skills returns the normalized canonical skill list
func (e *Extractor) Skills() []string {
	return slices.Clone(e.vocab.Skills)
}

// Extract derives every metadata field from text. It never fails: empty or
// unusable text yields empty fields.
func (e *Extractor) Extract(text string) models.ResumeMetadata {
	sections := make(map[string]string, len(models.SectionNames))
	for _, name := range models.SectionNames {
		kw := e.vocab.Sections[name]
		sections[name] = FindSection(text, kw.Headers, kw.Next)
	}

	return models.ResumeMetadata{
		Name:            ExtractName(text),
		Email:           emailRe.FindString(text),
		Phone:           ExtractPhone(text),
		Skills:          e.ExtractSkills(text),
		ExperienceYears: ComputeExperienceYears(text, e.now()),
		Sections:        sections,
		RawText:         text,
	}
}

// ExtractName picks the first of the leading non-empty lines that has two to
// four words and no digits, falling back to the first non-empty line.
func ExtractName(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	for _, line := range lines[:min(nameScanLines, len(lines))] {
		words := len(strings.Fields(line))
		if words >= 2 && words <= 4 && !strings.ContainsFunc(line, unicode.IsDigit) {
			return line
		}
	}
	return lines[0]
}

// ExtractPhone returns the first run of digits and separators on a single
// line holding 9 to 13 digits. Longer runs, such as stacked year ranges, are
// not phone numbers.
func ExtractPhone(text string) string {
	for _, run := range phoneRunRe.FindAllString(text, -1) {
		digits := 0
		for _, r := range run {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= minPhoneDigits && digits <= maxPhoneDigits {
			return strings.TrimSpace(run)
		}
	}
	return ""
}

// ExtractSkills returns the vocabulary skills found in text, sorted. Single
// word skills match whole tokens; multi-word skills match consecutive tokens.
func (e *Extractor) ExtractSkills(text string) []string {
	tokens := tokenize(text)
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}

	found := make(map[string]bool)
	for _, skill := range e.vocab.Skills {
		words := strings.Fields(skill)
		switch {
		case len(words) == 1 && tokenSet[skill]:
			found[skill] = true
		case len(words) > 1 && containsPhrase(tokens, words):
			found[skill] = true
		}
	}

	skills := make([]string, 0, len(found))
	for skill := range found {
		skills = append(skills, skill)
	}
	sort.Strings(skills)
	return skills
}

func tokenize(text string) []string {
	raw := tokenSplitRe.Split(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		// sentence punctuation, not part of names like node.js
		tok = strings.Trim(tok, ".")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func containsPhrase(tokens, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, word := range phrase {
			if tokens[i+j] != word {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
