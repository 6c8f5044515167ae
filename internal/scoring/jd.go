package scoring

import (
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

var nonAlphanumericRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

var yearWords = map[string]bool{"year": true, "years": true, "yr": true, "yrs": true}

const (
	skillWeight   = 0.5
	wordWeight    = 0.3
	expMatchBonus = 20

	maxRequiredYears = 40
)

// JDMatcher scores a resume against a job description using a canonical skill list
type JDMatcher struct {
	skills []string
}

// NewJDMatcher creates a matcher over the given canonical skills
func NewJDMatcher(skills []string) *JDMatcher {
	normalized := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			normalized = append(normalized, s)
		}
	}
	return &JDMatcher{skills: normalized}
}

// Score matches metadata against jd. It returns nil when jd is blank since JD
// scoring is opt-in.
func (m *JDMatcher) Score(md models.ResumeMetadata, jd string) *models.JDResult {
	if strings.TrimSpace(jd) == "" {
		return nil
	}

	jdLower := strings.ToLower(jd)
	jdSkills := make([]string, 0)
	for _, skill := range m.skills {
		if strings.Contains(jdLower, skill) && !slices.Contains(jdSkills, skill) {
			jdSkills = append(jdSkills, skill)
		}
	}
	sort.Strings(jdSkills)

	matched := make([]string, 0)
	for _, skill := range md.Skills {
		if slices.Contains(jdSkills, strings.ToLower(skill)) {
			matched = append(matched, strings.ToLower(skill))
		}
	}
	sort.Strings(matched)
	matched = slices.Compact(matched)

	jdTokens := tokenizeWords(jd)
	jdSet := toSet(jdTokens)
	resumeSet := toSet(tokenizeWords(md.RawText))
	common := 0
	for tok := range jdSet {
		if resumeSet[tok] {
			common++
		}
	}

	details := models.JDDetails{
		SkillsMatched: matched,
		JDSkills:      jdSkills,
		SkillMatchPct: percent(len(matched), len(jdSkills)),
		WordMatchPct:  percent(common, len(jdSet)),
		RequiredExp:   requiredYears(jdTokens),
		CandidateExp:  md.Experience(),
	}
	if details.RequiredExp != nil {
		details.ExpMatch = details.CandidateExp >= *details.RequiredExp
	}

	raw := details.SkillMatchPct*skillWeight + details.WordMatchPct*wordWeight
	if details.ExpMatch {
		raw += expMatchBonus
	}

	return &models.JDResult{
		Score:   min(int(math.Round(raw)), maxScore),
		Details: details,
	}
}

// tokenizeWords lower-cases text and splits it on anything not a letter or digit
func tokenizeWords(text string) []string {
	return strings.Fields(strings.ToLower(nonAlphanumericRe.ReplaceAllString(text, " ")))
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// percent is n/d*100 rounded to one decimal; a zero denominator counts as one
func percent(n, d int) float64 {
	return math.Round(float64(n)/float64(max(d, 1))*100*10) / 10
}

// requiredYears finds the first "<n> year(s)" phrase with 1 <= n <= 40. Bare
// numbers elsewhere in a JD, such as calendar years, are ignored.
func requiredYears(tokens []string) *int {
	for i := 0; i+1 < len(tokens); i++ {
		if !yearWords[tokens[i+1]] {
			continue
		}
		n, err := strconv.Atoi(tokens[i])
		if err != nil || n < 1 || n > maxRequiredYears {
			continue
		}
		return &n
	}
	return nil
}
