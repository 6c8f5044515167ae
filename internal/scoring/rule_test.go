package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

func intPtr(n int) *int { return &n }

func fullMetadata(skills ...string) models.ResumeMetadata {
	return models.ResumeMetadata{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "555-867-5309",
		Skills:          skills,
		ExperienceYears: intPtr(2),
		Sections: map[string]string{
			models.SectionEducation: "BSc Computer Science",
			models.SectionProjects:  "ATS checker",
			models.SectionSummary:   "Backend engineer",
		},
	}
}

func TestLevelWeightsSumTo100(t *testing.T) {
	for level, weights := range levelWeights {
		total := 0
		for _, fw := range weights {
			total += fw.weight
		}
		assert.Equal(t, 100, total, level)
		assert.Len(t, weights, 8, level)
	}
}

func TestScoreRules_EntryAllPresent(t *testing.T) {
	result := ScoreRules(fullMetadata("python", "sql", "git"), models.LevelEntry)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 0, result.Details.SkillsBonus)
	assert.Empty(t, result.Details.Warnings)
	assert.True(t, result.Details.ExpMatch)
	assert.Equal(t, models.LevelEntry, result.Details.Level)
	for _, row := range result.Details.Sections {
		assert.True(t, row.Present, row.Section)
		assert.Equal(t, row.Weight, row.Score, row.Section)
	}
}

func TestScoreRules_EmptyMetadata(t *testing.T) {
	tests := []struct {
		level        models.Level
		wantWarnings []string
	}{
		{models.LevelEntry, []string{
			"Your 'Skills' section is critical for this level. Please add or improve it.",
			"Your 'Education' section is critical for this level. Please add or improve it.",
		}},
		{models.LevelMid, []string{
			"Your 'Skills' section is critical for this level. Please add or improve it.",
			"Your 'Experience years' section is critical for this level. Please add or improve it.",
		}},
		{models.LevelSenior, []string{
			"Your 'Skills' section is critical for this level. Please add or improve it.",
			"Your 'Experience years' section is critical for this level. Please add or improve it.",
			"Your 'Projects' section is critical for this level. Please add or improve it.",
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			result := ScoreRules(models.ResumeMetadata{}, tt.level)
			assert.Equal(t, 0, result.Score)
			assert.Equal(t, tt.wantWarnings, result.Details.Warnings)
			assert.Len(t, result.Details.Sections, 8)
		})
	}
}

func TestScoreRules_MissingEducationWarns(t *testing.T) {
	md := fullMetadata("python")
	delete(md.Sections, models.SectionEducation)

	result := ScoreRules(md, models.LevelEntry)

	assert.Equal(t, 75, result.Score)
	require.Len(t, result.Details.Warnings, 1)
	assert.Contains(t, result.Details.Warnings[0], "Education")
}

func TestScoreRules_SkillsBonus(t *testing.T) {
	five := []string{"a", "b", "c", "d", "e"}
	ten := append(append([]string{}, five...), "f", "g", "h", "i", "j")

	tests := []struct {
		name      string
		md        models.ResumeMetadata
		wantBonus int
		wantScore int
	}{
		{"four skills", fullMetadata("a", "b", "c", "d"), 0, 100},
		{"five skills below ceiling", withoutEducation(fullMetadata(five...)), 5, 80},
		{"ten skills below ceiling", withoutEducation(fullMetadata(ten...)), 10, 85},
		{"bonus capped at ceiling", fullMetadata(ten...), 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreRules(tt.md, models.LevelEntry)
			assert.Equal(t, tt.wantBonus, result.Details.SkillsBonus)
			assert.Equal(t, tt.wantScore, result.Score)
		})
	}
}

func withoutEducation(md models.ResumeMetadata) models.ResumeMetadata {
	sections := make(map[string]string, len(md.Sections))
	for k, v := range md.Sections {
		if k != models.SectionEducation {
			sections[k] = v
		}
	}
	md.Sections = sections
	return md
}

func TestScoreRules_ZeroExperienceIsAbsent(t *testing.T) {
	md := fullMetadata("python")
	md.ExperienceYears = intPtr(0)

	result := ScoreRules(md, models.LevelMid)

	assert.Equal(t, 75, result.Score)
	assert.Contains(t, result.Details.Warnings, criticalWarning(FieldExperienceYears))
}

func TestScoreRules_ExpMatch(t *testing.T) {
	tests := []struct {
		level models.Level
		years *int
		want  bool
	}{
		{models.LevelEntry, nil, true},
		{models.LevelMid, intPtr(2), false},
		{models.LevelMid, intPtr(3), true},
		{models.LevelSenior, intPtr(6), false},
		{models.LevelSenior, intPtr(7), true},
		{models.LevelSenior, nil, false},
	}

	for _, tt := range tests {
		md := models.ResumeMetadata{ExperienceYears: tt.years}
		assert.Equal(t, tt.want, ScoreRules(md, tt.level).Details.ExpMatch, "%s %v", tt.level, tt.years)
	}
}

func TestScoreRules_UnknownLevelUsesEntry(t *testing.T) {
	md := fullMetadata("python")
	assert.Equal(t, ScoreRules(md, models.LevelEntry), ScoreRules(md, models.Level("intern")))
}

func TestScoreRules_Idempotent(t *testing.T) {
	md := fullMetadata("python", "docker")
	assert.Equal(t, ScoreRules(md, models.LevelSenior), ScoreRules(md, models.LevelSenior))
}

func TestScoreRules_MonotonicAndBounded(t *testing.T) {
	steps := []func(*models.ResumeMetadata){
		func(md *models.ResumeMetadata) { md.Name = "Jane Doe" },
		func(md *models.ResumeMetadata) { md.Email = "jane@example.com" },
		func(md *models.ResumeMetadata) { md.Phone = "555-867-5309" },
		func(md *models.ResumeMetadata) { md.Skills = []string{"python"} },
		func(md *models.ResumeMetadata) { md.Sections[models.SectionEducation] = "BSc" },
		func(md *models.ResumeMetadata) { md.ExperienceYears = intPtr(4) },
		func(md *models.ResumeMetadata) { md.Sections[models.SectionProjects] = "x" },
		func(md *models.ResumeMetadata) { md.Sections[models.SectionSummary] = "y" },
		func(md *models.ResumeMetadata) {
			md.Skills = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
		},
	}

	for _, level := range []models.Level{models.LevelEntry, models.LevelMid, models.LevelSenior} {
		md := models.ResumeMetadata{Sections: map[string]string{}}
		prev := ScoreRules(md, level).Score
		for i, step := range steps {
			step(&md)
			score := ScoreRules(md, level).Score
			assert.GreaterOrEqual(t, score, prev, "%s step %d", level, i)
			assert.LessOrEqual(t, score, 100)
			assert.GreaterOrEqual(t, score, 0)
			prev = score
		}
		assert.Equal(t, 100, prev, level)
	}
}
