package scoring

import (
	"fmt"
	"strings"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

// Scored fields, in report order
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldSkills          = "skills"
	FieldEducation       = "education"
	FieldExperienceYears = "experience_years"
	FieldProjects        = "projects"
	FieldSummary         = "summary"
)

type fieldWeight struct {
	field  string
	weight int
}

// Each table sums to 100
var levelWeights = map[models.Level][]fieldWeight{
	models.LevelEntry: {
		{FieldName, 8}, {FieldEmail, 8}, {FieldPhone, 6}, {FieldSkills, 25},
		{FieldEducation, 25}, {FieldExperienceYears, 10}, {FieldProjects, 10}, {FieldSummary, 8},
	},
	models.LevelMid: {
		{FieldName, 6}, {FieldEmail, 6}, {FieldPhone, 6}, {FieldSkills, 20},
		{FieldEducation, 12}, {FieldExperienceYears, 25}, {FieldProjects, 12}, {FieldSummary, 5},
	},
	models.LevelSenior: {
		{FieldName, 5}, {FieldEmail, 5}, {FieldPhone, 5}, {FieldSkills, 15},
		{FieldEducation, 5}, {FieldExperienceYears, 35}, {FieldProjects, 15}, {FieldSummary, 5},
	},
}

// minExperience is the years floor reported as exp_match
var minExperience = map[models.Level]int{
	models.LevelEntry:  0,
	models.LevelMid:    3,
	models.LevelSenior: 7,
}

const (
	criticalWeight = 15
	maxScore       = 100
)

// ScoreRules computes the level-weighted rule-based ATS score. Unknown levels
// use the entry table.
func ScoreRules(md models.ResumeMetadata, level models.Level) models.RuleResult {
	weights, ok := levelWeights[level]
	if !ok {
		level = models.LevelEntry
		weights = levelWeights[level]
	}

	details := models.RuleDetails{
		Sections: make([]models.SectionScore, 0, len(weights)),
		Level:    level,
		Warnings: []string{},
	}

	earned := 0
	for _, fw := range weights {
		present := fieldPresent(md, fw.field)
		row := models.SectionScore{Section: fw.field, Present: present, Weight: fw.weight}
		if present {
			row.Score = fw.weight
			earned += fw.weight
		} else if fw.weight >= criticalWeight {
			details.Warnings = append(details.Warnings, criticalWarning(fw.field))
		}
		details.Sections = append(details.Sections, row)
	}

	details.SkillsBonus = skillsBonus(len(md.Skills))
	details.ExpMatch = md.Experience() >= minExperience[level]

	// the bonus is added before the ceiling is applied
	return models.RuleResult{
		Score:   min(earned+details.SkillsBonus, maxScore),
		Details: details,
	}
}

func fieldPresent(md models.ResumeMetadata, field string) bool {
	switch field {
	case FieldName:
		return md.Name != ""
	case FieldEmail:
		return md.Email != ""
	case FieldPhone:
		return md.Phone != ""
	case FieldSkills:
		return len(md.Skills) > 0
	case FieldExperienceYears:
		return md.Experience() > 0
	default:
		return strings.TrimSpace(md.Section(field)) != ""
	}
}

func skillsBonus(n int) int {
	switch {
	case n >= 10:
		return 10
	case n >= 5:
		return 5
	default:
		return 0
	}
}

func criticalWarning(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	label = strings.ToUpper(label[:1]) + label[1:]
	return fmt.Sprintf("Your '%s' section is critical for this level. Please add or improve it.", label)
}
