package extractor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

// SectionKeywords bounds a section: a line containing any header keyword opens
// it and the next line containing any next keyword closes it
type SectionKeywords struct {
	Headers []string `yaml:"headers"`
	Next    []string `yaml:"next"`
}

// Vocabulary is the fixed keyword data the extractor matches against
type Vocabulary struct {
	Skills   []string                   `yaml:"skills"`
	Sections map[string]SectionKeywords `yaml:"sections"`
}

// DefaultVocabulary returns the canonical skill list and section header keywords
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Skills: []string{
			"python", "java", "c++", "sql", "aws", "azure", "docker", "kubernetes",
			"javascript", "typescript", "node.js", "react", "django", "flask",
			"git", "linux", "html", "css", "nlp", "machine learning", "data analysis",
		},
		Sections: map[string]SectionKeywords{
			models.SectionSummary: {
				Headers: []string{"summary", "profile", "objective", "about me"},
				Next:    []string{"experience", "employment", "education", "skills", "projects", "certifications"},
			},
			models.SectionExperience: {
				Headers: []string{"experience", "employment", "work history"},
				Next:    []string{"education", "skills", "projects", "certifications", "awards"},
			},
			models.SectionEducation: {
				Headers: []string{"education", "academic"},
				Next:    []string{"experience", "employment", "skills", "projects", "certifications", "awards"},
			},
			models.SectionSkills: {
				Headers: []string{"skills", "technologies", "tech stack"},
				Next:    []string{"experience", "employment", "education", "projects", "certifications", "awards"},
			},
			models.SectionProjects: {
				Headers: []string{"projects", "portfolio"},
				Next:    []string{"experience", "employment", "education", "skills", "certifications", "awards"},
			},
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Keys missing from the file keep
// their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var fromFile Vocabulary
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	vocab := DefaultVocabulary()
	if len(fromFile.Skills) > 0 {
		vocab.Skills = fromFile.Skills
	}
	for name, kw := range fromFile.Sections {
		vocab.Sections[strings.ToLower(name)] = kw
	}
	return vocab.normalized(), nil
}

// normalized returns a lower-cased, de-duplicated copy. Empty keywords are
// dropped since they would match every line.
func (v Vocabulary) normalized() Vocabulary {
	out := Vocabulary{
		Skills:   normalizeKeywords(v.Skills),
		Sections: make(map[string]SectionKeywords, len(v.Sections)),
	}
	for name, kw := range v.Sections {
		out.Sections[name] = SectionKeywords{
			Headers: normalizeKeywords(kw.Headers),
			Next:    normalizeKeywords(kw.Next),
		}
	}
	return out
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
