package models

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the candidate seniority band used to pick section weights
type Level string

const (
	LevelEntry  Level = "entry"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// ErrInvalidLevel is returned by ParseLevel for values other than entry, mid or senior
var ErrInvalidLevel = errors.New("invalid level")

// ParseLevel normalizes a level string; unknown values are rejected
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelEntry:
		return LevelEntry, nil
	case LevelMid:
		return LevelMid, nil
	case LevelSenior:
		return LevelSenior, nil
	default:
		return "", fmt.Errorf("%w %q: must be one of entry, mid, senior", ErrInvalidLevel, s)
	}
}

// Section names recognised by the extractor
const (
	SectionSkills     = "skills"
	SectionEducation  = "education"
	SectionExperience = "experience"
	SectionProjects   = "projects"
	SectionSummary    = "summary"
)

// SectionNames lists the fixed section keys in a stable order
var SectionNames = []string{SectionSkills, SectionEducation, SectionExperience, SectionProjects, SectionSummary}

// ResumeMetadata holds the fields extracted from a resume's plain text
type ResumeMetadata struct {
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Skills          []string          `json:"skills"`
	ExperienceYears *int              `json:"experience_years"` // nil when no date range was found
	Sections        map[string]string `json:"sections"`
	RawText         string            `json:"-"`
}

// Section returns the text of a named section, or "" when absent
func (m ResumeMetadata) Section(name string) string {
	if m.Sections == nil {
		return ""
	}
	return m.Sections[name]
}

// Experience returns the experience in years, treating absent as zero
func (m ResumeMetadata) Experience() int {
	if m.ExperienceYears == nil {
		return 0
	}
	return *m.ExperienceYears
}

// ScoreResult is the shared shape of the rule-based and JD results
type ScoreResult[D any] struct {
	Score   int `json:"score"` // 0-100
	Details D   `json:"details"`
}

// SectionScore is one row of the rule-based breakdown
type SectionScore struct {
	Section string `json:"section"`
	Present bool   `json:"present"`
	Weight  int    `json:"weight"`
	Score   int    `json:"score"`
}

// RuleDetails is the breakdown of a rule-based score
type RuleDetails struct {
	Sections    []SectionScore `json:"sections"`
	SkillsBonus int            `json:"skills_bonus"`
	ExpMatch    bool           `json:"exp_match"`
	Level       Level          `json:"level"`
	Warnings    []string       `json:"warnings"`
}

// JDDetails is the breakdown of a job description match
type JDDetails struct {
	SkillsMatched []string `json:"skills_matched"`
	JDSkills      []string `json:"jd_skills"`
	SkillMatchPct float64  `json:"skill_match_pct"`
	WordMatchPct  float64  `json:"word_match_pct"`
	ExpMatch      bool     `json:"exp_match"`
	RequiredExp   *int     `json:"required_exp"`
	CandidateExp  int      `json:"candidate_exp"`
}

type (
	RuleResult = ScoreResult[RuleDetails]
	JDResult   = ScoreResult[JDDetails]
)

// AIResult is the score and free-text feedback from the generative model
type AIResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ComparisonResult reconciles the rule-based and AI scores
type ComparisonResult struct {
	Narrative      string `json:"narrative"`
	IsConsistent   bool   `json:"is_consistent"`
	Recommendation string `json:"recommendation"`
}

// AnalyzeRequest is one resume to analyze
type AnalyzeRequest struct {
	Content        []byte
	Filename       string
	Level          Level
	JobDescription string
}

// ScoreResponse is the full result of analyzing one resume
type ScoreResponse struct {
	RequestID          string           `json:"request_id"`
	ATSScore           RuleResult       `json:"ats_score"`
	JDScore            *JDResult        `json:"jd_score"`
	AIScore            int              `json:"ai_score"`
	AIFeedback         string           `json:"ai_feedback"`
	Comparison         ComparisonResult `json:"comparison"`
	Metadata           ResumeMetadata   `json:"metadata"`
	ExtractionDegraded bool             `json:"extraction_degraded"`
}

// ResumeDocument is a resume file loaded for batch review
type ResumeDocument struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Content  []byte `json:"-"`
}

// ResumeResult is the outcome of reviewing one document in a batch
type ResumeResult struct {
	Name     string        `json:"name"`
	Filename string        `json:"filename"`
	Path     string        `json:"path,omitempty"`
	Rank     int           `json:"rank"`
	Response ScoreResponse `json:"response"`
}

// ReportResponse represents a ranked batch review
type ReportResponse struct {
	RunID          string         `json:"run_id"`
	Level          Level          `json:"level"`
	JobDescription string         `json:"job_description,omitempty"`
	Resumes        []ResumeResult `json:"resumes"`
	Skipped        []string       `json:"skipped,omitempty"`
	Timestamp      string         `json:"timestamp"`
}
