package scoring

import (
	"fmt"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

// consistencyThreshold is the largest rule/AI gap, exclusive, still treated as agreement
const consistencyThreshold = 10

const (
	narrativeAgree     = "Both traditional ATS and AI analysis are in strong agreement about your resume quality."
	narrativeRuleHigh  = "Traditional scoring is higher (%d) than AI (%d). This usually means your resume covers core sections and keywords, but could be lacking in context, formatting, or impact statements that the AI model looks for."
	narrativeAIHigh    = "AI scoring is higher (%d) than traditional (%d). This usually means your resume demonstrates strengths (like achievements, clarity, leadership, or modern skills) that aren't easily caught by keyword-based algorithms."
	jdAdviceLow        = "Your resume has a low match with the job description. Consider adding more relevant keywords and skills."
	jdAdviceModerate   = "Your resume matches the JD reasonably well, but there's room to tailor your skills and experience for a stronger fit."
	jdAdviceStrong     = "Your resume is highly aligned with the job description. Good job!"
	recommendBoth      = "Both scoring methods are consistent. Use the AI suggestions to make further improvements."
	recommendAI        = "Trust the AI score for final tweaks: focus on impactful statements, clarity, and modern best practices."
	recommendRuleBased = "Trust the traditional score for compliance, but review AI suggestions for advanced improvements."
)

// Compare reconciles the rule-based score, the AI score and the optional JD result
func Compare(rule models.RuleResult, aiScore int, jd *models.JDResult) models.ComparisonResult {
	diff := rule.Score - aiScore
	consistent := abs(diff) < consistencyThreshold

	var narrative, recommendation string
	switch {
	case consistent:
		narrative = narrativeAgree
		recommendation = recommendBoth
	case aiScore > rule.Score:
		narrative = fmt.Sprintf(narrativeAIHigh, aiScore, rule.Score)
		recommendation = recommendAI
	default:
		narrative = fmt.Sprintf(narrativeRuleHigh, rule.Score, aiScore)
		recommendation = recommendRuleBased
	}

	if jd != nil {
		narrative += " " + jdAdvice(jd.Score)
	}

	return models.ComparisonResult{
		Narrative:      narrative,
		IsConsistent:   consistent,
		Recommendation: recommendation,
	}
}

func jdAdvice(score int) string {
	switch {
	case score < 50:
		return jdAdviceLow
	case score < 80:
		return jdAdviceModerate
	default:
		return jdAdviceStrong
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
