package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fmuoria/ats-resume-checker/internal/llm"
	"github.com/fmuoria/ats-resume-checker/internal/models"
)

const (
	// DefaultMaxChars bounds the resume text sent to the model
	DefaultMaxChars     = 15000
	defaultTimeout      = 60 * time.Second
	// defaultTotalTimeout bounds a whole Score call, retries and backoff included
	defaultTotalTimeout = 2 * time.Minute
	maxRetries          = 3
	// RetryBackoff is the base wait before retrying a rate-limited call
	RetryBackoff        = 10 * time.Second
)

const (
	// FeedbackDisabled is the feedback returned when no model client is configured
	FeedbackDisabled = "AI scoring disabled"
	feedbackEmpty    = "AI returned an empty response"
	feedbackErrorFmt = "AI scoring error: %v"
)

// AIScorer asks a generative model for a score and feedback. Every failure is
// reported as a zero score with an explanatory message.
type AIScorer struct {
	client       llm.Client
	maxChars     int
	timeout      time.Duration
	totalTimeout time.Duration
	maxRetries   int
	retryBackoff time.Duration
}

// AIOption configures an AIScorer
type AIOption func(*AIScorer)

// WithMaxChars sets the resume truncation bound
func WithMaxChars(n int) AIOption {
	return func(s *AIScorer) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithTimeout bounds each model call
func WithTimeout(d time.Duration) AIOption {
	return func(s *AIScorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTotalTimeout bounds a whole Score call across every attempt and backoff
func WithTotalTimeout(d time.Duration) AIOption {
	return func(s *AIScorer) {
		if d > 0 {
			s.totalTimeout = d
		}
	}
}

// WithRetries sets how often a rate-limited call is retried and the base backoff
func WithRetries(n int, backoff time.Duration) AIOption {
	return func(s *AIScorer) {
		s.maxRetries = max(n, 0)
		s.retryBackoff = backoff
	}
}

// NewAIScorer creates a scorer. A nil client yields a disabled scorer.
func NewAIScorer(client llm.Client, opts ...AIOption) *AIScorer {
	s := &AIScorer{
		client:       client,
		maxChars:     DefaultMaxChars,
		timeout:      defaultTimeout,
		totalTimeout: defaultTotalTimeout,
		maxRetries:   maxRetries,
		retryBackoff: RetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a model client is configured
func (s *AIScorer) Enabled() bool {
	return s != nil && s.client != nil
}

// Score never fails: errors, timeouts and malformed replies become (0, message)
func (s *AIScorer) Score(ctx context.Context, resumeText, jd string) models.AIResult {
	if !s.Enabled() {
		return models.AIResult{Score: 0, Feedback: FeedbackDisabled}
	}

	prompt := buildPrompt(truncate(sanitizeUTF8(resumeText), s.maxChars), sanitizeUTF8(jd))

	ctx, cancel := context.WithTimeout(ctx, s.totalTimeout)
	defer cancel()

	response, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return models.AIResult{Score: 0, Feedback: FeedbackDisabled}
		}
		log.Warn().Err(err).Msg("AI scoring failed, using fallback")
		return models.AIResult{Score: 0, Feedback: fmt.Sprintf(feedbackErrorFmt, err)}
	}

	return parseAIResponse(response)
}

func (s *AIScorer) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * s.retryBackoff
			log.Warn().Int("attempt", attempt).Dur("backoff", wait).Msg("Rate limited by model, retrying")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		response, err := s.client.GenerateContent(callCtx, prompt)
		cancel()
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isRateLimitError(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("rate limit persisted after %d retries: %w", s.maxRetries, lastErr)
}

// isRateLimitError checks if an error is caused by model quota or rate limiting
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resourceexhausted") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota")
}

// buildPrompt creates the analysis prompt for the model
func buildPrompt(resume, jd string) string {
	var sb strings.Builder

	sb.WriteString("You are an advanced ATS resume analyzer. Given the following resume text")
	if jd != "" {
		sb.WriteString(" (for the job description provided below)")
	}
	sb.WriteString(", analyze the quality, completeness, formatting, relevant skills, and match to the role. ")
	sb.WriteString("Score the resume on a scale of 0-100, and provide actionable improvement suggestions. ")
	sb.WriteString("Respond in strict JSON with keys: score (int), feedback (str).\n\n")

	sb.WriteString("Resume text:\n===\n")
	sb.WriteString(resume)
	sb.WriteString("\n===\n")

	if jd != "" {
		sb.WriteString("Job Description:\n")
		sb.WriteString(jd)
		sb.WriteString("\n===\n")
	}

	return sb.String()
}

type aiReply struct {
	Score    json.RawMessage `json:"score"`
	Feedback json.RawMessage `json:"feedback"`
}

// parseAIResponse extracts score and feedback from a model reply. Text that is
// not a JSON object becomes the feedback with a zero score.
func parseAIResponse(response string) models.AIResult {
	text := strings.TrimSpace(stripCodeFence(response))
	if text == "" {
		return models.AIResult{Score: 0, Feedback: feedbackEmpty}
	}

	// Find JSON in response (in case there's extra text)
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return models.AIResult{Score: 0, Feedback: text}
	}

	var reply aiReply
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &reply); err != nil {
		return models.AIResult{Score: 0, Feedback: text}
	}

	return models.AIResult{
		Score:    clampScore(parseScoreValue(reply.Score)),
		Feedback: parseFeedback(reply.Feedback),
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// parseScoreValue accepts a JSON number or a numeric string
func parseScoreValue(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}

func parseFeedback(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return strings.Join(items, "\n")
	}
	return string(raw)
}

func clampScore(score int) int {
	return max(0, min(score, maxScore))
}

// sanitizeUTF8 replaces invalid UTF-8 sequences so the request can be encoded
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncate shortens s to maxLen runes, marking the cut with "..."
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
