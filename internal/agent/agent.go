package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fmuoria/ats-resume-checker/internal/extractor"
	"github.com/fmuoria/ats-resume-checker/internal/ingestion"
	"github.com/fmuoria/ats-resume-checker/internal/models"
	"github.com/fmuoria/ats-resume-checker/internal/scoring"
)

// requestDelay paces model calls during a batch review
const requestDelay = 4 * time.Second

// ErrUnreadableDocument wraps failures to extract text from a supported file
var ErrUnreadableDocument = errors.New("unreadable document")

// ProgressCallback is called to report progress during batch processing
type ProgressCallback func(current, total int, message string)

// ResumeFetcher downloads resumes into the review directory
type ResumeFetcher interface {
	FetchResumes(ctx context.Context, subject string) (int, error)
}

// ATSAgent runs resumes through extraction, scoring and comparison
type ATSAgent struct {
	FileHandler *ingestion.FileHandler
	extractor   *extractor.Extractor
	jdMatcher   *scoring.JDMatcher
	aiScorer    *scoring.AIScorer
	limiter     *rate.Limiter
	report      *models.ReportResponse
	mu          sync.RWMutex
	progressCb  ProgressCallback
}

type settings struct {
	reviewDir    string
	requestDelay time.Duration
	extractOpts  []extractor.Option
}

// Option configures an ATSAgent
type Option func(*settings)

// WithReviewDir sets the directory batch reviews read from
func WithReviewDir(dir string) Option {
	return func(s *settings) { s.reviewDir = dir }
}

// WithRequestDelay sets the minimum gap between model calls in a batch; zero disables pacing
func WithRequestDelay(d time.Duration) Option {
	return func(s *settings) { s.requestDelay = d }
}

// WithClock fixes the time used to resolve "present" in date ranges
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.extractOpts = append(s.extractOpts, extractor.WithClock(now)) }
}

// NewATSAgent creates an agent over the given vocabulary. A nil or disabled
// AI scorer yields the AI fallback result for every resume.
func NewATSAgent(vocab extractor.Vocabulary, aiScorer *scoring.AIScorer, opts ...Option) *ATSAgent {
	s := settings{
		reviewDir:    "uploads",
		requestDelay: requestDelay,
	}
	for _, opt := range opts {
		opt(&s)
	}

	limit := rate.Inf
	if s.requestDelay > 0 {
		limit = rate.Every(s.requestDelay)
	}

	ext := extractor.New(vocab, s.extractOpts...)
	if aiScorer == nil {
		aiScorer = scoring.NewAIScorer(nil)
	}

	return &ATSAgent{
		FileHandler: ingestion.NewFileHandler(s.reviewDir),
		extractor:   ext,
		jdMatcher:   scoring.NewJDMatcher(ext.Skills()),
		aiScorer:    aiScorer,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// SetProgressCallback sets the progress callback function
func (a *ATSAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *ATSAgent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// Analyze scores a single resume. Only an unsupported or unreadable file and
// an invalid level are errors; a failing model degrades to the AI fallback.
func (a *ATSAgent) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.ScoreResponse, error) {
	start := time.Now()

	level, err := models.ParseLevel(string(req.Level))
	if err != nil {
		return models.ScoreResponse{}, err
	}

	text, err := ingestion.ExtractText(req.Content, req.Filename)
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupportedFormat) {
			return models.ScoreResponse{}, err
		}
		return models.ScoreResponse{}, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}

	resp := models.ScoreResponse{
		RequestID:          uuid.NewString(),
		ExtractionDegraded: ingestion.IsDegraded(text),
	}
	if resp.ExtractionDegraded {
		log.Warn().Str("request_id", resp.RequestID).Str("filename", req.Filename).Int("chars", len(text)).
			Msg("Extracted text is unusable, scoring an empty resume")
		// raw container bytes would only pollute matching
		if ingestion.IsBinaryData(text) {
			text = ""
		}
	}

	resp.Metadata = a.extractor.Extract(text)
	resp.ATSScore = scoring.ScoreRules(resp.Metadata, level)
	resp.JDScore = a.jdMatcher.Score(resp.Metadata, req.JobDescription)

	ai := a.aiScorer.Score(ctx, text, req.JobDescription)
	resp.AIScore = ai.Score
	resp.AIFeedback = ai.Feedback
	resp.Comparison = scoring.Compare(resp.ATSScore, ai.Score, resp.JDScore)

	evt := log.Info().
		Str("request_id", resp.RequestID).
		Str("filename", req.Filename).
		Str("level", string(level)).
		Int("ats_score", resp.ATSScore.Score).
		Int("ai_score", resp.AIScore).
		Bool("consistent", resp.Comparison.IsConsistent).
		Dur("duration", time.Since(start))
	if resp.JDScore != nil {
		evt = evt.Int("jd_score", resp.JDScore.Score)
	}
	evt.Msg("Resume analyzed")

	return resp, nil
}

// ReviewDirectory analyzes every resume in the review directory and ranks them
func (a *ATSAgent) ReviewDirectory(ctx context.Context, level models.Level, jobDescription string) (models.ReportResponse, error) {
	level, err := models.ParseLevel(string(level))
	if err != nil {
		return models.ReportResponse{}, err
	}

	a.reportProgress(0, 100, "Loading documents...")

	documents, skipped, err := a.FileHandler.LoadDocuments()
	if err != nil {
		return models.ReportResponse{}, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(documents) == 0 {
		return models.ReportResponse{}, fmt.Errorf("no resumes found in %s", a.FileHandler.Dir())
	}
	for _, name := range skipped {
		log.Warn().Str("filename", name).Msg("Skipping unsupported file")
	}

	log.Info().Int("resumes", len(documents)).Str("level", string(level)).Msg("Starting batch review")
	a.reportProgress(10, 100, fmt.Sprintf("Processing %d resumes...", len(documents)))

	results := make([]models.ResumeResult, 0, len(documents))
	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return models.ReportResponse{}, err
		}

		if a.aiScorer.Enabled() {
			if err := a.limiter.Wait(ctx); err != nil {
				return models.ReportResponse{}, err
			}
		}

		progress := 10 + (85 * i / len(documents))
		a.reportProgress(progress, 100, fmt.Sprintf("Evaluating %s (%d/%d)", doc.Name, i+1, len(documents)))

		resp, err := a.Analyze(ctx, models.AnalyzeRequest{
			Content:        doc.Content,
			Filename:       doc.Filename,
			Level:          level,
			JobDescription: jobDescription,
		})
		if err != nil {
			log.Warn().Err(err).Str("filename", doc.Filename).Msg("Failed to analyze resume")
			skipped = append(skipped, doc.Filename)
			continue
		}

		name := doc.Name
		if resp.Metadata.Name != "" {
			name = resp.Metadata.Name
		}
		results = append(results, models.ResumeResult{
			Name:     name,
			Filename: doc.Filename,
			Path:     doc.Path,
			Response: resp,
		})
	}

	a.reportProgress(95, 100, "Ranking resumes...")
	rankResults(results)

	report := models.ReportResponse{
		RunID:          uuid.NewString(),
		Level:          level,
		JobDescription: jobDescription,
		Resumes:        results,
		Skipped:        skipped,
		Timestamp:      time.Now().Format(time.RFC3339),
	}

	a.mu.Lock()
	a.report = &report
	a.mu.Unlock()

	log.Info().Str("run_id", report.RunID).Int("ranked", len(results)).Int("skipped", len(skipped)).Msg("Batch review complete")
	a.reportProgress(100, 100, "Processing complete!")

	return report, nil
}

// ReviewFromSource fetches resumes into a cleared review directory, then reviews them
func (a *ATSAgent) ReviewFromSource(ctx context.Context, fetcher ResumeFetcher, subject string, level models.Level, jobDescription string) (models.ReportResponse, error) {
	a.reportProgress(0, 100, "Clearing existing uploads...")
	if err := a.FileHandler.ClearUploads(); err != nil {
		return models.ReportResponse{}, fmt.Errorf("failed to clear uploads: %w", err)
	}

	a.reportProgress(5, 100, "Fetching resumes...")
	n, err := fetcher.FetchResumes(ctx, subject)
	if err != nil {
		return models.ReportResponse{}, fmt.Errorf("failed to fetch resumes: %w", err)
	}
	log.Info().Int("downloaded", n).Str("subject", subject).Msg("Fetched resumes")

	return a.ReviewDirectory(ctx, level, jobDescription)
}

// rankResults orders by rule score, then AI score, then name, and assigns ranks
func rankResults(results []models.ResumeResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].Response, results[j].Response
		if ri.ATSScore.Score != rj.ATSScore.Score {
			return ri.ATSScore.Score > rj.ATSScore.Score
		}
		if ri.AIScore != rj.AIScore {
			return ri.AIScore > rj.AIScore
		}
		return results[i].Name < results[j].Name
	})

	for i := range results {
		results[i].Rank = i + 1
	}
}

// GetReport returns the most recent batch report
func (a *ATSAgent) GetReport() (models.ReportResponse, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.report == nil {
		return models.ReportResponse{}, fmt.Errorf("no results available, run a review first")
	}
	return *a.report, nil
}
