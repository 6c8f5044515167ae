package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fmuoria/ats-resume-checker/internal/agent"
	"github.com/fmuoria/ats-resume-checker/internal/ingestion"
	"github.com/fmuoria/ats-resume-checker/internal/models"
)

const (
	// maxUploadSize bounds a single resume upload
	maxUploadSize = 10 << 20
	// maxBatchSize bounds a multi-file review upload
	maxBatchSize = 32 << 20
)

// Server handles HTTP requests
type Server struct {
	agent    *agent.ATSAgent
	fetcher  agent.ResumeFetcher
	// reviews share the agent's review directory, which each run clears
	reviewMu sync.Mutex
}

// NewServer creates a new API server. fetcher may be nil, which disables
// the gmail review method.
func NewServer(a *agent.ATSAgent, fetcher agent.ResumeFetcher) *Server {
	return &Server{
		agent:   a,
		fetcher: fetcher,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload_resume/", s.handleUploadResume)
	mux.HandleFunc("POST /review", s.handleReview)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "ATS Resume Checker",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /upload_resume/": "Score one resume (multipart: resume, level, jd)",
			"POST /review":         "Rank uploaded resumes or resumes fetched from Gmail",
			"GET /report":          "Get the latest ranked review",
			"GET /health":          "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleUploadResume scores a single uploaded resume
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, formErrorStatus(err), fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	level, err := models.ParseLevel(r.FormValue("level"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read resume: %v", err))
		return
	}

	resp, err := s.agent.Analyze(r.Context(), models.AnalyzeRequest{
		Content:        content,
		Filename:       header.Filename,
		Level:          level,
		JobDescription: r.FormValue("jd"),
	})
	if err != nil {
		s.respondError(w, analyzeErrorStatus(err), err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleReview saves uploaded resumes, or fetches them from Gmail, and ranks them
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchSize)
	if err := r.ParseMultipartForm(maxBatchSize); err != nil {
		s.respondError(w, formErrorStatus(err), fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	level, err := models.ParseLevel(r.FormValue("level"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	jd := r.FormValue("jd")

	var report models.ReportResponse
	switch method := r.FormValue("method"); method {
	case "", "upload":
		s.reviewMu.Lock()
		defer s.reviewMu.Unlock()
		if err := s.saveUploads(r); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		report, err = s.agent.ReviewDirectory(r.Context(), level, jd)
	case "gmail":
		subject := r.FormValue("gmail_subject")
		if subject == "" {
			s.respondError(w, http.StatusBadRequest, "gmail_subject is required for gmail method")
			return
		}
		if s.fetcher == nil {
			s.respondError(w, http.StatusServiceUnavailable, "gmail is not configured")
			return
		}
		s.reviewMu.Lock()
		defer s.reviewMu.Unlock()
		report, err = s.agent.ReviewFromSource(r.Context(), s.fetcher, subject, level, jd)
	default:
		s.respondError(w, http.StatusBadRequest, "method must be 'upload' or 'gmail'")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// saveUploads clears the review directory and stores the supported uploaded files
func (s *Server) saveUploads(r *http.Request) error {
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return fmt.Errorf("no files uploaded")
	}

	fileHandler := s.agent.FileHandler
	if err := fileHandler.ClearUploads(); err != nil {
		return err
	}

	saved := 0
	for _, fileHeader := range files {
		if !ingestion.IsSupported(fileHeader.Filename) {
			log.Warn().Str("filename", fileHeader.Filename).Msg("Skipping unsupported file type")
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("failed to open uploaded file: %w", err)
		}
		_, err = fileHandler.SaveUploadedFile(fileHeader.Filename, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to save file %s: %w", fileHeader.Filename, err)
		}
		saved++
		log.Debug().Str("filename", fileHeader.Filename).Msg("Saved file")
	}

	if saved == 0 {
		return fmt.Errorf("no PDF or DOCX files uploaded")
	}
	return nil
}

// handleReport returns the latest review report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

func formErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func analyzeErrorStatus(err error) int {
	switch {
	case errors.Is(err, ingestion.ErrUnsupportedFormat), errors.Is(err, models.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrUnreadableDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
