package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

// filename words that describe the document rather than the candidate
var documentWords = map[string]bool{
	"cv": true, "resume": true, "résumé": true, "curriculum": true, "vitae": true,
}

// FileHandler manages the directory resumes are reviewed from
type FileHandler struct {
	uploadsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// Dir returns the directory the handler reads and writes
func (fh *FileHandler) Dir() string {
	return fh.uploadsDir
}

// SaveUploadedFile saves an uploaded file to the uploads directory
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	// never write outside the uploads directory
	filePath := filepath.Join(fh.uploadsDir, filepath.Base(filename))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadDocuments loads every PDF and DOCX resume from the uploads directory.
// Other files are returned as skipped. Documents are ordered by filename.
func (fh *FileHandler) LoadDocuments() ([]models.ResumeDocument, []string, error) {
	files, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ResumeDocument{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	documents := make([]models.ResumeDocument, 0, len(files))
	var skipped []string

	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}

		filename := file.Name()
		if !IsSupported(filename) {
			skipped = append(skipped, filename)
			continue
		}

		filePath := filepath.Join(fh.uploadsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read file %s: %w", filename, err)
		}

		documents = append(documents, models.ResumeDocument{
			Name:     CandidateName(filename),
			Filename: filename,
			Path:     filePath,
			Content:  content,
		})
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].Filename < documents[j].Filename
	})
	sort.Strings(skipped)

	return documents, skipped, nil
}

// CandidateName derives a display name from a resume filename,
// e.g. "Jane_Doe_CV.pdf" becomes "Jane Doe"
func CandidateName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if documentWords[strings.ToLower(p)] {
			continue
		}
		words = append(words, p)
	}

	if len(words) == 0 {
		return base
	}
	return strings.Join(words, " ")
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
