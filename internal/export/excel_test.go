package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleReport() models.ReportResponse {
	return models.ReportResponse{
		RunID:          "run-1",
		Level:          models.LevelMid,
		JobDescription: "Python developer, 3 years",
		Timestamp:      "2024-06-15T10:00:00Z",
		Skipped:        []string{"notes.txt"},
		Resumes: []models.ResumeResult{
			{
				Name:     "Jane Doe",
				Filename: "Jane_Doe.pdf",
				Path:     "uploads/Jane_Doe.pdf",
				Rank:     1,
				Response: models.ScoreResponse{
					ATSScore: models.RuleResult{
						Score: 92,
						Details: models.RuleDetails{
							Sections: []models.SectionScore{
								{Section: "name", Present: true, Weight: 10, Score: 10},
								{Section: "projects", Present: false, Weight: 5},
							},
							Warnings: []string{},
						},
					},
					JDScore: &models.JDResult{
						Score: 69,
						Details: models.JDDetails{
							SkillsMatched: []string{"python"},
							SkillMatchPct: 66.7,
							WordMatchPct:  53.8,
							ExpMatch:      true,
						},
					},
					AIScore:    88,
					AIFeedback: "Strong resume",
					Comparison: models.ComparisonResult{IsConsistent: true, Narrative: "Both agree", Recommendation: "Polish"},
					Metadata:   models.ResumeMetadata{Skills: []string{"python", "sql"}, ExperienceYears: intPtr(4)},
				},
			},
			{
				Name: "John Smith",
				Rank: 2,
				Response: models.ScoreResponse{
					ATSScore: models.RuleResult{
						Score:   30,
						Details: models.RuleDetails{Warnings: []string{"Your 'Skills' section is critical for this level. Please add or improve it."}},
					},
					AIFeedback:         "AI scoring disabled",
					ExtractionDegraded: true,
				},
			},
		},
	}
}

// TestExportToExcel_EnsuresXlsxExtension tests that .xlsx extension is added if missing
func TestExportToExcel_EnsuresXlsxExtension(t *testing.T) {
	tmpDir := t.TempDir()

	outputPath := filepath.Join(tmpDir, "test_report")
	if err := ExportToExcel(sampleReport(), outputPath); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	expectedPath := outputPath + ".xlsx"
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", expectedPath)
	}
}

// TestExportToExcel_HandlesExistingXlsxExtension tests that existing .xlsx extension is preserved
func TestExportToExcel_HandlesExistingXlsxExtension(t *testing.T) {
	tmpDir := t.TempDir()

	outputPath := filepath.Join(tmpDir, "test_report.XLSX")
	if err := ExportToExcel(sampleReport(), outputPath); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", outputPath)
	}
	if got := OutputPath(outputPath); strings.HasSuffix(strings.ToLower(got), ".xlsx.xlsx") {
		t.Errorf("OutputPath() = %s, should not have double extension", got)
	}
}

// TestExportToExcel_EmptyReport tests export with no scored resumes
func TestExportToExcel_EmptyReport(t *testing.T) {
	tmpDir := t.TempDir()

	report := models.ReportResponse{RunID: "empty", Level: models.LevelEntry}
	outputPath := filepath.Join(tmpDir, "empty_report.xlsx")
	if err := ExportToExcel(report, outputPath); err != nil {
		t.Fatalf("ExportToExcel() should handle an empty report: %v", err)
	}

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Errorf("Expected file at %s but it doesn't exist", outputPath)
	}
}

func TestExportToExcel_Contents(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.xlsx")
	if err := ExportToExcel(sampleReport(), outputPath); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	f, err := excelize.OpenFile(outputPath)
	if err != nil {
		t.Fatalf("failed to open exported workbook: %v", err)
	}
	defer f.Close()

	wantSheets := []string{summarySheet, rankedSheet, detailsSheet}
	if got := f.GetSheetList(); strings.Join(got, ",") != strings.Join(wantSheets, ",") {
		t.Errorf("GetSheetList() = %v, want %v", got, wantSheets)
	}

	tests := []struct {
		sheet, cell, want string
	}{
		{summarySheet, "A1", "ATS Resume Review Report"},
		{summarySheet, "B3", "run-1"},
		{summarySheet, "B4", "mid"},
		{rankedSheet, "A1", "Rank"},
		{rankedSheet, "B2", "Jane Doe"},
		{rankedSheet, "C2", "92"},
		{rankedSheet, "D2", "88"},
		{rankedSheet, "E2", "69"},
		{rankedSheet, "F2", "4 yrs"},
		{rankedSheet, "G2", "Yes"},
		{rankedSheet, "H2", "python, sql"},
		{rankedSheet, "I2", "Open Resume"},
		{rankedSheet, "B3", "John Smith"},
		{rankedSheet, "E3", "-"},
		{rankedSheet, "F3", "-"},
		{rankedSheet, "I3", ""},
		{detailsSheet, "C2", "Missing Fields"},
		{detailsSheet, "D2", "projects"},
		{detailsSheet, "D3", "None"},
		{detailsSheet, "D4", "Strong resume"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s) failed: %v", tt.sheet, tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}

	rows, err := f.GetRows(detailsSheet)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	// header + 6 findings for Jane (with JD) + 6 for John (degraded, no JD)
	if len(rows) != 13 {
		t.Errorf("detailed analysis has %d rows, want 13", len(rows))
	}
}

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "good"},
		{70, "good"},
		{69, "fair"},
		{50, "fair"},
		{49, "poor"},
		{0, "poor"},
	}

	for _, tt := range tests {
		if got := scoreBand(tt.score); got != tt.want {
			t.Errorf("scoreBand(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
