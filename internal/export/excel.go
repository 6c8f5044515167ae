package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/ats-resume-checker/internal/models"
)

const (
	summarySheet = "Summary"
	rankedSheet  = "Ranked Resumes"
	detailsSheet = "Detailed Analysis"
)

// score bands, inclusive lower bounds
const (
	bandExcellent = 90
	bandGood      = 70
	bandFair      = 50
)

var bandColors = map[string]string{
	"excellent": "C6EFCE",
	"good":      "FFEB9C",
	"fair":      "FFC7CE",
	"poor":      "FF9999",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// OutputPath returns the cleaned path the report is written to, with an
// .xlsx extension appended when missing
func OutputPath(path string) string {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	return filepath.Clean(path)
}

// ExportToExcel writes a batch review report as an Excel workbook
func ExportToExcel(report models.ReportResponse, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	outputPath = OutputPath(outputPath)

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{rankedSheet, detailsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	if err := createSummarySheet(f, report); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createRankedSheet(f, report.Resumes); err != nil {
		return fmt.Errorf("failed to create ranked resumes sheet: %w", err)
	}
	if err := createDetailedAnalysisSheet(f, report.Resumes); err != nil {
		return fmt.Errorf("failed to create detailed analysis sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		// some filesystems reject excelize's direct save; fall back to a buffered write
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// scoreBand names the colour band of a 0-100 score
func scoreBand(score int) string {
	switch {
	case score >= bandExcellent:
		return "excellent"
	case score >= bandGood:
		return "good"
	case score >= bandFair:
		return "fair"
	default:
		return "poor"
	}
}

func headerStyle(f *excelize.File, size float64, align string) (int, error) {
	style := &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: size},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: align, Vertical: "center"},
	}
	if align == "center" {
		style.Border = thinBorder
	}
	return f.NewStyle(style)
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func freezeTopRow(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// createSummarySheet writes run details and score statistics
func createSummarySheet(f *excelize.File, report models.ReportResponse) error {
	sheet := summarySheet
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 60)

	title, err := headerStyle(f, 14, "left")
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	heading := func(text string) {
		a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		f.SetCellValue(sheet, a, text)
		f.SetCellStyle(sheet, a, b, title)
		f.MergeCell(sheet, a, b)
		row++
	}
	pair := func(key string, value any) error {
		if err := setRow(f, sheet, row, key, value); err != nil {
			return err
		}
		a := fmt.Sprintf("A%d", row)
		f.SetCellStyle(sheet, a, a, label)
		row++
		return nil
	}

	heading("ATS Resume Review Report")
	row++

	jd := report.JobDescription
	if jd == "" {
		jd = "(none provided)"
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"Run ID:", report.RunID},
		{"Level:", string(report.Level)},
		{"Generated:", report.Timestamp},
		{"Job Description:", jd},
		{"Resumes Scored:", len(report.Resumes)},
		{"Files Skipped:", len(report.Skipped)},
	} {
		if err := pair(kv.key, kv.value); err != nil {
			return err
		}
	}
	if len(report.Skipped) > 0 {
		if err := pair("Skipped Files:", strings.Join(report.Skipped, ", ")); err != nil {
			return err
		}
	}
	row++

	if len(report.Resumes) == 0 {
		return nil
	}

	heading("ATS Score Distribution:")
	counts := map[string]int{}
	total, high, low, consistent := 0, 0, 100, 0
	for _, r := range report.Resumes {
		score := r.Response.ATSScore.Score
		counts[scoreBand(score)]++
		total += score
		high = max(high, score)
		low = min(low, score)
		if r.Response.Comparison.IsConsistent {
			consistent++
		}
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"Excellent (90-100):", counts["excellent"]},
		{"Good (70-89):", counts["good"]},
		{"Fair (50-69):", counts["fair"]},
		{"Poor (<50):", counts["poor"]},
		{"Average ATS Score:", fmt.Sprintf("%.2f", float64(total)/float64(len(report.Resumes)))},
		{"Highest ATS Score:", high},
		{"Lowest ATS Score:", low},
		{"Consistent with AI:", consistent},
	} {
		if err := pair(kv.key, kv.value); err != nil {
			return err
		}
	}

	return nil
}

// createRankedSheet writes one colour-banded row per resume
func createRankedSheet(f *excelize.File, results []models.ResumeResult) error {
	sheet := rankedSheet
	widths := []float64{8, 25, 12, 12, 12, 14, 12, 40, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	header, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	bandStyles := make(map[string]int, len(bandColors))
	linkStyles := make(map[string]int, len(bandColors))
	for band, color := range bandColors {
		fill := excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
		if bandStyles[band], err = f.NewStyle(&excelize.Style{Fill: fill, Border: thinBorder}); err != nil {
			return err
		}
		if linkStyles[band], err = f.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Color: "0563C1", Underline: "single"},
			Fill:   fill,
			Border: thinBorder,
		}); err != nil {
			return err
		}
	}

	headers := []any{"Rank", "Candidate", "ATS Score", "AI Score", "JD Score", "Experience", "Consistent", "Skills", "Resume Link"}
	if err := setRow(f, sheet, 1, headers...); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A1", "I1", header)

	for i, r := range results {
		row := i + 2
		resp := r.Response

		jdScore := "-"
		if resp.JDScore != nil {
			jdScore = fmt.Sprintf("%d", resp.JDScore.Score)
		}
		experience := "-"
		if resp.Metadata.ExperienceYears != nil {
			experience = fmt.Sprintf("%d yrs", *resp.Metadata.ExperienceYears)
		}
		consistent := "No"
		if resp.Comparison.IsConsistent {
			consistent = "Yes"
		}

		if err := setRow(f, sheet, row,
			r.Rank, r.Name, resp.ATSScore.Score, resp.AIScore, jdScore,
			experience, consistent, strings.Join(resp.Metadata.Skills, ", "), "",
		); err != nil {
			return err
		}

		band := scoreBand(resp.ATSScore.Score)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), bandStyles[band])

		if r.Path != "" {
			linkCell := fmt.Sprintf("I%d", row)
			absPath, err := filepath.Abs(r.Path)
			if err != nil {
				absPath = r.Path
			}
			f.SetCellValue(sheet, linkCell, "Open Resume")
			f.SetCellHyperLink(sheet, linkCell, "file:///"+strings.ReplaceAll(absPath, "\\", "/"), "External")
			f.SetCellStyle(sheet, linkCell, linkCell, linkStyles[band])
		}
	}

	if len(results) > 0 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:I%d", len(results)+1), nil); err != nil {
			return err
		}
	}

	return freezeTopRow(f, sheet)
}

// analysisRows lists the free-text findings reported per resume
func analysisRows(resp models.ScoreResponse) [][2]string {
	warnings := "None"
	if len(resp.ATSScore.Details.Warnings) > 0 {
		warnings = strings.Join(resp.ATSScore.Details.Warnings, "\n")
	}

	var missing []string
	for _, s := range resp.ATSScore.Details.Sections {
		if !s.Present {
			missing = append(missing, s.Section)
		}
	}
	missingText := "None"
	if len(missing) > 0 {
		missingText = strings.Join(missing, ", ")
	}

	rows := [][2]string{
		{"Missing Fields", missingText},
		{"Warnings", warnings},
		{"AI Feedback", resp.AIFeedback},
		{"Comparison", resp.Comparison.Narrative},
		{"Recommendation", resp.Comparison.Recommendation},
	}
	if jd := resp.JDScore; jd != nil {
		rows = append(rows, [2]string{"JD Match", fmt.Sprintf(
			"Skills %.1f%% (%s), words %.1f%%, experience match: %t",
			jd.Details.SkillMatchPct, strings.Join(jd.Details.SkillsMatched, ", "),
			jd.Details.WordMatchPct, jd.Details.ExpMatch,
		)})
	}
	if resp.ExtractionDegraded {
		rows = append(rows, [2]string{"Extraction", "Little or no text could be extracted from this file"})
	}
	return rows
}

// createDetailedAnalysisSheet writes the findings behind each score
func createDetailedAnalysisSheet(f *excelize.File, results []models.ResumeResult) error {
	sheet := detailsSheet
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 25)
	f.SetColWidth(sheet, "C", "C", 20)
	f.SetColWidth(sheet, "D", "D", 80)

	header, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	if err := setRow(f, sheet, 1, "Rank", "Candidate", "Category", "Details"); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A1", "D1", header)

	row := 2
	for _, r := range results {
		for _, finding := range analysisRows(r.Response) {
			if err := setRow(f, sheet, row, r.Rank, r.Name, finding[0], finding[1]); err != nil {
				return err
			}
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), wrap)
			f.SetRowHeight(sheet, row, 45)
			row++
		}
	}

	return freezeTopRow(f, sheet)
}
