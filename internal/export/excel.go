package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/pipeline"
)

const (
	summarySheet  = "Summary"
	pairsSheet    = "Ranked Pairs"
	failuresSheet = "Skipped"
)

// WriteReport renders the batch summary as an Excel workbook: run totals,
// every completed pair ranked per job description, and the skipped entries
// with their failure kinds.
func WriteReport(summary *pipeline.Summary, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(pairsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	writeSummarySheet(f, summary, headerStyle)
	writePairsSheet(f, summary, headerStyle)
	writeFailuresSheet(f, summary, headerStyle)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving report %q: %w", outputPath, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summary *pipeline.Summary, headerStyle int) {
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "B", 40)

	f.SetCellValue(summarySheet, "A1", "CV / Job Description Match Report")
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
	f.MergeCell(summarySheet, "A1", "B1")

	rows := [][2]any{
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"Resumes extracted", summary.Resumes},
		{"Job descriptions extracted", summary.Jobs},
		{"Pairs completed", len(summary.Results)},
		{"Pairs skipped", len(summary.PairFailures)},
		{"Documents skipped", len(summary.DocumentFailures)},
		{"LLM evaluation", summary.Evaluated},
	}

	if len(summary.Results) > 0 {
		total := 0.0
		for _, result := range summary.Results {
			total += result.Similarity.TotalScore
		}
		rows = append(rows, [2]any{
			"Average total score",
			fmt.Sprintf("%.1f%%", total/float64(len(summary.Results))*100),
		})
	}

	for i, row := range rows {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}
}

func writePairsSheet(f *excelize.File, summary *pipeline.Summary, headerStyle int) {
	headers := []string{
		"Job Description", "Rank", "Resume", "Total",
		"Profile", "Experience", "Education", "Skills",
		"Level", "Recommendation",
	}
	widths := []float64{22, 6, 22, 10, 10, 12, 10, 10, 10, 60}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(pairsSheet, col, col, width)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(pairsSheet, cell, header)
		f.SetCellStyle(pairsSheet, cell, cell, headerStyle)
	}

	ranked := summary.RankedByJob()
	jobIDs := make([]string, 0, len(ranked))
	for jobID := range ranked {
		jobIDs = append(jobIDs, jobID)
	}
	sort.Strings(jobIDs)

	row := 2
	for _, jobID := range jobIDs {
		for rank, result := range ranked[jobID] {
			sim := result.Similarity
			level, recommendation := "", ""
			if result.Assessment != nil {
				level = string(result.Assessment.Level)
				recommendation = result.Assessment.Recommendation
			}

			values := []any{
				jobID, rank + 1, sim.ResumeID,
				percent(sim.TotalScore),
				percent(sim.Scores[documents.PairProfileDescription]),
				percent(sim.Scores[documents.PairExperienceResponsibilities]),
				percent(sim.Scores[documents.PairEducation]),
				percent(sim.Scores[documents.PairSkills]),
				level, recommendation,
			}
			for i, value := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(pairsSheet, cell, value)
			}
			row++
		}
	}

	f.SetPanes(pairsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeFailuresSheet(f *excelize.File, summary *pipeline.Summary, headerStyle int) {
	headers := []string{"Resume", "Job Description", "Stage", "Reason", "Raw Reply"}
	widths := []float64{22, 22, 12, 60, 60}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(failuresSheet, col, col, width)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(failuresSheet, cell, header)
		f.SetCellStyle(failuresSheet, cell, cell, headerStyle)
	}

	row := 2
	for _, failure := range append(summary.DocumentFailures, summary.PairFailures...) {
		values := []any{failure.ResumeID, failure.JobID, string(failure.Kind), failure.Reason, failure.Raw}
		for i, value := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(failuresSheet, cell, value)
		}
		row++
	}
}

func percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}
