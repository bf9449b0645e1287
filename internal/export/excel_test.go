package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/pipeline"
	"github.com/cvmatch/cv-match/internal/scoring"
)

func testSummary() *pipeline.Summary {
	scores := map[string]float64{
		documents.PairProfileDescription:         0.8,
		documents.PairExperienceResponsibilities: 0.7,
		documents.PairEducation:                  0.9,
		documents.PairSkills:                     0.6,
	}

	return &pipeline.Summary{
		Resumes:   2,
		Jobs:      1,
		Evaluated: true,
		Results: []*pipeline.PairResult{
			{
				Similarity: &scoring.Similarity{ResumeID: "ana", JobID: "backend", Scores: scores, TotalScore: 0.74},
				Assessment: &ai.MatchAssessment{Level: ai.MatchHigh, Recommendation: "avanzar"},
			},
			{
				Similarity: &scoring.Similarity{ResumeID: "juan", JobID: "backend", Scores: scores, TotalScore: 0.31},
				Assessment: &ai.MatchAssessment{Level: ai.MatchLow, Recommendation: "descartar"},
			},
		},
		PairFailures: []pipeline.Failure{
			{ResumeID: "maria", JobID: "backend", Kind: pipeline.KindParse, Reason: "parse: bad json", Raw: "no soy json"},
		},
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteReport(testSummary(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{summarySheet, pairsSheet, failuresSheet} {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx == -1 {
			t.Fatalf("expected sheet %q (index %d): %v", sheet, idx, err)
		}
	}

	// Pairs are ranked per job, best total first.
	first, err := f.GetCellValue(pairsSheet, "C2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if first != "ana" {
		t.Fatalf("expected ana ranked first, got %q", first)
	}

	second, err := f.GetCellValue(pairsSheet, "C3")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if second != "juan" {
		t.Fatalf("expected juan ranked second, got %q", second)
	}

	total, err := f.GetCellValue(pairsSheet, "D2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if total != "74.0%" {
		t.Fatalf("unexpected total cell: %q", total)
	}

	stage, err := f.GetCellValue(failuresSheet, "C2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if stage != "parse" {
		t.Fatalf("unexpected failure stage: %q", stage)
	}

	raw, err := f.GetCellValue(failuresSheet, "E2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if raw != "no soy json" {
		t.Fatalf("expected raw model reply in report, got %q", raw)
	}
}

func TestWriteReportAppendsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report")

	if err := WriteReport(testSummary(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := excelize.OpenFile(path + ".xlsx"); err != nil {
		t.Fatalf("expected report with xlsx extension: %v", err)
	}
}

func TestPercent(t *testing.T) {
	if got := percent(0.756); got != "75.6%" {
		t.Fatalf("unexpected percent: %q", got)
	}
	if got := percent(0); got != "0.0%" {
		t.Fatalf("unexpected percent: %q", got)
	}
}
