package cmd

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/pipeline"
	"github.com/cvmatch/cv-match/internal/scoring"
)

func TestPrintSummaryRankedEntries(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	summary := &pipeline.Summary{
		Resumes: 2,
		Jobs:    1,
		Results: []*pipeline.PairResult{
			{
				Similarity: &scoring.Similarity{ResumeID: "ana", JobID: "backend_dev", TotalScore: 0.74},
				Assessment: &ai.MatchAssessment{Level: ai.MatchHigh},
			},
			{
				Similarity: &scoring.Similarity{ResumeID: "juan", JobID: "backend_dev", TotalScore: 0.31},
			},
		},
		PairFailures: []pipeline.Failure{
			{ResumeID: "maria", JobID: "backend_dev", Kind: pipeline.KindParse, Reason: "no soy json"},
		},
	}

	printSummary(logger, summary)

	entries := observed.All()
	if len(entries) == 0 {
		t.Fatal("expected log output")
	}

	message := entries[0].Message
	if !strings.Contains(message, `"resume": "ana"`) {
		t.Fatalf("expected ranked resume in the summary, got %q", message)
	}
	if !strings.Contains(message, `"match_level": "high"`) {
		t.Fatalf("expected assessed level in the summary, got %q", message)
	}

	fields := entries[0].ContextMap()
	if fields["completed pairs"] != int64(2) {
		t.Fatalf("unexpected completed pairs count: %v", fields["completed pairs"])
	}
	if fields["skipped pairs"] != int64(1) {
		t.Fatalf("unexpected skipped pairs count: %v", fields["skipped pairs"])
	}
}
