package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/scoring"
)

type stubScorer struct {
	err   error
	calls int
}

func (s *stubScorer) Score(_ context.Context, resume *documents.Resume, jd *documents.JobDescription) (*scoring.Similarity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &scoring.Similarity{
		ResumeID: resume.ID,
		JobID:    jd.ID,
		Scores: map[string]float64{
			documents.PairProfileDescription:         0.5,
			documents.PairExperienceResponsibilities: 0.5,
			documents.PairEducation:                  0.5,
			documents.PairSkills:                     0.5,
		},
		TotalScore: 0.5,
	}, nil
}

type stubAssessor struct {
	err   error
	calls int
}

func (s *stubAssessor) Evaluate(_ context.Context, resume *documents.Resume, jd *documents.JobDescription, _ *scoring.Similarity) (*ai.MatchAssessment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ai.MatchAssessment{
		Level: ai.MatchMedium,
		Sections: map[string]string{
			documents.PairProfileDescription:         "ok",
			documents.PairExperienceResponsibilities: "ok",
			documents.PairEducation:                  "ok",
			documents.PairSkills:                     "ok",
		},
		Recommendation: "considerar",
	}, nil
}

type testEnv struct {
	cfg      *Config
	scorer   *stubScorer
	assessor *stubAssessor
	badDocs  map[string]bool
}

func newTestEnv(t *testing.T, resumeNames, jobNames []string) *testEnv {
	t.Helper()

	root := t.TempDir()
	resumesDir := filepath.Join(root, "cvs")
	jobsDir := filepath.Join(root, "jds")
	for _, dir := range []string{resumesDir, jobsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating input dir: %v", err)
		}
	}

	for _, name := range resumeNames {
		if err := os.WriteFile(filepath.Join(resumesDir, name+".pdf"), []byte("pdf"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}
	for _, name := range jobNames {
		if err := os.WriteFile(filepath.Join(jobsDir, name+".txt"), []byte("txt"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	return &testEnv{
		cfg: &Config{
			ResumesDir: resumesDir,
			JobsDir:    jobsDir,
			Outputs: OutputDirs{
				Extracted:   filepath.Join(root, "outputs", "extracted"),
				Scores:      filepath.Join(root, "outputs", "scores"),
				Evaluations: filepath.Join(root, "outputs", "evaluations"),
			},
		},
		scorer:   &stubScorer{},
		assessor: &stubAssessor{},
		badDocs:  make(map[string]bool),
	}
}

func (e *testEnv) coordinator() *Coordinator {
	return New(e.cfg, &Deps{
		Scorer:   e.scorer,
		Assessor: e.assessor,
		Logger:   zap.NewNop(),
		ParseResume: func(path string) (*documents.Resume, error) {
			id := documents.DocumentID(path)
			if e.badDocs[id] {
				return nil, fmt.Errorf("unreadable pdf %s", id)
			}
			return &documents.Resume{ID: id, Type: documents.TypeResume, Profile: "perfil"}, nil
		},
		ParseJobDescription: func(path string) (*documents.JobDescription, error) {
			id := documents.DocumentID(path)
			if e.badDocs[id] {
				return nil, fmt.Errorf("unreadable posting %s", id)
			}
			return &documents.JobDescription{ID: id, Type: documents.TypeJobDescription, Description: "rol"}, nil
		},
	})
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to not exist", path)
	}
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func TestRunFullBatch(t *testing.T) {
	env := newTestEnv(t, []string{"ana", "juan"}, []string{"backend"})

	summary, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Resumes != 2 || summary.Jobs != 1 {
		t.Fatalf("unexpected document counts: %+v", summary)
	}

	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 completed pairs, got %d", len(summary.Results))
	}

	if env.assessor.calls != 2 {
		t.Fatalf("expected 2 evaluation calls, got %d", env.assessor.calls)
	}

	for _, name := range []string{"ana.json", "juan.json", "backend.json"} {
		mustExist(t, filepath.Join(env.cfg.Outputs.Extracted, name))
	}
	mustExist(t, filepath.Join(env.cfg.Outputs.Scores, "ana_vs_backend.json"))
	mustExist(t, filepath.Join(env.cfg.Outputs.Evaluations, "juan_vs_backend_eval.json"))
}

func TestRunSkipsUnparseableDocument(t *testing.T) {
	env := newTestEnv(t, []string{"ana", "roto"}, []string{"backend"})
	env.badDocs["roto"] = true

	summary, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.DocumentFailures) != 1 {
		t.Fatalf("expected 1 document failure, got %d", len(summary.DocumentFailures))
	}
	if summary.DocumentFailures[0].Kind != KindExtraction {
		t.Fatalf("expected extraction kind, got %q", summary.DocumentFailures[0].Kind)
	}

	if len(summary.Results) != 1 {
		t.Fatalf("expected the healthy pair to complete, got %d", len(summary.Results))
	}

	mustNotExist(t, filepath.Join(env.cfg.Outputs.Extracted, "roto.json"))
	mustNotExist(t, filepath.Join(env.cfg.Outputs.Scores, "roto_vs_backend.json"))
}

func TestRunRecordsScoringFailure(t *testing.T) {
	env := newTestEnv(t, []string{"ana"}, []string{"backend"})
	env.scorer.err = errors.New("embedding api down")

	summary, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.PairFailures) != 1 {
		t.Fatalf("expected 1 pair failure, got %d", len(summary.PairFailures))
	}
	if summary.PairFailures[0].Kind != KindScoring {
		t.Fatalf("expected scoring kind, got %q", summary.PairFailures[0].Kind)
	}

	if env.assessor.calls != 0 {
		t.Fatalf("expected no evaluation after scoring failure, got %d calls", env.assessor.calls)
	}

	mustNotExist(t, filepath.Join(env.cfg.Outputs.Scores, "ana_vs_backend.json"))
}

func TestRunParseFailureLeavesNoArtifacts(t *testing.T) {
	env := newTestEnv(t, []string{"ana"}, []string{"backend"})
	env.assessor.err = &ai.ParseError{Raw: "no soy json", Err: errors.New("unmarshal failed")}

	summary, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.PairFailures) != 1 {
		t.Fatalf("expected 1 pair failure, got %d", len(summary.PairFailures))
	}

	failure := summary.PairFailures[0]
	if failure.Kind != KindParse {
		t.Fatalf("expected parse kind, got %q", failure.Kind)
	}
	if failure.Raw != "no soy json" {
		t.Fatalf("expected raw model reply on the failure, got %q", failure.Raw)
	}

	// No partial files for a skipped pair, scores included.
	mustNotExist(t, filepath.Join(env.cfg.Outputs.Scores, "ana_vs_backend.json"))
	mustNotExist(t, filepath.Join(env.cfg.Outputs.Evaluations, "ana_vs_backend_eval.json"))
}

func TestRunWithoutEvaluation(t *testing.T) {
	env := newTestEnv(t, []string{"ana"}, []string{"backend"})

	summary, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.scorer.calls != 1 {
		t.Fatalf("expected 1 scoring call, got %d", env.scorer.calls)
	}

	if env.assessor.calls != 0 {
		t.Fatalf("expected no evaluation calls, got %d", env.assessor.calls)
	}

	if summary.Results[0].Assessment != nil {
		t.Fatal("expected nil assessment without evaluation")
	}

	mustExist(t, filepath.Join(env.cfg.Outputs.Scores, "ana_vs_backend.json"))
	mustNotExist(t, filepath.Join(env.cfg.Outputs.Evaluations, "ana_vs_backend_eval.json"))
}

func TestRunIsIdempotent(t *testing.T) {
	env := newTestEnv(t, []string{"ana"}, []string{"backend"})

	if _, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	artifacts := []string{
		filepath.Join(env.cfg.Outputs.Extracted, "ana.json"),
		filepath.Join(env.cfg.Outputs.Extracted, "backend.json"),
		filepath.Join(env.cfg.Outputs.Scores, "ana_vs_backend.json"),
		filepath.Join(env.cfg.Outputs.Evaluations, "ana_vs_backend_eval.json"),
	}

	first := make(map[string][]byte, len(artifacts))
	for _, path := range artifacts {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading artifact: %v", err)
		}
		first[path] = data
	}

	if _, err := env.coordinator().Run(context.Background(), RunOptions{Evaluate: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range artifacts {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading artifact: %v", err)
		}
		if !bytes.Equal(first[path], data) {
			t.Fatalf("artifact %s changed between identical runs", path)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	env := newTestEnv(t, []string{"ana"}, []string{"backend"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.coordinator().Run(ctx, RunOptions{Evaluate: true}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRankedByJob(t *testing.T) {
	summary := &Summary{Results: []*PairResult{
		{Similarity: &scoring.Similarity{ResumeID: "a", JobID: "x", TotalScore: 0.4}},
		{Similarity: &scoring.Similarity{ResumeID: "b", JobID: "x", TotalScore: 0.9}},
		{Similarity: &scoring.Similarity{ResumeID: "c", JobID: "y", TotalScore: 0.1}},
	}}

	ranked := summary.RankedByJob()

	if len(ranked) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(ranked))
	}

	x := ranked["x"]
	if x[0].Similarity.ResumeID != "b" || x[1].Similarity.ResumeID != "a" {
		t.Fatalf("expected descending order by total score, got %+v", x)
	}
}

func TestPairKey(t *testing.T) {
	if got := PairKey("juan_perez", "backend_dev"); got != "juan_perez_vs_backend_dev" {
		t.Fatalf("unexpected pair key: %q", got)
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &StageError{Kind: KindScoring, Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected StageError to unwrap its cause")
	}

	if err.Error() != "scoring: boom" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
