package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/scoring"
)

// Scorer is the similarity stage as the coordinator sees it.
type Scorer interface {
	Score(ctx context.Context, resume *documents.Resume, jd *documents.JobDescription) (*scoring.Similarity, error)
}

// Config points the coordinator at its input and output locations.
type Config struct {
	ResumesDir string
	JobsDir    string
	Outputs    OutputDirs
}

// Deps aggregates the stage implementations. ParseResume and
// ParseJobDescription default to the documents package; tests override them.
type Deps struct {
	Scorer   Scorer
	Assessor ai.Assessor
	Logger   *zap.Logger

	ParseResume         func(path string) (*documents.Resume, error)
	ParseJobDescription func(path string) (*documents.JobDescription, error)
}

// Coordinator drives the batch: discover files, extract every document,
// then run scoring and evaluation for every pair, one pair at a time.
// A failure in any stage skips that document or pair only.
type Coordinator struct {
	cfg    *Config
	deps   *Deps
	store  *Store
	logger *zap.Logger
}

func New(cfg *Config, deps *Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ParseResume == nil {
		deps.ParseResume = documents.ParseResume
	}
	if deps.ParseJobDescription == nil {
		deps.ParseJobDescription = documents.ParseJobDescription
	}

	return &Coordinator{
		cfg:    cfg,
		deps:   deps,
		store:  NewStore(cfg.Outputs),
		logger: deps.Logger,
	}
}

// RunOptions tunes a single batch run.
type RunOptions struct {
	// Evaluate enables the LLM stage. When false the batch stops after
	// scoring and no evaluation artifacts are produced.
	Evaluate bool
}

// Failure records one skipped document or pair.
type Failure struct {
	ResumeID string
	JobID    string
	Kind     Kind
	Reason   string
	// Raw carries the unparseable model reply for parse failures, so it
	// is reported rather than discarded.
	Raw string
}

// PairResult is one completed pair. Assessment is nil when the LLM stage
// was not requested.
type PairResult struct {
	Similarity *scoring.Similarity
	Assessment *ai.MatchAssessment
}

// Summary is the final batch outcome: what completed and what was skipped.
type Summary struct {
	Resumes          int
	Jobs             int
	DocumentFailures []Failure
	Results          []*PairResult
	PairFailures     []Failure
	Evaluated        bool
}

// RankedByJob groups completed pairs per job description, best total score
// first.
func (s *Summary) RankedByJob() map[string][]*PairResult {
	ranked := make(map[string][]*PairResult)
	for _, result := range s.Results {
		ranked[result.Similarity.JobID] = append(ranked[result.Similarity.JobID], result)
	}
	for _, results := range ranked {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Similarity.TotalScore > results[j].Similarity.TotalScore
		})
	}
	return ranked
}

// Run executes the full batch. Only environmental problems (unreadable
// input directories, unwritable outputs) abort it; stage failures are
// collected in the summary.
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if err := c.store.Prepare(); err != nil {
		return nil, err
	}

	resumePaths, err := discover(c.cfg.ResumesDir, "*.pdf")
	if err != nil {
		return nil, fmt.Errorf("discovering resumes: %w", err)
	}
	jobPaths, err := discover(c.cfg.JobsDir, "*.txt")
	if err != nil {
		return nil, fmt.Errorf("discovering job descriptions: %w", err)
	}

	c.logger.Info("starting batch",
		zap.Int("resumes", len(resumePaths)),
		zap.Int("job_descriptions", len(jobPaths)),
		zap.Bool("evaluate", opts.Evaluate),
	)
	if len(resumePaths) == 0 {
		c.logger.Warn("no resume files found", zap.String("dir", c.cfg.ResumesDir))
	}
	if len(jobPaths) == 0 {
		c.logger.Warn("no job description files found", zap.String("dir", c.cfg.JobsDir))
	}

	summary := &Summary{Evaluated: opts.Evaluate}

	resumes := c.extractResumes(resumePaths, summary)
	jobs := c.extractJobs(jobPaths, summary)
	summary.Resumes = len(resumes)
	summary.Jobs = len(jobs)

	for _, resume := range resumes {
		for _, jd := range jobs {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if err := c.runPair(ctx, resume, jd, opts, summary); err != nil {
				return summary, err
			}
		}
	}

	c.logger.Info("batch finished",
		zap.Int("pairs_completed", len(summary.Results)),
		zap.Int("pairs_skipped", len(summary.PairFailures)),
		zap.Int("documents_skipped", len(summary.DocumentFailures)),
	)

	return summary, nil
}

func (c *Coordinator) extractResumes(paths []string, summary *Summary) []*documents.Resume {
	var resumes []*documents.Resume
	for _, path := range paths {
		resume, err := c.deps.ParseResume(path)
		if err != nil {
			c.recordDocumentFailure(summary, documents.DocumentID(path), "", err)
			continue
		}
		if err := c.store.WriteResume(resume); err != nil {
			c.recordDocumentFailure(summary, resume.ID, "", err)
			continue
		}
		c.logger.Info("resume extracted", zap.String("document_id", resume.ID))
		resumes = append(resumes, resume)
	}
	return resumes
}

func (c *Coordinator) extractJobs(paths []string, summary *Summary) []*documents.JobDescription {
	var jobs []*documents.JobDescription
	for _, path := range paths {
		jd, err := c.deps.ParseJobDescription(path)
		if err != nil {
			c.recordDocumentFailure(summary, "", documents.DocumentID(path), err)
			continue
		}
		if err := c.store.WriteJobDescription(jd); err != nil {
			c.recordDocumentFailure(summary, "", jd.ID, err)
			continue
		}
		c.logger.Info("job description extracted", zap.String("document_id", jd.ID))
		jobs = append(jobs, jd)
	}
	return jobs
}

// runPair executes scoring and (optionally) evaluation for one pair.
// Per-pair artifacts are written only once every requested stage succeeded,
// so a skipped pair leaves no files behind. The returned error is reserved
// for environmental write failures.
func (c *Coordinator) runPair(ctx context.Context, resume *documents.Resume, jd *documents.JobDescription, opts RunOptions, summary *Summary) error {
	similarity, err := c.deps.Scorer.Score(ctx, resume, jd)
	if err != nil {
		c.recordPairFailure(summary, resume.ID, jd.ID, &StageError{Kind: KindScoring, Err: err})
		return nil
	}

	var assessment *ai.MatchAssessment
	if opts.Evaluate {
		assessment, err = c.deps.Assessor.Evaluate(ctx, resume, jd, similarity)
		if err != nil {
			c.recordPairFailure(summary, resume.ID, jd.ID, classifyEvaluationError(err))
			return nil
		}
	}

	if err := c.store.WriteSimilarity(similarity); err != nil {
		return err
	}
	if assessment != nil {
		if err := c.store.WriteEvaluation(similarity, assessment); err != nil {
			return err
		}
	}

	c.logger.Info("pair completed",
		zap.String("pair", PairKey(resume.ID, jd.ID)),
		zap.Float64("total_score", similarity.TotalScore),
	)

	summary.Results = append(summary.Results, &PairResult{
		Similarity: similarity,
		Assessment: assessment,
	})
	return nil
}

func classifyEvaluationError(err error) *StageError {
	var parseErr *ai.ParseError
	if errors.As(err, &parseErr) {
		return &StageError{Kind: KindParse, Err: err}
	}
	return &StageError{Kind: KindEvaluation, Err: err}
}

func (c *Coordinator) recordDocumentFailure(summary *Summary, resumeID, jobID string, err error) {
	failure := newFailure(resumeID, jobID, &StageError{Kind: KindExtraction, Err: err})
	summary.DocumentFailures = append(summary.DocumentFailures, failure)
	c.logger.Warn("document skipped",
		zap.String("document_id", resumeID+jobID),
		zap.String("kind", string(failure.Kind)),
		zap.Error(err),
	)
}

func (c *Coordinator) recordPairFailure(summary *Summary, resumeID, jobID string, stageErr *StageError) {
	failure := newFailure(resumeID, jobID, stageErr)
	summary.PairFailures = append(summary.PairFailures, failure)
	c.logger.Warn("pair skipped",
		zap.String("pair", PairKey(resumeID, jobID)),
		zap.String("kind", string(failure.Kind)),
		zap.Error(stageErr.Err),
	)
}

func newFailure(resumeID, jobID string, stageErr *StageError) Failure {
	failure := Failure{
		ResumeID: resumeID,
		JobID:    jobID,
		Kind:     stageErr.Kind,
		Reason:   stageErr.Error(),
	}

	var parseErr *ai.ParseError
	if errors.As(stageErr.Err, &parseErr) {
		failure.Raw = parseErr.Raw
	}
	return failure
}

func discover(dir, pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
