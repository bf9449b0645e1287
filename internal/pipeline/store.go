package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/scoring"
)

// OutputDirs names the three artifact locations, one per stage.
type OutputDirs struct {
	Extracted   string
	Scores      string
	Evaluations string
}

// Store persists stage artifacts as indented JSON. File names derive
// deterministically from the input file names so re-runs overwrite instead
// of duplicating.
type Store struct {
	dirs OutputDirs
}

func NewStore(dirs OutputDirs) *Store {
	return &Store{dirs: dirs}
}

// Prepare creates the output directories.
func (s *Store) Prepare() error {
	for _, dir := range []string{s.dirs.Extracted, s.dirs.Scores, s.dirs.Evaluations} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %q: %w", dir, err)
		}
	}
	return nil
}

// PairKey is the stable identifier for a resume / job description pair.
func PairKey(resumeID, jobID string) string {
	return resumeID + "_vs_" + jobID
}

func (s *Store) WriteResume(r *documents.Resume) error {
	return writeJSON(filepath.Join(s.dirs.Extracted, r.ID+".json"), r)
}

func (s *Store) WriteJobDescription(jd *documents.JobDescription) error {
	return writeJSON(filepath.Join(s.dirs.Extracted, jd.ID+".json"), jd)
}

func (s *Store) WriteSimilarity(sim *scoring.Similarity) error {
	name := PairKey(sim.ResumeID, sim.JobID) + ".json"
	return writeJSON(filepath.Join(s.dirs.Scores, name), sim)
}

type evaluationArtifact struct {
	ResumeID       string            `json:"resume_id"`
	JobID          string            `json:"job_id"`
	MatchLevel     ai.MatchLevel     `json:"match_level"`
	Sections       map[string]string `json:"sections"`
	Recommendation string            `json:"recommendation"`
	TotalScore     float64           `json:"total_score"`
}

func (s *Store) WriteEvaluation(sim *scoring.Similarity, assessment *ai.MatchAssessment) error {
	name := PairKey(sim.ResumeID, sim.JobID) + "_eval.json"
	return writeJSON(filepath.Join(s.dirs.Evaluations, name), &evaluationArtifact{
		ResumeID:       sim.ResumeID,
		JobID:          sim.JobID,
		MatchLevel:     assessment.Level,
		Sections:       assessment.Sections,
		Recommendation: assessment.Recommendation,
		TotalScore:     sim.TotalScore,
	})
}

// writeJSON encodes with two-space indentation and without HTML escaping,
// so artifacts stay readable and byte-stable across runs.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}
