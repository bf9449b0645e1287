package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/cvmatch/cv-match/internal/documents"
)

// Embedder turns text into a fixed-length vector. The Gemini client
// implements it; tests supply deterministic fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Weights maps a section pair label to its share of the total score.
type Weights map[string]float64

// DefaultWeights mirrors the weighting the matching heuristics were tuned
// with: experience dominates, profile narrative matters least.
func DefaultWeights() Weights {
	return Weights{
		documents.PairProfileDescription:         0.15,
		documents.PairExperienceResponsibilities: 0.35,
		documents.PairEducation:                  0.20,
		documents.PairSkills:                     0.30,
	}
}

// Similarity holds the per-section and weighted total scores for one
// resume / job description pair. All four labels are always present.
type Similarity struct {
	ResumeID   string             `json:"resume_id"`
	JobID      string             `json:"job_id"`
	Scores     map[string]float64 `json:"scores"`
	TotalScore float64            `json:"total_score"`
}

// Scorer computes section-pair similarities through an embedding model.
// It is not safe for concurrent use: the embedding cache assumes the
// single-threaded batch the pipeline runs.
type Scorer struct {
	embedder Embedder
	weights  Weights
	logger   *zap.Logger
	cache    map[string][]float32
}

// New creates a Scorer. Weights are normalized so totals stay within [0,1];
// labels missing from the provided map fall back to the defaults.
func New(embedder Embedder, weights Weights, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		embedder: embedder,
		weights:  normalizeWeights(weights),
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Score embeds the relevant sections of both documents and computes cosine
// similarity for each canonical pair. A pair with an empty side scores
// exactly 0 without an embedding call. An embedder failure fails this pair
// only; the caller decides what that means for the batch.
func (s *Scorer) Score(ctx context.Context, resume *documents.Resume, jd *documents.JobDescription) (*Similarity, error) {
	if resume == nil || jd == nil {
		return nil, fmt.Errorf("both documents are required")
	}

	scores := make(map[string]float64, 4)
	total := 0.0

	for _, pair := range documents.SectionPairs() {
		resumeText := strings.TrimSpace(pair.Resume(resume))
		jobText := strings.TrimSpace(pair.Job(jd))

		if resumeText == "" || jobText == "" {
			scores[pair.Label] = 0
			continue
		}

		resumeVec, err := s.embed(ctx, resumeText)
		if err != nil {
			return nil, fmt.Errorf("embedding resume section %s: %w", pair.Label, err)
		}

		jobVec, err := s.embed(ctx, jobText)
		if err != nil {
			return nil, fmt.Errorf("embedding job section %s: %w", pair.Label, err)
		}

		score := cosineSimilarity(resumeVec, jobVec)
		scores[pair.Label] = score

		s.logger.Debug("section pair scored",
			zap.String("resume_id", resume.ID),
			zap.String("job_id", jd.ID),
			zap.String("pair", pair.Label),
			zap.Float64("score", score),
		)
	}

	for label, score := range scores {
		total += score * s.weights[label]
	}

	return &Similarity{
		ResumeID:   resume.ID,
		JobID:      jd.ID,
		Scores:     scores,
		TotalScore: clamp01(total),
	}, nil
}

func (s *Scorer) embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.cache[text]; ok {
		return vec, nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.cache[text] = vec
	return vec, nil
}

// cosineSimilarity computes the normalized dot product of two vectors,
// clamped to [0,1]. Zero vectors and dimension mismatches score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func normalizeWeights(weights Weights) Weights {
	normalized := DefaultWeights()
	for label, weight := range weights {
		if _, ok := normalized[label]; ok && weight >= 0 {
			normalized[label] = weight
		}
	}

	sum := 0.0
	for _, weight := range normalized {
		sum += weight
	}
	if sum == 0 {
		return DefaultWeights()
	}

	for label := range normalized {
		normalized[label] /= sum
	}
	return normalized
}
