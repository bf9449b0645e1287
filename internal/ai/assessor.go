package ai

import (
	"context"
	"fmt"

	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/scoring"
)

// MatchLevel is the categorical verdict for a resume / job description pair.
type MatchLevel string

const (
	MatchHigh    MatchLevel = "high"
	MatchMedium  MatchLevel = "medium"
	MatchLow     MatchLevel = "low"
	MatchVeryLow MatchLevel = "very_low"
)

// LevelFromScore maps a weighted total similarity score to a match level.
// Used as the fallback when the model omits or mangles the level field.
func LevelFromScore(score float64) MatchLevel {
	switch {
	case score >= 0.7:
		return MatchHigh
	case score >= 0.5:
		return MatchMedium
	case score >= 0.3:
		return MatchLow
	default:
		return MatchVeryLow
	}
}

// IsValidLevel reports whether the string names a known match level.
func IsValidLevel(s string) bool {
	switch MatchLevel(s) {
	case MatchHigh, MatchMedium, MatchLow, MatchVeryLow:
		return true
	}
	return false
}

// MatchAssessment is the model's qualitative judgment of one pair:
// commentary per section pair, a categorical level and an overall
// recommendation. Raw always keeps the untouched model reply.
type MatchAssessment struct {
	Level          MatchLevel        `json:"match_level"`
	Sections       map[string]string `json:"sections"`
	Recommendation string            `json:"recommendation"`
	Raw            string            `json:"-"`
}

// Assessor produces a qualitative assessment for an extracted pair and its
// similarity scores.
type Assessor interface {
	Evaluate(ctx context.Context, resume *documents.Resume, jd *documents.JobDescription, similarity *scoring.Similarity) (*MatchAssessment, error)
}

// ParseError signals that the model replied but the reply could not be
// mapped to the expected shape. The raw text is carried along so it is
// reported instead of discarded.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
