package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/documents"
	"github.com/cvmatch/cv-match/internal/scoring"
	"github.com/cvmatch/cv-match/internal/util"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	// Sections are trimmed before prompting; the similarity scores carry
	// the full-text signal, the model only needs enough to comment on.
	maxSectionRunes = 600
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Evaluator asks Gemini for a qualitative judgment of one resume / job
// description pair. It implements ai.Assessor.
type Evaluator struct {
	generator contentGenerator
	maxLogLen int
	logger    *zap.Logger
}

func NewEvaluator(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		generator: generator,
		maxLogLen: maxLogLength,
		logger:    logger,
	}
}

// Evaluate builds the prompt, performs one generation call and parses the
// reply. A reply that cannot be mapped to the expected shape yields an
// *ai.ParseError carrying the raw text.
func (e *Evaluator) Evaluate(ctx context.Context, resume *documents.Resume, jd *documents.JobDescription, similarity *scoring.Similarity) (*ai.MatchAssessment, error) {
	if resume == nil || jd == nil {
		return nil, fmt.Errorf("both documents are required")
	}
	if similarity == nil {
		return nil, fmt.Errorf("similarity scores are required")
	}

	prompt := buildPrompt(resume, jd, similarity)

	e.logger.Debug("gemini evaluation request",
		zap.String("resume_id", resume.ID),
		zap.String("job_id", jd.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini evaluation response",
		zap.String("resume_id", resume.ID),
		zap.String("job_id", jd.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, e.maxLogLen)),
	)

	assessment, err := parseResponse(raw, similarity.TotalScore)
	if err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: err}
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildPrompt(resume *documents.Resume, jd *documents.JobDescription, similarity *scoring.Similarity) string {
	resumeBlock := renderSections([][2]string{
		{"PROFILE", resume.Profile},
		{"EXPERIENCE", resume.Experience},
		{"EDUCATION", resume.Education},
		{"SKILLS", resume.Skills},
	})
	jobBlock := renderSections([][2]string{
		{"DESCRIPTION", jd.Description},
		{"RESPONSIBILITIES", jd.Responsibilities},
		{"EDUCATION", jd.Education},
		{"SKILLS", jd.Skills},
	})

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME}}", resumeBlock)
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", jobBlock)
	prompt = strings.ReplaceAll(prompt, "{{SCORES}}", renderScores(similarity.Scores))
	prompt = strings.ReplaceAll(prompt, "{{TOTAL}}", fmt.Sprintf("%.1f%%", similarity.TotalScore*100))
	prompt = strings.ReplaceAll(prompt, "{{LEVEL}}", string(ai.LevelFromScore(similarity.TotalScore)))
	return prompt
}

func renderSections(sections [][2]string) string {
	var lines []string
	for _, section := range sections {
		text := strings.TrimSpace(section[1])
		if text == "" {
			text = "(empty)"
		} else if runes := []rune(text); len(runes) > maxSectionRunes {
			text = string(runes[:maxSectionRunes]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", section[0], text))
	}
	return strings.Join(lines, "\n")
}

func renderScores(scores map[string]float64) string {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var lines []string
	for _, label := range labels {
		lines = append(lines, fmt.Sprintf("- %s: %.1f%%", label, scores[label]*100))
	}
	return strings.Join(lines, "\n")
}

// parseResponse maps the model reply to a MatchAssessment, tolerating fenced
// code blocks and loosely typed fields. The level falls back to the score
// thresholds when missing or unknown.
func parseResponse(raw string, totalScore float64) (*ai.MatchAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	sections := coerceSections(data["sections"])
	recommendation := coerceString(data["recommendation"])

	if len(sections) == 0 && recommendation == "" {
		return nil, fmt.Errorf("response carries neither sections nor recommendation")
	}

	// Every pair label is present in the artifact even when the model
	// skipped it.
	for _, pair := range documents.SectionPairs() {
		if _, ok := sections[pair.Label]; !ok {
			sections[pair.Label] = ""
		}
	}

	level := strings.ToLower(coerceString(data["match_level"]))
	if !ai.IsValidLevel(level) {
		level = string(ai.LevelFromScore(totalScore))
	}

	return &ai.MatchAssessment{
		Level:          ai.MatchLevel(level),
		Sections:       sections,
		Recommendation: recommendation,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

func coerceSections(v any) map[string]string {
	sections := make(map[string]string)
	m, ok := v.(map[string]any)
	if !ok {
		return sections
	}
	for label, value := range m {
		if text := coerceString(value); text != "" {
			sections[label] = text
		}
	}
	return sections
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
