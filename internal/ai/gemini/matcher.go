package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	defaultTone             = "Friendly"
	noneValue               = "none"
	maxUserInstructionRunes = 500
)

// PromptOverrides are user supplied additions to the prompt.
type PromptOverrides struct {
	ExtraCriteria     string `mapstructure:"extra-criteria"`
	DealBreakers      string `mapstructure:"deal-breakers"`
	CustomKeywords    string `mapstructure:"custom-keywords"`
	Tone              string `mapstructure:"tone"`
	RegionConstraints string `mapstructure:"region-constraints"`
	UserInstructions  string `mapstructure:"user-instructions"`
}

type Matcher struct {
	generator contentGenerator
	minScore  float64
	maxLogLen int
	logger    *zap.Logger
	overrides PromptOverrides
}

func NewMatcher(generator contentGenerator, minScore float64, maxLogLength int, logger *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		generator: generator,
		minScore:  minScore,
		maxLogLen: maxLogLength,
		logger:    logger,
	}
}

func (m *Matcher) SetPromptOverrides(o PromptOverrides) {
	m.overrides = o
}

// jobPayload is the part of a job the model sees.
type jobPayload struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	Skills          []string `json:"skills"`
	Description     string   `json:"description,omitempty"`
	Experience      string   `json:"experience,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Remote          bool     `json:"is_remote"`
	MatchScore      *float64 `json:"lexical_match_score,omitempty"`
}

func (m *Matcher) Evaluate(ctx context.Context, candidate *ai.Candidate, job *jobs.Job) (*ai.FitAssessment, error) {
	if candidate == nil || len(candidate.Skills) == 0 {
		return nil, fmt.Errorf("candidate skills are required")
	}
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}

	jobJSON, err := json.MarshalIndent(jobPayload{
		Title:           job.Title,
		Company:         job.Company,
		Location:        job.Location,
		Skills:          job.Skills,
		Description:     job.Description,
		Experience:      job.Experience,
		ExperienceLevel: job.ExperienceLevel,
		Remote:          job.IsRemote,
		MatchScore:      job.MatchScore,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	system := buildSystemPrompt(m.overrides)
	message := buildInputs(string(candidateJSON), string(jobJSON))

	m.logger.Debug("gemini generate content request",
		zap.String("job_id", job.ID),
		zap.String("ai_model", m.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("input_preview", utils.TruncateForLog(message, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini generate content response",
		zap.String("job_id", job.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("job_id", job.ID),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildSystemPrompt(o PromptOverrides) string {
	tone := singleLine(o.Tone)
	if tone == "" {
		tone = defaultTone
	}

	return strings.NewReplacer(
		"{{EXTRA_CRITERIA}}", orNone(singleLine(o.ExtraCriteria)),
		"{{DEAL_BREAKERS}}", orNone(singleLine(o.DealBreakers)),
		"{{CUSTOM_KEYWORDS}}", orNone(keywords(o.CustomKeywords)),
		"{{TONE}}", tone,
		"{{REGION_CONSTRAINTS}}", orNone(singleLine(o.RegionConstraints)),
		"{{USER_INSTRUCTIONS}}", userInstructions(o.UserInstructions),
	).Replace(promptTemplate)
}

func buildInputs(candidateJSON, jobJSON string) string {
	return "[Inputs]\nCandidate:\n" + candidateJSON + "\n\nJob:\n" + jobJSON + "\n\nJSON Response:"
}

// neutralize keeps user text from opening prompt sections.
var neutralize = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")")

func singleLine(s string) string {
	return strings.Join(strings.Fields(neutralize.Replace(s)), " ")
}

func keywords(s string) string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = singleLine(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func userInstructions(s string) string {
	s = strings.TrimSpace(neutralize.Replace(s))
	if r := []rune(s); len(r) > maxUserInstructionRunes {
		s = string(r[:maxUserInstructionRunes])
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, "  - "+line)
		}
	}
	if len(lines) == 0 {
		return "  - " + noneValue
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return noneValue
	}
	return s
}

func parseResponse(raw string) (*ai.FitAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.FitAssessment{
		Fit:     coerceBool(data["fit"]),
		Score:   math.Max(0, math.Min(score, 1)),
		Reason:  coerceString(data["reason"]),
		Message: coerceString(data["message"]),
	}, nil
}

// extractJSON strips code fences and text around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
