package filtering

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
)

// AIFitConfig enables the AI fit step.
type AIFitConfig struct {
	Enabled         bool
	MinimumFitScore float64
}

// AIFitDeps are the collaborators of the AI fit step.
type AIFitDeps struct {
	Matcher     ai.Matcher
	Candidate   *ai.Candidate
	Logger      *zap.Logger
	ExcludeFile string
}

type aiFitFilter struct {
	enabled bool
	reason  string
	config  *AIFitConfig
	deps    *AIFitDeps
}

// NewAIFit creates the step that asks an AI provider whether each job fits
// the candidate. Jobs judged unfit are dropped and appended to the exclude file.
// Jobs the provider failed to evaluate are kept with the error attached.
func NewAIFit(cfg *AIFitConfig, deps *AIFitDeps) Filter {
	if cfg == nil {
		cfg = &AIFitConfig{}
	}
	if deps == nil {
		deps = &AIFitDeps{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &aiFitFilter{enabled: cfg.Enabled, config: cfg, deps: deps}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return f.enabled }

func (f *aiFitFilter) Validate() error {
	if f.deps.Matcher == nil {
		return errors.New("ai matcher is required when ai filter is enabled")
	}
	if f.deps.Candidate == nil || len(f.deps.Candidate.Skills) == 0 {
		return errors.New("candidate skills are required for AI evaluation")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, list *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := list.Len()
	rejected := &jobs.Jobs{}

	approved := make([]*jobs.Job, 0, initial)
	for _, job := range list.Items {
		if err := ctx.Err(); err != nil {
			return list, Step{}, err
		}

		assessment, err := f.deps.Matcher.Evaluate(ctx, f.deps.Candidate, job)
		if err != nil {
			f.deps.Logger.Warn("AI evaluation failed",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			job.AI = &jobs.AIAssessment{Error: err.Error()}
			approved = append(approved, job)
			continue
		}

		job.AI = assessment.ToJob()
		if !assessment.Fit {
			f.deps.Logger.Info("job rejected by AI provider",
				zap.String("job_id", job.ID),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			if err := f.appendToExcludeFile(job, assessment.Reason); err != nil {
				f.deps.Logger.Warn("failed to append job to exclude file",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
			rejected.Items = append(rejected.Items, job)
			continue
		}

		f.deps.Logger.Info("job approved by AI",
			zap.String("job_id", job.ID),
			zap.Float64("ai_score", assessment.Score),
		)
		approved = append(approved, job)
	}

	list.Items = approved

	f.deps.Logger.Info("AI filtering completed",
		zap.Int("initial_jobs", initial),
		zap.Int("approved_jobs", len(approved)),
	)

	return list, Step{Initial: initial, Dropped: rejected.Len(), Left: list.Len()}, nil
}

func (f *aiFitFilter) appendToExcludeFile(job *jobs.Job, reason string) error {
	path := strings.TrimSpace(f.deps.ExcludeFile)
	if path == "" {
		return nil
	}

	entries := jobs.New([]*jobs.Job{job}).ToExcluded(jobs.ExcludeActorAI, reason)
	if err := jobs.AppendToFile(path, entries); err != nil {
		return err
	}

	f.deps.Logger.Info("job appended to exclude file",
		zap.String("job_id", job.ID),
		zap.String("exclude_file", path),
	)
	return nil
}

func (f *aiFitFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{
			"minimum_fit_score": strconv.FormatFloat(f.config.MinimumFitScore, 'f', -1, 64),
		},
	}
}
