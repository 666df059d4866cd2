package ai

import (
	"context"

	"github.com/spigell/job-matcher/internal/jobs"
)

type FitAssessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

// Candidate describes the person jobs are evaluated for.
type Candidate struct {
	Skills  []string `json:"skills"`
	Summary string   `json:"summary,omitempty"`
}

type Matcher interface {
	Evaluate(ctx context.Context, candidate *Candidate, job *jobs.Job) (*FitAssessment, error)
}

// ToJob converts an assessment into the form attached to jobs.
func (a *FitAssessment) ToJob() *jobs.AIAssessment {
	return &jobs.AIAssessment{
		Fit:     a.Fit,
		Score:   a.Score,
		Reason:  a.Reason,
		Message: a.Message,
		Raw:     a.Raw,
	}
}
