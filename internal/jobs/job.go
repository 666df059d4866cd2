package jobs

import (
	"math"
	"strings"

	"github.com/spigell/job-matcher/internal/textutil"
)

// Default placeholders for fields a source did not provide.
const (
	Unknown            = "N/A"
	DefaultSalary      = "Not disclosed"
	DefaultSchedule    = "Full-time"
	DefaultPostedDate  = "Recently"
	MaxSkills          = 10
	MaxDescriptionRune = 500
)

// RawRecord is a job posting as a fetcher returned it.
type RawRecord map[string]any

// Job is the canonical representation of one posting.
type Job struct {
	ID              string   `json:"id"`
	ProviderID      string   `json:"provider_id,omitempty"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	Skills          []string `json:"skills"`
	Description     string   `json:"description"`
	ApplyLink       string   `json:"apply_link"`
	URL             string   `json:"url"`
	Salary          string   `json:"salary"`
	Experience      string   `json:"experience"`
	ExperienceLevel string   `json:"experience_level"`
	ScheduleType    string   `json:"schedule_type"`
	PostedDate      string   `json:"posted_date"`
	CompanyLogo     string   `json:"company_logo,omitempty"`
	IsRemote        bool     `json:"is_remote"`
	Source          string   `json:"source"`

	MatchScore      *float64 `json:"match_score,omitempty"`
	MatchPercentage *int     `json:"match_percentage,omitempty"`

	AI *AIAssessment `json:"ai,omitempty"`
}

// AIAssessment is the optional verdict of an AI provider about a job.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
	Raw     string  `json:"-"`
}

// TitleCompanyKey identifies a posting by its normalized title and company.
func (j *Job) TitleCompanyKey() string {
	return textutil.Normalize(j.Title) + "_" + textutil.Normalize(j.Company)
}

// Key is the identity used to tell direct matches from recommendations.
// It agrees with the keys Dedupe merges on.
func (j *Job) Key() string {
	if j.ProviderID != "" {
		return providerKey(j.Source, j.ProviderID)
	}
	return j.TitleCompanyKey()
}

// providerKey identifies an explicit provider ID within its source.
func providerKey(source, providerID string) string {
	return strings.ToLower(strings.TrimSpace(source)) + ":" + providerID
}

// Scored reports whether the scorer attached a score.
func (j *Job) Scored() bool {
	return j.MatchScore != nil
}

// Score returns the match score or 0 when the job was not scored.
func (j *Job) Score() float64 {
	if j.MatchScore == nil {
		return 0
	}
	return *j.MatchScore
}

// WithScore returns a copy of j carrying score clamped to [0, 1]
// and the matching percentage.
func (j *Job) WithScore(score float64) *Job {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	percentage := int(math.Round(score * 100))

	scored := *j
	scored.Skills = append([]string(nil), j.Skills...)
	scored.MatchScore = &score
	scored.MatchPercentage = &percentage
	return &scored
}

// Richness counts fields that carry real values instead of placeholders.
func (j *Job) Richness() int {
	n := 0
	for _, v := range []struct{ value, placeholder string }{
		{j.Company, Unknown},
		{j.Location, Unknown},
		{j.Salary, DefaultSalary},
		{j.Experience, Unknown},
		{j.ExperienceLevel, Unknown},
		{j.ScheduleType, DefaultSchedule},
		{j.PostedDate, DefaultPostedDate},
	} {
		if v.value != "" && v.value != v.placeholder {
			n++
		}
	}
	if j.Description != "" {
		n++
	}
	if len(j.Skills) > 0 {
		n++
	}
	if j.CompanyLogo != "" {
		n++
	}
	if j.ProviderID != "" {
		n++
	}
	return n
}
