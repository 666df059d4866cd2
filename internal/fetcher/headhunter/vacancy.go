package headhunter

import (
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

const remoteSchedule = "remote"

type Vacancies struct {
	Items []*Vacancy
}

type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type Employer struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	LogoUrls struct {
		Original string `json:"original,omitempty"`
	} `json:"logo_urls,omitempty"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

type Vacancy struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Area         Named    `json:"area,omitempty"`
	Salary       *Salary  `json:"salary,omitempty"`
	Experience   Named    `json:"experience,omitempty"`
	Schedule     Named    `json:"schedule,omitempty"`
	Employment   Named    `json:"employment,omitempty"`
	Employer     Employer `json:"employer,omitempty"`
	AlternateURL string   `json:"alternate_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	KeySkills    []Named  `json:"key_skills,omitempty"`
	Snippet      Snippet  `json:"snippet,omitempty"`
	PublishedAt  string   `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Records flattens vacancies into raw records understood by the job normalizer.
func (v *Vacancies) Records() []jobs.RawRecord {
	out := make([]jobs.RawRecord, 0, len(v.Items))
	for _, vacancy := range v.Items {
		out = append(out, vacancy.Record())
	}
	return out
}

func (va *Vacancy) Record() jobs.RawRecord {
	rec := jobs.RawRecord{
		"job_id":          va.ID,
		"title":           va.Name,
		"company_name":    va.Employer.Name,
		"location":        va.Area.Name,
		"job_url":         va.AlternateURL,
		"experience":      va.Experience.Name,
		"employment_type": va.Employment.Name,
		"posted_date":     va.PublishedAt,
		"company_logo":    va.Employer.LogoUrls.Original,
		"is_remote":       va.Schedule.ID == remoteSchedule,
	}

	description := va.Description
	if description == "" {
		description = strings.TrimSpace(va.Snippet.Requirement + " " + va.Snippet.Responsibility)
	}
	rec["description"] = stripHighlight(description)

	if s := va.Salary.String(); s != "" {
		rec["salary"] = s
	}

	if len(va.KeySkills) > 0 {
		names := make([]any, 0, len(va.KeySkills))
		for _, skill := range va.KeySkills {
			names = append(names, skill.Name)
		}
		rec["key_skills"] = names
	}

	return rec
}

func (s *Salary) String() string {
	if s == nil {
		return ""
	}
	switch {
	case s.From > 0 && s.To > 0:
		return fmt.Sprintf("%d-%d %s", s.From, s.To, s.Currency)
	case s.From > 0:
		return fmt.Sprintf("from %d %s", s.From, s.Currency)
	case s.To > 0:
		return fmt.Sprintf("up to %d %s", s.To, s.Currency)
	default:
		return ""
	}
}

// hh.ru wraps matched words of snippets into <highlighttext> tags.
var highlightReplacer = strings.NewReplacer("<highlighttext>", "", "</highlighttext>", "")

func stripHighlight(s string) string {
	return highlightReplacer.Replace(s)
}
