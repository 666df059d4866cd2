package matcher

import (
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/textutil"
)

// Query is a parsed skill query.
type Query struct {
	Terms []string
	lower []string
}

// ParseTerms splits comma separated skills, trims them and drops empty entries.
func ParseTerms(text string) []string {
	terms := make([]string, 0)
	for _, part := range strings.Split(text, ",") {
		if t := strings.TrimSpace(part); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// NewQuery builds a query from already parsed terms.
func NewQuery(terms []string) Query {
	q := Query{Terms: terms, lower: make([]string, len(terms))}
	for i, t := range terms {
		q.lower[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return q
}

// Empty reports whether the query has no terms.
func (q Query) Empty() bool {
	return len(q.Terms) == 0
}

// Profile is the normalized query text.
func (q Query) Profile() string {
	return textutil.Normalize(strings.Join(q.Terms, " "))
}

// Score returns the relevance of job to q in [0, 1].
func (m *Model) Score(q Query, job *jobs.Job) float64 {
	if m.Fallback() {
		return containment(q, job)
	}
	return m.score(q, m.vectorizer.Transform(q.Profile()), m.vectorizer.Transform(Profile(job)), job)
}

// ScoreAll returns scored copies of the batch in batch order.
func (m *Model) ScoreAll(q Query) []*jobs.Job {
	out := make([]*jobs.Job, len(m.batch))
	if m.Fallback() {
		for i, j := range m.batch {
			out[i] = j.WithScore(containment(q, j))
		}
		return out
	}

	qv := m.vectorizer.Transform(q.Profile())
	for i, j := range m.batch {
		out[i] = j.WithScore(m.score(q, qv, m.vectors[i], j))
	}
	return out
}

func (m *Model) score(q Query, qv, jv Vector, job *jobs.Job) float64 {
	s := qv.Dot(jv) + m.cfg.SkillBoost*float64(exactMatches(q, job))
	return clamp(s)
}

// exactMatches counts distinct query terms equal to one of the job skills,
// ignoring case.
func exactMatches(q Query, job *jobs.Job) int {
	skills := make(map[string]struct{}, len(job.Skills))
	for _, s := range job.Skills {
		skills[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	seen := make(map[string]struct{}, len(q.lower))
	n := 0
	for _, t := range q.lower {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := skills[t]; ok {
			n++
		}
	}
	return n
}

// containment is the last resort scorer: the share of query terms found
// as substrings of the title and skills.
func containment(q Query, job *jobs.Job) float64 {
	if len(q.lower) == 0 {
		return 0
	}

	text := strings.ToLower(job.Title + " " + strings.Join(job.Skills, " "))
	n := 0
	for _, t := range q.lower {
		if strings.Contains(text, t) {
			n++
		}
	}
	return clamp(float64(n) / float64(len(q.lower)))
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
