package filtering

import (
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

var entryLevelMarkers = []string{"entry", "fresher", "internship", "0-1"}

// NewRemote keeps remote jobs only.
func NewRemote(enabled bool) Filter {
	return &predicate{
		name:    "remote",
		enabled: enabled,
		keep:    func(j *jobs.Job) bool { return j.IsRemote },
	}
}

// NewEntryLevel keeps jobs whose experience mentions an entry level marker.
func NewEntryLevel(enabled bool) Filter {
	return &predicate{
		name:    "entry_level",
		enabled: enabled,
		keep: func(j *jobs.Job) bool {
			text := strings.ToLower(j.Experience + " " + j.ExperienceLevel)
			for _, marker := range entryLevelMarkers {
				if strings.Contains(text, marker) {
					return true
				}
			}
			return false
		},
	}
}

// NewExperience keeps jobs whose experience text matches a range such as "2-5":
// either the range with the dash replaced by a space or its lower bound must appear.
func NewExperience(rangeText string) Filter {
	rangeText = strings.TrimSpace(rangeText)
	spaced := strings.ReplaceAll(rangeText, "-", " ")
	lower := strings.TrimSpace(strings.SplitN(rangeText, "-", 2)[0])

	return &predicate{
		name:    "experience",
		enabled: rangeText != "",
		details: map[string]string{"range": rangeText},
		validate: func() error {
			if lower == "" {
				return fmt.Errorf("invalid experience range %q", rangeText)
			}
			return nil
		},
		keep: func(j *jobs.Job) bool {
			return strings.Contains(j.Experience, spaced) || strings.Contains(j.Experience, lower)
		},
	}
}

// NewExcludedCompanies drops jobs posted by the listed companies, compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	set := make(map[string]struct{}, len(companies))
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		set[c] = struct{}{}
		names = append(names, c)
	}

	return &predicate{
		name:    "excluded_companies",
		enabled: len(set) > 0,
		details: map[string]string{"companies": strings.Join(names, ",")},
		keep: func(j *jobs.Job) bool {
			_, excluded := set[strings.ToLower(strings.TrimSpace(j.Company))]
			return !excluded
		},
	}
}
