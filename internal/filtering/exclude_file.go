package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, list *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := list.Len()
	if f.path == "" {
		return list, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := jobs.LoadExcluded(f.path)
	if err != nil {
		return list, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	removed := list.Keep(func(j *jobs.Job) bool { return !excluded.Contains(j) })
	return list, Step{Initial: initial, Dropped: len(removed), Left: list.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
