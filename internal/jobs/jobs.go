package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Jobs is an ordered list of postings.
type Jobs struct {
	Items []*Job
}

// New wraps items into a list.
func New(items []*Job) *Jobs {
	if items == nil {
		items = []*Job{}
	}
	return &Jobs{Items: items}
}

func (j *Jobs) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// Keep retains jobs accepted by keep and returns the IDs of dropped ones.
// Order is preserved.
func (j *Jobs) Keep(keep func(*Job) bool) []string {
	var dropped []string
	kept := j.Items[:0]
	for _, job := range j.Items {
		if keep(job) {
			kept = append(kept, job)
			continue
		}
		dropped = append(dropped, job.ID)
	}
	j.Items = kept
	return dropped
}

// Keys returns the identity set used to exclude direct matches from recommendations.
func (j *Jobs) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, j.Len())
	for _, job := range j.Items {
		keys[job.Key()] = struct{}{}
	}
	return keys
}

// DumpToTmpFile writes the list as indented JSON into a temporary file.
func (j *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportBySource groups a short description of every job by its source.
func (j *Jobs) ReportBySource() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range j.Items {
		entry := map[string]string{
			"title":    job.Title,
			"company":  job.Company,
			"location": job.Location,
			"url":      job.ApplyLink,
			"salary":   job.Salary,
			"remote":   strconv.FormatBool(job.IsRemote),
		}
		if job.MatchPercentage != nil {
			entry["match"] = fmt.Sprintf("%d%%", *job.MatchPercentage)
		}
		if job.AI != nil {
			if job.AI.Error != "" {
				entry["ai_error"] = job.AI.Error
			} else {
				entry["ai_fit"] = strconv.FormatBool(job.AI.Fit)
				entry["ai_score"] = strconv.FormatFloat(job.AI.Score, 'f', -1, 64)
				if job.AI.Reason != "" {
					entry["ai_reason"] = job.AI.Reason
				}
			}
		}
		report[job.Source] = append(report[job.Source], entry)
	}
	return report
}
