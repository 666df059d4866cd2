package jobs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

const (
	ExcludeActorUser = "user"
	ExcludeActorAI   = "ai"
)

// Excluded is the content of an exclude file: jobs never to show again.
type Excluded struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID         string
	URL        string
	Company    string
	Actor      string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// ToExcluded converts the list into exclude entries.
func (j *Jobs) ToExcluded(actor, reason string) *Excluded {
	excluded := &Excluded{}
	for _, job := range j.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:         job.ID,
			URL:        job.URL,
			Company:    job.Company,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list.
func LoadExcluded(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Excluded{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *Excluded) Append(s *Excluded) {
	e.Items = append(e.Items, s.Items...)
}

// Contains reports whether the job is listed by ID or URL.
func (e *Excluded) Contains(job *Job) bool {
	for _, item := range e.Items {
		if item.ID != "" && item.ID == job.ID {
			return true
		}
		if item.URL != "" && item.URL == job.URL {
			return true
		}
	}
	return false
}

func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToFile adds entries to the exclude file at path, creating it if needed.
func AppendToFile(path string, entries *Excluded) error {
	existing, err := LoadExcluded(path)
	if err != nil {
		return err
	}
	existing.Append(entries)
	return existing.ToFile(path)
}
