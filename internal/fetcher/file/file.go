// Package file serves job records from a local JSON document, for offline ranking.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/job-matcher/internal/fetcher"
	"github.com/spigell/job-matcher/internal/jobs"
)

const Name = "file"

// Config is the file source configuration.
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// Source overrides the source name recorded on each job.
	Source string `mapstructure:"source"`
}

type File struct {
	cfg Config
}

func New(cfg Config) *File {
	return &File{cfg: cfg}
}

func (f *File) Name() string {
	if f.cfg.Source != "" {
		return f.cfg.Source
	}
	return Name
}

// Fetch reads either a bare array of records or an object holding them
// under "jobs" or "data".
func (f *File) Fetch(ctx context.Context, _ fetcher.Query) ([]jobs.RawRecord, error) {
	if f.cfg.Path == "" {
		return nil, fmt.Errorf("no path configured: %w", fetcher.ErrDisabled)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.cfg.Path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var records []jobs.RawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f.cfg.Path, err)
		}
		return records, nil
	}

	var doc struct {
		Jobs []jobs.RawRecord `json:"jobs"`
		Data []jobs.RawRecord `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.cfg.Path, err)
	}
	if len(doc.Jobs) > 0 {
		return doc.Jobs, nil
	}
	return doc.Data, nil
}
