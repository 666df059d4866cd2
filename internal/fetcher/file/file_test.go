package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/job-matcher/internal/fetcher"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestFetchLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "array", content: `[{"title":"a"},{"title":"b"}]`, want: 2},
		{name: "jobs object", content: `{"jobs":[{"title":"a"}]}`, want: 1},
		{name: "data object", content: `{"data":[{"title":"a"},{"title":"b"},{"title":"c"}]}`, want: 3},
		{name: "empty", content: "  ", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, err := New(Config{Path: writeFile(t, tt.content)}).Fetch(context.Background(), fetcher.Query{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("expected %d records, got %d", tt.want, len(records))
			}
		})
	}
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}).Fetch(context.Background(), fetcher.Query{}); !errors.Is(err, fetcher.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}

	if _, err := New(Config{Path: writeFile(t, "{broken")}).Fetch(context.Background(), fetcher.Query{}); err == nil {
		t.Fatal("expected a decoding error")
	}

	if _, err := New(Config{Path: filepath.Join(t.TempDir(), "missing.json")}).Fetch(context.Background(), fetcher.Query{}); err == nil {
		t.Fatal("expected a read error")
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	if got := New(Config{}).Name(); got != Name {
		t.Fatalf("expected %q, got %q", Name, got)
	}
	if got := New(Config{Source: "linkedin"}).Name(); got != "linkedin" {
		t.Fatalf("expected override, got %q", got)
	}
}
