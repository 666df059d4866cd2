package ranking

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

func record(id, title, company string, skills ...string) jobs.RawRecord {
	rec := jobs.RawRecord{
		"job_id":       id,
		"title":        title,
		"company_name": company,
		"job_url":      "https://example.com/jobs/" + id,
		"source":       "test",
	}
	if len(skills) > 0 {
		list := make([]any, len(skills))
		for i, s := range skills {
			list[i] = s
		}
		rec["skills"] = list
	}
	return rec
}

func mixedRecords(n int) []jobs.RawRecord {
	stacks := []struct {
		title  string
		skills []string
	}{
		{"Java Backend Engineer", []string{"Java", "Spring", "Kafka"}},
		{"Frontend Developer", []string{"React", "TypeScript", "CSS"}},
		{"Data Engineer", []string{"Python", "Pandas", "Spark"}},
		{"Platform Engineer", []string{"Kubernetes", "Terraform", "AWS"}},
	}

	out := make([]jobs.RawRecord, n)
	for i := range out {
		s := stacks[i%len(stacks)]
		out[i] = record(fmt.Sprintf("%d", i), s.title, fmt.Sprintf("Company %d", i), s.skills...)
	}
	return out
}

func TestRankScenarioExactSkills(t *testing.T) {
	t.Parallel()

	r := New(DefaultConfig(), nil, nil)
	res := r.RankRecords("python, django", []jobs.RawRecord{
		record("1", "Python Developer", "Acme", "Python", "Django", "AWS"),
	})

	if len(res.Matches) != 1 {
		t.Fatalf("expected one direct match, got %d", len(res.Matches))
	}
	if s := res.Matches[0].Score(); s < 0.4 {
		t.Fatalf("expected score >= 0.4, got %v", s)
	}
	if res.RunID == "" {
		t.Fatal("expected a run id")
	}
}

func TestRankScenarioNoOverlap(t *testing.T) {
	t.Parallel()

	r := New(DefaultConfig(), nil, nil)
	res := r.RankRecords("rust", mixedRecords(20))

	if len(res.Matches) != 0 {
		t.Fatalf("expected no direct matches, got %d", len(res.Matches))
	}
	if res.TotalJobs != 20 {
		t.Fatalf("expected 20 jobs, got %d", res.TotalJobs)
	}
	for _, j := range res.Recommendations {
		if j.Score() != 0 {
			t.Fatalf("recommendation %s scored %v", j.ID, j.Score())
		}
	}
}

func TestRankScenarioEmptyQuery(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	r := New(DefaultConfig(), nil, zap.New(core))

	for _, query := range []string{"", " , ,"} {
		res := r.RankRecords(query, mixedRecords(12))
		if !res.NoInput || res.Error != ErrNoSkills.Error() {
			t.Fatalf("query %q: expected no input result, got %+v", query, res)
		}
		if len(res.Matches) != 0 || len(res.Recommendations) != 0 {
			t.Fatalf("query %q: expected empty outputs", query)
		}
		if res.Algorithm != "" {
			t.Fatalf("query %q: scoring must not run, got algorithm %q", query, res.Algorithm)
		}
	}

	if got := observed.FilterMessage("skipping ranking").Len(); got != 2 {
		t.Fatalf("expected 2 skip entries, got %d", got)
	}
	entry := observed.FilterMessage("skipping ranking").All()[0]
	if _, ok := entry.ContextMap()[logger.FieldRunID]; !ok {
		t.Fatalf("expected run id field, got %v", entry.ContextMap())
	}
}

func TestRankScenarioDuplicatePosting(t *testing.T) {
	t.Parallel()

	poor := record("a", "Python Developer", "Acme", "Python")
	poor["job_url"] = "https://example.com/search?page=1"
	delete(poor, "job_id")

	rich := record("b", "Python Developer", "Acme", "Python")
	rich["job_url"] = "https://example.com/search?page=2"
	rich["salary"] = "$120k"
	delete(rich, "job_id")

	res := New(DefaultConfig(), nil, nil).RankRecords("python", []jobs.RawRecord{poor, rich})
	if res.TotalJobs != 1 {
		t.Fatalf("expected duplicates to collapse, got %d jobs", res.TotalJobs)
	}
	if len(res.Matches) != 1 || res.Matches[0].Salary != "$120k" {
		t.Fatalf("expected the record with a salary to be kept, got %+v", res.Matches)
	}
}

func TestRankScenarioRecordWithoutURL(t *testing.T) {
	t.Parallel()

	noURL := record("x", "Python Developer", "Initech", "Python")
	delete(noURL, "job_url")

	res := New(DefaultConfig(), nil, nil).RankRecords("python", []jobs.RawRecord{
		record("1", "Python Developer", "Acme", "Python"),
		noURL,
	})

	if res.TotalJobs != 1 {
		t.Fatalf("expected 1 job, got %d", res.TotalJobs)
	}
	if res.Dropped != 1 {
		t.Fatalf("expected 1 dropped record, got %d", res.Dropped)
	}
}

func TestRankEmptyBatch(t *testing.T) {
	t.Parallel()

	res := New(DefaultConfig(), nil, nil).Rank("python", nil)
	if res.NoInput || res.TotalJobs != 0 || len(res.Matches) != 0 || len(res.Recommendations) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRankThresholdLaw(t *testing.T) {
	t.Parallel()

	r := New(DefaultConfig(), nil, nil)
	for _, query := range []string{"python, spark", "java", "react, css", "aws, kubernetes, terraform"} {
		res := r.RankRecords(query, mixedRecords(40))

		keys := make(map[string]struct{})
		for _, j := range res.Matches {
			if j.Score() <= DefaultConfig().MatchThreshold {
				t.Fatalf("query %q: match %s scored %v", query, j.ID, j.Score())
			}
			keys[j.Key()] = struct{}{}
		}
		if len(res.Matches) > 15 || len(res.Recommendations) > 10 {
			t.Fatalf("query %q: caps exceeded: %d/%d", query, len(res.Matches), len(res.Recommendations))
		}
		for _, j := range res.Recommendations {
			if _, ok := keys[j.Key()]; ok {
				t.Fatalf("query %q: recommendation %s is a direct match", query, j.ID)
			}
			if !j.Scored() {
				t.Fatalf("query %q: recommendation %s is not scored", query, j.ID)
			}
		}
		for i := 1; i < len(res.Matches); i++ {
			if res.Matches[i-1].Score() < res.Matches[i].Score() {
				t.Fatalf("query %q: matches not sorted", query)
			}
		}
	}
}

func TestRankOverflowBecomesRecommendations(t *testing.T) {
	t.Parallel()

	records := make([]jobs.RawRecord, 8)
	for i := range records {
		records[i] = record(fmt.Sprintf("%d", i), "Python Developer", fmt.Sprintf("Company %d", i), "Python")
	}

	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.1
	cfg.MaxMatches = 3
	cfg.MaxRecommendations = 4

	res := New(cfg, nil, nil).RankRecords("python", records)
	if len(res.Matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(res.Matches))
	}
	if len(res.Recommendations) != 4 {
		t.Fatalf("expected overflow to fill 4 recommendations, got %d", len(res.Recommendations))
	}
	if res.Algorithm == "" || res.Fallback {
		t.Fatalf("unexpected algorithm %q fallback=%v", res.Algorithm, res.Fallback)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	t.Parallel()

	r := New(DefaultConfig(), nil, nil)
	a := r.RankRecords("python, java", mixedRecords(30))
	b := r.RankRecords("python, java", mixedRecords(30))

	if len(a.Matches) != len(b.Matches) || len(a.Recommendations) != len(b.Recommendations) {
		t.Fatal("result sizes differ between runs")
	}
	for i := range a.Matches {
		if a.Matches[i].ID != b.Matches[i].ID || a.Matches[i].Score() != b.Matches[i].Score() {
			t.Fatalf("match %d differs", i)
		}
	}
	for i := range a.Recommendations {
		if a.Recommendations[i].ID != b.Recommendations[i].ID {
			t.Fatalf("recommendation %d differs", i)
		}
	}
	if a.RunID == b.RunID {
		t.Fatal("run ids must be unique")
	}
}
