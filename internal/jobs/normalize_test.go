package jobs

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeLinkedInRecord(t *testing.T) {
	n := NewNormalizer(nil, nil)

	raw := RawRecord{
		"job_id":          "3901234567",
		"title":           "Senior Python Developer",
		"company_name":    "Acme",
		"location":        "Bengaluru, Karnataka, India",
		"job_url":         "https://www.linkedin.com/jobs/view/3901234567",
		"description":     strings.Repeat("x", 800),
		"salary_range":    "₹20-30 LPA",
		"posted_time":     "2 days ago",
		"employment_type": "Contract",
		"seniority_level": "Mid-Senior level",
		"workplace_type":  "Hybrid",
		"skills":          "Python, Django , python, AWS",
		"company_logo":    "https://example.com/logo.png",
	}

	job, ok := n.Normalize(raw, "LinkedIn")
	if !ok {
		t.Fatalf("expected record to be normalized")
	}

	if job.ID != "linkedin_3901234567" {
		t.Fatalf("unexpected id: %q", job.ID)
	}
	if job.ApplyLink != raw["job_url"] || job.URL != raw["job_url"] {
		t.Fatalf("unexpected links: %q %q", job.ApplyLink, job.URL)
	}
	if len([]rune(job.Description)) != MaxDescriptionRune {
		t.Fatalf("expected description truncated to %d, got %d", MaxDescriptionRune, len(job.Description))
	}
	if !reflect.DeepEqual(job.Skills, []string{"Python", "Django", "AWS"}) {
		t.Fatalf("unexpected skills: %v", job.Skills)
	}
	if !job.IsRemote {
		t.Fatalf("expected hybrid workplace to count as remote")
	}
	if job.Salary != "₹20-30 LPA" || job.ScheduleType != "Contract" || job.PostedDate != "2 days ago" {
		t.Fatalf("unexpected display fields: %+v", job)
	}
	if job.ExperienceLevel != "Mid-Senior level" || job.Experience != Unknown {
		t.Fatalf("unexpected experience fields: %q / %q", job.Experience, job.ExperienceLevel)
	}
	if job.Scored() {
		t.Fatalf("a freshly normalized job must not carry a score")
	}
}

func TestNormalizeDropsRecordsWithoutURLOrTitle(t *testing.T) {
	n := NewNormalizer(nil, nil)

	records := []RawRecord{
		{"title": "Go Developer", "company": "Acme"},
		{"url": "https://example.com/1"},
		{"title": "  ", "url": "https://example.com/2"},
		{"title": "Go Developer", "link": "https://example.com/3"},
		nil,
	}

	out, dropped := n.NormalizeAll(records, "naukri")
	if len(out) != 1 || dropped != 4 {
		t.Fatalf("expected 1 job and 4 dropped, got %d and %d", len(out), dropped)
	}

	for _, job := range out {
		if job.Title == "" || job.ApplyLink == "" {
			t.Fatalf("surfaced job without title or link: %+v", job)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(nil, nil)

	job, ok := n.Normalize(RawRecord{"title": "Backend Engineer", "url": "https://example.com/job"}, "")
	if !ok {
		t.Fatalf("expected record to be normalized")
	}

	if job.Company != Unknown || job.Location != Unknown {
		t.Fatalf("expected N/A placeholders, got %q / %q", job.Company, job.Location)
	}
	if job.Salary != DefaultSalary || job.ScheduleType != DefaultSchedule || job.PostedDate != DefaultPostedDate {
		t.Fatalf("unexpected defaults: %+v", job)
	}
	if job.Source != "unknown" {
		t.Fatalf("expected unknown source, got %q", job.Source)
	}
	if !strings.HasPrefix(job.ID, "unknown_") || len(job.ID) != len("unknown_")+12 {
		t.Fatalf("expected hashed id, got %q", job.ID)
	}

	again, _ := n.Normalize(RawRecord{"title": "Backend Engineer", "url": "https://example.com/other"}, "")
	if again.ID != job.ID {
		t.Fatalf("expected stable title/company hash, got %q and %q", job.ID, again.ID)
	}
}

func TestNormalizeExtractsSkillsWhenMissing(t *testing.T) {
	n := NewNormalizer(nil, nil)

	job, ok := n.Normalize(RawRecord{
		"title":       "React Developer",
		"url":         "https://example.com/react",
		"description": "We use TypeScript, Node.js and Docker. Good communication.",
	}, "indeed")
	if !ok {
		t.Fatalf("expected record to be normalized")
	}

	expect := []string{"typescript", "react", "node.js", "docker"}
	if !reflect.DeepEqual(job.Skills, expect) {
		t.Fatalf("expected %v, got %v", expect, job.Skills)
	}
}

func TestNormalizeCoercesValues(t *testing.T) {
	n := NewNormalizer(nil, nil)

	job, ok := n.Normalize(RawRecord{
		"id":            float64(12345),
		"name":          "Go Developer",
		"alternate_url": "https://hh.ru/vacancy/12345",
		"employer":      map[string]any{"name": "Globex"},
		"area":          map[string]any{"name": "Moscow"},
		"remote":        "true",
		"key_skills":    []any{map[string]any{"name": "Go"}, map[string]any{"name": "PostgreSQL"}, "go"},
	}, "headhunter")
	if !ok {
		t.Fatalf("expected record to be normalized")
	}

	if job.ProviderID != "12345" || job.ID != "headhunter_12345" {
		t.Fatalf("unexpected ids: %q / %q", job.ProviderID, job.ID)
	}
	if job.Company != "Globex" || job.Location != "Moscow" {
		t.Fatalf("expected nested names, got %q / %q", job.Company, job.Location)
	}
	if !job.IsRemote {
		t.Fatalf("expected explicit remote flag to be honoured")
	}
	if !reflect.DeepEqual(job.Skills, []string{"Go", "PostgreSQL"}) {
		t.Fatalf("unexpected skills: %v", job.Skills)
	}
}

func TestNormalizeSkillsCapped(t *testing.T) {
	n := NewNormalizer(nil, nil)

	list := make([]any, 0, 15)
	for i := 0; i < 15; i++ {
		list = append(list, "skill"+strings.Repeat("x", i))
	}

	job, _ := n.Normalize(RawRecord{"title": "T", "url": "https://example.com", "skills": list}, "s")
	if len(job.Skills) != MaxSkills {
		t.Fatalf("expected %d skills, got %d", MaxSkills, len(job.Skills))
	}
}

func TestIsRemoteText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		expect bool
	}{
		{text: "Remote, India", expect: true},
		{text: "Work From Home", expect: true},
		{text: "Anywhere", expect: true},
		{text: "hybrid - Pune", expect: true},
		{text: "Bengaluru", expect: false},
		{text: "Remotely-managed office", expect: false},
		{text: "", expect: false},
	}

	for _, tt := range tests {
		if got := isRemoteText(tt.text); got != tt.expect {
			t.Fatalf("isRemoteText(%q) = %v, expected %v", tt.text, got, tt.expect)
		}
	}
}

func TestLinkedInURLBecomesID(t *testing.T) {
	n := NewNormalizer(nil, nil)

	job, _ := n.Normalize(RawRecord{
		"title": "Data Engineer",
		"url":   "https://in.linkedin.com/jobs/view/data-engineer-at-acme-4012345678?refId=abc",
	}, "linkedin")

	if job.ID != "linkedin_4012345678" {
		t.Fatalf("unexpected id: %q", job.ID)
	}
	if job.ProviderID != "" {
		t.Fatalf("provider id must stay empty when the source did not supply one")
	}
}
