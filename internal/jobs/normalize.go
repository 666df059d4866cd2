package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/skills"
	"github.com/spigell/job-matcher/internal/textutil"
)

// Field aliases in priority order: the first non-empty one wins.
var (
	urlFields         = []string{"job_url", "url", "link", "job_link", "apply_link", "alternate_url"}
	idFields          = []string{"job_id", "id"}
	titleFields       = []string{"title", "job_title", "name", "position"}
	companyFields     = []string{"company_name", "company", "employer_name", "employer"}
	locationFields    = []string{"location", "job_location", "area", "city"}
	descriptionFields = []string{"description", "job_description", "snippet", "summary"}
	salaryFields      = []string{"salary", "salary_range"}
	postedFields      = []string{"posted_time", "posted_date", "posted_at", "published_at"}
	scheduleFields    = []string{"employment_type", "job_type", "schedule_type", "schedule"}
	levelFields       = []string{"seniority_level", "experience_level"}
	experienceFields  = []string{"experience", "experience_level"}
	skillFields       = []string{"skills", "required_skills", "key_skills", "qualifications"}
	remoteFlagFields  = []string{"remote", "is_remote"}
	workplaceFields   = []string{"workplace_type", "work_type"}
	logoFields        = []string{"company_logo", "logo_url"}
	nestedNameFields  = []string{"name", "display_name", "title"}
)

var remoteTokens = []string{"remote", "work from home", "hybrid", "anywhere"}

var linkedInIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/jobs/view/(?:[^/?]*-)?(\d+)`),
	regexp.MustCompile(`currentJobId=(\d+)`),
}

// Normalizer maps raw source records onto Job.
type Normalizer struct {
	extractor *skills.Extractor
	logger    *zap.Logger
}

// NewNormalizer creates a normalizer. Nil arguments fall back to defaults.
func NewNormalizer(extractor *skills.Extractor, logger *zap.Logger) *Normalizer {
	if extractor == nil {
		extractor = skills.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{extractor: extractor, logger: logger}
}

// NormalizeAll normalizes a batch from one source and returns the jobs kept
// together with the number of dropped records.
func (n *Normalizer) NormalizeAll(records []RawRecord, source string) ([]*Job, int) {
	out := make([]*Job, 0, len(records))
	dropped := 0
	for idx, raw := range records {
		job, ok := n.Normalize(raw, source)
		if !ok {
			dropped++
			n.logger.Debug("dropping record without title or url",
				zap.String("source", source),
				zap.Int("index", idx),
			)
			continue
		}
		out = append(out, job)
	}
	return out, dropped
}

// Normalize converts one record. It returns false when the record has no
// resolvable URL or title; such records are never surfaced.
func (n *Normalizer) Normalize(raw RawRecord, source string) (*Job, bool) {
	if raw == nil {
		return nil, false
	}

	link := firstString(raw, urlFields)
	title := firstString(raw, titleFields)
	if link == "" || title == "" {
		return nil, false
	}

	if source = strings.TrimSpace(source); source == "" {
		source = orDefault(firstString(raw, []string{"source"}), "unknown")
	}

	location := orDefault(firstString(raw, locationFields), Unknown)
	description := textutil.Truncate(firstString(raw, descriptionFields), MaxDescriptionRune)

	job := &Job{
		ProviderID:      firstString(raw, idFields),
		Title:           title,
		Company:         orDefault(firstString(raw, companyFields), Unknown),
		Location:        location,
		Description:     description,
		ApplyLink:       link,
		URL:             link,
		Salary:          orDefault(firstString(raw, salaryFields), DefaultSalary),
		Experience:      orDefault(firstString(raw, experienceFields), Unknown),
		ExperienceLevel: orDefault(firstString(raw, levelFields), Unknown),
		ScheduleType:    orDefault(firstString(raw, scheduleFields), DefaultSchedule),
		PostedDate:      orDefault(firstString(raw, postedFields), DefaultPostedDate),
		CompanyLogo:     firstString(raw, logoFields),
		Source:          source,
	}

	job.IsRemote = firstBool(raw, remoteFlagFields) || isRemoteText(location+" "+firstString(raw, workplaceFields))

	job.Skills = providedSkills(raw)
	if len(job.Skills) == 0 {
		job.Skills = n.extractor.ExtractN(title+" "+description, MaxSkills)
	}

	job.ID = buildID(source, job.ProviderID, link, job.TitleCompanyKey())

	return job, true
}

func buildID(source, providerID, link, titleCompany string) string {
	prefix := strings.ToLower(source)
	if providerID != "" {
		return prefix + "_" + providerID
	}
	for _, re := range linkedInIDPatterns {
		if m := re.FindStringSubmatch(link); len(m) == 2 {
			return prefix + "_" + m[1]
		}
	}
	sum := sha256.Sum256([]byte(titleCompany))
	return prefix + "_" + hex.EncodeToString(sum[:])[:12]
}

func isRemoteText(text string) bool {
	normalized := textutil.Normalize(text)
	for _, token := range remoteTokens {
		if textutil.ContainsPhrase(normalized, token) {
			return true
		}
	}
	return false
}

// providedSkills reads an explicit skills field: a comma separated string or a
// list of strings or {name: ...} objects. Duplicates are removed case-insensitively.
func providedSkills(raw RawRecord) []string {
	var values []string
	for _, field := range skillFields {
		v, ok := raw[field]
		if !ok || v == nil {
			continue
		}
		values = skillValues(v)
		if len(values) > 0 {
			break
		}
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, part)
			if len(out) == MaxSkills {
				return out
			}
		}
	}
	return out
}

func skillValues(v any) []string {
	switch typed := v.(type) {
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		var out []string
		if err := mapstructure.WeakDecode(v, &out); err != nil {
			return nil
		}
		return out
	}
}

func firstString(raw RawRecord, fields []string) string {
	for _, field := range fields {
		if s := stringValue(raw[field]); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(raw RawRecord, fields []string) bool {
	for _, field := range fields {
		v, ok := raw[field]
		if !ok || v == nil {
			continue
		}
		var flag bool
		if err := mapstructure.WeakDecode(v, &flag); err == nil && flag {
			return true
		}
	}
	return false
}

// stringValue coerces scalars to strings and reads the name of nested objects
// such as {"employer": {"name": "Acme"}}.
func stringValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		for _, key := range nestedNameFields {
			if s := stringValue(typed[key]); s != "" {
				return s
			}
		}
		return ""
	case []any:
		return ""
	default:
		var s string
		if err := mapstructure.WeakDecode(v, &s); err != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
		return strings.TrimSpace(s)
	}
}

func orDefault(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
