package ranking

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matcher"
)

// ErrNoSkills is reported when the skill query has no usable terms.
var ErrNoSkills = errors.New("no skills provided")

// Config controls how scored jobs are split into matches and recommendations.
type Config struct {
	MatchThreshold     float64        `mapstructure:"match-threshold"`
	MaxMatches         int            `mapstructure:"max-matches"`
	MaxRecommendations int            `mapstructure:"max-recommendations"`
	Model              matcher.Config `mapstructure:"model"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:     0.3,
		MaxMatches:         15,
		MaxRecommendations: 10,
		Model:              matcher.DefaultConfig(),
	}
}

// Result is the outcome of one ranking run.
type Result struct {
	RunID           string      `json:"run_id"`
	Skills          []string    `json:"skills"`
	Matches         []*jobs.Job `json:"direct_matches"`
	Recommendations []*jobs.Job `json:"recommendations"`
	TotalJobs       int         `json:"total_jobs_found"`
	Dropped         int         `json:"dropped_records"`
	Algorithm       string      `json:"algorithm,omitempty"`
	Fallback        bool        `json:"fallback"`
	NoInput         bool        `json:"no_input,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Batch holds the raw records of one source.
type Batch struct {
	Source  string
	Records []jobs.RawRecord
}

// Ranker runs the ranking pipeline. It keeps no state between runs.
type Ranker struct {
	cfg        Config
	normalizer *jobs.Normalizer
	logger     *zap.Logger
}

// New creates a ranker. A nil normalizer uses the default skill vocabulary.
func New(cfg Config, normalizer *jobs.Normalizer, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = jobs.NewNormalizer(nil, log)
	}
	return &Ranker{cfg: cfg, normalizer: normalizer, logger: log}
}

// Prepare normalizes and deduplicates batches in the given order.
// It returns the candidate jobs and the number of dropped records.
func (r *Ranker) Prepare(batches ...Batch) ([]*jobs.Job, int) {
	all := make([]*jobs.Job, 0)
	dropped := 0
	for _, b := range batches {
		list, n := r.normalizer.NormalizeAll(b.Records, b.Source)
		all = append(all, list...)
		dropped += n
	}

	deduped := jobs.Dedupe(all)
	r.logger.Debug("prepared candidate batch",
		zap.Int("normalized", len(all)),
		zap.Int("dropped", dropped),
		zap.Int("duplicates", len(all)-len(deduped)),
	)

	return deduped, dropped
}

// RankRecords normalizes, deduplicates and ranks raw records.
// Records name their source in the "source" field.
func (r *Ranker) RankRecords(skillsText string, records []jobs.RawRecord) *Result {
	batch, dropped := r.Prepare(Batch{Records: records})
	res := r.Rank(skillsText, batch)
	res.Dropped = dropped
	return res
}

// Rank scores an already prepared batch against the skill query.
func (r *Ranker) Rank(skillsText string, batch []*jobs.Job) *Result {
	res := &Result{
		RunID:           uuid.NewString(),
		Matches:         []*jobs.Job{},
		Recommendations: []*jobs.Job{},
	}
	log := logger.WithFields(r.logger, logger.RunFields(res.RunID, skillsText)...)

	res.Skills = matcher.ParseTerms(skillsText)
	if len(res.Skills) == 0 {
		res.NoInput = true
		res.Error = ErrNoSkills.Error()
		log.Info("skipping ranking", zap.Error(ErrNoSkills))
		return res
	}

	res.TotalJobs = len(batch)
	if len(batch) == 0 {
		log.Info("no candidate jobs to rank")
		return res
	}

	model := matcher.Fit(batch, r.cfg.Model)
	res.Algorithm = model.Algorithm()
	res.Fallback = model.Fallback()
	if model.Fallback() {
		log.Warn("vectorization failed, using containment scores", zap.Error(model.Err()))
	}

	q := matcher.NewQuery(res.Skills)
	scored := model.ScoreAll(q)
	matcher.SortByScore(scored)

	above := 0
	for above < len(scored) && scored[above].Score() > r.cfg.MatchThreshold {
		above++
	}

	limit := min(above, max(r.cfg.MaxMatches, 0))
	res.Matches = append(res.Matches, scored[:limit]...)

	exclude := jobs.New(res.Matches).Keys()
	overflow := scored[limit:above]
	res.Recommendations = r.recommend(overflow, model.ClusterCandidates(q, exclude), exclude)

	log.Info("ranked jobs",
		zap.Int("total", res.TotalJobs),
		zap.Int("above_threshold", above),
		zap.Int("matches", len(res.Matches)),
		zap.Int("recommendations", len(res.Recommendations)),
		zap.Int("clusters", model.Clusters()),
		zap.String("algorithm", res.Algorithm),
	)

	return res
}

// recommend merges above-threshold overflow with cluster neighbours,
// skipping direct matches and repeated keys.
func (r *Ranker) recommend(overflow, cluster []*jobs.Job, exclude map[string]struct{}) []*jobs.Job {
	seen := make(map[string]struct{}, len(exclude))
	for k := range exclude {
		seen[k] = struct{}{}
	}

	out := make([]*jobs.Job, 0, len(overflow)+len(cluster))
	for _, list := range [][]*jobs.Job{overflow, cluster} {
		for _, j := range list {
			key := j.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, j)
		}
	}

	matcher.SortByScore(out)
	if limit := max(r.cfg.MaxRecommendations, 0); len(out) > limit {
		out = out[:limit]
	}
	return out
}
