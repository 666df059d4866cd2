package matcher

import (
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	AlgorithmClustered = "tfidf+kmeans"
	AlgorithmTFIDF     = "tfidf"
	AlgorithmFallback  = "containment"
)

// Config holds scoring and clustering parameters.
type Config struct {
	MaxFeatures     int     `mapstructure:"max-features"`
	SkillBoost      float64 `mapstructure:"skill-boost"`
	MinClusterBatch int     `mapstructure:"min-cluster-batch"`
	MaxClusters     int     `mapstructure:"max-clusters"`
	JobsPerCluster  int     `mapstructure:"jobs-per-cluster"`
	MaxIterations   int     `mapstructure:"max-iterations"`
	Tolerance       float64 `mapstructure:"tolerance"`
	Seed            uint64  `mapstructure:"seed"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxFeatures:     1000,
		SkillBoost:      0.2,
		MinClusterBatch: 10,
		MaxClusters:     8,
		JobsPerCluster:  5,
		MaxIterations:   300,
		Tolerance:       1e-4,
		Seed:            42,
	}
}

// withDefaults fills zero values, so a partially set config stays usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = d.MaxFeatures
	}
	if c.SkillBoost <= 0 {
		c.SkillBoost = d.SkillBoost
	}
	if c.MinClusterBatch <= 0 {
		c.MinClusterBatch = d.MinClusterBatch
	}
	if c.MaxClusters <= 0 {
		c.MaxClusters = d.MaxClusters
	}
	if c.JobsPerCluster <= 0 {
		c.JobsPerCluster = d.JobsPerCluster
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// Model is fitted on one batch of jobs. It is never shared between batches.
type Model struct {
	cfg        Config
	batch      []*jobs.Job
	vectorizer *Vectorizer
	vectors    []Vector
	clusters   *KMeans
	err        error
}

// Fit builds the TF-IDF model over batch and, when the batch is large
// enough, clusters it. Fit never fails: a degenerate batch yields a model
// in fallback mode, see Err.
func Fit(batch []*jobs.Job, cfg Config) *Model {
	cfg = cfg.withDefaults()
	m := &Model{cfg: cfg, batch: batch}

	docs := make([]string, len(batch))
	for i, j := range batch {
		docs[i] = Profile(j)
	}

	m.vectorizer, m.vectors, m.err = FitVectorizer(docs, cfg.MaxFeatures)
	if m.err != nil {
		return m
	}

	if len(batch) > cfg.MinClusterBatch {
		k := min(cfg.MaxClusters, len(batch)/cfg.JobsPerCluster)
		m.clusters = fitKMeans(m.vectors, kmeansParams{
			k:         max(1, k),
			dims:      m.vectorizer.Features(),
			maxIter:   cfg.MaxIterations,
			tolerance: cfg.Tolerance,
			seed:      cfg.Seed,
		})
	}

	return m
}

// Err returns the vectorization error that put the model in fallback mode.
func (m *Model) Err() error {
	return m.err
}

// Fallback reports whether scores come from the containment scorer.
func (m *Model) Fallback() bool {
	return m.err != nil
}

// Clustered reports whether recommendations are available.
func (m *Model) Clustered() bool {
	return m.clusters != nil
}

// Clusters returns the number of clusters, 0 when unfitted.
func (m *Model) Clusters() int {
	if m.clusters == nil {
		return 0
	}
	return m.clusters.K()
}

// Algorithm names the scoring path in use.
func (m *Model) Algorithm() string {
	switch {
	case m.Fallback():
		return AlgorithmFallback
	case m.Clustered():
		return AlgorithmClustered
	default:
		return AlgorithmTFIDF
	}
}

// Profile is the document text of a job.
func Profile(j *jobs.Job) string {
	return strings.Join([]string{
		j.Title,
		j.Company,
		strings.Join(j.Skills, " "),
		j.Description,
	}, " ")
}
