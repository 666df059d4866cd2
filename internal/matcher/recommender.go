package matcher

import (
	"sort"

	"github.com/spigell/job-matcher/internal/jobs"
)

// ClusterCandidates returns scored copies of the batch jobs that share the
// query's cluster, skipping keys in exclude, sorted by score descending with
// batch order kept on ties. An unclustered model yields nothing.
func (m *Model) ClusterCandidates(q Query, exclude map[string]struct{}) []*jobs.Job {
	if !m.Clustered() || q.Empty() {
		return nil
	}

	qv := m.vectorizer.Transform(q.Profile())
	cluster := m.clusters.Predict(qv)

	out := make([]*jobs.Job, 0)
	for i, j := range m.batch {
		if m.clusters.Label(i) != cluster {
			continue
		}
		if _, skip := exclude[j.Key()]; skip {
			continue
		}
		out = append(out, j.WithScore(m.score(q, qv, m.vectors[i], j)))
	}

	SortByScore(out)
	return out
}

// Recommend returns at most top cluster candidates.
func (m *Model) Recommend(q Query, exclude map[string]struct{}, top int) []*jobs.Job {
	out := m.ClusterCandidates(q, exclude)
	if top >= 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// SortByScore stable sorts scored jobs by descending score.
func SortByScore(list []*jobs.Job) {
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].Score() > list[b].Score()
	})
}
