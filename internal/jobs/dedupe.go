package jobs

import (
	"net/url"
	"strings"
)

// Dedupe collapses postings that share a title/company key, an explicit
// provider ID or a URL. Order is preserved and the first occurrence keeps its
// position; a later duplicate with strictly more filled fields replaces its content
// unless one of its keys already belongs to another output. Paraphrased titles
// are not merged.
func Dedupe(in []*Job) []*Job {
	out := make([]*Job, 0, len(in))
	index := make(map[string]int, len(in)*2)

	for _, job := range in {
		if job == nil {
			continue
		}

		keys := dedupeKeys(job)

		pos, found := -1, false
		for _, key := range keys {
			if p, ok := index[key]; ok {
				pos, found = p, true
				break
			}
		}

		if !found {
			pos = len(out)
			out = append(out, job)
		} else if job.Richness() > out[pos].Richness() && ownsKeys(index, keys, pos) {
			out[pos] = job
		}

		for _, key := range keys {
			if _, ok := index[key]; !ok {
				index[key] = pos
			}
		}
	}

	return out
}

// ownsKeys reports whether none of keys is indexed at a position other than pos.
func ownsKeys(index map[string]int, keys []string, pos int) bool {
	for _, key := range keys {
		if p, ok := index[key]; ok && p != pos {
			return false
		}
	}
	return true
}

func dedupeKeys(job *Job) []string {
	keys := []string{"tc:" + job.TitleCompanyKey()}
	if job.ProviderID != "" {
		keys = append(keys, "id:"+providerKey(job.Source, job.ProviderID))
	}
	if u := canonicalURL(job.URL); u != "" {
		keys = append(keys, "url:"+u)
	}
	return keys
}

// canonicalURL drops the scheme, the fragment and trailing slashes.
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	canonical := strings.ToLower(parsed.Host) + strings.TrimRight(parsed.Path, "/")
	if parsed.RawQuery != "" {
		canonical += "?" + parsed.RawQuery
	}
	return canonical
}
