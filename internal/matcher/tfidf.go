package matcher

import (
	"errors"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/spigell/job-matcher/internal/textutil"
)

// ErrEmptyVocabulary is returned when no document of the batch yields a term.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or nothing at all")

// Vectorizer maps documents to L2 normalized TF-IDF vectors over a
// vocabulary learned from one batch.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// FitVectorizer learns the vocabulary and the inverse document frequencies
// of docs and returns the vectors of docs in the same order.
// Only the maxFeatures most frequent terms are kept; ties are broken by term.
func FitVectorizer(docs []string, maxFeatures int) (*Vectorizer, []Vector, error) {
	analyzed := make([][]string, len(docs))
	total := make(map[string]int)
	df := make(map[string]int)

	for i, doc := range docs {
		terms := analyze(doc)
		analyzed[i] = terms

		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			total[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	if len(total) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}

	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.vocabulary[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, a := range analyzed {
		vectors[i] = v.vectorize(a)
	}

	return v, vectors, nil
}

// Features returns the number of terms in the vocabulary.
func (v *Vectorizer) Features() int {
	return len(v.idf)
}

// Transform vectorizes a document with the fitted vocabulary.
// Terms unknown to the vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	return v.vectorize(analyze(doc))
}

func (v *Vectorizer) vectorize(terms []string) Vector {
	counts := make(map[int]float64)
	for _, t := range terms {
		if idx, ok := v.vocabulary[t]; ok {
			counts[idx]++
		}
	}

	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.idf[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}

	return vec
}

// analyze turns a document into unigrams and bigrams. Stop words are
// removed before bigrams are formed.
func analyze(doc string) []string {
	words := make([]string, 0)
	for _, tok := range textutil.Tokens(textutil.Normalize(doc)) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		words = append(words, tok)
	}

	if len(words) == 0 {
		return nil
	}

	terms := make([]string, 0, 2*len(words)-1)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}

	return terms
}
