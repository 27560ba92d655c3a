// Package matcher finds the corpus question most similar to free text.
// Questions are embedded once with TF-IDF; a query is scored by cosine
// similarity against every question and the best entry wins.
package matcher

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// Option configures an Index.
type Option func(*Index)

// WithMinSimilarity rejects best matches scoring below t with
// ErrNoConfidentMatch. Zero (the default) always returns a match.
func WithMinSimilarity(t float64) Option {
	return func(ix *Index) { ix.minSimilarity = t }
}

// WithStemming toggles English stemming of terms (on by default), so
// "interviews" and "interview" share a term.
func WithStemming(on bool) Option {
	return func(ix *Index) { ix.stem = on }
}

// Index is the similarity index over an immutable corpus.
// It is read-only after Build and safe for concurrent use.
type Index struct {
	entries       []domain.CorpusEntry
	vec           *vectorizer
	docs          []sparseVec
	minSimilarity float64
	stem          bool
}

// Build fits the index on the corpus questions.
func Build(corpus []domain.CorpusEntry, opts ...Option) (*Index, error) {
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	ix := &Index{
		entries: slices.Clone(corpus),
		stem:    true,
	}
	for _, opt := range opts {
		opt(ix)
	}

	questions := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		questions[i] = e.Question
	}
	ix.vec = fit(questions, ix.stem)
	ix.docs = make([]sparseVec, len(questions))
	for i, q := range questions {
		ix.docs[i] = ix.vec.transform(q)
	}

	metrics.CorpusEntries.Set(float64(len(ix.entries)))
	return ix, nil
}

// Len returns the number of corpus entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// VocabularySize returns the number of distinct fitted terms.
func (ix *Index) VocabularySize() int {
	return len(ix.vec.vocab)
}

// FindBestMatch returns the entry whose question is most similar to query.
// Ties go to the lowest index. When nothing overlaps, every score is zero and
// entry 0 is returned unless a minimum similarity is configured.
func (ix *Index) FindBestMatch(query string) (domain.Match, error) {
	scores := ix.score(query)

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	metrics.MatchScore.Observe(scores[best])
	if ix.minSimilarity > 0 && scores[best] < ix.minSimilarity {
		metrics.MatcherQueries.WithLabelValues("low_confidence").Inc()
		return domain.Match{}, fmt.Errorf("best score %.3f below %.3f: %w",
			scores[best], ix.minSimilarity, domain.ErrNoConfidentMatch)
	}
	metrics.MatcherQueries.WithLabelValues("matched").Inc()
	return ix.match(best, scores[best]), nil
}

// TopMatches returns up to k entries ordered by score descending, then index.
// The minimum similarity does not apply.
func (ix *Index) TopMatches(query string, k int) []domain.Match {
	if k <= 0 {
		return nil
	}
	scores := ix.score(query)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	if k > len(order) {
		k = len(order)
	}

	out := make([]domain.Match, k)
	for i, idx := range order[:k] {
		out[i] = ix.match(idx, scores[idx])
	}
	return out
}

func (ix *Index) score(query string) []float64 {
	q := ix.vec.transform(query)
	scores := make([]float64, len(ix.docs))
	for i, d := range ix.docs {
		scores[i] = cosine(q, d)
	}
	return scores
}

func (ix *Index) match(i int, score float64) domain.Match {
	return domain.Match{
		Index:    i,
		Question: ix.entries[i].Question,
		Answer:   ix.entries[i].Answer,
		Score:    score,
	}
}
