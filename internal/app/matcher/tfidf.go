package matcher

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/kljensen/snowball/english"
)

// tokenRe matches runs of two or more word characters.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// tokenize lowercases text and splits it into terms.
func tokenize(text string, stem bool) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	if !stem {
		return raw
	}
	for i, tok := range raw {
		raw[i] = english.Stem(tok, false)
	}
	return raw
}

// term is one non-zero vector component.
type term struct {
	idx int
	w   float64
}

// sparseVec holds non-zero components sorted by vocabulary index, so sums
// run in a fixed order and scores are reproducible bit for bit.
type sparseVec []term

// vectorizer holds the vocabulary and smoothed inverse document frequencies
// fitted on the corpus questions.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
	stem  bool
}

// fit learns the vocabulary and idf(t) = ln((1+n)/(1+df(t))) + 1.
func fit(docs []string, stem bool) *vectorizer {
	v := &vectorizer{vocab: make(map[string]int), stem: stem}
	var df []int

	for _, doc := range docs {
		seen := make(map[int]bool)
		for _, tok := range tokenize(doc, stem) {
			idx, ok := v.vocab[tok]
			if !ok {
				idx = len(df)
				v.vocab[tok] = idx
				df = append(df, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}

	n := float64(len(docs))
	v.idf = make([]float64, len(df))
	for i, d := range df {
		v.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return v
}

// transform returns the L2-normalized tf-idf vector of text.
// Terms outside the fitted vocabulary are ignored.
func (v *vectorizer) transform(text string) sparseVec {
	counts := make(map[int]float64)
	for _, tok := range tokenize(text, v.stem) {
		if idx, ok := v.vocab[tok]; ok {
			counts[idx]++
		}
	}

	vec := make(sparseVec, 0, len(counts))
	for idx, tf := range counts {
		vec = append(vec, term{idx: idx, w: tf * v.idf[idx]})
	}
	slices.SortFunc(vec, func(a, b term) int { return cmp.Compare(a.idx, b.idx) })

	var norm float64
	for _, t := range vec {
		norm += t.w * t.w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].w /= norm
	}
	return vec
}

// cosine of two L2-normalized vectors is their dot product.
func cosine(a, b sparseVec) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].idx == b[j].idx:
			dot += a[i].w * b[j].w
			i++
			j++
		case a[i].idx < b[j].idx:
			i++
		default:
			j++
		}
	}
	return dot
}
