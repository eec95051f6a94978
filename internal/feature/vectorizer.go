// Package feature implements the TF-IDF feature space shared by the
// statistical classifier and the similarity retriever.
//
// The fitted vectorizer is a training artifact: the exact vocabulary and IDF
// weights written by the trainer must be used at inference time. Any drift
// between training-time and inference-time feature extraction is a
// correctness bug, so Transform is pure and driven entirely by the loaded
// artifact state.
package feature

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/debugassist/internal/artifact"
)

// tokenRe extracts word tokens of at least two characters from normalized
// (lowercased) text.
var tokenRe = regexp.MustCompile(`[a-z0-9_]{2,}`)

// ErrEmptyVocabulary indicates fitting pruned every candidate term.
var ErrEmptyVocabulary = errors.New("empty vocabulary after pruning")

// Vector is a sparse feature vector. Indices are sorted ascending and values
// are L2-normalized by Transform.
type Vector struct {
	Indices []int
	Values  []float64
}

// Vectorizer is a fitted TF-IDF transform.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	NgramMin   int            `json:"ngram_min"`
	NgramMax   int            `json:"ngram_max"`
}

// FitOptions control vocabulary construction.
type FitOptions struct {
	// NgramMin/NgramMax bound the n-gram sizes extracted (inclusive).
	NgramMin int
	NgramMax int

	// MinDocCount prunes terms appearing in fewer documents.
	MinDocCount int

	// MaxDocRatio prunes terms appearing in more than this fraction of
	// documents.
	MaxDocRatio float64
}

// DefaultFitOptions mirror the training pipeline: unigrams and bigrams,
// terms in at least 2 documents and at most 95% of them.
func DefaultFitOptions() FitOptions {
	return FitOptions{NgramMin: 1, NgramMax: 2, MinDocCount: 2, MaxDocRatio: 0.95}
}

// analyze extracts the n-gram terms of one normalized document.
func analyze(text string, nmin, nmax int) []string {
	tokens := tokenRe.FindAllString(text, -1)
	if len(tokens) == 0 {
		return nil
	}
	var terms []string
	for n := nmin; n <= nmax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Fit learns a vocabulary and IDF weights from normalized documents.
func Fit(docs []string, opts FitOptions) (*Vectorizer, error) {
	if opts.NgramMin < 1 || opts.NgramMax < opts.NgramMin {
		return nil, fmt.Errorf("invalid ngram range [%d,%d]", opts.NgramMin, opts.NgramMax)
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents to fit")
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range analyze(doc, opts.NgramMin, opts.NgramMax) {
			seen[term] = struct{}{}
		}
		for term := range seen {
			df[term]++
		}
	}

	maxCount := len(docs)
	if opts.MaxDocRatio > 0 {
		maxCount = int(math.Floor(opts.MaxDocRatio * float64(len(docs))))
		if maxCount < 1 {
			maxCount = 1
		}
	}

	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count < opts.MinDocCount || count > maxCount {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// Sorted vocabulary keeps column assignment deterministic across fits.
	sort.Strings(kept)

	vocab := make(map[string]int, len(kept))
	idf := make([]float64, len(kept))
	n := float64(len(docs))
	for i, term := range kept {
		vocab[term] = i
		// Smoothed IDF, matching the training-time convention.
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return &Vectorizer{
		Vocabulary: vocab,
		IDF:        idf,
		NgramMin:   opts.NgramMin,
		NgramMax:   opts.NgramMax,
	}, nil
}

// Dim returns the dimensionality of the feature space.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform maps normalized text into the fitted feature space. Terms
// outside the vocabulary are ignored; an input with no known terms yields a
// zero vector (empty indices), never an error.
func (v *Vectorizer) Transform(normText string) Vector {
	counts := make(map[int]float64)
	for _, term := range analyze(normText, v.NgramMin, v.NgramMax) {
		if col, ok := v.Vocabulary[term]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(counts))
	for col := range counts {
		indices = append(indices, col)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, col := range indices {
		values[i] = counts[col] * v.IDF[col]
		norm += values[i] * values[i]
	}
	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}

	return Vector{Indices: indices, Values: values}
}

// Dense expands the vector into a dense float32 slice of the given
// dimensionality, the form the vector store expects.
func (vec Vector) Dense(dim int) []float32 {
	out := make([]float32, dim)
	for i, col := range vec.Indices {
		if col < dim {
			out[col] = float32(vec.Values[i])
		}
	}
	return out
}

// IsZero reports whether the vector has no non-zero components.
func (vec Vector) IsZero() bool {
	return len(vec.Indices) == 0
}

// Cosine computes cosine similarity between two L2-normalized sparse
// vectors. Zero vectors have similarity 0 with everything.
func Cosine(a, b Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Load reads a fitted vectorizer artifact.
func Load(path string) (*Vectorizer, error) {
	var v Vectorizer
	if err := artifact.LoadJSON(path, &v); err != nil {
		return nil, err
	}
	if len(v.Vocabulary) != len(v.IDF) {
		return nil, fmt.Errorf("corrupt vectorizer artifact: %d terms, %d idf weights",
			len(v.Vocabulary), len(v.IDF))
	}
	return &v, nil
}

// Save writes the fitted vectorizer artifact.
func (v *Vectorizer) Save(path string) error {
	return artifact.SaveJSON(path, v)
}
