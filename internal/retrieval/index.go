// Package retrieval ranks historical solved cases by textual similarity to
// the query, in the same TF-IDF feature space the classifier scores in.
//
// The corpus is indexed once into an in-memory chromem-go collection and is
// immutable for the life of the process. Retrieval only runs on the trusted
// branch of the pipeline; anchoring a user to a nearest neighbour of a
// low-confidence guess is explicitly disallowed.
package retrieval

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/feature"
	"github.com/fyrsmithlabs/debugassist/internal/normalize"
)

// DefaultTopK is the default number of similar cases returned.
const DefaultTopK = 3

const collectionName = "debugassist_cases"

// Match pairs a corpus case with its similarity score.
type Match struct {
	Case  corpus.Case
	Score float64
}

// Index is an immutable similarity index over the corpus.
type Index struct {
	collection *chromem.Collection
	vectorizer *feature.Vectorizer
	cases      map[string]corpus.Case
	seq        map[string]int
	logger     *zap.Logger
}

// NewIndex embeds every corpus case into the fitted feature space and loads
// it into an in-memory vector collection. Cases whose normalized text has no
// in-vocabulary terms are skipped: they can never have positive similarity.
func NewIndex(ctx context.Context, cases []corpus.Case, vec *feature.Vectorizer, logger *zap.Logger) (*Index, error) {
	if vec == nil {
		return nil, fmt.Errorf("vectorizer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := chromem.NewDB()
	embedQuery := func(_ context.Context, text string) ([]float32, error) {
		return vec.Transform(text).Dense(vec.Dim()), nil
	}
	collection, err := db.CreateCollection(collectionName, nil, embedQuery)
	if err != nil {
		return nil, fmt.Errorf("creating case collection: %w", err)
	}

	ix := &Index{
		collection: collection,
		vectorizer: vec,
		cases:      make(map[string]corpus.Case, len(cases)),
		seq:        make(map[string]int, len(cases)),
		logger:     logger,
	}

	docs := make([]chromem.Document, 0, len(cases))
	skipped := 0
	for i, c := range cases {
		sparse := vec.Transform(normalize.Text(c.Text))
		if sparse.IsZero() {
			skipped++
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        c.ID,
			Content:   normalize.Text(c.Text),
			Embedding: sparse.Dense(vec.Dim()),
			Metadata: map[string]string{
				"family": string(c.Family),
				"seq":    strconv.Itoa(i),
			},
		})
		ix.cases[c.ID] = c
		ix.seq[c.ID] = i
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("indexing corpus: %w", err)
		}
	}

	logger.Info("similarity index built",
		zap.Int("cases", len(docs)),
		zap.Int("skipped", skipped),
		zap.Int("feature_dim", vec.Dim()),
	)

	return ix, nil
}

// Len returns the number of indexed cases.
func (ix *Index) Len() int {
	return ix.collection.Count()
}

// Similar returns the top-k cases by cosine similarity to the normalized
// query text, descending by score, ties broken by corpus insertion order.
// An empty corpus, a zero query vector or no positive-similarity case yields
// an empty result, never an error.
func (ix *Index) Similar(ctx context.Context, normText string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}

	query := ix.vectorizer.Transform(normText)
	if query.IsZero() {
		return nil, nil
	}

	// Over-fetch so equal scores at the k boundary can be re-broken by
	// insertion order before truncation.
	fetch := k * 3
	if fetch > count {
		fetch = count
	}

	results, err := ix.collection.QueryEmbedding(ctx, query.Dense(ix.vectorizer.Dim()), fetch, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying case collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if r.Similarity <= 0 {
			continue
		}
		c, ok := ix.cases[r.ID]
		if !ok {
			continue
		}
		matches = append(matches, Match{Case: c, Score: float64(r.Similarity)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return ix.seq[matches[i].Case.ID] < ix.seq[matches[j].Case.ID]
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
