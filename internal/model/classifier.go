// Package model wraps the fitted classifier artifact behind the pipeline's
// statistical fallback contract: normalized text in, a full probability
// distribution over the declared families out.
package model

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/debugassist/internal/artifact"
	"github.com/fyrsmithlabs/debugassist/internal/feature"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// Classifier is a fitted multinomial logistic regression artifact. Weights
// are row-per-class over the vectorizer's feature space.
type Classifier struct {
	Classes    []family.Family `json:"classes"`
	Weights    [][]float64     `json:"weights"`
	Intercepts []float64       `json:"intercepts"`
}

// LoadClassifier reads and validates a classifier artifact.
func LoadClassifier(path string) (*Classifier, error) {
	var c Classifier
	if err := artifact.LoadJSON(path, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("corrupt classifier artifact %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the classifier artifact.
func (c *Classifier) Save(path string) error {
	if err := c.validate(); err != nil {
		return err
	}
	return artifact.SaveJSON(path, c)
}

func (c *Classifier) validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(c.Weights) != len(c.Classes) || len(c.Intercepts) != len(c.Classes) {
		return fmt.Errorf("class count mismatch: %d classes, %d weight rows, %d intercepts",
			len(c.Classes), len(c.Weights), len(c.Intercepts))
	}
	seen := make(map[family.Family]struct{}, len(c.Classes))
	for _, f := range c.Classes {
		if !family.Valid(f) {
			return fmt.Errorf("undeclared class %q", f)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate class %q", f)
		}
		seen[f] = struct{}{}
	}
	for i := 1; i < len(c.Weights); i++ {
		if len(c.Weights[i]) != len(c.Weights[0]) {
			return fmt.Errorf("ragged weight rows")
		}
	}
	return nil
}

// Dim returns the feature dimensionality the classifier was trained against.
func (c *Classifier) Dim() int {
	if len(c.Weights) == 0 {
		return 0
	}
	return len(c.Weights[0])
}

// Proba computes softmax class probabilities for one feature vector,
// ordered as c.Classes.
func (c *Classifier) Proba(vec feature.Vector) []float64 {
	scores := make([]float64, len(c.Classes))
	for k := range c.Classes {
		s := c.Intercepts[k]
		row := c.Weights[k]
		for i, col := range vec.Indices {
			s += row[col] * vec.Values[i]
		}
		scores[k] = s
	}

	// Softmax with max-shift for numerical stability.
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for k, s := range scores {
		scores[k] = math.Exp(s - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores
}

// Adapter binds the fitted vectorizer and classifier into one inference
// step. The pair must come from the same training run; NewAdapter enforces
// the dimensionality part of that invariant.
type Adapter struct {
	vectorizer *feature.Vectorizer
	classifier *Classifier
}

// NewAdapter validates that the artifacts share a feature space and returns
// the bound adapter.
func NewAdapter(vec *feature.Vectorizer, clf *Classifier) (*Adapter, error) {
	if vec == nil || clf == nil {
		return nil, fmt.Errorf("%w: vectorizer and classifier are required", artifact.ErrMissing)
	}
	if clf.Dim() != vec.Dim() {
		return nil, fmt.Errorf("feature space mismatch: vectorizer dim %d, classifier dim %d",
			vec.Dim(), clf.Dim())
	}
	return &Adapter{vectorizer: vec, classifier: clf}, nil
}

// Distribution classifies normalized text and returns a probability per
// declared family, indexed by family declaration order and summing to 1 (up
// to floating-point tolerance). Families absent from the trained class set
// receive probability 0.
func (a *Adapter) Distribution(normText string) []float64 {
	vec := a.vectorizer.Transform(normText)
	proba := a.classifier.Proba(vec)

	dist := make([]float64, family.Count())
	for k, f := range a.classifier.Classes {
		dist[family.Index(f)] = proba[k]
	}
	return dist
}

// Vectorizer exposes the shared feature transform for the retriever, which
// must rank cases in the same space the classifier scores in.
func (a *Adapter) Vectorizer() *feature.Vectorizer {
	return a.vectorizer
}
