// Package training fits the TF-IDF feature space and the multinomial
// logistic classifier from a labeled corpus, and writes both as JSON
// artifacts the serving pipeline loads at startup.
package training

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/feature"
	"github.com/fyrsmithlabs/debugassist/internal/model"
	"github.com/fyrsmithlabs/debugassist/internal/normalize"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// Options control a training run.
type Options struct {
	// Epochs of full-batch gradient descent.
	Epochs int

	// LearningRate for the gradient step.
	LearningRate float64

	// L2 regularization strength applied to weights, not intercepts.
	L2 float64

	// HoldoutRatio of rows reserved for evaluation. Zero disables the
	// hold-out report and trains on everything.
	HoldoutRatio float64

	// Seed drives the train/eval shuffle.
	Seed int64

	// Fit options for the vectorizer.
	Fit feature.FitOptions
}

// DefaultOptions mirror the settings the artifacts ship with.
func DefaultOptions() Options {
	return Options{
		Epochs:       300,
		LearningRate: 0.5,
		L2:           1e-4,
		HoldoutRatio: 0.2,
		Seed:         42,
		Fit:          feature.DefaultFitOptions(),
	}
}

// Report summarizes a finished run.
type Report struct {
	TrainRows  int
	EvalRows   int
	FeatureDim int
	MacroF1    float64

	// PerFamily F1 on the hold-out set, indexed by family declaration
	// order. Empty when HoldoutRatio is zero.
	PerFamily []float64
}

// ErrTooFewCases indicates the corpus cannot support a train run.
var ErrTooFewCases = errors.New("corpus too small to train on")

// Train fits a vectorizer and classifier on the corpus. Rows are normalized
// before fitting so the model scores in the same space the pipeline queries.
func Train(cases []corpus.Case, opts Options, logger *zap.Logger) (*feature.Vectorizer, *model.Classifier, *Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cases) < 2*family.Count() {
		return nil, nil, nil, fmt.Errorf("%w: have %d rows, need at least %d",
			ErrTooFewCases, len(cases), 2*family.Count())
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		return nil, nil, nil, fmt.Errorf("epochs and learning rate must be positive")
	}
	if opts.HoldoutRatio < 0 || opts.HoldoutRatio >= 1 {
		return nil, nil, nil, fmt.Errorf("holdout ratio must be in [0, 1)")
	}

	texts := make([]string, len(cases))
	labels := make([]int, len(cases))
	for i, c := range cases {
		texts[i] = normalize.Text(c.Text)
		labels[i] = family.Index(c.Family)
	}

	r := rand.New(rand.NewSource(opts.Seed))
	order := r.Perm(len(cases))
	nEval := int(float64(len(cases)) * opts.HoldoutRatio)
	evalIdx := order[:nEval]
	trainIdx := order[nEval:]

	trainTexts := make([]string, len(trainIdx))
	for i, j := range trainIdx {
		trainTexts[i] = texts[j]
	}

	vec, err := feature.Fit(trainTexts, opts.Fit)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fitting vectorizer: %w", err)
	}

	trainVecs := make([]feature.Vector, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for i, j := range trainIdx {
		trainVecs[i] = vec.Transform(texts[j])
		trainLabels[i] = labels[j]
	}

	clf := fit(trainVecs, trainLabels, vec.Dim(), opts)

	report := &Report{
		TrainRows:  len(trainIdx),
		EvalRows:   len(evalIdx),
		FeatureDim: vec.Dim(),
	}
	if nEval > 0 {
		evalVecs := make([]feature.Vector, len(evalIdx))
		evalLabels := make([]int, len(evalIdx))
		for i, j := range evalIdx {
			evalVecs[i] = vec.Transform(texts[j])
			evalLabels[i] = labels[j]
		}
		report.PerFamily, report.MacroF1 = evaluate(clf, evalVecs, evalLabels)
	}

	logger.Info("training finished",
		zap.Int("train_rows", report.TrainRows),
		zap.Int("eval_rows", report.EvalRows),
		zap.Int("feature_dim", report.FeatureDim),
		zap.Float64("macro_f1", report.MacroF1),
	)

	return vec, clf, report, nil
}

// fit runs full-batch softmax regression with balanced class weights, so
// over-represented families do not dominate the gradient.
func fit(vecs []feature.Vector, labels []int, dim int, opts Options) *model.Classifier {
	k := family.Count()
	n := len(vecs)

	classCounts := make([]float64, k)
	for _, y := range labels {
		classCounts[y]++
	}
	classWeight := make([]float64, k)
	for c := range classWeight {
		if classCounts[c] > 0 {
			classWeight[c] = float64(n) / (float64(k) * classCounts[c])
		}
	}

	weights := make([][]float64, k)
	for c := range weights {
		weights[c] = make([]float64, dim)
	}
	intercepts := make([]float64, k)

	scores := make([]float64, k)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		gradW := make([][]float64, k)
		for c := range gradW {
			gradW[c] = make([]float64, dim)
		}
		gradB := make([]float64, k)

		for i, x := range vecs {
			y := labels[i]
			w := classWeight[y]

			for c := 0; c < k; c++ {
				s := intercepts[c]
				for p, idx := range x.Indices {
					s += weights[c][idx] * x.Values[p]
				}
				scores[c] = s
			}
			softmaxInPlace(scores)

			for c := 0; c < k; c++ {
				delta := scores[c]
				if c == y {
					delta -= 1
				}
				delta *= w
				gradB[c] += delta
				for p, idx := range x.Indices {
					gradW[c][idx] += delta * x.Values[p]
				}
			}
		}

		step := opts.LearningRate / float64(n)
		for c := 0; c < k; c++ {
			intercepts[c] -= step * gradB[c]
			for j := 0; j < dim; j++ {
				weights[c][j] -= step * (gradW[c][j] + opts.L2*weights[c][j])
			}
		}
	}

	return &model.Classifier{
		Classes:    family.All(),
		Weights:    weights,
		Intercepts: intercepts,
	}
}

func softmaxInPlace(scores []float64) {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	for i, s := range scores {
		e := math.Exp(s - max)
		scores[i] = e
		sum += e
	}
	for i := range scores {
		scores[i] /= sum
	}
}

// evaluate computes per-family F1 and its unweighted mean on the hold-out
// rows. Families absent from the hold-out set score zero, matching a
// conservative macro average.
func evaluate(clf *model.Classifier, vecs []feature.Vector, labels []int) ([]float64, float64) {
	k := family.Count()
	tp := make([]float64, k)
	fp := make([]float64, k)
	fn := make([]float64, k)

	for i, x := range vecs {
		pred := argmax(clf.Proba(x))
		if pred == labels[i] {
			tp[pred]++
		} else {
			fp[pred]++
			fn[labels[i]]++
		}
	}

	f1 := make([]float64, k)
	var sum float64
	for c := 0; c < k; c++ {
		denom := 2*tp[c] + fp[c] + fn[c]
		if denom > 0 {
			f1[c] = 2 * tp[c] / denom
		}
		sum += f1[c]
	}
	return f1, sum / float64(k)
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
