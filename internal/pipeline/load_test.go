package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debugassist/internal/artifact"
	"github.com/fyrsmithlabs/debugassist/internal/config"
	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/feature"
	"github.com/fyrsmithlabs/debugassist/internal/training"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// loadFixture trains real artifacts into a temp dir and returns a config
// pointing at them.
func loadFixture(t *testing.T, withCorpus bool) *config.Config {
	t.Helper()
	dir := t.TempDir()

	var cases []corpus.Case
	i := 0
	for _, f := range family.All() {
		for rep := 0; rep < 4; rep++ {
			cases = append(cases, corpus.Case{
				ID:     fmt.Sprintf("case_%d", i),
				Text:   string(f) + " marker text sample",
				Family: f,
				Fix:    "see checklist",
			})
			i++
		}
	}

	opts := training.DefaultOptions()
	opts.Epochs = 50
	opts.HoldoutRatio = 0
	opts.Fit = feature.FitOptions{NgramMin: 1, NgramMax: 1, MinDocCount: 1, MaxDocRatio: 1.0}
	vec, clf, _, err := training.Train(cases, opts, nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Artifacts.Vectorizer = filepath.Join(dir, "tfidf.json")
	cfg.Artifacts.Classifier = filepath.Join(dir, "classifier.json")
	cfg.Artifacts.Corpus = filepath.Join(dir, "cases.csv")

	require.NoError(t, vec.Save(cfg.Artifacts.Vectorizer))
	require.NoError(t, clf.Save(cfg.Artifacts.Classifier))
	if withCorpus {
		require.NoError(t, corpus.WriteCases(cfg.Artifacts.Corpus, cases))
	}
	return cfg
}

func TestLoadAndClassifyEndToEnd(t *testing.T) {
	cfg := loadFixture(t, true)

	svc, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	res, err := svc.Classify(context.Background(), "ZeroDivisionError: division by zero")
	require.NoError(t, err)
	assert.True(t, res.Focused)
	require.NotNil(t, res.Prediction)
	assert.Equal(t, family.ZeroDivision, res.Prediction.Family)
}

func TestLoadToleratesMissingCorpus(t *testing.T) {
	cfg := loadFixture(t, false)

	svc, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	res, err := svc.Classify(context.Background(), "KeyError: 'user_id'")
	require.NoError(t, err)
	assert.True(t, res.Focused)
	assert.Empty(t, res.SimilarCases)
}

func TestLoadFailsOnMissingModelArtifacts(t *testing.T) {
	cfg := loadFixture(t, true)
	cfg.Artifacts.Classifier = filepath.Join(t.TempDir(), "nope.json")

	_, err := Load(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, artifact.ErrMissing)
}
