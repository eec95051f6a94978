package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debugassist/internal/artifact"
	"github.com/fyrsmithlabs/debugassist/internal/config"
	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/feature"
	"github.com/fyrsmithlabs/debugassist/internal/model"
	"github.com/fyrsmithlabs/debugassist/internal/playbook"
	"github.com/fyrsmithlabs/debugassist/internal/policy"
	"github.com/fyrsmithlabs/debugassist/internal/retrieval"
	"github.com/fyrsmithlabs/debugassist/internal/rules"
)

// Load assembles a ready-to-serve Service from configured artifact paths.
// A missing corpus is tolerated: classification still works, trusted answers
// just carry no similar cases. Missing model artifacts are fatal.
func Load(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	vec, err := feature.Load(cfg.Artifacts.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("loading vectorizer: %w", err)
	}
	clf, err := model.LoadClassifier(cfg.Artifacts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("loading classifier: %w", err)
	}
	adapter, err := model.NewAdapter(vec, clf)
	if err != nil {
		return nil, err
	}

	books, err := playbook.Load(cfg.Artifacts.Playbooks)
	if err != nil {
		return nil, fmt.Errorf("loading playbooks: %w", err)
	}

	threshold := policy.DefaultThreshold
	if cfg.Policy.Threshold != nil {
		threshold = *cfg.Policy.Threshold
	}
	pol, err := policy.New(threshold, cfg.Policy.Alternatives)
	if err != nil {
		return nil, err
	}

	var index SimilarityIndex
	cases, err := corpus.ReadCases(cfg.Artifacts.Corpus)
	switch {
	case errors.Is(err, artifact.ErrMissing):
		logger.Warn("corpus missing, similar-case retrieval disabled",
			zap.String("path", cfg.Artifacts.Corpus))
	case err != nil:
		return nil, fmt.Errorf("loading corpus: %w", err)
	default:
		ix, err := retrieval.NewIndex(ctx, cases, vec, logger)
		if err != nil {
			return nil, err
		}
		index = ix
	}

	return New(rules.NewEngine(rules.DefaultRules()), adapter, pol, index, books, cfg.Retrieval.TopK, logger)
}
